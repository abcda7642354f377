// Package store is the durable key-value storage that client-side state
// (history, gamification, preferences) is written through.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = eris.New("store: key not found")

// Store is a flat key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Driver    string      `yaml:"driver" mapstructure:"driver"`
	DSN       string      `yaml:"dsn" mapstructure:"dsn"`
	KeyPrefix string      `yaml:"key_prefix" mapstructure:"key_prefix"`
	Pool      *PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Open creates the configured backend and runs its migration.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "capcheck.db"
		}
		s, err = NewSQLite(dsn)
	case DriverPostgres:
		s, err = NewPostgres(ctx, cfg.DSN, cfg.Pool)
	case DriverRedis:
		s, err = NewRedis(cfg.DSN)
	case DriverMemory:
		s = NewMemory()
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	if cfg.KeyPrefix != "" {
		s = WithPrefix(s, cfg.KeyPrefix)
	}
	return s, nil
}

// LoadJSON decodes the value at key into v. A missing key, a corrupt value
// or a read error leaves v untouched and returns false; the latter two are
// logged, never returned.
func LoadJSON(ctx context.Context, s Store, key string, v any) bool {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		zap.L().Warn("store: read failed, treating as empty", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		zap.L().Warn("store: corrupt value, treating as empty", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SaveJSON encodes v and stores it at key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "store: marshal %s", key)
	}
	return s.Set(ctx, key, data)
}

type prefixed struct {
	Store
	prefix string
}

// WithPrefix namespaces every key of s.
func WithPrefix(s Store, prefix string) Store {
	return &prefixed{Store: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte) error {
	return p.Store.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.Store.Delete(ctx, p.prefix+key)
}
