package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/capcheck/internal/config"
	"github.com/sells-group/capcheck/internal/gamification"
	"github.com/sells-group/capcheck/internal/history"
	"github.com/sells-group/capcheck/internal/orchestrator"
	"github.com/sells-group/capcheck/internal/probe"
	"github.com/sells-group/capcheck/internal/resilience"
	"github.com/sells-group/capcheck/internal/store"
	"github.com/sells-group/capcheck/internal/transport"
	"github.com/sells-group/capcheck/internal/trending"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

// clientEnv holds the clients and stores the client-side commands share.
type clientEnv struct {
	Store   store.Store
	Client  checkapi.Client
	Session *probe.Session
	Prober  *probe.Prober
	History *history.Reconciler
	Badges  *gamification.Tracker

	cfg *config.Config
}

// Close releases resources held by the environment.
func (e *clientEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens the configured key-value backend.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, store.Config{
		Driver:    c.Store.Driver,
		DSN:       c.Store.DSN,
		KeyPrefix: c.Store.KeyPrefix,
		Pool:      &store.PoolConfig{MaxConns: c.Store.MaxConns, MinConns: c.Store.MinConns},
	})
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// initClient validates c and builds the client environment. Badge unlocks
// are announced on out. Callers should defer env.Close().
func initClient(ctx context.Context, c *config.Config, out io.Writer) (*clientEnv, error) {
	if err := c.Validate("client"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}

	client := checkapi.NewClient(
		checkapi.WithBaseURL(c.Service.BaseURL),
		checkapi.WithHTTPClient(&http.Client{Timeout: c.Service.RequestTimeout}),
	)

	badges := gamification.New(st, gamification.WithUnlockHandler(func(b gamification.Badge) {
		fmt.Fprintf(out, "\n%s Badge unlocked: %s (%s)\n", b.Icon, b.Name, b.Description) //nolint:errcheck
	}))

	return &clientEnv{
		Store:   st,
		Client:  client,
		Session: probe.NewSession(),
		Prober:  probe.NewProber(client, c.Service.ProbeTimeout),
		History: history.New(st, history.WithMaxEntries(c.Verify.HistoryMax), history.WithCounter(badges)),
		Badges:  badges,
		cfg:     c,
	}, nil
}

// orchestrator builds the transport chain around the session.
func (e *clientEnv) orchestrator(opts ...orchestrator.Option) *orchestrator.Orchestrator {
	simulated := transport.NewSimulated(
		transport.WithDelay(e.cfg.Verify.SimulatedMinDelay, e.cfg.Verify.SimulatedMaxDelay),
	)
	base := []orchestrator.Option{
		orchestrator.WithRecorder(e.History),
		orchestrator.WithConfig(orchestrator.Config{
			StageInterval: e.cfg.Verify.StageInterval,
			TickInterval:  e.cfg.Verify.TickInterval,
			PresetTimeout: e.cfg.Verify.PresetTimeout,
		}),
	}
	return orchestrator.New(
		transport.NewStreaming(e.Client),
		transport.NewBuffered(e.Client),
		simulated,
		e.Session,
		append(base, opts...)...,
	)
}

// trendingService builds the trending listing, pointed at the trending base
// URL when one is configured.
func (e *clientEnv) trendingService() *trending.Service {
	fetcher := e.Client
	if e.cfg.Trending.BaseURL != "" {
		fetcher = checkapi.NewClient(checkapi.WithBaseURL(e.cfg.Trending.BaseURL))
	}
	return trending.New(fetcher, trending.Config{
		CacheTTL:  e.cfg.Trending.CacheTTL,
		CacheSize: e.cfg.Trending.CacheSize,
		Retry:     resilience.FromRetryConfig(e.cfg.Trending.Retries, 0),
	})
}
