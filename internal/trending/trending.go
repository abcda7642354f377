// Package trending serves the trending-claims listing with a short-lived
// cache and a static fallback when the service cannot be reached.
package trending

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/sells-group/capcheck/internal/resilience"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

// AllCategories selects every category.
const AllCategories = "all"

// Source says where a listing came from.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
	SourceMock  Source = "mock"
)

// Fetcher loads a listing from the remote service.
type Fetcher interface {
	Trending(ctx context.Context, category string) (*checkapi.TrendingResponse, error)
}

// Config controls caching and retries.
type Config struct {
	CacheTTL  time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheSize int           `yaml:"cache_size" mapstructure:"cache_size"`
	Retry     resilience.RetryConfig
}

// Service lists trending claims. It never fails: when the fetch fails the
// static mock listing is returned instead.
type Service struct {
	fetcher Fetcher
	cache   *expirable.LRU[string, *checkapi.TrendingResponse]
	retry   resilience.RetryConfig
	now     func() time.Time
}

// New creates a Service. Zero config values default to a 60s TTL, 32 cached
// categories and the default retry policy.
func New(fetcher Fetcher, cfg Config) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 60 * time.Second
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 32
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = resilience.DefaultRetryConfig()
	}
	if cfg.Retry.ShouldRetry == nil {
		cfg.Retry.ShouldRetry = retryable
	}
	if cfg.Retry.OnRetry == nil {
		cfg.Retry.OnRetry = resilience.RetryLogger("trending", "list")
	}
	return &Service{
		fetcher: fetcher,
		cache:   expirable.NewLRU[string, *checkapi.TrendingResponse](cfg.CacheSize, nil, cfg.CacheTTL),
		retry:   cfg.Retry,
		now:     time.Now,
	}
}

// List returns the listing for category.
func (s *Service) List(ctx context.Context, category string) (*checkapi.TrendingResponse, Source) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = AllCategories
	}

	if resp, ok := s.cache.Get(category); ok {
		return resp, SourceCache
	}

	resp, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*checkapi.TrendingResponse, error) {
		return s.fetcher.Trending(ctx, category)
	})
	if err != nil {
		zap.L().Info("trending: using mock data fallback", zap.String("category", category), zap.Error(err))
		return Mock(category, s.now()), SourceMock
	}

	s.cache.Add(category, resp)
	return resp, SourceLive
}

func retryable(err error) bool {
	var apiErr *checkapi.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}
