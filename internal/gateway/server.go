// Package gateway is the HTTP front for the verification backend. It
// validates and reshapes requests for browser and CLI clients, proxies the
// progress stream, and reports backend unavailability with the fallback
// flag clients use to switch transports.
package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/capcheck/internal/resilience"
	"github.com/sells-group/capcheck/internal/trending"
	"github.com/sells-group/capcheck/pkg/checkapi"
)

// Config configures the gateway.
type Config struct {
	BackendURL     string        `yaml:"backend_url" mapstructure:"backend_url"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit      float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int           `yaml:"rate_burst" mapstructure:"rate_burst"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	Breaker        resilience.BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Trending       trending.Config          `yaml:"trending" mapstructure:"trending"`
}

// Server handles the public API.
type Server struct {
	backend  *backend
	trending *trending.Service
	breaker  *resilience.Breaker
	limiter  *rate.Limiter
	origins  []string
}

// New creates a gateway for cfg.
func New(cfg Config) *Server {
	if cfg.BackendURL == "" {
		cfg.BackendURL = "http://localhost:8000"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 90 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}
	be := &backend{
		baseURL: cfg.BackendURL,
		http:    &http.Client{Timeout: cfg.RequestTimeout, Transport: transport},
		stream:  &http.Client{Transport: transport},
	}

	return &Server{
		backend: be,
		trending: trending.New(
			checkapi.NewClient(checkapi.WithBaseURL(cfg.BackendURL), checkapi.WithHTTPClient(be.http)),
			cfg.Trending,
		),
		breaker: resilience.NewBreaker(cfg.Breaker),
		limiter: rate.NewLimiter(limit, burst),
		origins: cfg.AllowedOrigins,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Cache-Control"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.With(s.rateLimit).Post("/check", s.handleCheck)
		r.Get("/check", s.handleHealth)
		r.With(s.rateLimit).Get("/check/stream", s.handleStream)
		r.Get("/trending", s.handleTrending)
	})
	return r
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, checkapi.ErrorResponse{Error: "Too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("gateway: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
