package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/capcheck/internal/config"
	"github.com/sells-group/capcheck/internal/gateway"
	"github.com/sells-group/capcheck/internal/resilience"
	"github.com/sells-group/capcheck/internal/trending"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API gateway in front of the verification backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		gw := gateway.New(gatewayConfig(cfg))
		port := resolvePort(servePort, cfg.Server.Port)
		return startServer(ctx, gw.Handler(), port, cfg.Server.ShutdownTimeout)
	},
}

func gatewayConfig(c *config.Config) gateway.Config {
	breaker := resilience.FromBreakerConfig(c.Server.BreakerThreshold, c.Server.BreakerReset)
	breaker.OnStateChange = func(from, to resilience.BreakerState) {
		zap.L().Warn("gateway: backend breaker changed state",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
	return gateway.Config{
		BackendURL:     c.Server.BackendURL,
		AllowedOrigins: c.Server.AllowedOrigins,
		RateLimit:      c.Server.RateLimit,
		RateBurst:      c.Server.RateBurst,
		RequestTimeout: c.Server.RequestTimeout,
		Breaker:        breaker,
		Trending: trending.Config{
			CacheTTL:  c.Trending.CacheTTL,
			CacheSize: c.Trending.CacheSize,
			Retry:     resilience.FromRetryConfig(c.Trending.Retries, 0),
		},
	}
}

func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves handler on port until ctx is cancelled, then drains
// in-flight requests for up to shutdownTimeout.
func startServer(ctx context.Context, handler http.Handler, port int, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return eris.Wrap(err, "server shutdown")
		}
		return nil
	})
	return g.Wait()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
