package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-gateway/config"
	"contact-gateway/contact"
	"contact-gateway/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Stdout)
	cancel()
	if err != nil {
		// config pode ter falhado: usa o logger default
		log := logging.New(logging.Options{})
		log.Fatal().Err(err).Msg("contact gateway failed")
	}
}

// run sobe o gateway e bloqueia até ctx ser cancelado ou o servidor falhar.
func run(ctx context.Context, w io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: w})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	comp, err := contact.Build(cfg, log, reg)
	if err != nil {
		return fmt.Errorf("build contact gateway: %w", err)
	}
	defer comp.Close()
	comp.Start(ctx)

	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.ListenAddr, err)
	}

	srv := &http.Server{
		Handler:           contact.NewRouter(comp.RouterOptions(cfg, log, reg, reg)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	log.Info().
		Str("addr", ln.Addr().String()).
		Str("provider", cfg.Email.Provider).
		Bool("test_mode", cfg.Email.TestMode).
		Msg("contact gateway listening")
	log.Info().
		Str("backend", cfg.RateLimit.Backend).
		Dur("window", cfg.RateLimit.Window).
		Int("max", cfg.RateLimit.Max).
		Int("breaker_threshold", cfg.Breaker.Threshold).
		Dur("breaker_timeout", cfg.Breaker.Timeout).
		Msg("rate limit and circuit breaker")
	log.Info().
		Bool("edge_enabled", cfg.Edge.Enabled).
		Float64("edge_rps", cfg.Edge.RPS).
		Int("edge_burst", cfg.Edge.Burst).
		Bool("trust_xff", cfg.Server.TrustXFF).
		Int("concurrency_max", cfg.Concurrency.Max).
		Dur("concurrency_timeout", cfg.Concurrency.Timeout).
		Bool("stats_enabled", cfg.Stats.Enabled).
		Msg("edge protection")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	log.Info().Msg("contact gateway stopped")
	return nil
}
