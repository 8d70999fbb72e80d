package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diogoX451/maestro/internal/api"
	"github.com/diogoX451/maestro/internal/app"
	"github.com/diogoX451/maestro/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		config.NewLogger(config.AppConfig{}, os.Stderr).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.App, os.Stderr)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	logger.Info("connecting to NATS and Redis")
	components, err := app.New(cfg, logger, app.Options{UseNATS: true, UseRedis: true, Registerer: reg})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	server := api.NewServer(api.Deps{
		Runner:   components.Runner,
		Bus:      components.Bus,
		Runs:     components.Runs,
		Messages: components.Sinks.Reader,
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("could not gracefully shutdown the server", "error", err)
		}
		close(done)
	}()

	logger.Info("server is ready to handle requests", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("could not listen", "addr", srv.Addr, "error", err)
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}
