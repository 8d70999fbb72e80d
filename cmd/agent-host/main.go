package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/diogoX451/maestro/internal/config"
	"github.com/diogoX451/maestro/pkg/types"
)

// agent-host responde invocações remotas do HTTPExecutor com agentes simulados.
func main() {
	logger := config.NewLogger(config.AppConfig{
		LogLevel:  types.Getenv("MAESTRO_APP_LOG_LEVEL", "info"),
		LogFormat: types.Getenv("MAESTRO_APP_LOG_FORMAT", "text"),
	}, os.Stderr)

	addr := types.Getenv("MAESTRO_AGENT_HOST_ADDR", ":9000")
	delay, err := time.ParseDuration(types.Getenv("MAESTRO_AGENT_HOST_DELAY", "1s"))
	if err != nil {
		logger.Error("invalid MAESTRO_AGENT_HOST_DELAY", "error", err)
		os.Exit(1)
	}

	host := newHost(delay, splitList(types.Getenv("MAESTRO_AGENT_HOST_FAIL", "")), logger)
	srv := &http.Server{
		Addr:         addr,
		Handler:      host.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: delay + 30*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("agent host started", "addr", addr, "delay", delay)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("listen failed", "error", err)
		os.Exit(1)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
