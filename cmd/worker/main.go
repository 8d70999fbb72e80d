package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/diogoX451/maestro/internal/app"
	"github.com/diogoX451/maestro/internal/config"
	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
	"github.com/diogoX451/maestro/internal/workflow"
	"github.com/diogoX451/maestro/pkg/types"
	"github.com/tidwall/gjson"
)

func main() {
	// Config
	cfg, err := config.Load("")
	if err != nil {
		config.NewLogger(config.AppConfig{}, os.Stderr).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.App, os.Stderr).With("worker_id", cfg.App.WorkerID)

	// Infra + core
	components, err := app.New(cfg, logger, app.Options{UseNATS: true, UseRedis: true})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	// Worker loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down")
		cancel()
	}()

	handler := commandHandler(components.Runner, logger)
	if err := components.Bus.SubscribeRunCommands(ctx, handler); err != nil {
		logger.Error("subscribe failed", "error", err)
		os.Exit(1)
	}

	logger.Info("worker started")
	<-ctx.Done()
}

type runner interface {
	RunWithID(ctx context.Context, runID string, def domain.WorkflowDefinition) (domain.RunResult, error)
	Reject(ctx context.Context, runID, workflow string, cause error) domain.RunResult
}

// commandHandler executa um run por comando. Documento inválido e falhas de agente
// são resultado final (ack); só erro de persistência pede redelivery.
func commandHandler(r runner, logger *slog.Logger) ports.RunCommandHandler {
	return func(ctx context.Context, cmd types.RunCommand) error {
		logger.Info("run command received", "run_id", cmd.RunID, "source", cmd.Source)

		def, err := workflow.FromRaw(cmd.Document)
		if err != nil {
			// Documento não parseia: grava o run como failed com a causa real
			r.Reject(ctx, cmd.RunID, documentName(cmd.Document), err)
			return nil
		}

		res, err := r.RunWithID(ctx, cmd.RunID, def)
		switch {
		case err == nil, domain.IsConfigError(err):
			return nil
		case errors.Is(err, context.Canceled):
			return err
		default:
			return fmt.Errorf("run %s %s: %w", cmd.RunID, res.Status, err)
		}
	}
}

// documentName melhor esforço para o nome do workflow de um documento inválido.
func documentName(doc types.Data) string {
	if name := gjson.GetBytes(doc, "name"); name.Type == gjson.String {
		return name.String()
	}
	return ""
}
