package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/diogoX451/maestro/internal/app"
	"github.com/diogoX451/maestro/internal/config"
	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/workflow"
	"github.com/diogoX451/maestro/pkg/types"
)

// Execute carrega, executa e imprime o resumo; exit != 0 quando o run não completa.
func (c *RunCmd) Execute(_ []string) error {
	cfg, err := config.Load(c.root.Config)
	if err != nil {
		return err
	}
	if c.Policy != "" {
		cfg.Engine.FailurePolicy = c.Policy
	}
	if c.MaxParallel > 0 {
		cfg.Engine.MaxParallel = c.MaxParallel
	}
	if c.LogDir != "" {
		cfg.MessageLog.Dir = c.LogDir
	}
	logger := config.NewLogger(cfg.App, os.Stderr)

	def, err := workflow.Load(c.Args.File)
	if err != nil {
		return err
	}

	components, err := app.New(cfg, logger, app.Options{UseNATS: c.Publish})
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := components.Runner.Run(ctx, def)
	if c.JSON {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printSummary(c.out, result)
	}

	if runErr != nil {
		return runErr
	}
	if !result.Succeeded() {
		return errRunNotCompleted
	}
	return nil
}

func (c *ValidateCmd) Execute(_ []string) error {
	def, err := workflow.Load(c.Args.File)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s: ok (%d stages)\n", def.Name, def.StageCount())
	return nil
}

// Execute publica o documento como RunCommand; o worker executa.
func (c *SubmitCmd) Execute(_ []string) error {
	cfg, err := config.Load(c.root.Config)
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.App, os.Stderr)

	raw, err := os.ReadFile(c.Args.File)
	if err != nil {
		return fmt.Errorf("read workflow %s: %w", c.Args.File, err)
	}
	def, err := workflow.Parse(raw)
	if err != nil {
		return err
	}
	doc, err := documentField(raw)
	if err != nil {
		return err
	}

	components, err := app.New(cfg, logger, app.Options{UseNATS: true, UseRedis: true})
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runID := domain.NewRunID()
	if err := components.Runs.MarkPending(ctx, runID, def.Name); err != nil {
		return err
	}
	cmd := types.RunCommand{RunID: runID, Document: doc, Source: "cli", CreatedAt: time.Now().UTC()}
	if err := components.Bus.PublishRunCommand(ctx, cmd); err != nil {
		return err
	}
	fmt.Fprintln(c.out, runID)
	return nil
}

// documentField embute o documento no comando: JSON vai como está, YAML como string.
func documentField(raw []byte) (types.Data, error) {
	if json.Valid(raw) {
		return types.Data(raw), nil
	}
	encoded, err := json.Marshal(string(raw))
	if err != nil {
		return nil, err
	}
	return types.Data(encoded), nil
}

func printSummary(w io.Writer, result domain.RunResult) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s (%s): %s\n", result.RunID, result.Workflow, result.Status)
	var walk func(stages []domain.StageResult, depth int)
	walk = func(stages []domain.StageResult, depth int) {
		indent := strings.Repeat("  ", depth)
		for _, s := range stages {
			fmt.Fprintf(tw, "%s%s\t%s\t%s\n", indent, s.StageID, s.Name, s.Status)
			for _, r := range s.Results {
				line := fmt.Sprintf("%s  - %s\t%s\t%s", indent, r.Agent, r.Status, r.Duration.Round(time.Millisecond))
				if r.Error != "" {
					line += "\t" + r.Error
				}
				fmt.Fprintln(tw, line)
			}
			walk(s.Substages, depth+1)
		}
	}
	walk(result.Stages, 0)
	if result.Error != "" {
		fmt.Fprintf(tw, "error: %s\n", result.Error)
	}
	tw.Flush()
}
