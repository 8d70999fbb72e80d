package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
	"github.com/diogoX451/maestro/pkg/types"
)

// FailurePolicy decide o que acontece depois de um estágio FAILED.
type FailurePolicy string

const (
	// PolicyContinue estágios seguintes rodam mesmo após falha de agente.
	PolicyContinue FailurePolicy = "continue"
	// PolicyHalt interrompe o run no primeiro estágio FAILED.
	PolicyHalt FailurePolicy = "halt"
)

func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", PolicyContinue:
		return PolicyContinue, nil
	case PolicyHalt:
		return PolicyHalt, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", raw)
	}
}

// Runner executa workflows completos.
type Runner struct {
	invoker     AgentInvoker
	policy      FailurePolicy
	maxParallel int
	repo        ports.RunRepository
	status      ports.StatusPublisher
	logger      *slog.Logger
	metrics     *Metrics
	now         func() time.Time
}

// RunnerOption configura o Runner.
type RunnerOption func(*Runner)

// WithFailurePolicy define continue ou halt após estágio com falha.
func WithFailurePolicy(p FailurePolicy) RunnerOption {
	return func(r *Runner) {
		if p != "" {
			r.policy = p
		}
	}
}

// WithDefaultMaxParallel limite usado quando o workflow não define runtime.max_parallel.
func WithDefaultMaxParallel(n int) RunnerOption {
	return func(r *Runner) { r.maxParallel = n }
}

// WithRunRepository persiste o resultado final.
func WithRunRepository(repo ports.RunRepository) RunnerOption {
	return func(r *Runner) { r.repo = repo }
}

// WithRunnerStatus publica o resultado do run.
func WithRunnerStatus(p ports.StatusPublisher) RunnerOption {
	return func(r *Runner) { r.status = p }
}

// WithRunnerLogger logger do run.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRunnerMetrics coletores prometheus.
func WithRunnerMetrics(m *Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

func NewRunner(invoker AgentInvoker, opts ...RunnerOption) *Runner {
	r := &Runner{
		invoker: invoker,
		policy:  PolicyContinue,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executa def com um run id novo.
func (r *Runner) Run(ctx context.Context, def domain.WorkflowDefinition) (domain.RunResult, error) {
	return r.RunWithID(ctx, domain.NewRunID(), def)
}

// RunWithID executa def. ConfigError sai antes de qualquer invocação;
// PersistenceError aborta o run e volta junto com o resultado parcial.
func (r *Runner) RunWithID(ctx context.Context, runID string, def domain.WorkflowDefinition) (domain.RunResult, error) {
	result := domain.RunResult{
		RunID:     runID,
		Workflow:  def.Name,
		Status:    types.RunRunning,
		Stages:    []domain.StageResult{},
		StartedAt: r.now().UTC(),
	}
	logger := r.logger.With("run_id", runID, "workflow", def.Name)

	// 1. Valida antes de despachar qualquer agente
	if err := def.Validate(); err != nil {
		return r.Reject(ctx, runID, def.Name, err), err
	}

	maxParallel := r.maxParallel
	if def.Runtime.MaxParallel > 0 {
		maxParallel = def.Runtime.MaxParallel
	}
	executor := NewStageExecutor(r.invoker,
		WithRunID(runID),
		WithMaxParallel(maxParallel),
		WithExecutorStatus(r.status),
		WithExecutorLogger(logger),
		WithExecutorMetrics(r.metrics),
	)

	logger.Info("run started", "stages", len(def.Stages), "policy", r.policy)

	// 2. Estágios de topo em ordem
	var runErr error
	halted := false
	for _, stage := range def.Stages {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		res, err := executor.ExecuteStage(ctx, stage)
		result.Stages = append(result.Stages, res)
		if err != nil {
			runErr = err
			break
		}
		if !res.Succeeded() && r.policy == PolicyHalt {
			logger.Warn("halting after failed stage", "stage_id", stage.StageID)
			halted = true
			break
		}
	}

	// 3. Status final
	switch {
	case runErr != nil:
		result.Status = types.RunAborted
		result.Error = runErr.Error()
	case halted || len(result.Failed()) > 0:
		result.Status = types.RunFailed
	default:
		result.Status = types.RunCompleted
	}
	result.FinishedAt = r.now().UTC()

	r.finish(ctx, logger, result)
	return result, runErr
}

// Reject registra runID como failed sem executar nada; cause vira o erro do run.
func (r *Runner) Reject(ctx context.Context, runID, workflow string, cause error) domain.RunResult {
	now := r.now().UTC()
	result := domain.RunResult{
		RunID:      runID,
		Workflow:   workflow,
		Status:     types.RunFailed,
		Stages:     []domain.StageResult{},
		Error:      cause.Error(),
		StartedAt:  now,
		FinishedAt: now,
	}
	logger := r.logger.With("run_id", runID, "workflow", workflow)
	logger.Error("workflow rejected", "error", cause)
	r.finish(ctx, logger, result)
	return result
}

// finish grava, publica e escreve a linha de resumo.
func (r *Runner) finish(ctx context.Context, logger *slog.Logger, result domain.RunResult) {
	r.metrics.observeRun(string(result.Status))

	attrs := []any{
		"status", result.Status,
		"stages", len(result.Stages),
		"failed", result.Failed(),
		"duration", result.FinishedAt.Sub(result.StartedAt),
	}
	if result.Error != "" {
		attrs = append(attrs, "error", result.Error)
	}
	logger.Info("run finished", attrs...)

	// Persistência e publicação usam ctx próprio: o run pode ter sido cancelado
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if r.repo != nil {
		if err := r.repo.SaveRun(saveCtx, result); err != nil {
			logger.Error("failed to save run", "error", err)
		}
	}
	if r.status != nil {
		event := types.ResultEvent{
			RunID:      result.RunID,
			Workflow:   result.Workflow,
			Status:     result.Status,
			Error:      result.Error,
			FinishedAt: result.FinishedAt,
		}
		if err := r.status.PublishRunResult(saveCtx, event); err != nil {
			logger.Warn("failed to publish run result", "error", err)
		}
	}
}
