package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
	"github.com/diogoX451/maestro/pkg/types"
	"github.com/sourcegraph/conc/pool"
)

// StageExecutor executa um estágio (e seus substages) de um run.
type StageExecutor struct {
	invoker     AgentInvoker
	runID       string
	maxParallel int
	status      ports.StatusPublisher
	logger      *slog.Logger
	metrics     *Metrics
}

// ExecutorOption configura o StageExecutor.
type ExecutorOption func(*StageExecutor)

// WithMaxParallel limita o fan-out de estágios parallel; 0 = sem limite.
func WithMaxParallel(n int) ExecutorOption {
	return func(e *StageExecutor) {
		if n > 0 {
			e.maxParallel = n
		}
	}
}

// WithRunID run id anexado aos eventos de estágio.
func WithRunID(id string) ExecutorOption {
	return func(e *StageExecutor) { e.runID = id }
}

// WithExecutorStatus publica eventos de estágio.
func WithExecutorStatus(p ports.StatusPublisher) ExecutorOption {
	return func(e *StageExecutor) { e.status = p }
}

// WithExecutorLogger logger dos estágios.
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(e *StageExecutor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithExecutorMetrics coletores prometheus.
func WithExecutorMetrics(m *Metrics) ExecutorOption {
	return func(e *StageExecutor) { e.metrics = m }
}

func NewStageExecutor(invoker AgentInvoker, opts ...ExecutorOption) *StageExecutor {
	e := &StageExecutor{
		invoker: invoker,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteStage devolve o resultado do estágio na ordem de declaração.
// Só PersistenceError (ou cancelamento) sai como erro, junto com o resultado parcial.
func (e *StageExecutor) ExecuteStage(ctx context.Context, stage domain.StageDescriptor) (domain.StageResult, error) {
	e.stageEvent(ctx, stage, types.PhaseStarted, "")

	var (
		result domain.StageResult
		err    error
		mode   = stage.Mode
	)
	switch {
	case stage.HasSubstages():
		// Substages sempre em sequência, o modo do pai é ignorado
		mode = domain.ModeSequential
		result, err = e.executeSubstages(ctx, stage)
	case stage.Mode == domain.ModeParallel:
		result, err = e.executeParallel(ctx, stage)
	default:
		mode = domain.ModeSequential
		result, err = e.executeSequential(ctx, stage)
	}

	e.metrics.observeStage(string(mode), string(result.Status))
	e.stageEvent(ctx, stage, types.PhaseCompleted, string(result.Status))
	return result, err
}

func (e *StageExecutor) executeSubstages(ctx context.Context, stage domain.StageDescriptor) (domain.StageResult, error) {
	subs := make([]domain.StageResult, 0, len(stage.Substages))
	for _, sub := range stage.Substages {
		if err := ctx.Err(); err != nil {
			return domain.NewCompositeResult(stage, subs), err
		}
		res, err := e.ExecuteStage(ctx, sub)
		subs = append(subs, res)
		if err != nil {
			return domain.NewCompositeResult(stage, subs), err
		}
	}
	return domain.NewCompositeResult(stage, subs), nil
}

func (e *StageExecutor) executeSequential(ctx context.Context, stage domain.StageDescriptor) (domain.StageResult, error) {
	results := make([]domain.AgentResult, 0, len(stage.Agents))
	for _, task := range stage.Agents {
		if err := ctx.Err(); err != nil {
			return domain.NewLeafResult(stage, results), err
		}
		res, err := e.invoke(ctx, task, stage.Retries)
		results = append(results, res)
		if err != nil {
			return domain.NewLeafResult(stage, results), err
		}
	}
	return domain.NewLeafResult(stage, results), nil
}

// executeParallel dispara todos, espera todos; resultado na posição de submissão.
func (e *StageExecutor) executeParallel(ctx context.Context, stage domain.StageDescriptor) (domain.StageResult, error) {
	results := make([]domain.AgentResult, len(stage.Agents))

	p := pool.New().WithErrors()
	if e.maxParallel > 0 {
		p = p.WithMaxGoroutines(e.maxParallel)
	}
	for idx, task := range stage.Agents {
		idx, task := idx, task
		p.Go(func() error {
			res, err := e.invoke(ctx, task, stage.Retries)
			results[idx] = res
			return err
		})
	}
	err := p.Wait()
	return domain.NewLeafResult(stage, results), err
}

// invoke aplica o orçamento de retries do estágio sobre resultados FAILURE.
func (e *StageExecutor) invoke(ctx context.Context, task domain.AgentTask, retries int) (domain.AgentResult, error) {
	var (
		res domain.AgentResult
		err error
	)
	for attempt := 1; attempt <= retries+1; attempt++ {
		res, err = e.invoker.Invoke(ctx, task)
		res.Attempts = attempt
		if err != nil || res.Succeeded() || ctx.Err() != nil {
			break
		}
		if attempt <= retries {
			e.logger.Info("retrying agent", "agent", task.Agent, "attempt", attempt+1, "error", res.Error)
		}
	}
	return res, err
}

func (e *StageExecutor) stageEvent(ctx context.Context, stage domain.StageDescriptor, phase types.EventPhase, status string) {
	attrs := []any{"run_id", e.runID, "stage_id", stage.StageID, "name", stage.Name}
	if phase == types.PhaseStarted {
		e.logger.Info("stage started", append(attrs, "mode", stage.Mode)...)
	} else {
		e.logger.Info("stage completed", append(attrs, "status", status)...)
	}

	if e.status == nil {
		return
	}
	event := types.StageEvent{
		RunID:   e.runID,
		StageID: stage.StageID,
		Name:    stage.Name,
		Phase:   phase,
		Status:  status,
		At:      time.Now().UTC(),
	}
	if err := e.status.PublishStageEvent(ctx, event); err != nil {
		e.logger.Warn("failed to publish stage event", "stage_id", stage.StageID, "error", err)
	}
}
