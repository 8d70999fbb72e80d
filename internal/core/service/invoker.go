package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
	"github.com/diogoX451/maestro/pkg/types"
)

// DefaultOrchestrator nome do remetente das mensagens do engine.
const DefaultOrchestrator = "orchestrator"

// DefaultAgentTimeout limite de uma invocação sem configuração explícita.
const DefaultAgentTimeout = 30 * time.Second

// AgentInvoker contrato usado pelo StageExecutor.
type AgentInvoker interface {
	Invoke(ctx context.Context, task domain.AgentTask) (domain.AgentResult, error)
}

// Invoker despacha uma tarefa para o executor do agente e registra a troca de mensagens.
type Invoker struct {
	resolver     domain.ExecutorResolver
	log          ports.MessageLog
	orchestrator string
	timeout      time.Duration
	status       ports.StatusPublisher
	logger       *slog.Logger
	metrics      *Metrics
}

var _ AgentInvoker = (*Invoker)(nil)

// InvokerOption configura o Invoker.
type InvokerOption func(*Invoker)

// WithOrchestrator nome usado como remetente dos requests; vazio mantém o padrão.
func WithOrchestrator(name string) InvokerOption {
	return func(i *Invoker) {
		if name != "" {
			i.orchestrator = name
		}
	}
}

// WithAgentTimeout limite por invocação; valores <= 0 são ignorados.
func WithAgentTimeout(d time.Duration) InvokerOption {
	return func(i *Invoker) {
		if d > 0 {
			i.timeout = d
		}
	}
}

// WithInvokerStatus publica eventos de agente.
func WithInvokerStatus(p ports.StatusPublisher) InvokerOption {
	return func(i *Invoker) { i.status = p }
}

// WithInvokerLogger logger das invocações.
func WithInvokerLogger(l *slog.Logger) InvokerOption {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithInvokerMetrics coletores prometheus.
func WithInvokerMetrics(m *Metrics) InvokerOption {
	return func(i *Invoker) { i.metrics = m }
}

func NewInvoker(resolver domain.ExecutorResolver, log ports.MessageLog, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		resolver:     resolver,
		log:          log,
		orchestrator: DefaultOrchestrator,
		timeout:      DefaultAgentTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke executa uma invocação. O erro retornado é sempre PersistenceError;
// falhas de despacho e do agente ficam no AgentResult.
func (i *Invoker) Invoke(ctx context.Context, task domain.AgentTask) (domain.AgentResult, error) {
	start := time.Now()
	result := domain.AgentResult{
		Agent:    task.Agent,
		Status:   domain.AgentFailed,
		Outputs:  cloneOutputs(task.Outputs),
		Attempts: 1,
	}

	// 1. Sem destinatário não há mensagem a registrar
	if task.Agent == "" {
		result.Error = (&domain.DispatchError{Err: domain.ErrEmptyAgentName}).Error()
		i.finish(ctx, &result, start)
		return result, nil
	}

	// 2. Resolve executor
	exec, err := i.resolver.Resolve(task.Agent)
	if err != nil {
		dispatchErr := &domain.DispatchError{Agent: task.Agent, Err: err}
		result.Error = dispatchErr.Error()
		msg, appendErr := i.record(ctx, i.orchestrator, task.Agent, domain.MessageError,
			map[string]any{"error": dispatchErr.Error(), "scope": task.Scope}, "")
		result.CorrelationID = msg.CorrelationID()
		i.finish(ctx, &result, start)
		return result, appendErr
	}

	// 3. REQUEST orchestrator -> agent
	request, err := i.record(ctx, i.orchestrator, task.Agent, domain.MessageRequest,
		map[string]any{"scope": task.Scope, "outputs": cloneOutputs(task.Outputs)}, "")
	if err != nil {
		result.Error = err.Error()
		i.finish(ctx, &result, start)
		return result, err
	}
	result.CorrelationID = request.CorrelationID()
	i.publishAgent(ctx, types.AgentEvent{
		Agent:         task.Agent,
		CorrelationID: result.CorrelationID,
		Phase:         types.PhaseStarted,
		At:            time.Now().UTC(),
	})
	i.logger.Info("agent started", "agent", task.Agent, "scope", task.Scope, "correlation_id", result.CorrelationID)

	// 4. Executa com prazo
	outcome, failure := i.perform(ctx, exec, task, result.CorrelationID)

	// 5. Resposta
	if failure == nil {
		result.Status = domain.AgentSuccess
		payload := map[string]any{"status": string(domain.AgentSuccess), "outputs": cloneOutputs(task.Outputs)}
		if outcome.Detail != "" {
			payload["detail"] = outcome.Detail
		}
		if len(outcome.Data) > 0 {
			payload["data"] = outcome.Data
		}
		_, err = i.record(ctx, task.Agent, i.orchestrator, domain.MessageResponse, payload, result.CorrelationID)
	} else {
		result.Error = failure.Error()
		_, err = i.record(ctx, task.Agent, i.orchestrator, domain.MessageError,
			map[string]any{"error": failure.Error(), "scope": task.Scope}, result.CorrelationID)
	}

	i.finish(ctx, &result, start)
	return result, err
}

// perform chama o executor sob timeout; pânico do executor vira falha.
func (i *Invoker) perform(ctx context.Context, exec domain.AgentExecutor, task domain.AgentTask, correlationID string) (outcome domain.Outcome, failure error) {
	callCtx, cancel := context.WithTimeout(domain.WithCorrelationID(ctx, correlationID), i.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			failure = &domain.AgentFailure{Agent: task.Agent, Err: fmt.Errorf("executor panic: %v", r)}
		}
	}()

	outcome, err := exec.Perform(callCtx, task)
	switch {
	case err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return outcome, &domain.AgentFailure{Agent: task.Agent, Err: fmt.Errorf("timed out after %s", i.timeout)}
	case err != nil:
		return outcome, &domain.AgentFailure{Agent: task.Agent, Err: err}
	case !outcome.Success:
		detail := outcome.Detail
		if detail == "" {
			detail = "agent reported failure"
		}
		return outcome, &domain.AgentFailure{Agent: task.Agent, Detail: detail}
	}
	return outcome, nil
}

// record constrói e grava uma mensagem; falha de escrita vira PersistenceError.
func (i *Invoker) record(ctx context.Context, from, to string, msgType domain.MessageType, payload map[string]any, correlationID string) (domain.Message, error) {
	msg, err := domain.NewMessage(from, to, msgType, payload, correlationID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("build %s message: %w", msgType, err)
	}
	err = i.log.Append(ctx, msg)
	i.metrics.observeAppend(string(msgType), err)
	if err != nil {
		return msg, &domain.PersistenceError{Op: "append " + string(msgType), Err: err}
	}
	return msg, nil
}

func (i *Invoker) finish(ctx context.Context, result *domain.AgentResult, start time.Time) {
	result.Duration = time.Since(start)
	i.metrics.observeInvocation(result.Agent, string(result.Status), result.Duration)

	attrs := []any{
		"agent", result.Agent,
		"status", result.Status,
		"correlation_id", result.CorrelationID,
		"duration", result.Duration,
	}
	if result.Succeeded() {
		i.logger.Info("agent completed", attrs...)
	} else {
		i.logger.Warn("agent completed", append(attrs, "error", result.Error)...)
	}

	i.publishAgent(ctx, types.AgentEvent{
		Agent:         result.Agent,
		CorrelationID: result.CorrelationID,
		Phase:         types.PhaseCompleted,
		Status:        string(result.Status),
		Error:         result.Error,
		At:            time.Now().UTC(),
	})
}

func (i *Invoker) publishAgent(ctx context.Context, event types.AgentEvent) {
	if i.status == nil {
		return
	}
	if err := i.status.PublishAgentEvent(ctx, event); err != nil {
		i.logger.Warn("failed to publish agent event", "agent", event.Agent, "error", err)
	}
}

func cloneOutputs(outputs []string) []string {
	out := make([]string, len(outputs))
	copy(out, outputs)
	return out
}
