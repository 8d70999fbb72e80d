package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
	"github.com/diogoX451/maestro/internal/store"
	"github.com/diogoX451/maestro/pkg/types"
)

// RunRepositoryImpl adapta o StateStore para a interface do Core
type RunRepositoryImpl struct {
	store store.StateStore
}

// Verifica interface
var _ ports.RunRepository = (*RunRepositoryImpl)(nil)

func NewRunRepository(s store.StateStore) *RunRepositoryImpl {
	return &RunRepositoryImpl{store: s}
}

func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run domain.RunResult) error {
	state := toRunState(run)
	if err := r.store.SaveRun(ctx, &state); err != nil {
		return fmt.Errorf("save run %s: %w", run.RunID, err)
	}
	return nil
}

// MarkPending registra um run aceito mas ainda não executado (modo async).
func (r *RunRepositoryImpl) MarkPending(ctx context.Context, runID, workflow string) error {
	now := time.Now().UTC()
	state := types.RunState{
		ID:        runID,
		Workflow:  workflow,
		Status:    types.RunPending,
		CreatedAt: now,
	}
	return r.store.SaveRun(ctx, &state)
}

func (r *RunRepositoryImpl) LoadRun(ctx context.Context, runID string) (*ports.RunRecord, error) {
	state, err := r.store.GetRun(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ports.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	rec := toRunRecord(*state)
	return &rec, nil
}

func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	ids, err := r.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ports.RunRecord, 0, len(ids))
	for _, id := range ids {
		state, err := r.store.GetRun(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			// Expirou pelo TTL, índice ainda tem a referência
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, toRunRecord(*state))
	}
	return out, nil
}

// --- conversões domain <-> types ---

func toRunState(run domain.RunResult) types.RunState {
	state := types.RunState{
		ID:        run.RunID,
		Workflow:  run.Workflow,
		Status:    run.Status,
		Stages:    toStageSnapshots(run.Stages),
		CreatedAt: run.StartedAt,
	}
	if !run.FinishedAt.IsZero() {
		finished := run.FinishedAt
		state.FinishedAt = &finished
	}
	if run.Error != "" {
		state.Error = run.Error
	} else if failed := run.Failed(); len(failed) > 0 {
		state.Error = fmt.Sprintf("failed stages: %v", failed)
	}
	return state
}

func toStageSnapshots(stages []domain.StageResult) []types.StageSnapshot {
	if stages == nil {
		return nil
	}
	out := make([]types.StageSnapshot, len(stages))
	for i, s := range stages {
		results := make([]types.AgentSnapshot, len(s.Results))
		for j, a := range s.Results {
			results[j] = types.AgentSnapshot{
				Agent:         a.Agent,
				Status:        string(a.Status),
				Outputs:       a.Outputs,
				CorrelationID: a.CorrelationID,
				Error:         a.Error,
				Attempts:      a.Attempts,
				DurationMs:    a.Duration.Milliseconds(),
			}
		}
		out[i] = types.StageSnapshot{
			StageID:   s.StageID,
			Name:      s.Name,
			Status:    string(s.Status),
			Results:   results,
			Substages: toStageSnapshots(s.Substages),
		}
	}
	return out
}

func toRunRecord(state types.RunState) ports.RunRecord {
	run := domain.RunResult{
		RunID:     state.ID,
		Workflow:  state.Workflow,
		Status:    state.Status,
		Stages:    toStageResults(state.Stages),
		StartedAt: state.CreatedAt,
	}
	if state.FinishedAt != nil {
		run.FinishedAt = *state.FinishedAt
	}
	run.Error = state.Error
	return ports.RunRecord{Result: run, Error: state.Error}
}

func toStageResults(stages []types.StageSnapshot) []domain.StageResult {
	if stages == nil {
		return nil
	}
	out := make([]domain.StageResult, len(stages))
	for i, s := range stages {
		results := make([]domain.AgentResult, len(s.Results))
		for j, a := range s.Results {
			results[j] = domain.AgentResult{
				Agent:         a.Agent,
				Status:        domain.AgentStatus(a.Status),
				Outputs:       a.Outputs,
				CorrelationID: a.CorrelationID,
				Error:         a.Error,
				Attempts:      a.Attempts,
				Duration:      time.Duration(a.DurationMs) * time.Millisecond,
			}
		}
		out[i] = domain.StageResult{
			StageID:   s.StageID,
			Name:      s.Name,
			Status:    domain.StageStatus(s.Status),
			Results:   results,
			Substages: toStageResults(s.Substages),
		}
	}
	return out
}
