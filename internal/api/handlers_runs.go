package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diogoX451/maestro/internal/api/dto"
	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/internal/core/ports"
	"github.com/diogoX451/maestro/internal/workflow"
	"github.com/diogoX451/maestro/pkg/types"
)

// Handler: POST /api/v1/runs
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	// Validação antes de aceitar: ConfigError nunca chega ao worker
	def, err := workflow.FromRaw(req.Workflow)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "INVALID_WORKFLOW", err.Error())
		return
	}

	runID := domain.NewRunID()
	if req.Async {
		s.submitRun(w, r, runID, def, req.Workflow)
		return
	}

	if s.deps.Runner == nil {
		respondError(w, http.StatusServiceUnavailable, "RUNNER_UNAVAILABLE", "synchronous runs are disabled")
		return
	}
	result, err := s.deps.Runner.RunWithID(r.Context(), runID, def)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, result)
	case domain.IsConfigError(err):
		respondError(w, http.StatusUnprocessableEntity, "INVALID_WORKFLOW", err.Error())
	default:
		// Run abortado: devolve o resultado parcial
		s.logger.Error("run aborted", "run_id", runID, "error", err)
		respondJSON(w, http.StatusInternalServerError, result)
	}
}

func (s *Server) submitRun(w http.ResponseWriter, r *http.Request, runID string, def domain.WorkflowDefinition, doc json.RawMessage) {
	if s.deps.Bus == nil {
		respondError(w, http.StatusServiceUnavailable, "BUS_UNAVAILABLE", "async runs require NATS")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.deps.Runs != nil {
		if err := s.deps.Runs.MarkPending(ctx, runID, def.Name); err != nil {
			respondError(w, http.StatusInternalServerError, "STORE_FAILED", err.Error())
			return
		}
	}

	cmd := types.RunCommand{
		RunID:     runID,
		Document:  types.Data(doc),
		Source:    "api",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.deps.Bus.PublishRunCommand(ctx, cmd); err != nil {
		respondError(w, http.StatusInternalServerError, "PUBLISH_FAILED", err.Error())
		return
	}

	// Responde 202 Accepted (processamento assíncrono)
	respondJSON(w, http.StatusAccepted, dto.RunAcceptedResponse{
		RunID:     runID,
		Status:    types.RunPending,
		CreatedAt: cmd.CreatedAt,
	})
}

// Handler: GET /api/v1/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "run store not configured")
		return
	}
	runID := chi.URLParam(r, "id")

	rec, err := s.deps.Runs.LoadRun(r.Context(), runID)
	if errors.Is(err, ports.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "run not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_FAILED", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rec.Result)
}

// Handler: GET /api/v1/runs?limit=
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		respondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "run store not configured")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.deps.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_FAILED", err.Error())
		return
	}
	runs := make([]domain.RunResult, len(records))
	for i, rec := range records {
		runs[i] = rec.Result
	}
	respondJSON(w, http.StatusOK, dto.RunListResponse{Runs: runs, Count: len(runs)})
}
