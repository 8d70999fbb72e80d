package dto

import (
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/diogoX451/maestro/pkg/types"
)

type RunAcceptedResponse struct {
	RunID     string          `json:"run_id"`
	Status    types.RunStatus `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type RunListResponse struct {
	Runs  []domain.RunResult `json:"runs"`
	Count int                `json:"count"`
}

type MessagesResponse struct {
	Date     string            `json:"date"`
	Messages []types.LogRecord `json:"messages"`
	Count    int               `json:"count"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
