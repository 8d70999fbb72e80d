package api

import (
	"net/http"
	"time"

	"github.com/diogoX451/maestro/internal/adapters/messagelog"
	"github.com/diogoX451/maestro/internal/api/dto"
	"github.com/diogoX451/maestro/pkg/types"
)

// Handler: GET /api/v1/messages?date=YYYYMMDD
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	if s.deps.Messages == nil {
		respondError(w, http.StatusNotImplemented, "LOG_UNREADABLE", "configured message log cannot be read back")
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := messagelog.ParsePartitionKey(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_DATE", "date must be YYYYMMDD or YYYY-MM-DD")
			return
		}
		day = parsed
	}

	msgs, err := s.deps.Messages.Messages(r.Context(), day)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "LOG_FAILED", err.Error())
		return
	}
	records := make([]types.LogRecord, len(msgs))
	for i, m := range msgs {
		records[i] = m.Record()
	}
	respondJSON(w, http.StatusOK, dto.MessagesResponse{
		Date:     messagelog.PartitionKey(day),
		Messages: records,
		Count:    len(records),
	})
}
