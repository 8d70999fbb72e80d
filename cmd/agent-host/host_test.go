package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diogoX451/maestro/internal/agents"
	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostAnswersHTTPExecutor(t *testing.T) {
	h := newHost(time.Millisecond, []string{"grumpy"}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv := httptest.NewServer(h.routes())
	defer srv.Close()

	exec := agents.NewHTTPExecutor(agents.HTTPConfig{URL: srv.URL + "/invoke", Timeout: time.Second})
	ctx := domain.WithCorrelationID(context.Background(), "c-1")

	out, err := exec.Perform(ctx, domain.AgentTask{Agent: "happy", Outputs: []string{"a"}})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "c-1", out.Data["correlation_id"])

	out, err = exec.Perform(ctx, domain.AgentTask{Agent: "grumpy"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "agent configured to fail", out.Detail)
}

func TestHostRejectsInvalidBody(t *testing.T) {
	h := newHost(0, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := httptest.NewRecorder()
	h.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agents/x", bytes.NewBufferString("not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
