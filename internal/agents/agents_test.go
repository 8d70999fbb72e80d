package agents

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.Register("alice", Succeed())

	exec, err := reg.Resolve("alice")
	require.NoError(t, err)
	assert.NotNil(t, exec)

	_, err = reg.Resolve("bob")
	assert.True(t, errors.Is(err, domain.ErrUnknownAgent))

	reg.SetFallback(Fail("nope"))
	exec, err = reg.Resolve("bob")
	require.NoError(t, err)
	out, err := exec.Perform(context.Background(), domain.AgentTask{Agent: "bob"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "nope", out.Detail)

	assert.Equal(t, []string{"alice"}, reg.Names())
}

func TestBuildRegistry(t *testing.T) {
	reg := Build(Options{
		Endpoints: map[string]string{"remote": "http://localhost:1"},
		Simulate:  true,
		Delay:     time.Millisecond,
	})
	exec, err := reg.Resolve("remote")
	require.NoError(t, err)
	assert.IsType(t, &HTTPExecutor{}, exec)

	exec, err = reg.Resolve("anyone")
	require.NoError(t, err)
	assert.IsType(t, &DelayExecutor{}, exec)

	_, err = Build(Options{}).Resolve("anyone")
	assert.Error(t, err)
}

func TestDelayExecutor(t *testing.T) {
	t.Run("completes after delay", func(t *testing.T) {
		exec := NewDelayExecutor(10 * time.Millisecond)
		start := time.Now()
		out, err := exec.Perform(context.Background(), domain.AgentTask{Agent: "a", Scope: "s"})
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		exec := NewDelayExecutor(time.Hour)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := exec.Perform(ctx, domain.AgentTask{Agent: "a"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRequestBody(t *testing.T) {
	body, err := RequestBody(domain.AgentTask{Agent: "alice", Scope: "build"}, "corr-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"agent":"alice","scope":"build","outputs":[],"correlation_id":"corr-1"}`, string(body))
}

func TestHTTPExecutor(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &received)
		switch received["agent"] {
		case "ok":
			_, _ = w.Write([]byte(`{"status":"success","artifact":"a.txt"}`))
		case "soft-fail":
			_, _ = w.Write([]byte(`{"status":"failure","error":"bad input"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"exploded"}`))
		}
	}))
	defer srv.Close()

	exec := NewHTTPExecutor(HTTPConfig{URL: srv.URL, Timeout: time.Second})
	ctx := domain.WithCorrelationID(context.Background(), "corr-9")

	t.Run("success", func(t *testing.T) {
		out, err := exec.Perform(ctx, domain.AgentTask{Agent: "ok", Outputs: []string{"a.txt"}})
		require.NoError(t, err)
		assert.True(t, out.Success)
		assert.Equal(t, "a.txt", out.Data["artifact"])
		assert.Equal(t, "corr-9", received["correlation_id"])
	})

	t.Run("agent reported failure", func(t *testing.T) {
		out, err := exec.Perform(ctx, domain.AgentTask{Agent: "soft-fail"})
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "bad input", out.Detail)
	})

	t.Run("http error status", func(t *testing.T) {
		out, err := exec.Perform(ctx, domain.AgentTask{Agent: "boom"})
		require.NoError(t, err)
		assert.False(t, out.Success)
		assert.Equal(t, "exploded", out.Detail)
	})

	t.Run("unreachable", func(t *testing.T) {
		dead := NewHTTPExecutor(HTTPConfig{URL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
		_, err := dead.Perform(context.Background(), domain.AgentTask{Agent: "x"})
		assert.Error(t, err)
	})
}
