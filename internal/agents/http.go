package agents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// HTTPConfig configura a chamada a um agente remoto.
type HTTPConfig struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	// SuccessPath caminho gjson no corpo da resposta (default "status")
	SuccessPath string
	// SuccessValue valor esperado em SuccessPath (default "success")
	SuccessValue string
	// DetailPath caminho gjson da mensagem de erro/detalhe (default "error")
	DetailPath string
	Client     *http.Client
}

// HTTPExecutor invoca um agente remoto via POST JSON.
type HTTPExecutor struct {
	cfg    HTTPConfig
	client *http.Client
}

var _ domain.AgentExecutor = (*HTTPExecutor)(nil)

func NewHTTPExecutor(cfg HTTPConfig) *HTTPExecutor {
	if cfg.SuccessPath == "" {
		cfg.SuccessPath = "status"
	}
	if cfg.SuccessValue == "" {
		cfg.SuccessValue = "success"
	}
	if cfg.DetailPath == "" {
		cfg.DetailPath = "error"
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPExecutor{cfg: cfg, client: client}
}

// RequestBody monta {agent, scope, outputs, correlation_id}.
func RequestBody(task domain.AgentTask, correlationID string) ([]byte, error) {
	outputs := task.Outputs
	if outputs == nil {
		outputs = []string{}
	}
	body, err := sjson.SetBytes([]byte(`{}`), "agent", task.Agent)
	if err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "scope", task.Scope); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "outputs", outputs); err != nil {
		return nil, err
	}
	return sjson.SetBytes(body, "correlation_id", correlationID)
}

func (h *HTTPExecutor) Perform(ctx context.Context, task domain.AgentTask) (domain.Outcome, error) {
	body, err := RequestBody(task, domain.CorrelationIDFrom(ctx))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("build request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("call %s: %w", h.cfg.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("read response: %w", err)
	}

	detail := gjson.GetBytes(raw, h.cfg.DetailPath).String()
	if resp.StatusCode >= 400 {
		if detail == "" {
			detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return domain.Outcome{Success: false, Detail: detail}, nil
	}

	if !gjson.ValidBytes(raw) {
		return domain.Outcome{Success: false, Detail: "invalid JSON response"}, nil
	}

	outcome := domain.Outcome{
		Success: gjson.GetBytes(raw, h.cfg.SuccessPath).String() == h.cfg.SuccessValue,
		Detail:  detail,
	}
	if data, ok := gjson.ParseBytes(raw).Value().(map[string]any); ok {
		outcome.Data = data
	}
	if !outcome.Success && outcome.Detail == "" {
		outcome.Detail = fmt.Sprintf("%s != %s", h.cfg.SuccessPath, h.cfg.SuccessValue)
	}
	return outcome, nil
}
