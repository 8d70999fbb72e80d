package main

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

type host struct {
	delay   time.Duration
	failing map[string]struct{}
	logger  *slog.Logger
}

func newHost(delay time.Duration, failing []string, logger *slog.Logger) *host {
	h := &host{delay: delay, failing: make(map[string]struct{}), logger: logger}
	for _, name := range failing {
		h.failing[name] = struct{}{}
	}
	return h
}

func (h *host) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/invoke", h.handleInvoke)
	r.Post("/agents/{agent}", h.handleInvoke)
	return r
}

// handleInvoke recebe {agent, scope, outputs, correlation_id} e responde {status, agent, outputs}.
func (h *host) handleInvoke(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || !gjson.ValidBytes(body) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"failure","error":"invalid request body"}`))
		return
	}

	agent := chi.URLParam(r, "agent")
	if agent == "" {
		agent = gjson.GetBytes(body, "agent").String()
	}
	correlationID := gjson.GetBytes(body, "correlation_id").String()
	h.logger.Info("invocation received", "agent", agent, "correlation_id", correlationID)

	select {
	case <-r.Context().Done():
		return
	case <-time.After(h.delay):
	}

	resp := []byte(`{}`)
	resp, _ = sjson.SetBytes(resp, "agent", agent)
	resp, _ = sjson.SetBytes(resp, "correlation_id", correlationID)
	if outputs := gjson.GetBytes(body, "outputs"); outputs.IsArray() {
		resp, _ = sjson.SetRawBytes(resp, "outputs", []byte(outputs.Raw))
	} else {
		resp, _ = sjson.SetRawBytes(resp, "outputs", []byte(`[]`))
	}

	if _, fail := h.failing[agent]; fail {
		resp, _ = sjson.SetBytes(resp, "status", "failure")
		resp, _ = sjson.SetBytes(resp, "error", "agent configured to fail")
	} else {
		resp, _ = sjson.SetBytes(resp, "status", "success")
	}
	_, _ = w.Write(resp)
}
