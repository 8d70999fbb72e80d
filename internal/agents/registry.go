package agents

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/diogoX451/maestro/internal/core/domain"
)

// Registry resolve executores por nome de agente.
// Sem registro explícito cai no fallback, quando configurado.
type Registry struct {
	mu        sync.RWMutex
	executors map[string]domain.AgentExecutor
	fallback  domain.AgentExecutor
}

var _ domain.ExecutorResolver = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]domain.AgentExecutor),
	}
}

func (r *Registry) Register(agent string, exec domain.AgentExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[agent] = exec
}

// SetFallback executor usado para agentes sem registro.
func (r *Registry) SetFallback(exec domain.AgentExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = exec
}

func (r *Registry) Resolve(agent string) (domain.AgentExecutor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if exec, ok := r.executors[agent]; ok {
		return exec, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAgent, agent)
}

// Names agentes registrados, ordenados.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.executors))
	for name := range r.executors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options monta o registry a partir da configuração.
type Options struct {
	// Endpoints agente -> URL do executor HTTP
	Endpoints map[string]string
	// DefaultEndpoint atende agentes sem endpoint próprio
	DefaultEndpoint string
	// Delay do executor simulado; usado como fallback sem DefaultEndpoint
	Delay time.Duration
	// Simulate liga o fallback simulado
	Simulate bool
	HTTP     HTTPConfig
}

// Build registry com executores HTTP por agente e um fallback.
func Build(opts Options) *Registry {
	reg := NewRegistry()
	for name, endpoint := range opts.Endpoints {
		cfg := opts.HTTP
		cfg.URL = endpoint
		reg.Register(name, NewHTTPExecutor(cfg))
	}
	switch {
	case opts.DefaultEndpoint != "":
		cfg := opts.HTTP
		cfg.URL = opts.DefaultEndpoint
		reg.SetFallback(NewHTTPExecutor(cfg))
	case opts.Simulate:
		reg.SetFallback(NewDelayExecutor(opts.Delay))
	}
	return reg
}
