package app

import (
	"errors"
	"fmt"
	"log/slog"

	eventadapter "github.com/diogoX451/maestro/internal/adapters/events"
	"github.com/diogoX451/maestro/internal/adapters/messagelog"
	adapterstore "github.com/diogoX451/maestro/internal/adapters/store"
	"github.com/diogoX451/maestro/internal/agents"
	"github.com/diogoX451/maestro/internal/config"
	"github.com/diogoX451/maestro/internal/core/ports"
	"github.com/diogoX451/maestro/internal/core/service"
	natsevents "github.com/diogoX451/maestro/internal/events/nats"
	"github.com/diogoX451/maestro/internal/store"
	"github.com/diogoX451/maestro/internal/store/memory"
	redisstore "github.com/diogoX451/maestro/internal/store/redis"
	"github.com/prometheus/client_golang/prometheus"
)

// Options escolhe a infraestrutura de cada processo.
type Options struct {
	// UseNATS conecta no NATS (status, comandos, sink nats)
	UseNATS bool
	// UseRedis guarda runs no Redis; senão em memória
	UseRedis bool
	// Registerer recebe as métricas; nil não registra
	Registerer prometheus.Registerer
}

// App componentes montados a partir da configuração.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    store.StateStore
	Runs     ports.RunRepository
	Bus      ports.EventBus
	Sinks    *messagelog.Sinks
	Registry *agents.Registry
	Metrics  *service.Metrics
	Invoker  *service.Invoker
	Runner   *service.Runner

	natsBus *natsevents.NATSBus
}

// New monta infra, adapters e core, nessa ordem.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	// Infra
	if opts.UseRedis {
		rs, err := redisstore.New(redisstore.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			DefaultTTL: cfg.Redis.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.Store = rs
	} else {
		a.Store = memory.New()
	}

	var publisher messagelog.Publisher
	if opts.UseNATS {
		bus, err := natsevents.New(natsevents.Config{
			URL:           cfg.NATS.URL,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
			Name:          "maestro-" + cfg.App.WorkerID,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("nats: %w", err)
		}
		a.natsBus = bus
		if err := bus.SetupMaestroStreams(); err != nil {
			a.Close()
			return nil, fmt.Errorf("streams: %w", err)
		}
		a.Bus = eventadapter.NewEventBus(bus, logger)
		publisher = bus
	}

	sinks, err := messagelog.Open(messagelog.Options{
		Backends:   cfg.MessageLog.Backends,
		Dir:        cfg.MessageLog.Dir,
		SQLitePath: cfg.MessageLog.SQLitePath,
		Redis:      a.Store,
		Publisher:  publisher,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Sinks = sinks

	// Adapters
	a.Runs = adapterstore.NewRunRepository(a.Store)
	a.Registry = agents.Build(agents.Options{
		Endpoints:       cfg.Agents.Endpoints,
		DefaultEndpoint: cfg.Agents.DefaultEndpoint,
		Delay:           cfg.Engine.AgentDelay,
		Simulate:        cfg.Engine.Simulate,
		HTTP: agents.HTTPConfig{
			Timeout:     cfg.Agents.Timeout,
			SuccessPath: cfg.Agents.SuccessPath,
		},
	})

	// Core
	policy, err := service.ParseFailurePolicy(cfg.Engine.FailurePolicy)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Metrics = service.NewMetrics(opts.Registerer)

	var status ports.StatusPublisher
	if a.Bus != nil {
		status = a.Bus
	}
	a.Invoker = service.NewInvoker(a.Registry, sinks.Log,
		service.WithOrchestrator(cfg.Engine.OrchestratorName),
		service.WithAgentTimeout(cfg.Engine.AgentTimeout),
		service.WithInvokerStatus(status),
		service.WithInvokerLogger(logger),
		service.WithInvokerMetrics(a.Metrics),
	)
	a.Runner = service.NewRunner(a.Invoker,
		service.WithFailurePolicy(policy),
		service.WithDefaultMaxParallel(cfg.Engine.MaxParallel),
		service.WithRunRepository(a.Runs),
		service.WithRunnerStatus(status),
		service.WithRunnerLogger(logger),
		service.WithRunnerMetrics(a.Metrics),
	)
	return a, nil
}

// Close libera conexões abertas em New.
func (a *App) Close() error {
	var errs []error
	if a.Sinks != nil {
		errs = append(errs, a.Sinks.Close())
	}
	if a.natsBus != nil {
		errs = append(errs, a.natsBus.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}
