package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	NATS       NATSConfig       `mapstructure:"nats"`
	Redis      RedisConfig      `mapstructure:"redis"`
	App        AppConfig        `mapstructure:"app"`
	Engine     EngineConfig     `mapstructure:"engine"`
	MessageLog MessageLogConfig `mapstructure:"messagelog"`
	Agents     AgentsConfig     `mapstructure:"agents"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	PoolSize int           `mapstructure:"pool_size"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AppConfig struct {
	WorkerID  string `mapstructure:"worker_id"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Port      string `mapstructure:"port"`
}

type EngineConfig struct {
	OrchestratorName string        `mapstructure:"orchestrator_name"`
	MaxParallel      int           `mapstructure:"max_parallel"`
	AgentTimeout     time.Duration `mapstructure:"agent_timeout"`
	AgentDelay       time.Duration `mapstructure:"agent_delay"`
	FailurePolicy    string        `mapstructure:"failure_policy"`
	// Simulate responde agentes sem endpoint com o executor de delay
	Simulate bool `mapstructure:"simulate"`
}

type MessageLogConfig struct {
	Backends   []string `mapstructure:"backends"`
	Dir        string   `mapstructure:"dir"`
	SQLitePath string   `mapstructure:"sqlite_path"`
}

type AgentsConfig struct {
	Endpoints       map[string]string `mapstructure:"endpoints"`
	DefaultEndpoint string            `mapstructure:"default_endpoint"`
	SuccessPath     string            `mapstructure:"success_path"`
	Timeout         time.Duration     `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("app.worker_id", "worker-1")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")
	v.SetDefault("app.port", "8080")

	v.SetDefault("engine.orchestrator_name", "orchestrator")
	v.SetDefault("engine.max_parallel", 0)
	v.SetDefault("engine.agent_timeout", 30*time.Second)
	v.SetDefault("engine.agent_delay", time.Second)
	v.SetDefault("engine.failure_policy", "continue")
	v.SetDefault("engine.simulate", true)

	v.SetDefault("messagelog.backends", []string{"file"})
	v.SetDefault("messagelog.dir", "logs")
	v.SetDefault("messagelog.sqlite_path", "maestro.db")

	v.SetDefault("agents.default_endpoint", "")
	v.SetDefault("agents.success_path", "status")
	v.SetDefault("agents.timeout", 30*time.Second)
}

var envKeys = []string{
	"nats.url", "nats.max_reconnects", "nats.reconnect_wait",
	"redis.addr", "redis.password", "redis.db", "redis.pool_size", "redis.ttl",
	"app.worker_id", "app.log_level", "app.log_format", "app.port",
	"engine.orchestrator_name", "engine.max_parallel", "engine.agent_timeout",
	"engine.agent_delay", "engine.failure_policy", "engine.simulate",
	"messagelog.backends", "messagelog.dir", "messagelog.sqlite_path",
	"agents.default_endpoint", "agents.success_path", "agents.timeout",
}

// Load junta defaults, arquivo opcional e variáveis MAESTRO_*.
// path vazio cai em MAESTRO_CONFIG; sem nenhum dos dois não lê arquivo.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MAESTRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Engine.FailurePolicy) {
	case "continue", "halt":
	default:
		errs = append(errs, fmt.Errorf("engine.failure_policy: unknown policy %q", c.Engine.FailurePolicy))
	}
	if c.Engine.MaxParallel < 0 {
		errs = append(errs, fmt.Errorf("engine.max_parallel: must be >= 0"))
	}
	if c.Engine.AgentTimeout <= 0 {
		errs = append(errs, fmt.Errorf("engine.agent_timeout: must be > 0"))
	}
	if strings.TrimSpace(c.Engine.OrchestratorName) == "" {
		errs = append(errs, fmt.Errorf("engine.orchestrator_name: required"))
	}
	return errors.Join(errs...)
}
