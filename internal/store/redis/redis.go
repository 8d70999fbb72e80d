package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/diogoX451/maestro/internal/store"
	"github.com/diogoX451/maestro/pkg/types"
	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ store.StateStore = (*RedisStore)(nil)

type Config struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	DefaultTTL time.Duration
}

func New(cfg Config) (*RedisStore, error) {
	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    cfg.DefaultTTL,
	}, nil
}

// Chaves Redis:
// run:{id} -> json RunState
// runs:index -> zset de run ids (score = created_at unix ms)
// messages:{yyyymmdd} -> list de linhas JSON do log de mensagens

func (r *RedisStore) runKey(id string) string {
	return fmt.Sprintf("run:%s", id)
}

func (r *RedisStore) runsIndexKey() string {
	return "runs:index"
}

func (r *RedisStore) messagesKey(day string) string {
	return fmt.Sprintf("messages:%s", day)
}

func (r *RedisStore) SaveRun(ctx context.Context, state *types.RunState) error {
	if state.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = time.Now()
	}
	state.UpdatedAt = time.Now()

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.runKey(state.ID), data, r.ttl)
	pipe.ZAdd(ctx, r.runsIndexKey(), redis.Z{
		Score:  float64(state.CreatedAt.UnixMilli()),
		Member: state.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetRun(ctx context.Context, runID string) (*types.RunState, error) {
	data, err := r.client.Get(ctx, r.runKey(runID)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}

	var state types.RunState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &state, nil
}

func (r *RedisStore) DeleteRun(ctx context.Context, runID string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.runKey(runID))
	pipe.ZRem(ctx, r.runsIndexKey(), runID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) ListRuns(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.client.ZRevRange(ctx, r.runsIndexKey(), 0, int64(limit-1)).Result()
}

// AppendMessage RPUSH é atômico, seguro para escritores concorrentes
func (r *RedisStore) AppendMessage(ctx context.Context, day string, line []byte) error {
	return r.client.RPush(ctx, r.messagesKey(day), line).Err()
}

func (r *RedisStore) MessageLines(ctx context.Context, day string) ([][]byte, error) {
	values, err := r.client.LRange(ctx, r.messagesKey(day), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	lines := make([][]byte, len(values))
	for i, v := range values {
		lines[i] = []byte(v)
	}
	return lines, nil
}

// SetTTL ajusta tempo de vida
func (r *RedisStore) SetTTL(ctx context.Context, runID string, ttl time.Duration) error {
	return r.client.Expire(ctx, r.runKey(runID), ttl).Err()
}

// Close fecha conexão
func (r *RedisStore) Close() error {
	return r.client.Close()
}
