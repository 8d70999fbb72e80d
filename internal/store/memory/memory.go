package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/diogoX451/maestro/internal/store"
	"github.com/diogoX451/maestro/pkg/types"
)

// Store StateStore em memória, para rodar sem Redis (cli, testes).
type Store struct {
	mu       sync.RWMutex
	runs     map[string]types.RunState
	expires  map[string]time.Time
	messages map[string][][]byte
	now      func() time.Time
}

var _ store.StateStore = (*Store)(nil)

func New() *Store {
	return &Store{
		runs:     make(map[string]types.RunState),
		expires:  make(map[string]time.Time),
		messages: make(map[string][][]byte),
		now:      time.Now,
	}
}

func (s *Store) SaveRun(_ context.Context, state *types.RunState) error {
	if state.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = s.now()
	}
	state.UpdatedAt = s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[state.ID] = cloneState(*state)
	return nil
}

func (s *Store) GetRun(_ context.Context, runID string) (*types.RunState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.runs[runID]
	if !ok || s.expired(runID) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, runID)
	}
	out := cloneState(state)
	return &out, nil
}

func (s *Store) DeleteRun(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
	delete(s.expires, runID)
	return nil
}

// ListRuns mais recentes primeiro
func (s *Store) ListRuns(_ context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]types.RunState, 0, len(s.runs))
	for id, st := range s.runs {
		if s.expired(id) {
			continue
		}
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool {
		if states[i].CreatedAt.Equal(states[j].CreatedAt) {
			return states[i].ID > states[j].ID
		}
		return states[i].CreatedAt.After(states[j].CreatedAt)
	})
	if len(states) > limit {
		states = states[:limit]
	}
	ids := make([]string, len(states))
	for i, st := range states {
		ids[i] = st.ID
	}
	return ids, nil
}

func (s *Store) AppendMessage(_ context.Context, day string, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[day] = append(s.messages[day], append([]byte(nil), line...))
	return nil
}

func (s *Store) MessageLines(_ context.Context, day string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := s.messages[day]
	out := make([][]byte, len(lines))
	copy(out, lines)
	return out, nil
}

func (s *Store) SetTTL(_ context.Context, runID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[runID] = s.now().Add(ttl)
	return nil
}

func (s *Store) Close() error { return nil }

// expired exige o lock já adquirido
func (s *Store) expired(runID string) bool {
	at, ok := s.expires[runID]
	return ok && !s.now().Before(at)
}

func cloneState(st types.RunState) types.RunState {
	out := st
	if st.Stages != nil {
		out.Stages = append([]types.StageSnapshot(nil), st.Stages...)
	}
	return out
}
