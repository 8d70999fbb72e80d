package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diogoX451/maestro/internal/store"
	"github.com/diogoX451/maestro/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRuns(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.SaveRun(ctx, &types.RunState{
			ID:        id,
			Workflow:  "w",
			Status:    types.RunCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	ids, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids)

	got, err := s.GetRun(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "w", got.Workflow)

	require.NoError(t, s.DeleteRun(ctx, "a"))
	_, err = s.GetRun(ctx, "a")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestStoreTTL(t *testing.T) {
	s := New()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, &types.RunState{ID: "r"}))
	require.NoError(t, s.SetTTL(ctx, "r", time.Minute))

	_, err := s.GetRun(ctx, "r")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.GetRun(ctx, "r")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestStoreMessageLines(t *testing.T) {
	s := New()
	ctx := context.Background()
	line := []byte(`{"x":1}`)
	require.NoError(t, s.AppendMessage(ctx, "20240101", line))
	line[0] = '!'

	lines, err := s.MessageLines(ctx, "20240101")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, `{"x":1}`, string(lines[0]))
}
