package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/caltrack/internal/repository"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "caltrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreSetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.Get(ctx, "userProfile")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Set(ctx, "userProfile", `{"name":"a"}`))
	require.NoError(t, s.Set(ctx, "userProfile", `{"name":"b"}`))

	got, err := s.Get(ctx, "userProfile")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"b"}`, got)
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Set(ctx, "calorie-tracker-entries", `[]`))
	require.NoError(t, s.Delete(ctx, "calorie-tracker-entries"))
	require.NoError(t, s.Delete(ctx, "calorie-tracker-entries"))

	_, err := s.Get(ctx, "calorie-tracker-entries")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "caltrack.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", "v"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
