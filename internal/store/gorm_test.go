package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devscope/internal/models"
	"devscope/pkg/config"
)

// newTestGormStore connects to the database named by the DB_* variables and
// skips when none is configured.
func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set, skipping postgres store tests")
	}
	require.NoError(t, config.InitDB(config.LoadAppConfig().Database))

	s := NewGormStore(config.DB)
	t.Cleanup(func() {
		_, _ = s.DeleteAll(context.Background(), "gorm_test")
	})
	_, err := s.DeleteAll(context.Background(), "gorm_test")
	require.NoError(t, err)
	return s
}

func TestGormStore(t *testing.T) {
	s := newTestGormStore(t)
	ctx := context.Background()

	t.Run("Put and Get", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "gorm_test", "a", models.JSONMap{"n": float64(1)}))

		doc, err := s.Get(ctx, "gorm_test", "a")
		require.NoError(t, err)
		assert.Equal(t, float64(1), doc.Value["n"])
	})

	t.Run("Put replaces", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "gorm_test", "a", models.JSONMap{"n": float64(2)}))

		doc, err := s.Get(ctx, "gorm_test", "a")
		require.NoError(t, err)
		assert.Equal(t, float64(2), doc.Value["n"])
	})

	t.Run("Query order", func(t *testing.T) {
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, s.Put(ctx, "gorm_test", "b", models.JSONMap{}))

		desc, err := s.Query(ctx, "gorm_test", OrderCreatedDesc)
		require.NoError(t, err)
		require.Len(t, desc, 2)
		assert.Equal(t, "b", desc[0].Key)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "gorm_test", "a"))
		_, err := s.Get(ctx, "gorm_test", "a")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DeleteAll", func(t *testing.T) {
		n, err := s.DeleteAll(ctx, "gorm_test")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("Invalid input", func(t *testing.T) {
		assert.ErrorIs(t, s.Put(ctx, "", "k", nil), ErrInvalidInput)
	})
}
