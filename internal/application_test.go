package application

import (
	"context"
	"testing"

	"github.com/rocketscienceinc/noughts-and-crosses/internal/config"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory storage", func(t *testing.T) {
		repo, closeRepo, err := newGameRepository(ctx, &config.Config{Storage: config.StorageMemory})

		require.NoError(t, err)
		assert.IsType(t, &memory.GameRepository{}, repo)
		assert.NoError(t, closeRepo())
	})

	t.Run("Redis without address", func(t *testing.T) {
		_, _, err := newGameRepository(ctx, &config.Config{Storage: config.StorageRedis})

		require.ErrorIs(t, err, ErrAddrNotFound)
	})

	t.Run("Unknown storage", func(t *testing.T) {
		_, _, err := newGameRepository(ctx, &config.Config{Storage: "etcd"})

		require.ErrorIs(t, err, ErrUnknownStorageType)
	})
}
