package memory

import (
	"context"
	"testing"
	"time"

	"github.com/rocketscienceinc/noughts-and-crosses/internal/apperror"
	"github.com/rocketscienceinc/noughts-and-crosses/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGameRepository()

	// Given: a stored session
	session := entity.NewSession("123", time.Now())
	require.NoError(t, repo.CreateOrUpdate(ctx, session))

	// When: the caller mutates its own copy
	session.Game.Ended = true

	// Then: the stored session is unaffected
	stored, err := repo.GetByID(ctx, "123")
	require.NoError(t, err)
	assert.False(t, stored.Game.Ended)

	// When: the session is deleted twice
	require.NoError(t, repo.DeleteByID(ctx, "123"))
	err = repo.DeleteByID(ctx, "123")

	// Then: the second delete and any read report it missing
	require.ErrorIs(t, err, apperror.ErrGameNotFound)
	_, err = repo.GetByID(ctx, "123")
	require.ErrorIs(t, err, apperror.ErrGameNotFound)
}
