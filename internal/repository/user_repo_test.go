package repository

import (
	"context"
	"testing"
	"time"

	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/lineaetica/etica-backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(database.Static{Handle: db})
	ctx := context.Background()

	active := &domain.User{Email: "admin@example.com", PasswordHash: "x", Name: "Admin", Role: domain.RoleAdmin, Active: true}
	inactive := &domain.User{Email: "old@example.com", PasswordHash: "x", Name: "Old", Role: domain.RoleAdmin, Active: false}
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, inactive))

	got, err := repo.FindActiveByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)

	_, err = repo.FindActiveByEmail(ctx, "old@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err = repo.FindByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)

	stamp := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastAccess(ctx, active.ID, stamp))
	got, err = repo.FindActiveByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, got.LastAccess)
	assert.True(t, stamp.Equal(*got.LastAccess))
}
