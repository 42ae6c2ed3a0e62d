//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uiforge/uiforge-engine/pkg/apperrors"
	"github.com/uiforge/uiforge-engine/pkg/models"
	"github.com/uiforge/uiforge-engine/pkg/testhelpers"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	testhelpers.ResetTables(t, engineDB.DB)
	repo := NewUserRepository(engineDB.DB)
	ctx := context.Background()

	user := &models.User{
		Email:          "ada@example.com",
		FullName:       "Ada Lovelace",
		PasswordHash:   "hash",
		Provider:       models.ProviderPassword,
		EmailConfirmed: true,
	}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEqual(t, uuid.Nil, user.ID)

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "Ada Lovelace", byEmail.FullName)
	assert.Equal(t, "hash", byEmail.PasswordHash)
	assert.True(t, byEmail.EmailConfirmed)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	testhelpers.ResetTables(t, engineDB.DB)
	repo := NewUserRepository(engineDB.DB)
	ctx := context.Background()

	first := &models.User{Email: "dup@example.com", FullName: "First", Provider: models.ProviderPassword}
	require.NoError(t, repo.Create(ctx, first))

	second := &models.User{Email: "dup@example.com", FullName: "Second", Provider: models.ProviderPassword}
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUserRepository_GetMissing(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	testhelpers.ResetTables(t, engineDB.DB)
	repo := NewUserRepository(engineDB.DB)

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_UpsertOAuth(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	testhelpers.ResetTables(t, engineDB.DB)
	repo := NewUserRepository(engineDB.DB)
	ctx := context.Background()

	created, err := repo.UpsertOAuth(ctx, &models.User{
		Email:    "oauth@example.com",
		FullName: "OAuth User",
		Provider: models.ProviderGoogle,
	})
	require.NoError(t, err)
	assert.True(t, created.EmailConfirmed)
	assert.Empty(t, created.PasswordHash)

	// A second sign-in with a changed profile name refreshes the row
	// instead of conflicting.
	refreshed, err := repo.UpsertOAuth(ctx, &models.User{
		Email:    "oauth@example.com",
		FullName: "Renamed User",
		Provider: models.ProviderGoogle,
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, refreshed.ID)
	assert.Equal(t, "Renamed User", refreshed.FullName)
}

func TestUserRepository_UpsertOAuthConfirmsPasswordAccount(t *testing.T) {
	engineDB := testhelpers.GetEngineDB(t)
	testhelpers.ResetTables(t, engineDB.DB)
	repo := NewUserRepository(engineDB.DB)
	ctx := context.Background()

	password := &models.User{
		Email:        "mixed@example.com",
		FullName:     "Password First",
		PasswordHash: "hash",
		Provider:     models.ProviderPassword,
	}
	require.NoError(t, repo.Create(ctx, password))

	upserted, err := repo.UpsertOAuth(ctx, &models.User{
		Email:    "mixed@example.com",
		FullName: "Password First",
		Provider: models.ProviderGoogle,
	})
	require.NoError(t, err)
	assert.Equal(t, password.ID, upserted.ID)
	assert.True(t, upserted.EmailConfirmed)
	// The password hash survives the OAuth sign-in.
	assert.Equal(t, "hash", upserted.PasswordHash)
}
