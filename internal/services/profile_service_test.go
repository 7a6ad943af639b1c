// file: internal/services/profile_service_test.go
package services

import (
	"context"
	"testing"

	"badgehub/internal/events"
	"badgehub/internal/models"
	"badgehub/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProfileService(t *testing.T) (ProfileService, *repositories.Collection) {
	t.Helper()
	repos := newTestRepos()
	bus := events.NewEventBus(nil, zap.NewNop())
	profiles := NewProfileService(repos, nil, bus, zap.NewNop())
	return profiles, repos
}

func seedUser(t *testing.T, repos *repositories.Collection, email, username string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Username: username}
	require.NoError(t, repos.User.Create(context.Background(), user))
	return user
}

func TestGetProfileCreatesOnFirstAccess(t *testing.T) {
	profiles, repos := newTestProfileService(t)
	user := seedUser(t, repos, "marie@example.com", "marie42")

	profile, err := profiles.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, user.ID, profile.UserID)
	assert.Equal(t, 3, profile.Tokens)
	assert.Equal(t, "Novice", profile.Rank)
}

func TestUpdateProfileChangesUsername(t *testing.T) {
	profiles, repos := newTestProfileService(t)
	user := seedUser(t, repos, "marie@example.com", "marie42")
	ctx := context.Background()

	newName := "marie2026"
	_, err := profiles.UpdateProfile(ctx, &UpdateProfileRequest{UserID: user.ID, Username: &newName})
	require.NoError(t, err)

	stored, err := repos.User.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "marie2026", stored.Username)
}

func TestUpdateProfileRejectsTakenUsername(t *testing.T) {
	profiles, repos := newTestProfileService(t)
	user := seedUser(t, repos, "marie@example.com", "marie42")
	seedUser(t, repos, "paul@example.com", "paul7")

	taken := "paul7"
	_, err := profiles.UpdateProfile(context.Background(), &UpdateProfileRequest{UserID: user.ID, Username: &taken})
	require.Error(t, err)
	assert.Equal(t, "ENTITY_ALREADY_EXISTS", errorCode(err))
}

func TestUpdateProfileKeepsOwnUsername(t *testing.T) {
	profiles, repos := newTestProfileService(t)
	user := seedUser(t, repos, "marie@example.com", "marie42")

	same := "marie42"
	profile, err := profiles.UpdateProfile(context.Background(), &UpdateProfileRequest{UserID: user.ID, Username: &same})
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.UserID)
}

func TestUpdateProfileRejectsShortUsername(t *testing.T) {
	profiles, repos := newTestProfileService(t)
	user := seedUser(t, repos, "marie@example.com", "marie42")

	short := "ab"
	_, err := profiles.UpdateProfile(context.Background(), &UpdateProfileRequest{UserID: user.ID, Username: &short})
	require.Error(t, err)
	require.True(t, IsErrorType(err, "VALIDATION_ERROR"))
}

func TestLeaderboardOrdersBySkillPoints(t *testing.T) {
	profiles, repos := newTestProfileService(t)
	ctx := context.Background()

	for _, seed := range []struct {
		userID int64
		points int
	}{{1, 5}, {2, 20}, {3, 12}} {
		require.NoError(t, repos.Profile.Ensure(ctx, seed.userID))
		require.NoError(t, repos.Profile.UpdateTotals(ctx, seed.userID, 1, seed.points, "Novice"))
	}

	page, err := profiles.GetLeaderboard(ctx, models.PaginationParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	assert.Equal(t, int64(2), page.Data[0].UserID)
	assert.Equal(t, int64(3), page.Data[1].UserID)
	assert.Equal(t, int64(1), page.Data[2].UserID)
}
