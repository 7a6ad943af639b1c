// file: internal/services/badge_service_test.go
package services

import (
	"context"
	"testing"

	"badgehub/internal/cache"
	"badgehub/internal/config"
	"badgehub/internal/events"
	"badgehub/internal/models"
	"badgehub/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBadgeService(t *testing.T) (BadgeService, *repositories.Collection) {
	t.Helper()
	repos := newTestRepos()
	store, err := cache.New(&config.CacheConfig{Provider: "memory"}, zap.NewNop())
	require.NoError(t, err)
	bus := events.NewEventBus(nil, zap.NewNop())
	return NewBadgeService(repos, store, bus, zap.NewNop()), repos
}

func seedBadge(t *testing.T, repos *repositories.Collection, name, theme, rawAnswer string) *models.Badge {
	t.Helper()
	badge := &models.Badge{Name: name, Theme: theme, Question: "?", RawAnswer: rawAnswer}
	require.NoError(t, repos.Badge.Create(context.Background(), badge))
	return badge
}

func errorCode(err error) string {
	return GetServiceError(err).Code
}

// ===============================
// SUBMISSION
// ===============================

func TestSubmitAnswerPlainTextUnlock(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	badge := seedBadge(t, repos, "Capitale", "Culture", "Paris")

	resp, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "  paris "})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.True(t, resp.Attempted)
	assert.Nil(t, resp.Level)
	assert.Equal(t, 1, resp.BadgeCount)
	assert.Equal(t, 1, resp.SkillPoints)
	assert.Equal(t, "Novice", resp.Rank)

	record, err := repos.UserBadge.Get(ctx, 1, badge.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Success)
	assert.True(t, record.WasEverUnlocked)
}

func TestSubmitAnswerWrongAnswerIsRecorded(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	badge := seedBadge(t, repos, "Capitale", "Culture", "Paris")

	resp, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "Lyon"})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.True(t, resp.Attempted)
	assert.Equal(t, 0, resp.BadgeCount)

	record, err := repos.UserBadge.Get(ctx, 1, badge.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.False(t, record.Success)
	assert.False(t, record.WasEverUnlocked)
}

func TestSubmitAnswerUnusableInputIsNotRecorded(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	badge := seedBadge(t, repos, "Sportif", "Sport", `{"type":"boolean"}`)

	resp, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "peut-être"})
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.False(t, resp.Attempted)

	record, err := repos.UserBadge.Get(ctx, 1, badge.ID)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestSubmitAnswerGhostIsRejected(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	badge := seedBadge(t, repos, "Fantôme", "Secret",
		`{"type":"text","isGhost":true,"requiredBadges":["1"],"skillPoints":5}`)

	_, err := svc.SubmitAnswer(context.Background(), &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "x"})
	require.Error(t, err)
	assert.Equal(t, "GHOST_NOT_ANSWERABLE", errorCode(err))
}

func TestSubmitAnswerUnknownBadge(t *testing.T) {
	svc, _ := newTestBadgeService(t)

	_, err := svc.SubmitAnswer(context.Background(), &SubmitAnswerRequest{UserID: 1, BadgeID: 99, Answer: "x"})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestSubmitAnswerAlreadyUnlockedWithoutRight(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	badge := seedBadge(t, repos, "Capitale", "Culture", "Paris")

	_, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "Paris"})
	require.NoError(t, err)

	_, err = svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "Paris"})
	require.Error(t, err)
	assert.Equal(t, "ALREADY_UNLOCKED", errorCode(err))
}

// ===============================
// GHOST RECONCILIATION
// ===============================

func TestSubmitAnswerUnlocksGhostChain(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	base := seedBadge(t, repos, "Capitale", "Culture", "Paris")
	ghost := seedBadge(t, repos, "Fantôme", "Secret",
		`{"type":"text","isGhost":true,"requiredBadges":["1"],"skillPoints":5,"ghostDisplayText":"???"}`)

	resp, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: base.ID, Answer: "Paris"})
	require.NoError(t, err)

	require.Len(t, resp.GhostChanges, 1)
	assert.Equal(t, ghost.ID, resp.GhostChanges[0].BadgeID)
	assert.True(t, resp.GhostChanges[0].Unlocked)
	assert.Equal(t, "Fantôme", resp.GhostChanges[0].Name)
	assert.Equal(t, 2, resp.BadgeCount)
	assert.Equal(t, 6, resp.SkillPoints)

	record, err := repos.UserBadge.Get(ctx, 1, ghost.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Success)
}

func TestRecomputeUserRelocksGhost(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	base := seedBadge(t, repos, "Capitale", "Culture", "Paris")
	ghost := seedBadge(t, repos, "Fantôme", "Secret",
		`{"type":"text","isGhost":true,"requiredBadges":["1"],"skillPoints":5}`)

	_, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: base.ID, Answer: "Paris"})
	require.NoError(t, err)

	// The prerequisite lapses; the ghost must relock on recompute.
	require.NoError(t, repos.UserBadge.SetUnlocked(ctx, 1, base.ID, false))
	changes, err := svc.RecomputeUser(ctx, 1)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, ghost.ID, changes[0].BadgeID)
	assert.False(t, changes[0].Unlocked)

	profile, err := repos.Profile.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, profile.BadgeCount)
	assert.Equal(t, 0, profile.SkillPoints)
}

// ===============================
// IMPROVEMENT RE-ANSWERS
// ===============================

const tieredRange = `{"type":"range","levels":[
	{"label":"Skill 1","min":0,"max":10},
	{"label":"Skill 2","min":11,"max":20},
	{"label":"Skill 3","min":21,"max":30}]}`

func grantImprovement(t *testing.T, repos *repositories.Collection, userID, badgeID int64, cost int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repos.Profile.Ensure(ctx, userID))
	require.NoError(t, repos.Profile.SetImprovement(ctx, userID, &badgeID, cost))
}

func TestSubmitAnswerImprovementAccepted(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	badge := seedBadge(t, repos, "Pompes", "Sport", tieredRange)

	resp, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "5"})
	require.NoError(t, err)
	require.NotNil(t, resp.Level)
	assert.Equal(t, "Skill 1", *resp.Level)

	grantImprovement(t, repos, 1, badge.ID, 5)

	resp, err = svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "15"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Level)
	assert.Equal(t, "Skill 2", *resp.Level)

	// The right is consumed by the recorded attempt.
	profile, err := repos.Profile.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, profile.ImproveBadgeID)
	assert.Equal(t, 0, profile.ImproveCost)
}

func TestSubmitAnswerImprovementLowerKeepsRecord(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	badge := seedBadge(t, repos, "Pompes", "Sport", tieredRange)

	_, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "15"})
	require.NoError(t, err)

	grantImprovement(t, repos, 1, badge.ID, 5)

	resp, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "5"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Level)
	assert.Equal(t, "Skill 2", *resp.Level)
	assert.Equal(t, "Pas d'amélioration, niveau conservé", resp.Message)

	record, err := repos.UserBadge.Get(ctx, 1, badge.ID)
	require.NoError(t, err)
	require.NotNil(t, record.UserAnswer)
	assert.Equal(t, "15", *record.UserAnswer)
}

func TestSubmitAnswerImprovementSameLevelUpdatesAnswer(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	badge := seedBadge(t, repos, "Pompes", "Sport", tieredRange)

	_, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "5"})
	require.NoError(t, err)

	grantImprovement(t, repos, 1, badge.ID, 5)

	resp, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "8"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Level)
	assert.Equal(t, "Skill 1", *resp.Level)
	assert.Equal(t, "Même niveau, réponse mise à jour", resp.Message)

	record, err := repos.UserBadge.Get(ctx, 1, badge.ID)
	require.NoError(t, err)
	require.NotNil(t, record.UserAnswer)
	assert.Equal(t, "8", *record.UserAnswer)
}

func TestSubmitAnswerImprovementWrongAnswerDemotes(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	badge := seedBadge(t, repos, "Pompes", "Sport", tieredRange)

	_, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "15"})
	require.NoError(t, err)

	grantImprovement(t, repos, 1, badge.ID, 5)

	resp, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "999"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Level)
	assert.Equal(t, 0, resp.BadgeCount)

	record, err := repos.UserBadge.Get(ctx, 1, badge.ID)
	require.NoError(t, err)
	assert.False(t, record.Success)
	assert.True(t, record.WasEverUnlocked)
}

func TestSubmitAnswerImprovementUnusableInputKeepsRight(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	badge := seedBadge(t, repos, "Pompes", "Sport", tieredRange)

	_, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "15"})
	require.NoError(t, err)

	grantImprovement(t, repos, 1, badge.ID, 5)

	resp, err := svc.SubmitAnswer(ctx, &SubmitAnswerRequest{UserID: 1, BadgeID: badge.ID, Answer: "beaucoup"})
	require.NoError(t, err)
	assert.False(t, resp.Attempted)

	profile, err := repos.Profile.GetByUserID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, profile.ImproveBadgeID)
	assert.Equal(t, badge.ID, *profile.ImproveBadgeID)
}

// ===============================
// CATALOG ADMINISTRATION
// ===============================

func TestCreateBadgeRejectsMalformedConfig(t *testing.T) {
	svc, _ := newTestBadgeService(t)
	ctx := context.Background()

	_, err := svc.CreateBadge(ctx, &CreateBadgeRequest{Name: "Cassé", Question: "?", RawAnswer: `{"type":"range","min":`})
	require.Error(t, err)

	_, err = svc.CreateBadge(ctx, &CreateBadgeRequest{Name: "Cassé", Question: "?", RawAnswer: `{"type":"inconnu"}`})
	require.Error(t, err)

	// A plain string is always a valid text-equality answer.
	_, err = svc.CreateBadge(ctx, &CreateBadgeRequest{Name: "Simple", Question: "?", RawAnswer: "Paris"})
	require.NoError(t, err)
}

func TestBadgeViewExposesOptions(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	badge := seedBadge(t, repos, "Choix", "Jeux",
		`{"type":"singleSelect","options":[{"value":"a","label":"A"},{"value":"b","label":"B"}],"optionSkills":{"a":"Skill 1"}}`)

	userID := int64(1)
	view, err := svc.GetBadge(ctx, badge.ID, &userID)
	require.NoError(t, err)

	assert.Equal(t, "singleSelect", view.AnswerType)
	assert.Equal(t, []string{"a", "b"}, view.Options)
	assert.False(t, view.Unlocked)
}

func TestListBadgesFiltersTheme(t *testing.T) {
	svc, repos := newTestBadgeService(t)
	ctx := context.Background()
	seedBadge(t, repos, "Capitale", "Culture", "Paris")
	seedBadge(t, repos, "Pompes", "Sport", tieredRange)

	page, err := svc.ListBadges(ctx, nil, "Sport", models.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Pompes", page.Data[0].Name)
}
