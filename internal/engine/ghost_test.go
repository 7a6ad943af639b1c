// file: internal/engine/ghost_test.go
package engine

import (
	"testing"

	"badgehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ghostCfg(t *testing.T, raw string) *BadgeConfig {
	t.Helper()
	cfg := Parse(raw)
	require.NotNil(t, cfg)
	return cfg
}

func TestGhostWithoutPrerequisitesNeverUnlocks(t *testing.T) {
	cfg := ghostCfg(t, `{"type":"text","answer":"","isGhost":true}`)
	assert.False(t, GhostEligible(cfg))
	assert.False(t, ShouldUnlock(cfg, NewIDSet(1, 2, 3), 1000))
}

func TestRequiredBadgesAllMode(t *testing.T) {
	cfg := ghostCfg(t, `{"type":"text","answer":"","isGhost":true,"requiredBadges":["1","2"]}`)

	assert.False(t, ShouldUnlock(cfg, NewIDSet(1), 0))
	assert.True(t, ShouldUnlock(cfg, NewIDSet(1, 2), 0))
}

func TestRequiredBadgesMixedIDForms(t *testing.T) {
	// Ids listed as numbers match records stored as strings and back.
	cfg := ghostCfg(t, `{"type":"text","answer":"","isGhost":true,"requiredBadges":[1,"2"]}`)
	assert.True(t, ShouldUnlock(cfg, NewIDSet(1, 2), 0))
}

func TestPrereqModeAny(t *testing.T) {
	cfg := ghostCfg(t, `{"type":"text","answer":"","isGhost":true,"prereqMode":"any","requiredBadges":["9"],"minSkills":5}`)

	assert.True(t, ShouldUnlock(cfg, NewIDSet(), 5), "minSkills alone satisfies any-mode")
	assert.True(t, ShouldUnlock(cfg, NewIDSet(9), 0))
	assert.False(t, ShouldUnlock(cfg, NewIDSet(), 4))
}

func TestMinBadgesAndMinRank(t *testing.T) {
	cfg := ghostCfg(t, `{"type":"text","answer":"","isGhost":true,"minBadges":2}`)
	assert.False(t, ShouldUnlock(cfg, NewIDSet(1), 0))
	assert.True(t, ShouldUnlock(cfg, NewIDSet(1, 2), 0))

	rank := ghostCfg(t, `{"type":"text","answer":"","isGhost":true,"minRank":"Apprenti"}`)
	assert.False(t, ShouldUnlock(rank, NewIDSet(), 5))
	assert.True(t, ShouldUnlock(rank, NewIDSet(), 10))

	unknown := ghostCfg(t, `{"type":"text","answer":"","isGhost":true,"minRank":"Empereur"}`)
	assert.False(t, ShouldUnlock(unknown, NewIDSet(), 10000), "unknown rank names never pass")
}

// ===============================
// RECONCILIATION
// ===============================

func reconcileFixture() (map[int64]*models.Badge, map[int64]*BadgeConfig) {
	badges := map[int64]*models.Badge{
		1:  {ID: 1, Name: "Un", RawAnswer: "a"},
		2:  {ID: 2, Name: "Deux", RawAnswer: "b"},
		10: {ID: 10, Name: "Fantôme", RawAnswer: `{"type":"text","answer":"","isGhost":true,"requiredBadges":["1","2"]}`},
	}
	configs := map[int64]*BadgeConfig{10: Parse(badges[10].RawAnswer)}
	return badges, configs
}

func TestReconcileUnlocksGhost(t *testing.T) {
	badges, configs := reconcileFixture()
	records := []*models.UserBadgeRecord{
		{BadgeID: 1, Success: true},
		{BadgeID: 2, Success: true},
	}

	ops := Reconcile(badges, configs, records)
	require.Len(t, ops, 1)
	assert.Equal(t, int64(10), ops[0].BadgeID)
	assert.True(t, ops[0].Unlock)
}

func TestReconcileRelocksGhost(t *testing.T) {
	badges, configs := reconcileFixture()
	records := []*models.UserBadgeRecord{
		{BadgeID: 1, Success: true},
		{BadgeID: 2, Success: false},
		{BadgeID: 10, Success: true},
	}

	ops := Reconcile(badges, configs, records)
	require.Len(t, ops, 1)
	assert.Equal(t, int64(10), ops[0].BadgeID)
	assert.False(t, ops[0].Unlock, "ghost rows are deleted when the predicate lapses")
}

func TestReconcileIsIdempotent(t *testing.T) {
	badges, configs := reconcileFixture()
	records := []*models.UserBadgeRecord{
		{BadgeID: 1, Success: true},
		{BadgeID: 2, Success: true},
		{BadgeID: 10, Success: true},
	}
	assert.Empty(t, Reconcile(badges, configs, records))
}

func TestReconcileGhostChain(t *testing.T) {
	// Ghost 11 depends on ghost 10: both settle in one reconciliation call.
	badges, configs := reconcileFixture()
	badges[11] = &models.Badge{ID: 11, Name: "Méta", RawAnswer: `{"type":"text","answer":"","isGhost":true,"requiredBadges":["10"]}`}
	configs[11] = Parse(badges[11].RawAnswer)

	records := []*models.UserBadgeRecord{
		{BadgeID: 1, Success: true},
		{BadgeID: 2, Success: true},
	}

	ops := Reconcile(badges, configs, records)
	require.Len(t, ops, 2)
	for _, op := range ops {
		assert.True(t, op.Unlock)
	}
}

func TestReconcileMinSkillsUsesSettledTotals(t *testing.T) {
	badges := map[int64]*models.Badge{
		1:  {ID: 1, Name: "Un", RawAnswer: "a"},
		10: {ID: 10, Name: "Fantôme", RawAnswer: `{"type":"text","answer":"","isGhost":true,"minSkills":2,"skillPoints":5}`},
	}
	configs := map[int64]*BadgeConfig{10: Parse(badges[10].RawAnswer)}

	// One plain badge is worth a single point: below the threshold.
	records := []*models.UserBadgeRecord{{BadgeID: 1, Success: true}}
	assert.Empty(t, Reconcile(badges, configs, records))
}
