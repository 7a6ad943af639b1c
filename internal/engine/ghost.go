// file: internal/engine/ghost.go
package engine

import (
	"sort"
	"strconv"

	"badgehub/internal/models"
)

// ===============================
// ELIGIBILITY & PREDICATE
// ===============================

// GhostEligible reports whether a config describes a conditional badge
// that can ever unlock: it must be flagged as ghost AND carry at least
// one non-empty prerequisite. A ghost with zero prerequisites is
// permanently locked rather than trivially unlocked.
func GhostEligible(cfg *BadgeConfig) bool {
	if cfg == nil || !cfg.IsGhost {
		return false
	}
	g := cfg.Ghost
	return len(g.RequiredBadges) > 0 || g.MinBadges > 0 || g.MinSkills > 0 || g.MinRank != ""
}

// IDSet holds unlocked badge identifiers in canonical string form, so a
// required id stored as the number 12 matches a catalog id "12" and back.
type IDSet map[string]struct{}

// NewIDSet builds a set from numeric badge ids
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.AddInt(id)
	}
	return s
}

// AddInt inserts a numeric badge id
func (s IDSet) AddInt(id int64) {
	s[strconv.FormatInt(id, 10)] = struct{}{}
}

// Has reports whether a flexible id is in the set
func (s IDSet) Has(id FlexID) bool {
	_, ok := s[id.Canonical()]
	return ok
}

// ShouldUnlock evaluates a ghost badge's prerequisite predicate against
// the user's other unlocked badges and current skill point total. One
// check is built per configured prerequisite; checks combine with AND
// unless prereqMode is "any". No checks means no unlock, ever.
func ShouldUnlock(cfg *BadgeConfig, unlocked IDSet, skillPoints int) bool {
	if !GhostEligible(cfg) {
		return false
	}
	g := cfg.Ghost

	var checks []bool
	if len(g.RequiredBadges) > 0 {
		all := true
		for _, id := range g.RequiredBadges {
			if !unlocked.Has(id) {
				all = false
				break
			}
		}
		checks = append(checks, all)
	}
	if g.MinBadges > 0 {
		checks = append(checks, len(unlocked) >= g.MinBadges)
	}
	if g.MinSkills > 0 {
		checks = append(checks, skillPoints >= g.MinSkills)
	}
	if g.MinRank != "" {
		target := models.RankIndex(g.MinRank)
		current := models.RankIndex(models.RankFor(skillPoints))
		checks = append(checks, target >= 0 && current >= target)
	}

	if len(checks) == 0 {
		return false
	}
	if g.PrereqMode == "any" {
		for _, c := range checks {
			if c {
				return true
			}
		}
		return false
	}
	for _, c := range checks {
		if !c {
			return false
		}
	}
	return true
}

// ===============================
// RECONCILIATION
// ===============================

// ReconcileOp is one diff produced by reconciliation: either upsert an
// unlock row (success=true, no level) or relock it (success=false). A
// ghost badge whose conditions lapsed was never "attempted"; the row is
// kept so the relock stays auditable.
type ReconcileOp struct {
	BadgeID int64
	Unlock  bool
}

// Reconcile recomputes ghost unlock truth from a snapshot of a user's
// records and returns the diffs needed to settle stored state. Each pass
// is two-phase: totals are computed from non-ghost plus currently-settled
// ghost state, then every ghost predicate is evaluated against that
// snapshot. Passes repeat until a fixed point so chains of ghosts
// depending on ghosts settle deterministically; the iteration count is
// bounded by the number of ghost badges.
func Reconcile(badges map[int64]*models.Badge, configs map[int64]*BadgeConfig, records []*models.UserBadgeRecord) []ReconcileOp {
	// Working state: which badges are currently counted as unlocked.
	working := make([]*models.UserBadgeRecord, 0, len(records))
	unlockedGhost := make(map[int64]bool)
	originallyUnlocked := make(map[int64]bool)
	for _, rec := range records {
		if !rec.Success {
			continue
		}
		snapshot := *rec
		working = append(working, &snapshot)
		if GhostEligible(configs[rec.BadgeID]) {
			unlockedGhost[rec.BadgeID] = true
			originallyUnlocked[rec.BadgeID] = true
		}
	}

	var ghostIDs []int64
	for id, cfg := range configs {
		if _, known := badges[id]; known && GhostEligible(cfg) {
			ghostIDs = append(ghostIDs, id)
		}
	}
	sort.Slice(ghostIDs, func(i, j int) bool { return ghostIDs[i] < ghostIDs[j] })

	maxPasses := len(ghostIDs)
	if maxPasses == 0 {
		return nil
	}

	for pass := 0; pass <= maxPasses; pass++ {
		totals := ComputeTotals(badges, configs, working)

		unlocked := make(IDSet, len(working))
		for _, rec := range working {
			unlocked.AddInt(rec.BadgeID)
		}

		changed := false
		for _, id := range ghostIDs {
			// The predicate sees the *other* unlocked badges.
			self := FlexID(strconv.FormatInt(id, 10))
			others := unlocked
			if unlocked.Has(self) {
				others = make(IDSet, len(unlocked))
				for k := range unlocked {
					others[k] = struct{}{}
				}
				delete(others, self.Canonical())
			}

			should := ShouldUnlock(configs[id], others, totals.SkillPoints)
			if should == unlockedGhost[id] {
				continue
			}
			changed = true
			unlockedGhost[id] = should
			if should {
				working = append(working, &models.UserBadgeRecord{
					BadgeID: id, Success: true,
				})
			} else {
				for i, rec := range working {
					if rec.BadgeID == id {
						working = append(working[:i], working[i+1:]...)
						break
					}
				}
			}
		}
		if !changed {
			break
		}
	}

	var ops []ReconcileOp
	for _, id := range ghostIDs {
		if unlockedGhost[id] != originallyUnlocked[id] {
			ops = append(ops, ReconcileOp{BadgeID: id, Unlock: unlockedGhost[id]})
		}
	}
	return ops
}
