// file: internal/engine/scoring.go
package engine

import (
	"strings"

	"badgehub/internal/models"
)

// ===============================
// PER-BADGE POINTS
// ===============================

// PointsFor maps a (badge, level, recorded answer) triple to its signed
// point value. Resolution order: zero level, explicit ghost skillPoints,
// explicit per-level points, the fixed mystery value, level position,
// then the no-level defaults. Low-skill badges invert and double the
// result last.
func PointsFor(badge *models.Badge, cfg *BadgeConfig, level *string, userAnswer *string) int {
	base := basePoints(cfg, level, userAnswer)
	if badge != nil && badge.LowSkill {
		if base < 0 {
			base = -base
		}
		return -base * 2
	}
	return base
}

func basePoints(cfg *BadgeConfig, level *string, userAnswer *string) int {
	// The zero level is worth exactly 0, low-skill flag included.
	if level != nil && IsZeroLevel(*level) {
		return 0
	}

	if cfg != nil && cfg.IsGhost && cfg.SkillPoints != nil {
		return *cfg.SkillPoints
	}

	if level != nil {
		levels := configLevels(cfg)

		if resolved := resolveLevel(*level, levels); resolved != nil && resolved.Points != nil {
			return *resolved.Points
		}
		if IsMysteryLevel(*level) {
			return MysteryPoints
		}
		if IsSkillMaxLevel(*level) && len(levels) > 0 {
			return len(levels)
		}
		if pos, ok := PositionOf(*level, levels); ok && pos > 0 {
			return pos
		}
		return 1
	}

	// No level: boolean badges may carry an explicit value for a
	// true-answer; everything else is worth a single point.
	if cfg != nil && cfg.Type == TypeBoolean && cfg.SkillPoints != nil {
		answer := ""
		if userAnswer != nil {
			answer = *userAnswer
		}
		if AnswerMatchesTrue(cfg, answer) {
			return *cfg.SkillPoints
		}
		return 0
	}
	return 1
}

// configLevels returns the ordered level list of whichever arm carries one
func configLevels(cfg *BadgeConfig) []Level {
	if cfg == nil {
		return nil
	}
	switch cfg.Type {
	case TypeRange:
		return cfg.Range.Levels
	case TypeMultiSelect:
		return cfg.Multi.Levels
	case TypeSingleSelect:
		return cfg.Single.Levels
	}
	return nil
}

// resolveLevel finds the configured tier a recorded label refers to.
// Unlock-time rewrites are resolved back: "Skill max" is the last
// configured tier, "Expert" the mystery-labeled one.
func resolveLevel(label string, levels []Level) *Level {
	if len(levels) == 0 {
		return nil
	}
	for i := range levels {
		if strings.EqualFold(strings.TrimSpace(levels[i].Label), strings.TrimSpace(label)) {
			return &levels[i]
		}
	}
	if IsSkillMaxLevel(label) {
		return &levels[len(levels)-1]
	}
	if IsMysteryLevel(label) {
		for i := range levels {
			if IsMysteryLevel(levels[i].Label) {
				return &levels[i]
			}
		}
	}
	return nil
}

// ===============================
// AGGREGATE TOTALS
// ===============================

// Totals is the derived profile aggregate over a user's unlocked badges
type Totals struct {
	BadgeCount  int
	SkillPoints int
	Rank        string
}

// ComputeTotals sums points over currently-unlocked records. Ghost
// records must already be settled by reconciliation: every success=true
// row counts, ghost or not. Records for unknown badge ids are skipped.
func ComputeTotals(badges map[int64]*models.Badge, configs map[int64]*BadgeConfig, records []*models.UserBadgeRecord) Totals {
	t := Totals{}
	for _, rec := range records {
		if !rec.Success {
			continue
		}
		badge, ok := badges[rec.BadgeID]
		if !ok {
			continue
		}
		t.BadgeCount++
		t.SkillPoints += PointsFor(badge, configs[rec.BadgeID], rec.Level, rec.UserAnswer)
	}
	t.Rank = models.RankFor(t.SkillPoints)
	return t
}
