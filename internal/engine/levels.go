// file: internal/engine/levels.go
package engine

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ===============================
// RESERVED LEVEL TOKENS
// ===============================

// Reserved level labels, distinct from arbitrary admin-entered labels.
// They are compared case-insensitively everywhere.
const (
	// LevelZero is the blocked-at-zero sentinel, always worth 0 points.
	LevelZero = "niv 0"
	// LevelExpert is the mystery/highest tier sentinel, worth a fixed 10 points.
	LevelExpert = "Expert"
	// LevelSkillMax replaces the label of the top non-mystery tier on unlock.
	LevelSkillMax = "Skill max"
)

// Reserved option-skill tokens understood by optionSkills maps.
const (
	// TokenBlock marks an option that prevents the badge from ever
	// unlocking while selected, regardless of other selections.
	TokenBlock = "bloquer"
)

// MysteryPoints is the fixed value of the mystery/expert tier.
const MysteryPoints = 10

var mysteryLabels = map[string]bool{
	"expert":  true,
	"mystère": true,
	"mystere": true,
}

var zeroLabels = map[string]bool{
	"niv 0":    true,
	"skill 0":  true,
	"niveau 0": true,
}

var noneTokens = map[string]bool{
	"aucun": true,
	"none":  true,
	"no":    true,
	"0":     true,
	"-":     true,
}

var trailingNumber = regexp.MustCompile(`(\d+)\s*$`)

// ===============================
// LABEL PREDICATES
// ===============================

// IsMysteryLevel reports whether a label names the mystery/expert tier
func IsMysteryLevel(label string) bool {
	return mysteryLabels[strings.ToLower(strings.TrimSpace(label))]
}

// IsZeroLevel reports whether a label is the reserved zero-level sentinel
func IsZeroLevel(label string) bool {
	return zeroLabels[strings.ToLower(strings.TrimSpace(label))]
}

// IsSkillMaxLevel reports whether a label is the rewritten top-tier sentinel
func IsSkillMaxLevel(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), LevelSkillMax)
}

// IsNoneToken reports whether an option-skill label contributes no level
func IsNoneToken(label string) bool {
	return noneTokens[strings.ToLower(strings.TrimSpace(label))]
}

// IsBlockToken reports whether an option-skill label blocks the badge
func IsBlockToken(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), TokenBlock)
}

// ExtractSkillNumber parses a trailing integer from a level label
// ("Skill 2" -> 2). The second return is false when no number is found.
func ExtractSkillNumber(label string) (int, bool) {
	m := trailingNumber.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ===============================
// POSITION & ORDERING
// ===============================

// PositionOf returns the 1-based index of a label within an ordered level
// list. Zero-level labels short-circuit to position 0. The second return
// is false when the label is not found.
func PositionOf(label string, levels []Level) (int, bool) {
	if IsZeroLevel(label) {
		return 0, true
	}
	for i, lvl := range levels {
		if strings.EqualFold(strings.TrimSpace(lvl.Label), strings.TrimSpace(label)) {
			return i + 1, true
		}
	}
	return 0, false
}

// labelClass orders labels when no explicit points are configured:
// zero-level first, then numbered labels, then unnumbered, mystery last.
func labelClass(label string) int {
	switch {
	case IsZeroLevel(label):
		return 0
	case IsMysteryLevel(label):
		return 3
	default:
		if _, ok := ExtractSkillNumber(label); ok {
			return 1
		}
		return 2
	}
}

// SortLevels orders a level list in place: zero-level first, ascending by
// trailing skill number, then labels with no number, mystery entries last,
// ties broken lexicographically.
func SortLevels(levels []Level) {
	sort.SliceStable(levels, func(i, j int) bool {
		a, b := levels[i].Label, levels[j].Label
		ca, cb := labelClass(a), labelClass(b)
		if ca != cb {
			return ca < cb
		}
		if ca == 1 {
			na, _ := ExtractSkillNumber(a)
			nb, _ := ExtractSkillNumber(b)
			if na != nb {
				return na < nb
			}
		}
		return strings.ToLower(a) < strings.ToLower(b)
	})
}
