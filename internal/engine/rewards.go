// file: internal/engine/rewards.go
package engine

import (
	"math/rand"
	"strings"
)

// ===============================
// TOKEN ECONOMY
// ===============================

// Token costs and payouts of the reward surface.
const (
	// SpinCost is deducted per wheel spin.
	SpinCost = 1
	// ImproveCost buys the one-time re-answer right directly.
	ImproveCost = 5
	// ModifyCost is the discounted re-answer right won on the wheel.
	ModifyCost = 2
	// BonusTokens is the immediate payout of the lucky joker sub-outcome.
	BonusTokens = 3
)

// Wheel probabilities. The joker slot ignores badge themes entirely; its
// sub-outcome is rolled independently afterwards.
const (
	JokerProbability       = 0.10
	JokerMalusProbability  = 0.20 // lose one unlocked non-ghost badge
	JokerModifyProbability = 0.30 // win the discounted re-answer right
	// remaining 0.50: immediate token bonus
)

// JokerOutcome is the secondary roll after the joker slot is drawn
type JokerOutcome string

const (
	JokerNone   JokerOutcome = ""
	JokerMalus  JokerOutcome = "malus"
	JokerModify JokerOutcome = "bonus_modify"
	JokerTokens JokerOutcome = "bonus_tokens"
)

// WheelOutcome is one resolved spin
type WheelOutcome struct {
	Joker bool         `json:"joker"`
	Theme string       `json:"theme,omitempty"`
	Sub   JokerOutcome `json:"sub,omitempty"`
}

// Spin resolves one wheel spin: 10% joker, 90% a uniformly random pick
// among themes that still hold at least one locked non-ghost badge. A
// caller with no such theme left always lands on the joker.
func Spin(rng *rand.Rand, themes []string) WheelOutcome {
	if rng.Float64() < JokerProbability || len(themes) == 0 {
		return WheelOutcome{Joker: true, Sub: SpinJoker(rng)}
	}
	return WheelOutcome{Theme: themes[rng.Intn(len(themes))]}
}

// SpinJoker rolls the joker sub-outcome: 20% malus, 30% discounted
// re-answer right, 50% immediate token bonus.
func SpinJoker(rng *rand.Rand) JokerOutcome {
	r := rng.Float64()
	switch {
	case r < JokerMalusProbability:
		return JokerMalus
	case r < JokerMalusProbability+JokerModifyProbability:
		return JokerModify
	default:
		return JokerTokens
	}
}

// ===============================
// IMPROVEMENT POLICY
// ===============================

// improvementOrder is the fixed ladder levels are compared on when an
// already-unlocked badge is re-answered.
var improvementOrder = []string{"Skill 1", "Skill 2", "Skill 3", LevelSkillMax, LevelExpert}

// ImprovementRank returns a level's position on the fixed ladder, or -1
// for no level / labels outside the ladder.
func ImprovementRank(level *string) int {
	if level == nil {
		return -1
	}
	for i, l := range improvementOrder {
		if strings.EqualFold(strings.TrimSpace(*level), l) {
			return i
		}
	}
	return -1
}

// ImproveDecision is the policy verdict on a re-answer of an unlocked badge
type ImproveDecision int

const (
	// ImproveAccept: the new level is strictly higher, persist it.
	ImproveAccept ImproveDecision = iota
	// ImproveKeepLevel: same level, persist only the new raw answer.
	ImproveKeepLevel
	// ImproveReject: valid but lower outcome, keep the old record intact.
	ImproveReject
	// ImproveDemote: the re-submitted answer is outright wrong, the badge
	// drops out of the unlocked set.
	ImproveDemote
)

// CompareImprovement applies the improvement-only rule to a re-answer:
// strictly higher wins, a tie keeps the level, a lower-but-valid outcome
// is a no-op, and a wrong answer demotes the badge.
func CompareImprovement(oldLevel *string, result Result) ImproveDecision {
	if !result.OK {
		return ImproveDemote
	}
	oldRank := ImprovementRank(oldLevel)
	newRank := ImprovementRank(result.Level)
	switch {
	case newRank > oldRank:
		return ImproveAccept
	case newRank == oldRank:
		return ImproveKeepLevel
	default:
		return ImproveReject
	}
}
