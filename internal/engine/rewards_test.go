// file: internal/engine/rewards_test.go
package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpinDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	themes := []string{"Sport", "Culture", "Autres"}

	const spins = 100000
	jokers := 0
	byTheme := make(map[string]int)
	for i := 0; i < spins; i++ {
		out := Spin(rng, themes)
		if out.Joker {
			jokers++
			assert.NotEqual(t, JokerNone, out.Sub)
		} else {
			byTheme[out.Theme]++
		}
	}

	assert.InDelta(t, 0.10, float64(jokers)/spins, 0.01)
	for _, theme := range themes {
		assert.InDelta(t, 0.30, float64(byTheme[theme])/spins, 0.01, theme)
	}
}

func TestSpinWithoutEligibleThemes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		out := Spin(rng, nil)
		assert.True(t, out.Joker, "no locked theme left degrades to joker")
	}
}

func TestJokerSubDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	const rolls = 100000
	counts := make(map[JokerOutcome]int)
	for i := 0; i < rolls; i++ {
		counts[SpinJoker(rng)]++
	}

	assert.InDelta(t, 0.20, float64(counts[JokerMalus])/rolls, 0.01)
	assert.InDelta(t, 0.30, float64(counts[JokerModify])/rolls, 0.01)
	assert.InDelta(t, 0.50, float64(counts[JokerTokens])/rolls, 0.01)
}

func TestImprovementRank(t *testing.T) {
	assert.Equal(t, -1, ImprovementRank(nil))
	assert.Equal(t, 0, ImprovementRank(strptr("Skill 1")))
	assert.Equal(t, 3, ImprovementRank(strptr("skill max")))
	assert.Equal(t, 4, ImprovementRank(strptr("Expert")))
	assert.Equal(t, -1, ImprovementRank(strptr("niv 0")))
}

func TestCompareImprovement(t *testing.T) {
	ok := func(level string) Result { return Result{OK: true, Level: &level, Attempted: true} }

	assert.Equal(t, ImproveAccept, CompareImprovement(strptr("Skill 1"), ok("Skill 3")))
	assert.Equal(t, ImproveKeepLevel, CompareImprovement(strptr("Skill 2"), ok("Skill 2")))
	assert.Equal(t, ImproveReject, CompareImprovement(strptr("Skill 3"), ok("Skill 1")))
	assert.Equal(t, ImproveDemote, CompareImprovement(strptr("Skill 3"), Result{OK: false, Attempted: true}))

	// A correct boolean "false" answer has no level: never an upgrade.
	assert.Equal(t, ImproveReject, CompareImprovement(strptr("Skill 1"), Result{OK: true, Attempted: true}))
}

func TestTokenCosts(t *testing.T) {
	assert.Equal(t, 1, SpinCost)
	assert.Equal(t, 5, ImproveCost)
	assert.Equal(t, 2, ModifyCost)
	assert.Equal(t, 3, BonusTokens)
}
