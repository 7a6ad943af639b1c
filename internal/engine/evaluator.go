// file: internal/engine/evaluator.go
package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"badgehub/internal/models"
)

// ===============================
// EVALUATION RESULT
// ===============================

// Result is the outcome of evaluating one submitted answer. It is always
// a plain value: evaluation never fails with an error. Rejections split
// into two kinds the caller must distinguish: Attempted=false means the
// input was unusable (nothing to persist), Attempted=true means the
// answer was valid but wrong or blocked (persisted as a failed attempt).
type Result struct {
	OK        bool
	Level     *string
	Message   string
	Attempted bool
}

func accept(level *string) Result {
	return Result{OK: true, Level: level, Message: "Badge débloqué !", Attempted: true}
}

func acceptLabel(label string) Result {
	return accept(&label)
}

// reject marks input that never reached the unlock rules
func reject(message string) Result {
	return Result{OK: false, Message: message, Attempted: false}
}

// block marks a valid answer that the rules refuse; it counts as an attempt
func block(cfg *BadgeConfig, fallback string) Result {
	msg := fallback
	if cfg != nil && cfg.BlockedMessage != "" {
		msg = cfg.BlockedMessage
	}
	return Result{OK: false, Message: msg, Attempted: true}
}

// Default user-facing messages; a config's blockedMessage overrides the
// blocked-by-rule ones.
const (
	msgWrongAnswer     = "Mauvaise réponse"
	msgAnswerYesNo     = "Réponds par oui ou non"
	msgEnterNumber     = "Entre un nombre"
	msgOutsideTiers    = "Valeur en dehors des paliers"
	msgPickOne         = "Choisis une option"
	msgPickAtLeastOne  = "Choisis au moins une option"
	msgInvalidOption   = "Option invalide"
	msgChoiceBlocks    = "Ce choix bloque le badge"
	msgNothingUnlocked = "Ces choix ne débloquent rien"
)

// ===============================
// EVALUATOR
// ===============================

// Evaluate decides whether a badge unlocks for a submitted answer and at
// which level. cfg is the parsed form of badge.RawAnswer; pass nil to use
// the plain-text-equality fallback against the raw stored answer.
func Evaluate(badge *models.Badge, cfg *BadgeConfig, rawAnswer string, selected []string) Result {
	if cfg == nil {
		return evaluateFallback(badge.RawAnswer, rawAnswer)
	}

	switch cfg.Type {
	case TypeText:
		expected := cfg.Text.Answer
		if expected == "" {
			expected = badge.RawAnswer
		}
		return evaluateFallback(expected, rawAnswer)
	case TypeBoolean:
		return evaluateBoolean(cfg, rawAnswer)
	case TypeRange:
		return evaluateRange(badge, cfg, rawAnswer)
	case TypeMultiSelect:
		return evaluateMultiSelect(badge, cfg, selected)
	case TypeSingleSelect:
		return evaluateSingleSelect(cfg, selected)
	default:
		return evaluateFallback(badge.RawAnswer, rawAnswer)
	}
}

// EvaluateBadge parses the badge's stored answer field and evaluates
func EvaluateBadge(badge *models.Badge, rawAnswer string, selected []string) Result {
	return Evaluate(badge, Parse(badge.RawAnswer), rawAnswer, selected)
}

// evaluateFallback is plain case-insensitive trimmed string equality;
// both sides must be non-empty.
func evaluateFallback(expected, answer string) Result {
	expected = strings.TrimSpace(expected)
	answer = strings.TrimSpace(answer)
	if expected == "" || answer == "" {
		return reject(msgWrongAnswer)
	}
	if strings.EqualFold(expected, answer) {
		return accept(nil)
	}
	return Result{OK: false, Message: msgWrongAnswer, Attempted: true}
}

// ===============================
// BOOLEAN
// ===============================

var defaultTrueLabels = []string{"oui", "yes", "vrai", "true"}
var defaultFalseLabels = []string{"non", "no", "faux", "false"}

func matchesAny(answer string, labels []string) bool {
	for _, l := range labels {
		if strings.EqualFold(strings.TrimSpace(l), answer) {
			return true
		}
	}
	return false
}

// evaluateBoolean normalizes the input against the configured yes/no
// vocabularies. A word matching neither is unusable input, not a failed
// attempt. Boolean badges never carry a level.
func evaluateBoolean(cfg *BadgeConfig, rawAnswer string) Result {
	answer := strings.TrimSpace(rawAnswer)
	trueLabels := cfg.Bool.TrueLabels
	if len(trueLabels) == 0 {
		trueLabels = defaultTrueLabels
	}
	falseLabels := cfg.Bool.FalseLabels
	if len(falseLabels) == 0 {
		falseLabels = defaultFalseLabels
	}

	var value bool
	switch {
	case matchesAny(answer, trueLabels):
		value = true
	case matchesAny(answer, falseLabels):
		value = false
	default:
		return reject(msgAnswerYesNo)
	}

	if value == cfg.Bool.Expected {
		return accept(nil)
	}
	return Result{OK: false, Message: msgWrongAnswer, Attempted: true}
}

// AnswerMatchesTrue reports whether a recorded boolean answer falls in the
// true vocabulary; scoring uses it to tell true-answers from false-answers.
func AnswerMatchesTrue(cfg *BadgeConfig, answer string) bool {
	if cfg == nil || cfg.Bool == nil {
		return false
	}
	labels := cfg.Bool.TrueLabels
	if len(labels) == 0 {
		labels = defaultTrueLabels
	}
	return matchesAny(strings.TrimSpace(answer), labels)
}

// ===============================
// RANGE
// ===============================

func evaluateRange(badge *models.Badge, cfg *BadgeConfig, rawAnswer string) Result {
	value, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(rawAnswer), ",", "."), 64)
	if err != nil {
		return reject(msgEnterNumber)
	}

	spec := cfg.Range
	if len(spec.Levels) > 0 {
		for i, lvl := range spec.Levels {
			if lvl.Min != nil && value < *lvl.Min {
				continue
			}
			if lvl.Max != nil && value > *lvl.Max {
				continue
			}
			top := i == len(spec.Levels)-1
			return acceptLabel(finalizeTierLabel(badge, lvl.Label, top))
		}
		return block(cfg, msgOutsideTiers)
	}

	min, max := math.Inf(-1), math.Inf(1)
	if spec.Min != nil {
		min = *spec.Min
	}
	if spec.Max != nil {
		max = *spec.Max
	}
	if value < min || value > max {
		return block(cfg, msgWrongAnswer)
	}
	if spec.Expected != nil && value != *spec.Expected {
		return Result{OK: false, Message: msgWrongAnswer, Attempted: true}
	}
	return accept(nil)
}

// ===============================
// MULTI SELECT
// ===============================

func evaluateMultiSelect(badge *models.Badge, cfg *BadgeConfig, selected []string) Result {
	if len(selected) == 0 {
		return reject(msgPickAtLeastOne)
	}
	spec := cfg.Multi

	// A blocking option wins over everything else, in both skill modes.
	for _, value := range selected {
		if IsBlockToken(spec.OptionSkills[value]) {
			return block(cfg, msgChoiceBlocks)
		}
	}

	if spec.SkillMode == "option" {
		return evaluateMultiByOption(cfg, selected)
	}
	return evaluateMultiByCount(badge, cfg, selected)
}

// evaluateMultiByOption picks the highest-ranked skill label among the
// selected options: mystery ranks above everything, an explicit zero
// level only wins when nothing better is mapped.
func evaluateMultiByOption(cfg *BadgeConfig, selected []string) Result {
	spec := cfg.Multi
	best := -1
	var bestLabel string
	for _, value := range selected {
		label := strings.TrimSpace(spec.OptionSkills[value])
		if label == "" || IsNoneToken(label) {
			continue
		}
		rank := optionLevelRank(label, spec.Levels)
		if rank > best {
			best = rank
			bestLabel = label
		}
	}
	if best < 0 {
		return block(cfg, msgNothingUnlocked)
	}
	if IsMysteryLevel(bestLabel) {
		bestLabel = LevelExpert
	}
	return acceptLabel(bestLabel)
}

// optionLevelRank orders option skill labels: mystery above all, zero
// level at the bottom, everything else by list position or trailing number.
func optionLevelRank(label string, levels []Level) int {
	switch {
	case IsMysteryLevel(label):
		return math.MaxInt32
	case IsZeroLevel(label):
		return 0
	}
	if pos, ok := PositionOf(label, levels); ok {
		return pos
	}
	if n, ok := ExtractSkillNumber(label); ok {
		return n
	}
	return 1
}

// evaluateMultiByCount matches the selection count against min thresholds,
// keeping the level with the greatest satisfied min.
func evaluateMultiByCount(badge *models.Badge, cfg *BadgeConfig, selected []string) Result {
	spec := cfg.Multi
	count := float64(len(selected))

	var chosen *Level
	topMin := math.Inf(-1)
	smallestMin := math.Inf(1)
	for i := range spec.Levels {
		lvl := &spec.Levels[i]
		min := 0.0
		if lvl.Min != nil {
			min = *lvl.Min
		}
		if min < smallestMin {
			smallestMin = min
		}
		if min > topMin {
			topMin = min
		}
		if min <= count && (chosen == nil || chosenMin(chosen) < min) {
			chosen = lvl
		}
	}

	if chosen == nil {
		need := 1
		if !math.IsInf(smallestMin, 1) {
			need = int(smallestMin)
		}
		return block(cfg, fmt.Sprintf("Il te faut au moins %d choix", need))
	}

	top := chosenMin(chosen) == topMin
	return acceptLabel(finalizeTierLabel(badge, chosen.Label, top))
}

func chosenMin(lvl *Level) float64 {
	if lvl.Min == nil {
		return 0
	}
	return *lvl.Min
}

// ===============================
// SINGLE SELECT
// ===============================

func evaluateSingleSelect(cfg *BadgeConfig, selected []string) Result {
	if len(selected) == 0 || strings.TrimSpace(selected[0]) == "" {
		return reject(msgPickOne)
	}
	value := selected[0]
	spec := cfg.Single

	valid := false
	for _, opt := range spec.Options {
		if opt.Value == value {
			valid = true
			break
		}
	}
	if !valid {
		return reject(msgInvalidOption)
	}

	label := strings.TrimSpace(spec.OptionSkills[value])
	if IsBlockToken(label) {
		return block(cfg, msgChoiceBlocks)
	}
	if label == "" || IsNoneToken(label) {
		return accept(nil)
	}
	if IsMysteryLevel(label) {
		label = LevelExpert
	}
	return acceptLabel(label)
}

// ===============================
// LABEL REWRITING
// ===============================

// finalizeTierLabel applies the unlock-time label rewrites for range and
// multiSelect count tiers: the top tier reads "Skill max" unless it is a
// mystery tier, which reads "Expert". Badges whose display name contains
// "lecteur" always show "Skill max" on their top tier, mystery included;
// a legacy naming convention kept for compatibility with the live catalog.
func finalizeTierLabel(badge *models.Badge, label string, top bool) string {
	lecteur := badge != nil && strings.Contains(strings.ToLower(badge.Name), "lecteur")
	if top {
		if lecteur {
			return LevelSkillMax
		}
		if IsMysteryLevel(label) {
			return LevelExpert
		}
		return LevelSkillMax
	}
	if IsMysteryLevel(label) {
		return LevelExpert
	}
	return label
}
