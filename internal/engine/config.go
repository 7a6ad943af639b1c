// file: internal/engine/config.go
package engine

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ===============================
// CONFIG TYPES
// ===============================

// ConfigType tags the answer kind of a badge configuration
type ConfigType string

const (
	TypeText         ConfigType = "text"
	TypeBoolean      ConfigType = "boolean"
	TypeRange        ConfigType = "range"
	TypeMultiSelect  ConfigType = "multiSelect"
	TypeSingleSelect ConfigType = "singleSelect"
)

// Level is one tier of a range or multiSelect configuration
type Level struct {
	Label  string   `json:"label"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Points *int     `json:"points,omitempty"`
}

// Option is one selectable choice of a multiSelect/singleSelect configuration
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FlexID is a badge identifier that round-trips through JSON as either a
// string or a number; comparisons use the canonical string form.
type FlexID string

// UnmarshalJSON accepts both `"12"` and `12`
func (f *FlexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(v))
		return nil
	}
	*f = FlexID(s)
	return nil
}

// MarshalJSON re-emits numeric ids as JSON numbers
func (f FlexID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

// Canonical returns the comparison form of the id
func (f FlexID) Canonical() string {
	s := strings.TrimSpace(string(f))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

// GhostSpec carries the prerequisite predicate of a conditional badge.
// The fields are orthogonal to the answer type.
type GhostSpec struct {
	RequiredBadges []FlexID
	PrereqMode     string // "all" (default) or "any"
	MinBadges      int
	MinSkills      int
	MinRank        string
	DisplayText    string
}

// TextSpec expects a plain string answer
type TextSpec struct {
	Answer string
}

// BooleanSpec expects a yes/no style answer
type BooleanSpec struct {
	TrueLabels  []string
	FalseLabels []string
	Expected    bool // defaults to true
}

// RangeSpec expects a numeric answer, either matched against tiers or a
// flat [min,max] window with an optional exact expected value.
type RangeSpec struct {
	Levels   []Level
	Min      *float64
	Max      *float64
	Expected *float64
}

// MultiSelectSpec expects one or more selected option values
type MultiSelectSpec struct {
	Options      []Option
	Levels       []Level
	SkillMode    string // "count" (default) or "option"
	OptionSkills map[string]string
	DisplayMode  string // "count" (default) or "list"
}

// SingleSelectSpec expects exactly one selected option value
type SingleSelectSpec struct {
	Options      []Option
	OptionSkills map[string]string
	// Levels is derived from the distinct skill labels of OptionSkills,
	// in canonical label order; it exists for position-based scoring.
	Levels []Level
}

// BadgeConfig is the decoded form of a badge's stored answer field: a
// tagged union over the answer type plus cross-cutting ghost and display
// fields. It is the only wire format this engine defines; Parse and
// MarshalJSON are exact inverses for well-formed configs.
type BadgeConfig struct {
	Type ConfigType

	// Presentation hints, not logic
	DisplayPrefix  string
	DisplaySuffix  string
	BlockedMessage string

	// Ghost fields, orthogonal to Type
	IsGhost bool
	Ghost   GhostSpec

	// Explicit point value: ghost badges and boolean badges use it
	SkillPoints *int

	// Exactly one arm is non-nil, matching Type
	Text   *TextSpec
	Bool   *BooleanSpec
	Range  *RangeSpec
	Multi  *MultiSelectSpec
	Single *SingleSelectSpec
}

// ===============================
// WIRE FORMAT
// ===============================

// rawConfig mirrors the flat persisted JSON object. The `expected` key is
// a boolean for boolean configs and a number for range configs, so it is
// deferred to the per-type decode.
type rawConfig struct {
	Type             string            `json:"type"`
	DisplayPrefix    string            `json:"displayPrefix,omitempty"`
	DisplaySuffix    string            `json:"displaySuffix,omitempty"`
	BlockedMessage   string            `json:"blockedMessage,omitempty"`
	IsGhost          bool              `json:"isGhost,omitempty"`
	RequiredBadges   []FlexID          `json:"requiredBadges,omitempty"`
	PrereqMode       string            `json:"prereqMode,omitempty"`
	MinBadges        int               `json:"minBadges,omitempty"`
	MinSkills        int               `json:"minSkills,omitempty"`
	MinRank          string            `json:"minRank,omitempty"`
	SkillPoints      *int              `json:"skillPoints,omitempty"`
	GhostDisplayText string            `json:"ghostDisplayText,omitempty"`
	Answer           string            `json:"answer,omitempty"`
	TrueLabels       []string          `json:"trueLabels,omitempty"`
	FalseLabels      []string          `json:"falseLabels,omitempty"`
	Expected         json.RawMessage   `json:"expected,omitempty"`
	Levels           []Level           `json:"levels,omitempty"`
	Min              *float64          `json:"min,omitempty"`
	Max              *float64          `json:"max,omitempty"`
	Options          []Option          `json:"options,omitempty"`
	MultiSkillMode   string            `json:"multiSkillMode,omitempty"`
	OptionSkills     map[string]string `json:"optionSkills,omitempty"`
	MultiDisplayMode string            `json:"multiDisplayMode,omitempty"`
}

// Parse decodes a badge's stored answer field into a BadgeConfig. It
// returns nil for anything that is not a JSON object carrying a known
// type tag: the caller must then treat the badge as a plain-text-equality
// badge using the raw string itself as the expected answer. Parse never
// fails loudly; malformed input is the fallback case, not an error.
func Parse(raw string) *BadgeConfig {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] != '{' {
		return nil
	}

	var rc rawConfig
	if err := json.Unmarshal([]byte(raw), &rc); err != nil {
		return nil
	}

	cfg := &BadgeConfig{
		DisplayPrefix:  rc.DisplayPrefix,
		DisplaySuffix:  rc.DisplaySuffix,
		BlockedMessage: rc.BlockedMessage,
		IsGhost:        rc.IsGhost,
		SkillPoints:    rc.SkillPoints,
		Ghost: GhostSpec{
			RequiredBadges: rc.RequiredBadges,
			PrereqMode:     defaultString(rc.PrereqMode, "all"),
			MinBadges:      rc.MinBadges,
			MinSkills:      rc.MinSkills,
			MinRank:        rc.MinRank,
			DisplayText:    rc.GhostDisplayText,
		},
	}

	switch ConfigType(rc.Type) {
	case TypeText:
		cfg.Type = TypeText
		cfg.Text = &TextSpec{Answer: rc.Answer}
	case TypeBoolean:
		expected := true
		if len(rc.Expected) > 0 {
			if err := json.Unmarshal(rc.Expected, &expected); err != nil {
				return nil
			}
		}
		cfg.Type = TypeBoolean
		cfg.Bool = &BooleanSpec{
			TrueLabels:  rc.TrueLabels,
			FalseLabels: rc.FalseLabels,
			Expected:    expected,
		}
	case TypeRange:
		var expected *float64
		if len(rc.Expected) > 0 {
			var v float64
			if err := json.Unmarshal(rc.Expected, &v); err != nil {
				return nil
			}
			expected = &v
		}
		cfg.Type = TypeRange
		cfg.Range = &RangeSpec{
			Levels:   rc.Levels,
			Min:      rc.Min,
			Max:      rc.Max,
			Expected: expected,
		}
	case TypeMultiSelect:
		cfg.Type = TypeMultiSelect
		cfg.Multi = &MultiSelectSpec{
			Options:      rc.Options,
			Levels:       rc.Levels,
			SkillMode:    defaultString(rc.MultiSkillMode, "count"),
			OptionSkills: rc.OptionSkills,
			DisplayMode:  defaultString(rc.MultiDisplayMode, "count"),
		}
	case TypeSingleSelect:
		cfg.Type = TypeSingleSelect
		cfg.Single = &SingleSelectSpec{
			Options:      rc.Options,
			OptionSkills: rc.OptionSkills,
			Levels:       deriveLevels(rc.OptionSkills),
		}
	default:
		// No (or unknown) type tag: same fallback as malformed JSON.
		return nil
	}

	return cfg
}

// MarshalJSON re-emits the flat persisted shape, omitting unset optional
// fields so stored configs round-trip byte-compatibly.
func (c *BadgeConfig) MarshalJSON() ([]byte, error) {
	rc := rawConfig{
		Type:           string(c.Type),
		DisplayPrefix:  c.DisplayPrefix,
		DisplaySuffix:  c.DisplaySuffix,
		BlockedMessage: c.BlockedMessage,
		IsGhost:        c.IsGhost,
		SkillPoints:    c.SkillPoints,
	}

	if c.IsGhost || len(c.Ghost.RequiredBadges) > 0 || c.Ghost.MinBadges > 0 ||
		c.Ghost.MinSkills > 0 || c.Ghost.MinRank != "" || c.Ghost.DisplayText != "" {
		rc.RequiredBadges = c.Ghost.RequiredBadges
		if c.Ghost.PrereqMode != "all" {
			rc.PrereqMode = c.Ghost.PrereqMode
		}
		rc.MinBadges = c.Ghost.MinBadges
		rc.MinSkills = c.Ghost.MinSkills
		rc.MinRank = c.Ghost.MinRank
		rc.GhostDisplayText = c.Ghost.DisplayText
	}

	switch c.Type {
	case TypeText:
		rc.Answer = c.Text.Answer
	case TypeBoolean:
		rc.TrueLabels = c.Bool.TrueLabels
		rc.FalseLabels = c.Bool.FalseLabels
		if !c.Bool.Expected {
			rc.Expected = json.RawMessage("false")
		}
	case TypeRange:
		rc.Levels = c.Range.Levels
		rc.Min = c.Range.Min
		rc.Max = c.Range.Max
		if c.Range.Expected != nil {
			b, err := json.Marshal(*c.Range.Expected)
			if err != nil {
				return nil, err
			}
			rc.Expected = b
		}
	case TypeMultiSelect:
		rc.Options = c.Multi.Options
		rc.Levels = c.Multi.Levels
		if c.Multi.SkillMode != "count" {
			rc.MultiSkillMode = c.Multi.SkillMode
		}
		rc.OptionSkills = c.Multi.OptionSkills
		if c.Multi.DisplayMode != "count" {
			rc.MultiDisplayMode = c.Multi.DisplayMode
		}
	case TypeSingleSelect:
		rc.Options = c.Single.Options
		rc.OptionSkills = c.Single.OptionSkills
	}

	return json.Marshal(rc)
}

// deriveLevels builds an ordered level list from the distinct skill labels
// of an optionSkills map, skipping reserved none/block tokens.
func deriveLevels(optionSkills map[string]string) []Level {
	seen := make(map[string]bool, len(optionSkills))
	var levels []Level
	for _, label := range optionSkills {
		label = strings.TrimSpace(label)
		if label == "" || IsNoneToken(label) || IsBlockToken(label) {
			continue
		}
		key := strings.ToLower(label)
		if seen[key] {
			continue
		}
		seen[key] = true
		levels = append(levels, Level{Label: label})
	}
	SortLevels(levels)
	return levels
}

func defaultString(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
