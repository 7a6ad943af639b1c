// file: internal/engine/config_test.go
package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlainStringFallsBack(t *testing.T) {
	// A raw text answer is not a config; the caller falls back to
	// plain-text equality against the raw string itself.
	assert.Nil(t, Parse("Paris"))
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse(`"Paris"`))
	assert.Nil(t, Parse("{not json"))
}

func TestParseUnknownTypeFallsBack(t *testing.T) {
	assert.Nil(t, Parse(`{"type":"slider"}`))
	assert.Nil(t, Parse(`{"answer":"Paris"}`))
}

func TestParseBooleanDefaults(t *testing.T) {
	cfg := Parse(`{"type":"boolean","trueLabels":["oui"],"falseLabels":["non"]}`)
	require.NotNil(t, cfg)
	assert.Equal(t, TypeBoolean, cfg.Type)
	assert.True(t, cfg.Bool.Expected, "expected defaults to true")

	cfg = Parse(`{"type":"boolean","expected":false}`)
	require.NotNil(t, cfg)
	assert.False(t, cfg.Bool.Expected)
}

func TestParseMultiSelectDefaults(t *testing.T) {
	cfg := Parse(`{"type":"multiSelect","options":[{"value":"a","label":"A"}]}`)
	require.NotNil(t, cfg)
	assert.Equal(t, "count", cfg.Multi.SkillMode)
	assert.Equal(t, "count", cfg.Multi.DisplayMode)
}

func TestParseGhostFields(t *testing.T) {
	cfg := Parse(`{"type":"text","answer":"x","isGhost":true,"requiredBadges":[1,"2"],"minSkills":5}`)
	require.NotNil(t, cfg)
	assert.True(t, cfg.IsGhost)
	assert.Equal(t, "all", cfg.Ghost.PrereqMode, "prereqMode defaults to all")
	assert.Equal(t, []FlexID{"1", "2"}, cfg.Ghost.RequiredBadges)
	assert.Equal(t, 5, cfg.Ghost.MinSkills)
}

func TestFlexIDCanonical(t *testing.T) {
	assert.Equal(t, "12", FlexID("12").Canonical())
	assert.Equal(t, "12", FlexID(" 12 ").Canonical())
	assert.Equal(t, "abc", FlexID("abc").Canonical())
}

func TestConfigRoundTrip(t *testing.T) {
	raw := `{"type":"range","blockedMessage":"Trop loin","levels":[{"label":"Skill 1","min":0,"max":9},{"label":"Skill 2","min":10,"max":19,"points":4}]}`
	cfg := Parse(raw)
	require.NotNil(t, cfg)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)

	again := Parse(string(out))
	require.NotNil(t, again)
	assert.Equal(t, cfg, again)

	// Optional fields stay omitted on the wire.
	assert.NotContains(t, string(out), "isGhost")
	assert.NotContains(t, string(out), "expected")
	assert.Contains(t, string(out), `"blockedMessage":"Trop loin"`)
}

func TestSingleSelectDerivedLevels(t *testing.T) {
	cfg := Parse(`{"type":"singleSelect","options":[{"value":"a","label":"A"},{"value":"b","label":"B"},{"value":"c","label":"C"},{"value":"d","label":"D"}],"optionSkills":{"a":"Skill 2","b":"Skill 1","c":"aucun","d":"bloquer"}}`)
	require.NotNil(t, cfg)

	got := make([]string, len(cfg.Single.Levels))
	for i, l := range cfg.Single.Levels {
		got[i] = l.Label
	}
	assert.Equal(t, []string{"Skill 1", "Skill 2"}, got, "reserved tokens stay out of derived levels")
}
