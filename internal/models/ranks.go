// file: internal/models/ranks.go
package models

import "strings"

// RankTier is one row of the static rank table
type RankTier struct {
	MinPoints int    `json:"min_points"`
	Name      string `json:"name"`
}

// RankTable is the fixed ascending threshold table. The current rank is
// the highest entry whose MinPoints <= skill points; negative totals fall
// through to the first tier.
var RankTable = []RankTier{
	{MinPoints: 0, Name: "Novice"},
	{MinPoints: 10, Name: "Apprenti"},
	{MinPoints: 25, Name: "Confirmé"},
	{MinPoints: 50, Name: "Expert"},
	{MinPoints: 100, Name: "Maître"},
	{MinPoints: 200, Name: "Légende"},
}

// RankFor derives the rank name from a signed skill point total
func RankFor(skillPoints int) string {
	current := RankTable[0].Name
	for _, tier := range RankTable {
		if skillPoints >= tier.MinPoints {
			current = tier.Name
		}
	}
	return current
}

// RankIndex returns the position of a rank name in the fixed order, or -1
// when the name is not part of the table.
func RankIndex(name string) int {
	for i, tier := range RankTable {
		if strings.EqualFold(tier.Name, name) {
			return i
		}
	}
	return -1
}
