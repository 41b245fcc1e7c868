package item

import "strings"

// Canonical rarity labels, in ascending order of rarity.
var Rarities = []string{"Common", "Uncommon", "Rare", "Very Rare", "Legendary", "Artifact"}

var rarityByFold = func() map[string]string {
	m := make(map[string]string, len(Rarities))
	for _, r := range Rarities {
		m[strings.ToLower(r)] = r
	}
	return m
}()

// NormalizeRarity maps the rarity spellings seen in source data to a
// canonical label. Handles ordinal prefixes ("2 Uncommon") and case
// variants. Returns "" when the label is not recognized.
func NormalizeRarity(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	// Ordinal prefix used by some source sheets: "1 Common" .. "6 Artifact".
	if len(s) > 2 && s[0] >= '1' && s[0] <= '6' && s[1] == ' ' {
		s = s[2:]
	}
	return rarityByFold[strings.ToLower(strings.TrimSpace(s))]
}
