package item

import (
	"sort"
	"strings"
)

// SpecialTag marks a parenthetical that is a generic descriptor
// ("any slashing weapon, but not a pike") rather than a concrete list.
const SpecialTag = "*Special*"

// GeneralType returns the type label before any parenthetical, e.g.
// "Weapon (longsword or shortsword)" -> "Weapon".
func GeneralType(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "("); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// SpecificTags extracts concrete sub-type tags from the parenthetical
// part of a type string, sorted for stable storage.
//
//	"Weapon (greataxe, greatsword, or maul)" -> [Greataxe Greatsword Maul]
//	"Weapon (any slashing simple weapon)"    -> [*Special*]
//	"Wondrous Item"                          -> nil
func SpecificTags(raw string) []string {
	s := strings.TrimSpace(raw)
	open := strings.Index(s, "(")
	close := strings.LastIndex(s, ")")
	if open < 0 || close <= open {
		return nil
	}
	inner := strings.TrimSpace(s[open+1 : close])
	if inner == "" {
		return nil
	}

	lower := strings.ToLower(inner)
	if strings.Contains(lower, "any ") || strings.Contains(lower, "but not") {
		return []string{SpecialTag}
	}

	inner = strings.ReplaceAll(inner, ", or ", ", ")
	inner = strings.ReplaceAll(inner, " or ", ", ")

	seen := make(map[string]bool)
	var tags []string
	for _, part := range strings.Split(inner, ",") {
		tag := normalizePhrase(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// normalizePhrase strips articles, collapses whitespace, and
// capitalizes the first letter: " a studded  leather" -> "Studded leather".
func normalizePhrase(phrase string) string {
	var kept []string
	for _, tok := range strings.Fields(phrase) {
		switch strings.ToLower(tok) {
		case "a", "an", "the":
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return ""
	}
	r := []rune(strings.Join(kept, " "))
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
