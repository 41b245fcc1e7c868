package item

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Item is a single catalog entry: a potion, weapon, wondrous item, etc.
//
// Value is in gold pieces. A nil Value means the entry is unpriced;
// ValueUpdated records whether a user set the price by hand (as opposed
// to the chart price assigned at import time).
type Item struct {
	ID     int64
	Name   string
	Type   string
	Rarity string
	Value  *int

	// Derived type info used for filtering.
	GeneralType  string
	SpecificTags []string

	AttunementRequired bool
	AttunementCriteria string

	SourceLink   string
	Description  string
	ImageURL     string
	ValueUpdated bool
}

// ValueOrZero returns the item's value, treating unpriced as 0.
// The generator engine uses this convention for budget sums.
func (it Item) ValueOrZero() int {
	if it.Value == nil {
		return 0
	}
	return *it.Value
}

// Fold normalizes a string for case-insensitive comparison: NFC
// normalization first, then lowercasing. Imported data mixes UTF-8 and
// transcoded cp1252, so byte-wise comparison is not enough.
func Fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// TypeContainsAny reports whether the item's type contains at least one
// of the given substrings, case-insensitively. An empty substring list
// matches everything.
func (it Item) TypeContainsAny(substrings []string) bool {
	if len(substrings) == 0 {
		return true
	}
	folded := Fold(it.Type)
	for _, sub := range substrings {
		if sub == "" {
			continue
		}
		if strings.Contains(folded, Fold(sub)) {
			return true
		}
	}
	return false
}
