package gen

import "fmt"

// BucketSpec describes one bucket of desired items within a generation:
// a filter over the catalog plus a count range.
//
// Examples:
//   - "2-4 common consumables"
//   - "1 rare weapon, no attunement"
//   - "1 legendary item, any type, must require attunement"
type BucketSpec struct {
	// Name is the human-facing bucket label, used in diagnostics.
	Name string `json:"name"`

	// MinCount/MaxCount bound how many items this bucket contributes.
	// A nil or negative MaxCount means "unbounded" - limited only by
	// the candidate pool and the global caps. Negative values are
	// accepted because stored configs historically used -1.
	MinCount int  `json:"min_count"`
	MaxCount *int `json:"max_count,omitempty"`

	// AllowedRarities restricts candidates to these rarity labels.
	// Empty means any rarity.
	AllowedRarities []string `json:"allowed_rarities,omitempty"`

	// TypeSubstrings matches case-insensitively against the item type;
	// an item qualifies if its type contains at least one substring.
	// Empty means any type.
	TypeSubstrings []string `json:"type_substrings,omitempty"`

	// MinValue/MaxValue are inclusive bounds on item value. If either
	// is set, items with unknown value are excluded from this bucket.
	MinValue *int `json:"min_value,omitempty"`
	MaxValue *int `json:"max_value,omitempty"`

	// AttunementFilter is a tri-state: nil ignores attunement, true
	// keeps only items requiring it, false keeps only items that don't.
	AttunementFilter *bool `json:"attunement_filter,omitempty"`

	// PreferUnique excludes items already consumed by an earlier bucket
	// (or by this bucket's own sampling) from the candidate pool.
	PreferUnique bool `json:"prefer_unique,omitempty"`
}

// maxCountBound returns the effective upper bound and whether one is set.
func (b BucketSpec) maxCountBound() (int, bool) {
	if b.MaxCount == nil || *b.MaxCount < 0 {
		return 0, false
	}
	return *b.MaxCount, true
}

// Spec is the full declarative configuration for one generation run:
// global caps plus an ordered list of buckets. Buckets declared earlier
// get first claim on the shared item-slot and budget capacity.
type Spec struct {
	// Label is an optional short description of the configuration.
	Label string `json:"label,omitempty"`

	// MinItems/MaxItems bound the total item count across all buckets.
	MinItems *int `json:"min_items,omitempty"`
	MaxItems *int `json:"max_items,omitempty"`

	// MinTotalValue/MaxTotalValue bound the value sum across all buckets.
	MinTotalValue *int `json:"min_total_value,omitempty"`
	MaxTotalValue *int `json:"max_total_value,omitempty"`

	// GlobalPreferUnique is ORed with each bucket's own PreferUnique.
	GlobalPreferUnique bool `json:"global_prefer_unique,omitempty"`

	// RandomSeed, when set, seeds the random source once for the whole
	// run so that results are reproducible against the same catalog.
	RandomSeed *int64 `json:"random_seed,omitempty"`

	Buckets []BucketSpec `json:"buckets"`

	// Notes is free-form text for the user; ignored by the engine.
	Notes string `json:"notes,omitempty"`
}

// Validate rejects specs that are malformed regardless of catalog
// contents. Feasibility against actual data is checked during Generate.
func (s Spec) Validate() error {
	if minMaxInverted(s.MinItems, s.MaxItems) {
		return fmt.Errorf("spec: min_items %d exceeds max_items %d", *s.MinItems, *s.MaxItems)
	}
	if minMaxInverted(s.MinTotalValue, s.MaxTotalValue) {
		return fmt.Errorf("spec: min_total_value %d exceeds max_total_value %d", *s.MinTotalValue, *s.MaxTotalValue)
	}
	for i, b := range s.Buckets {
		name := b.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		if b.MinCount < 0 {
			return fmt.Errorf("bucket %s: negative min_count %d", name, b.MinCount)
		}
		if max, ok := b.maxCountBound(); ok && max < b.MinCount {
			return fmt.Errorf("bucket %s: max_count %d below min_count %d", name, max, b.MinCount)
		}
		if minMaxInverted(b.MinValue, b.MaxValue) {
			return fmt.Errorf("bucket %s: min_value %d exceeds max_value %d", name, *b.MinValue, *b.MaxValue)
		}
	}
	return nil
}

func minMaxInverted(min, max *int) bool {
	return min != nil && max != nil && *min > *max
}
