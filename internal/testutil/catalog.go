// Package testutil provides deterministic test doubles for the
// generator engine and fixture helpers shared across packages.
package testutil

import (
	"context"
	"sort"

	"github.com/townecodex/codex/internal/item"
)

// FakeCatalog is an in-memory catalog query provider implementing the
// same coarse-filter contract as the SQLite store: rarity set and
// attunement tri-state only, deterministic ordering, capped pool size.
//
// All substring and value-range refinement is engine-owned, so tests
// exercise the full refine path against this fake.
type FakeCatalog struct {
	Items []item.Item

	// Err, when set, is returned by every Search call. Used to verify
	// that provider failures propagate unchanged.
	Err error

	// Cap bounds the returned pool size. Zero means the store default
	// of 500.
	Cap int

	// Calls counts Search invocations.
	Calls int
}

// Search returns items matching the coarse filters, ordered by
// (name, id) for determinism within a run.
func (c *FakeCatalog) Search(_ context.Context, rarities []string, attunement *bool) ([]item.Item, error) {
	c.Calls++
	if c.Err != nil {
		return nil, c.Err
	}

	allowed := make(map[string]bool, len(rarities))
	for _, r := range rarities {
		allowed[r] = true
	}

	var out []item.Item
	for _, it := range c.Items {
		if len(allowed) > 0 && !allowed[it.Rarity] {
			continue
		}
		if attunement != nil && it.AttunementRequired != *attunement {
			continue
		}
		out = append(out, it)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	limit := c.Cap
	if limit == 0 {
		limit = 500
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PricedItem builds a catalog item with a known value.
func PricedItem(id int64, name, typ, rarity string, value int) item.Item {
	return item.Item{ID: id, Name: name, Type: typ, Rarity: rarity, Value: &value}
}

// UnpricedItem builds a catalog item with no value set.
func UnpricedItem(id int64, name, typ, rarity string) item.Item {
	return item.Item{ID: id, Name: name, Type: typ, Rarity: rarity}
}

// Int returns a pointer to v, for optional spec fields.
func Int(v int) *int { return &v }

// Int64 returns a pointer to v, for optional seeds.
func Int64(v int64) *int64 { return &v }

// Bool returns a pointer to v, for attunement tri-states.
func Bool(v bool) *bool { return &v }
