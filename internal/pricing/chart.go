// Package pricing maps catalog entries to gold-piece values using a
// rarity price chart. Consumables price on a single column; everything
// else splits on whether attunement is required. The built-in chart can
// be overridden per campaign from a YAML file.
package pricing

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/townecodex/codex/internal/item"
)

// Row holds the gp values for one rarity tier.
type Row struct {
	// Consumable prices ammunition, potions, and scrolls. Attunement
	// is ignored for this column.
	Consumable int `yaml:"consumable"`

	// Attuned prices non-consumables that require attunement.
	Attuned int `yaml:"attuned"`

	// Unattuned prices non-consumables with no attunement requirement.
	Unattuned int `yaml:"unattuned"`
}

// Chart is a rarity-indexed price table.
type Chart struct {
	rows map[string]Row
}

// Default returns the built-in price chart.
func Default() Chart {
	return Chart{rows: map[string]Row{
		"Common":    {Consumable: 50, Attuned: 150, Unattuned: 100},
		"Uncommon":  {Consumable: 250, Attuned: 1000, Unattuned: 500},
		"Rare":      {Consumable: 1000, Attuned: 4000, Unattuned: 2000},
		"Very Rare": {Consumable: 3000, Attuned: 15000, Unattuned: 10000},
		"Legendary": {Consumable: 5000, Attuned: 50000, Unattuned: 30000},
		"Artifact":  {Consumable: 20000, Attuned: 200000, Unattuned: 100000},
	}}
}

// LoadChart reads a YAML chart file keyed by rarity label. Rarities
// missing from the file keep their built-in values; unknown rarity keys
// or row fields are rejected.
func LoadChart(path string) (Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Chart{}, fmt.Errorf("read price chart: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var overrides map[string]Row
	if err := decoder.Decode(&overrides); err != nil {
		return Chart{}, fmt.Errorf("parse price chart %s: %w", path, err)
	}

	chart := Default()
	for label, row := range overrides {
		rarity := item.NormalizeRarity(label)
		if rarity == "" {
			return Chart{}, fmt.Errorf("parse price chart %s: unknown rarity %q", path, label)
		}
		chart.rows[rarity] = row
	}
	return chart, nil
}

// consumableMarkers flag the type strings that price on the consumable
// column.
var consumableMarkers = []string{"ammunition", "ammo", "potion", "scroll", "bolt", "arrow"}

// IsConsumable reports whether a type string falls on the consumable
// side of the chart.
func IsConsumable(typeText string) bool {
	t := strings.ToLower(typeText)
	for _, marker := range consumableMarkers {
		if strings.Contains(t, marker) {
			return true
		}
	}
	return false
}

// Price returns the chart value for the given rarity, type text, and
// attunement flag. ok is false when the rarity does not map to a chart
// tier.
func (c Chart) Price(rarity, typeText string, attunementRequired bool) (int, bool) {
	normalized := item.NormalizeRarity(rarity)
	if normalized == "" {
		return 0, false
	}
	row, ok := c.rows[normalized]
	if !ok {
		return 0, false
	}

	if IsConsumable(typeText) {
		return row.Consumable, true
	}
	if attunementRequired {
		return row.Attuned, true
	}
	return row.Unattuned, true
}

// ForItem prices a catalog entry.
func (c Chart) ForItem(it item.Item) (int, bool) {
	return c.Price(it.Rarity, it.Type, it.AttunementRequired)
}
