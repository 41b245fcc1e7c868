// Package render turns catalog entries and inventories into printable
// item cards, as plain text or HTML.
package render

import (
	"strconv"

	"github.com/townecodex/codex/internal/item"
	"github.com/townecodex/codex/internal/store"
)

// Card is the view data for one item card.
type Card struct {
	ID                 int64
	Title              string
	Type               string
	Rarity             string
	AttunementRequired bool
	AttunementCriteria string
	Value              *int
	ValueUpdated       bool
	Description        string
	ImageURL           string

	// Quantity is how many copies an inventory holds. Single entries
	// render with Quantity 1 and no quantity line.
	Quantity int
}

// FromItem builds a card for a single catalog entry.
func FromItem(it item.Item) Card {
	c := Card{
		ID:                 it.ID,
		Title:              it.Name,
		Type:               it.Type,
		Rarity:             it.Rarity,
		AttunementRequired: it.AttunementRequired,
		AttunementCriteria: it.AttunementCriteria,
		Value:              it.Value,
		ValueUpdated:       it.ValueUpdated,
		Description:        it.Description,
		ImageURL:           it.ImageURL,
		Quantity:           1,
	}
	if c.Title == "" {
		c.Title = "Name Unknown"
	}
	if c.Type == "" {
		c.Type = "Type Unknown"
	}
	if c.Rarity == "" {
		c.Rarity = "Rarity Unknown"
	}
	return c
}

// FromItems builds cards for a batch of entries.
func FromItems(items []item.Item) []Card {
	cards := make([]Card, 0, len(items))
	for _, it := range items {
		cards = append(cards, FromItem(it))
	}
	return cards
}

// FromLine builds a card for an inventory line, preferring the unit
// value snapshot over the entry's current value.
func FromLine(l store.InventoryLine) Card {
	c := FromItem(l.Entry)
	c.Quantity = l.Quantity
	if l.UnitValue != nil {
		v := *l.UnitValue
		c.Value = &v
	}
	return c
}

// AttunementText renders the attunement pair for display: "No", "Yes",
// or "Yes - <criteria>".
func AttunementText(required bool, criteria string) string {
	if !required {
		return "No"
	}
	if criteria == "" {
		return "Yes"
	}
	return "Yes - " + criteria
}

// FormatPrice renders a value for display. Chart-derived prices carry a
// leading asterisk; user-set prices don't. Unvalued entries show "N/A".
func FormatPrice(value *int, valueUpdated bool) string {
	if value == nil {
		return "N/A"
	}
	if valueUpdated {
		return strconv.Itoa(*value)
	}
	return "*" + strconv.Itoa(*value)
}
