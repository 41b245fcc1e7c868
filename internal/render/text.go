package render

import (
	"fmt"
	"strings"

	"github.com/townecodex/codex/internal/store"
)

const ruleWidth = 72

var (
	heavyRule = strings.Repeat("=", ruleWidth)
	lightRule = strings.Repeat("-", ruleWidth)
)

// TextCard renders one card as plain text, suitable for terminals and
// logs.
func TextCard(c Card) string {
	lines := []string{
		heavyRule,
		fmt.Sprintf("%s  [id=%d]", c.Title, c.ID),
		lightRule,
		"Rarity: " + c.Rarity,
		"Attunement: " + AttunementText(c.AttunementRequired, c.AttunementCriteria),
		"Value: " + FormatPrice(c.Value, c.ValueUpdated),
	}
	if c.Quantity > 1 {
		lines = append(lines, fmt.Sprintf("Quantity: %d", c.Quantity))
	}

	image := c.ImageURL
	if image == "" {
		image = "(none)"
	}
	description := c.Description
	if description == "" {
		description = "(no description)"
	}

	lines = append(lines,
		"Type: "+c.Type,
		"Image: "+image,
		lightRule,
		description,
		heavyRule,
	)
	return strings.Join(lines, "\n")
}

// TextPage renders a titled page of cards. Ends with a newline so the
// output can be written to a file as-is.
func TextPage(title string, cards []Card) string {
	parts := []string{"# " + title}
	for _, c := range cards {
		parts = append(parts, TextCard(c))
	}
	if len(cards) == 0 {
		parts = append(parts, "(no cards)")
	}
	return strings.Join(parts, "\n") + "\n"
}

// TextInventory renders a saved inventory: a header with budget and
// total, then one card per line with quantities.
func TextInventory(inv store.Inventory) string {
	parts := []string{"# " + inv.Name}
	if inv.Context != "" {
		parts = append(parts, "Context: "+inv.Context)
	}
	if inv.Budget != nil {
		parts = append(parts, fmt.Sprintf("Budget: %d gp", *inv.Budget))
	}
	parts = append(parts, fmt.Sprintf("Total: %d gp", inv.TotalValue()))

	for _, l := range inv.Items {
		parts = append(parts, TextCard(FromLine(l)))
	}
	if len(inv.Items) == 0 {
		parts = append(parts, "(no cards)")
	}
	return strings.Join(parts, "\n") + "\n"
}
