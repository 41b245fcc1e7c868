package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/townecodex/codex/internal/store"
)

//go:embed page.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"attunement": func(c Card) string {
		return AttunementText(c.AttunementRequired, c.AttunementCriteria)
	},
	"price": htmlPrice,
}).Parse(pageSource))

type pageData struct {
	Title string
	Cards []Card
}

// HTMLPage renders a titled page of item cards as a standalone,
// print-friendly HTML document.
func HTMLPage(title string, cards []Card) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pageData{Title: title, Cards: cards}); err != nil {
		return "", fmt.Errorf("render html page: %w", err)
	}
	return buf.String(), nil
}

// HTMLInventory renders a saved inventory as an HTML page titled with
// the inventory name.
func HTMLInventory(inv store.Inventory) (string, error) {
	cards := make([]Card, 0, len(inv.Items))
	for _, l := range inv.Items {
		cards = append(cards, FromLine(l))
	}
	return HTMLPage(inv.Name, cards)
}

// htmlPrice renders a value with thousands grouping, keeping the
// asterisk rule for chart-derived prices.
func htmlPrice(c Card) string {
	if c.Value == nil {
		return "N/A"
	}
	formatted := groupThousands(*c.Value)
	if c.ValueUpdated {
		return formatted
	}
	return "*" + formatted
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var groups []string
	for len(s) > 3 {
		groups = append([]string{s[len(s)-3:]}, groups...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(groups, ",")
}
