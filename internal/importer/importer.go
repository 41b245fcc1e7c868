// Package importer loads item sheets into the catalog: CSV parsing,
// attunement normalization, type-tag derivation, idempotent upserts,
// and chart pricing for entries that arrive without a value.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/townecodex/codex/internal/item"
	"github.com/townecodex/codex/internal/pricing"
	"github.com/townecodex/codex/internal/store"
)

// Importer runs the sheet import pipeline against a store.
type Importer struct {
	store        *store.Store
	chart        pricing.Chart
	defaultImage string
	log          *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithDefaultImage assigns an image URL to entries imported without one.
func WithDefaultImage(url string) Option {
	return func(imp *Importer) { imp.defaultImage = url }
}

// WithLogger overrides the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(imp *Importer) { imp.log = log }
}

// New builds an Importer writing to st and pricing unvalued entries
// from chart.
func New(st *store.Store, chart pricing.Chart, opts ...Option) *Importer {
	imp := &Importer{
		store: st,
		chart: chart,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// Summary reports what an import run did.
type Summary struct {
	// Processed counts rows upserted (created or updated).
	Processed int
	// Priced counts entries that received a chart price.
	Priced int
	// Unpriced counts entries left without a value, typically because
	// the rarity did not map to a chart tier.
	Unpriced int
}

// ImportCSV parses the sheet at path and upserts every row. Entries
// that end up without a value get a chart price; user-set prices on
// existing entries are never touched.
func (imp *Importer) ImportCSV(ctx context.Context, path string) (Summary, error) {
	rows, err := ParseCSV(path)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for i, row := range rows {
		entry := imp.entryFromRow(row)

		saved, err := imp.store.UpsertEntry(ctx, entry)
		if err != nil {
			return sum, fmt.Errorf("import row %d (%s): %w", i+1, entry.Name, err)
		}
		sum.Processed++

		if saved.Value == nil {
			price, ok := imp.chart.ForItem(saved)
			if !ok {
				sum.Unpriced++
				imp.log.Warn("no chart price", "entry", saved.Name, "rarity", saved.Rarity)
				continue
			}
			if err := imp.store.SetChartPrice(ctx, saved.ID, price); err != nil {
				return sum, fmt.Errorf("import row %d (%s): %w", i+1, entry.Name, err)
			}
			sum.Priced++
		}
	}

	imp.log.Info("import finished",
		"path", path,
		"processed", sum.Processed,
		"priced", sum.Priced,
		"unpriced", sum.Unpriced,
	)
	return sum, nil
}

// entryFromRow maps a sheet row to a catalog entry.
func (imp *Importer) entryFromRow(row RawRow) item.Item {
	name := cleanCell(row.Name)
	if name == "" {
		name = "Unknown"
	}
	typeText := cleanCell(row.Type)
	if typeText == "" {
		typeText = "Unknown"
	}

	rarity := item.NormalizeRarity(cleanCell(row.Rarity))
	if rarity == "" {
		rarity = "Unknown"
	}

	required, criteria := ParseAttunement(row.Attunement)

	return item.Item{
		Name:               name,
		Type:               typeText,
		Rarity:             rarity,
		GeneralType:        item.GeneralType(typeText),
		SpecificTags:       item.SpecificTags(typeText),
		AttunementRequired: required,
		AttunementCriteria: criteria,
		SourceLink:         cleanCell(row.Link),
		ImageURL:           imp.defaultImage,
	}
}

// cleanCell drops the missing sentinel so downstream code sees "".
func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	if v == MissingToken {
		return ""
	}
	return v
}
