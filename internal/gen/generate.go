package gen

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/townecodex/codex/internal/item"
)

// Catalog is the read-only query provider the engine draws candidates
// from. Search filters by the cheap, indexable criteria only: a rarity
// set (nil or empty means any) and an attunement tri-state (nil means
// ignore). Implementations cap the pool size and must return the same
// ordering for identical arguments within one Generate call.
type Catalog interface {
	Search(ctx context.Context, rarities []string, attunement *bool) ([]item.Item, error)
}

// Generator runs generation specs against a catalog.
//
// The engine holds no state between calls: every run constructs its
// used-ID set and totals fresh, and the only I/O is the read-only
// catalog query. Provider errors propagate unchanged; all engine-level
// failures are *GenerationError.
type Generator struct {
	catalog Catalog
	tokens  TokenGenerator
}

// Option configures a Generator.
type Option func(*Generator)

// WithTokenGenerator overrides the run-token source (for tests).
func WithTokenGenerator(tg TokenGenerator) Option {
	return func(g *Generator) {
		g.tokens = tg
	}
}

// New creates a Generator over the given catalog.
func New(catalog Catalog, opts ...Option) *Generator {
	g := &Generator{
		catalog: catalog,
		tokens:  UUIDv7Tokens{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a concrete item list satisfying every bucket's
// count range and every global cap, or fails with a *GenerationError.
// Partial picks are never returned.
//
// Buckets are processed in declared order and consume the shared item
// slots and budget as they go; a later bucket may fail purely because
// an earlier one claimed too much capacity. With a fixed RandomSeed the
// same spec against the same catalog snapshot yields the same result.
func (g *Generator) Generate(ctx context.Context, spec Spec) ([]item.Item, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	run := g.tokens.Generate()
	rng := newRand(spec.RandomSeed)
	slog.Debug("generation started",
		"run", run,
		"label", spec.Label,
		"buckets", len(spec.Buckets),
		"seeded", spec.RandomSeed != nil,
	)

	var selected []item.Item
	used := make(map[int64]bool)
	runningValue := 0

	for _, bucket := range spec.Buckets {
		picks, err := selectForBucket(ctx, g.catalog, bucket, spec, used, len(selected), runningValue, rng)
		if err != nil {
			slog.Debug("generation failed", "run", run, "bucket", bucket.Name, "error", err)
			return nil, err
		}
		for _, it := range picks {
			used[it.ID] = true
			runningValue += it.ValueOrZero()
		}
		selected = append(selected, picks...)
		slog.Debug("bucket selected",
			"run", run,
			"bucket", bucket.Name,
			"picked", len(picks),
			"total_count", len(selected),
			"total_value", runningValue,
		)
	}

	// Defensive re-check of the global caps. The per-bucket feasibility
	// math should keep these from firing, but an inconsistent spec must
	// fail loudly rather than return an out-of-bounds result.
	if err := checkGlobalBounds(spec, len(selected), runningValue); err != nil {
		slog.Debug("generation failed", "run", run, "error", err)
		return nil, err
	}

	slog.Info("generation complete",
		"run", run,
		"items", len(selected),
		"total_value", runningValue,
	)
	return selected, nil
}

func checkGlobalBounds(spec Spec, totalCount, totalValue int) error {
	if spec.MaxItems != nil && totalCount > *spec.MaxItems {
		return newGlobalBoundsError("max_items", *spec.MaxItems, totalCount)
	}
	if spec.MaxTotalValue != nil && totalValue > *spec.MaxTotalValue {
		return newGlobalBoundsError("max_total_value", *spec.MaxTotalValue, totalValue)
	}
	if spec.MinItems != nil && totalCount < *spec.MinItems {
		return newGlobalBoundsError("min_items", *spec.MinItems, totalCount)
	}
	if spec.MinTotalValue != nil && totalValue < *spec.MinTotalValue {
		return newGlobalBoundsError("min_total_value", *spec.MinTotalValue, totalValue)
	}
	return nil
}

// newRand builds the single random source for a run. Seeded runs use
// the seed directly so bucket order influences draws reproducibly;
// unseeded runs derive entropy from the process-global source.
func newRand(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewPCG(uint64(*seed), 0))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// TotalValue sums item values, treating unpriced items as 0.
func TotalValue(items []item.Item) int {
	total := 0
	for _, it := range items {
		total += it.ValueOrZero()
	}
	return total
}
