package gen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townecodex/codex/internal/item"
	"github.com/townecodex/codex/internal/testutil"
)

// shopCatalog builds a small mixed-rarity catalog used across tests.
func shopCatalog() *testutil.FakeCatalog {
	return &testutil.FakeCatalog{Items: []item.Item{
		testutil.PricedItem(1, "Potion of Healing", "Potion", "Common", 50),
		testutil.PricedItem(2, "Potion of Climbing", "Potion", "Common", 50),
		testutil.PricedItem(3, "Alchemist's Fire", "Potion", "Common", 50),
		testutil.PricedItem(4, "Dagger of Venom", "Weapon (dagger)", "Rare", 2000),
		testutil.PricedItem(5, "Flame Tongue", "Weapon (any sword)", "Rare", 4000),
		testutil.PricedItem(6, "Bag of Holding", "Wondrous Item", "Uncommon", 500),
		testutil.UnpricedItem(7, "Deck of Many Things", "Wondrous Item", "Legendary"),
	}}
}

func TestGenerate_Determinism(t *testing.T) {
	spec := Spec{
		RandomSeed:         testutil.Int64(1234),
		GlobalPreferUnique: true,
		Buckets: []BucketSpec{
			{Name: "potions", MinCount: 1, MaxCount: testutil.Int(3), TypeSubstrings: []string{"potion"}},
			{Name: "weapons", MinCount: 1, AllowedRarities: []string{"Rare"}},
		},
	}

	run := func() []item.Item {
		g := New(shopCatalog(), WithTokenGenerator(NewFixedTokens("run-1")))
		got, err := g.Generate(context.Background(), spec)
		require.NoError(t, err)
		return got
	}

	first := run()
	second := run()
	assert.Equal(t, first, second, "same seed, spec, and catalog must reproduce the result exactly")
}

func TestGenerate_FilterConformanceAndBucketBounds(t *testing.T) {
	spec := Spec{
		RandomSeed: testutil.Int64(7),
		Buckets: []BucketSpec{
			{Name: "potions", MinCount: 2, MaxCount: testutil.Int(3), TypeSubstrings: []string{"potion"}},
			{Name: "rares", MinCount: 1, MaxCount: testutil.Int(2), AllowedRarities: []string{"Rare"}},
		},
	}

	g := New(shopCatalog(), WithTokenGenerator(NewFixedTokens("run-1")))
	got, err := g.Generate(context.Background(), spec)
	require.NoError(t, err)

	// Buckets have disjoint filters, so contributions are attributable.
	var potions, rares int
	for _, it := range got {
		switch {
		case it.TypeContainsAny([]string{"potion"}):
			potions++
		case it.Rarity == "Rare":
			rares++
		default:
			t.Fatalf("item %q matches neither bucket's filters", it.Name)
		}
	}
	assert.GreaterOrEqual(t, potions, 2)
	assert.LessOrEqual(t, potions, 3)
	assert.GreaterOrEqual(t, rares, 1)
	assert.LessOrEqual(t, rares, 2)

	// Result order is bucket order: all potions precede the rares.
	for i := 1; i < len(got); i++ {
		if got[i].TypeContainsAny([]string{"potion"}) {
			assert.True(t, got[i-1].TypeContainsAny([]string{"potion"}),
				"potion found after a non-potion: bucket order not preserved")
		}
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	// Two buckets with overlapping pools; global uniqueness must hold
	// even though neither bucket asks for it.
	spec := Spec{
		RandomSeed:         testutil.Int64(99),
		GlobalPreferUnique: true,
		Buckets: []BucketSpec{
			{Name: "first", MinCount: 2, MaxCount: testutil.Int(2), TypeSubstrings: []string{"potion"}},
			{Name: "second", MinCount: 1, MaxCount: testutil.Int(1), TypeSubstrings: []string{"potion"}},
		},
	}

	g := New(shopCatalog(), WithTokenGenerator(NewFixedTokens("run-1")))
	got, err := g.Generate(context.Background(), spec)
	require.NoError(t, err)
	require.Len(t, got, 3)

	seen := make(map[int64]bool)
	for _, it := range got {
		assert.False(t, seen[it.ID], "item %d selected twice", it.ID)
		seen[it.ID] = true
	}
}

func TestGenerate_InfeasibleMinCountFailsLoudly(t *testing.T) {
	// Only 2 rare items exist; a bucket demanding 3 must fail, never
	// silently return 2.
	spec := Spec{
		RandomSeed: testutil.Int64(5),
		Buckets: []BucketSpec{
			{Name: "rares", MinCount: 3, AllowedRarities: []string{"Rare"}},
		},
	}

	g := New(shopCatalog(), WithTokenGenerator(NewFixedTokens("run-1")))
	_, err := g.Generate(context.Background(), spec)
	require.Error(t, err)

	ge, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeMinUnreachable, ge.Code)
	assert.Equal(t, "rares", ge.Bucket)
	assert.Contains(t, err.Error(), "rares")
}

func TestGenerate_BudgetRepairScenario(t *testing.T) {
	// Five commons valued 10..50, bucket of 2-4, global budget 45.
	// Whatever the draw, the result must hold 2-4 items summing <= 45.
	catalog := &testutil.FakeCatalog{Items: []item.Item{
		testutil.PricedItem(1, "Trinket A", "Trinket", "Common", 10),
		testutil.PricedItem(2, "Trinket B", "Trinket", "Common", 20),
		testutil.PricedItem(3, "Trinket C", "Trinket", "Common", 30),
		testutil.PricedItem(4, "Trinket D", "Trinket", "Common", 40),
		testutil.PricedItem(5, "Trinket E", "Trinket", "Common", 50),
	}}

	for seed := int64(0); seed < 20; seed++ {
		spec := Spec{
			RandomSeed:    testutil.Int64(seed),
			MaxTotalValue: testutil.Int(45),
			Buckets: []BucketSpec{
				{Name: "trinkets", MinCount: 2, MaxCount: testutil.Int(4)},
			},
		}

		g := New(catalog, WithTokenGenerator(UUIDv7Tokens{}))
		got, err := g.Generate(context.Background(), spec)
		require.NoError(t, err, "seed %d", seed)
		assert.GreaterOrEqual(t, len(got), 2, "seed %d", seed)
		assert.LessOrEqual(t, len(got), 4, "seed %d", seed)
		assert.LessOrEqual(t, TotalValue(got), 45, "seed %d", seed)
	}
}

func TestGenerate_BudgetInfeasible(t *testing.T) {
	// Even the cheapest 3 items exceed the budget: must fail, not loop.
	catalog := &testutil.FakeCatalog{Items: []item.Item{
		testutil.PricedItem(1, "Trinket A", "Trinket", "Common", 20),
		testutil.PricedItem(2, "Trinket B", "Trinket", "Common", 20),
		testutil.PricedItem(3, "Trinket C", "Trinket", "Common", 20),
	}}

	spec := Spec{
		RandomSeed:    testutil.Int64(3),
		MaxTotalValue: testutil.Int(45),
		Buckets: []BucketSpec{
			{Name: "trinkets", MinCount: 3},
		},
	}

	g := New(catalog, WithTokenGenerator(NewFixedTokens("run-1")))
	_, err := g.Generate(context.Background(), spec)
	require.Error(t, err)

	ge, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeMinUnreachable, ge.Code)
	assert.Equal(t, "budget", ge.Details["bound_by"])
}

func TestGenerate_SecondBucketStarvedOfSlots(t *testing.T) {
	// First bucket claims all 5 slots of the global cap; the second has
	// min_count 1 and must fail with zero remaining slots.
	catalog := &testutil.FakeCatalog{Items: []item.Item{
		testutil.PricedItem(1, "Potion A", "Potion", "Common", 10),
		testutil.PricedItem(2, "Potion B", "Potion", "Common", 10),
		testutil.PricedItem(3, "Potion C", "Potion", "Common", 10),
		testutil.PricedItem(4, "Potion D", "Potion", "Common", 10),
		testutil.PricedItem(5, "Potion E", "Potion", "Common", 10),
		testutil.PricedItem(6, "Dagger", "Weapon (dagger)", "Rare", 2000),
	}}

	spec := Spec{
		RandomSeed: testutil.Int64(11),
		MaxItems:   testutil.Int(5),
		Buckets: []BucketSpec{
			{Name: "greedy", MinCount: 5, MaxCount: testutil.Int(5), TypeSubstrings: []string{"potion"}},
			{Name: "starved", MinCount: 1, TypeSubstrings: []string{"weapon"}},
		},
	}

	g := New(catalog, WithTokenGenerator(NewFixedTokens("run-1")))
	_, err := g.Generate(context.Background(), spec)
	require.Error(t, err)

	ge, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeMinUnreachable, ge.Code)
	assert.Equal(t, "starved", ge.Bucket)
	assert.Equal(t, "slots", ge.Details["bound_by"])
	assert.Equal(t, "0", ge.Details["feasible_max"])
}

func TestGenerate_GlobalMinItemsViolation(t *testing.T) {
	spec := Spec{
		RandomSeed: testutil.Int64(2),
		MinItems:   testutil.Int(5),
		Buckets: []BucketSpec{
			{Name: "rares", MinCount: 2, MaxCount: testutil.Int(2), AllowedRarities: []string{"Rare"}},
		},
	}

	g := New(shopCatalog(), WithTokenGenerator(NewFixedTokens("run-1")))
	_, err := g.Generate(context.Background(), spec)
	require.Error(t, err)

	ge, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeGlobalBounds, ge.Code)
	assert.Equal(t, GlobalScope, ge.Bucket)
	assert.Equal(t, "min_items", ge.Details["constraint"])
}

func TestGenerate_GlobalMinTotalValueViolation(t *testing.T) {
	spec := Spec{
		RandomSeed:    testutil.Int64(2),
		MinTotalValue: testutil.Int(10000),
		Buckets: []BucketSpec{
			{Name: "potions", MinCount: 1, MaxCount: testutil.Int(1), TypeSubstrings: []string{"potion"}},
		},
	}

	g := New(shopCatalog(), WithTokenGenerator(NewFixedTokens("run-1")))
	_, err := g.Generate(context.Background(), spec)
	require.Error(t, err)

	ge, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeGlobalBounds, ge.Code)
	assert.Equal(t, "min_total_value", ge.Details["constraint"])
}

func TestGenerate_EmptySpecYieldsEmptyResult(t *testing.T) {
	g := New(shopCatalog(), WithTokenGenerator(NewFixedTokens("run-1")))
	got, err := g.Generate(context.Background(), Spec{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGenerate_ProviderErrorPropagates(t *testing.T) {
	providerErr := errors.New("catalog unavailable")
	catalog := &testutil.FakeCatalog{Err: providerErr}

	spec := Spec{Buckets: []BucketSpec{{Name: "any", MinCount: 1}}}

	g := New(catalog, WithTokenGenerator(NewFixedTokens("run-1")))
	_, err := g.Generate(context.Background(), spec)
	require.Error(t, err)
	assert.ErrorIs(t, err, providerErr)

	_, ok := AsGenerationError(err)
	assert.False(t, ok, "provider failures are not GenerationErrors")
}

func TestGenerate_InvalidSpecRejected(t *testing.T) {
	testCases := []struct {
		name string
		spec Spec
	}{
		{"negative min_count", Spec{Buckets: []BucketSpec{{Name: "b", MinCount: -1}}}},
		{"max below min", Spec{Buckets: []BucketSpec{{Name: "b", MinCount: 3, MaxCount: testutil.Int(1)}}}},
		{"inverted value bounds", Spec{Buckets: []BucketSpec{{Name: "b", MinValue: testutil.Int(10), MaxValue: testutil.Int(5)}}}},
		{"inverted global items", Spec{MinItems: testutil.Int(5), MaxItems: testutil.Int(2)}},
		{"inverted global value", Spec{MinTotalValue: testutil.Int(100), MaxTotalValue: testutil.Int(50)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := New(shopCatalog(), WithTokenGenerator(NewFixedTokens("run-1")))
			_, err := g.Generate(context.Background(), tc.spec)
			require.Error(t, err)
		})
	}
}

func TestSpecValidate_OK(t *testing.T) {
	spec := Spec{
		MinItems:      testutil.Int(1),
		MaxItems:      testutil.Int(10),
		MaxTotalValue: testutil.Int(1000),
		Buckets: []BucketSpec{
			{Name: "b1", MinCount: 1, MaxCount: testutil.Int(-1)},
			{Name: "b2"},
		},
	}
	assert.NoError(t, spec.Validate())
}
