package gen

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townecodex/codex/internal/item"
	"github.com/townecodex/codex/internal/testutil"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(42, 0))
}

func TestMatchesBucket_TypeSubstrings(t *testing.T) {
	it := testutil.PricedItem(1, "Dagger of Venom", "Weapon (dagger)", "Rare", 2000)

	assert.True(t, matchesBucket(it, BucketSpec{}))
	assert.True(t, matchesBucket(it, BucketSpec{TypeSubstrings: []string{"weapon"}}))
	assert.True(t, matchesBucket(it, BucketSpec{TypeSubstrings: []string{"potion", "DAGGER"}}))
	assert.False(t, matchesBucket(it, BucketSpec{TypeSubstrings: []string{"potion", "scroll"}}))
}

func TestMatchesBucket_ValueBounds(t *testing.T) {
	priced := testutil.PricedItem(1, "Potion of Healing", "Potion", "Common", 50)
	unpriced := testutil.UnpricedItem(2, "Mystery Vial", "Potion", "Common")

	testCases := []struct {
		name   string
		bucket BucketSpec
		it     item.Item
		want   bool
	}{
		{"no bounds", BucketSpec{}, priced, true},
		{"within bounds", BucketSpec{MinValue: testutil.Int(10), MaxValue: testutil.Int(100)}, priced, true},
		{"below min", BucketSpec{MinValue: testutil.Int(60)}, priced, false},
		{"above max", BucketSpec{MaxValue: testutil.Int(40)}, priced, false},
		{"bounds inclusive", BucketSpec{MinValue: testutil.Int(50), MaxValue: testutil.Int(50)}, priced, true},
		{"unpriced passes without bounds", BucketSpec{}, unpriced, true},
		{"unpriced excluded by min bound", BucketSpec{MinValue: testutil.Int(1)}, unpriced, false},
		{"unpriced excluded by max bound", BucketSpec{MaxValue: testutil.Int(1000)}, unpriced, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, matchesBucket(tc.it, tc.bucket))
		})
	}
}

func TestAffordableCount(t *testing.T) {
	pool := []item.Item{
		testutil.PricedItem(1, "a", "Potion", "Common", 30),
		testutil.PricedItem(2, "b", "Potion", "Common", 10),
		testutil.PricedItem(3, "c", "Potion", "Common", 20),
	}

	assert.Equal(t, 3, affordableCount(pool, 60))
	assert.Equal(t, 2, affordableCount(pool, 45))
	assert.Equal(t, 1, affordableCount(pool, 15))
	assert.Equal(t, 0, affordableCount(pool, 5))
	assert.Equal(t, 0, affordableCount(pool, 0))
}

func TestAffordableCount_UnknownValueCountsAsZero(t *testing.T) {
	pool := []item.Item{
		testutil.UnpricedItem(1, "a", "Potion", "Common"),
		testutil.PricedItem(2, "b", "Potion", "Common", 100),
	}

	// The unpriced item is affordable at any budget.
	assert.Equal(t, 1, affordableCount(pool, 0))
	assert.Equal(t, 2, affordableCount(pool, 100))
}

func TestSample_DistinctAndComplete(t *testing.T) {
	pool := []item.Item{
		testutil.PricedItem(1, "a", "Potion", "Common", 1),
		testutil.PricedItem(2, "b", "Potion", "Common", 2),
		testutil.PricedItem(3, "c", "Potion", "Common", 3),
		testutil.PricedItem(4, "d", "Potion", "Common", 4),
	}

	picked, rest := sample(pool, 2, testRand())
	assert.Len(t, picked, 2)
	assert.Len(t, rest, 2)

	seen := make(map[int64]bool)
	for _, it := range append(picked, rest...) {
		assert.False(t, seen[it.ID], "item %d drawn twice", it.ID)
		seen[it.ID] = true
	}
	assert.Len(t, seen, 4)
}

func TestSample_TargetBeyondPoolTakesAll(t *testing.T) {
	pool := []item.Item{
		testutil.PricedItem(1, "a", "Potion", "Common", 1),
		testutil.PricedItem(2, "b", "Potion", "Common", 2),
	}

	picked, rest := sample(pool, 10, testRand())
	assert.Len(t, picked, 2)
	assert.Empty(t, rest)
}

func TestRepairToBudget_SwapsDownToBudget(t *testing.T) {
	selected := []item.Item{
		testutil.PricedItem(4, "d", "Potion", "Common", 40),
		testutil.PricedItem(5, "e", "Potion", "Common", 50),
	}
	rest := []item.Item{
		testutil.PricedItem(1, "a", "Potion", "Common", 10),
		testutil.PricedItem(2, "b", "Potion", "Common", 20),
	}

	err := repairToBudget(selected, rest, 45, "treasure", 2)
	require.NoError(t, err)

	assert.Len(t, selected, 2)
	assert.LessOrEqual(t, TotalValue(selected), 45)
}

func TestRepairToBudget_AlreadyWithinBudget(t *testing.T) {
	selected := []item.Item{testutil.PricedItem(1, "a", "Potion", "Common", 10)}

	err := repairToBudget(selected, nil, 45, "treasure", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), selected[0].ID)
}

func TestRepairToBudget_NoCandidatesLeft(t *testing.T) {
	selected := []item.Item{
		testutil.PricedItem(1, "a", "Potion", "Common", 30),
		testutil.PricedItem(2, "b", "Potion", "Common", 30),
	}

	err := repairToBudget(selected, nil, 45, "treasure", 2)
	require.Error(t, err)

	ge, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeBudgetExhausted, ge.Code)
	assert.Equal(t, "treasure", ge.Bucket)
	assert.Contains(t, ge.Message, "45")
}

func TestRepairToBudget_NoCheaperSwapExists(t *testing.T) {
	selected := []item.Item{
		testutil.PricedItem(1, "a", "Potion", "Common", 30),
		testutil.PricedItem(2, "b", "Potion", "Common", 30),
	}
	rest := []item.Item{
		testutil.PricedItem(3, "c", "Potion", "Common", 30),
	}

	// Every candidate costs the same; no swap can reduce the sum, so
	// the loop must fail instead of cycling.
	err := repairToBudget(selected, rest, 45, "treasure", 2)
	require.Error(t, err)

	ge, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeBudgetExhausted, ge.Code)
}

func TestRepairToBudget_UnknownValueIsCheapest(t *testing.T) {
	selected := []item.Item{
		testutil.PricedItem(1, "a", "Potion", "Common", 60),
	}
	rest := []item.Item{
		testutil.UnpricedItem(2, "b", "Potion", "Common"),
	}

	err := repairToBudget(selected, rest, 45, "treasure", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), selected[0].ID)
	assert.Equal(t, 0, TotalValue(selected))
}

func TestSelectForBucket_ZeroCandidates(t *testing.T) {
	catalog := &testutil.FakeCatalog{Items: []item.Item{
		testutil.PricedItem(1, "Plate Armor", "Armor (plate)", "Rare", 4000),
	}}

	bucket := BucketSpec{Name: "potions", MinCount: 1, TypeSubstrings: []string{"potion"}}
	_, err := selectForBucket(context.Background(), catalog, bucket, Spec{}, map[int64]bool{}, 0, 0, testRand())
	require.Error(t, err)

	ge, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeZeroCandidates, ge.Code)
	assert.Equal(t, "potions", ge.Bucket)
}

func TestSelectForBucket_EmptyPoolWithZeroMinIsFine(t *testing.T) {
	catalog := &testutil.FakeCatalog{}

	bucket := BucketSpec{Name: "optional", MinCount: 0}
	picks, err := selectForBucket(context.Background(), catalog, bucket, Spec{}, map[int64]bool{}, 0, 0, testRand())
	require.NoError(t, err)
	assert.Empty(t, picks)
}

func TestSelectForBucket_MinUnreachable_PoolBound(t *testing.T) {
	catalog := &testutil.FakeCatalog{Items: []item.Item{
		testutil.PricedItem(1, "Potion of Healing", "Potion", "Common", 50),
		testutil.PricedItem(2, "Potion of Climbing", "Potion", "Common", 50),
	}}

	bucket := BucketSpec{Name: "potions", MinCount: 3}
	_, err := selectForBucket(context.Background(), catalog, bucket, Spec{}, map[int64]bool{}, 0, 0, testRand())
	require.Error(t, err)

	ge, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeMinUnreachable, ge.Code)
	assert.Equal(t, "potions", ge.Bucket)
	assert.Equal(t, "3", ge.Details["min_count"])
	assert.Equal(t, "2", ge.Details["feasible_max"])
}

func TestSelectForBucket_MinUnreachable_SlotBound(t *testing.T) {
	catalog := &testutil.FakeCatalog{Items: []item.Item{
		testutil.PricedItem(1, "Potion of Healing", "Potion", "Common", 50),
		testutil.PricedItem(2, "Potion of Climbing", "Potion", "Common", 50),
	}}

	bucket := BucketSpec{Name: "potions", MinCount: 1}
	spec := Spec{MaxItems: testutil.Int(5)}

	// Five slots already consumed: zero remain.
	_, err := selectForBucket(context.Background(), catalog, bucket, spec, map[int64]bool{}, 5, 0, testRand())
	require.Error(t, err)

	ge, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeMinUnreachable, ge.Code)
	assert.Equal(t, "slots", ge.Details["bound_by"])
	assert.Equal(t, "0", ge.Details["feasible_max"])
}

func TestSelectForBucket_MinUnreachable_BudgetBound(t *testing.T) {
	catalog := &testutil.FakeCatalog{Items: []item.Item{
		testutil.PricedItem(1, "Potion A", "Potion", "Common", 20),
		testutil.PricedItem(2, "Potion B", "Potion", "Common", 20),
		testutil.PricedItem(3, "Potion C", "Potion", "Common", 20),
	}}

	// Cheapest 3 sum to 60, over the 45 budget: feasible max is 2.
	bucket := BucketSpec{Name: "potions", MinCount: 3}
	spec := Spec{MaxTotalValue: testutil.Int(45)}

	_, err := selectForBucket(context.Background(), catalog, bucket, spec, map[int64]bool{}, 0, 0, testRand())
	require.Error(t, err)

	ge, ok := AsGenerationError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeMinUnreachable, ge.Code)
	assert.Equal(t, "budget", ge.Details["bound_by"])
	assert.Equal(t, "2", ge.Details["feasible_max"])
}

func TestSelectForBucket_PreferUniqueExcludesUsed(t *testing.T) {
	catalog := &testutil.FakeCatalog{Items: []item.Item{
		testutil.PricedItem(1, "Potion A", "Potion", "Common", 50),
		testutil.PricedItem(2, "Potion B", "Potion", "Common", 50),
	}}

	bucket := BucketSpec{Name: "potions", MinCount: 1, MaxCount: testutil.Int(2), PreferUnique: true}
	used := map[int64]bool{1: true}

	picks, err := selectForBucket(context.Background(), catalog, bucket, Spec{}, used, 1, 50, testRand())
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, int64(2), picks[0].ID)
}

func TestSelectForBucket_WithoutPreferUniqueUsedStaysEligible(t *testing.T) {
	catalog := &testutil.FakeCatalog{Items: []item.Item{
		testutil.PricedItem(1, "Potion A", "Potion", "Common", 50),
	}}

	bucket := BucketSpec{Name: "potions", MinCount: 1, MaxCount: testutil.Int(1)}
	used := map[int64]bool{1: true}

	picks, err := selectForBucket(context.Background(), catalog, bucket, Spec{}, used, 1, 50, testRand())
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, int64(1), picks[0].ID)
}

func TestSelectForBucket_NegativeMaxCountMeansUnbounded(t *testing.T) {
	catalog := &testutil.FakeCatalog{Items: []item.Item{
		testutil.PricedItem(1, "Potion A", "Potion", "Common", 50),
		testutil.PricedItem(2, "Potion B", "Potion", "Common", 50),
		testutil.PricedItem(3, "Potion C", "Potion", "Common", 50),
	}}

	bucket := BucketSpec{Name: "potions", MinCount: 3, MaxCount: testutil.Int(-1)}
	picks, err := selectForBucket(context.Background(), catalog, bucket, Spec{}, map[int64]bool{}, 0, 0, testRand())
	require.NoError(t, err)
	assert.Len(t, picks, 3)
}
