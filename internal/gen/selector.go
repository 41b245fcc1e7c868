package gen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/townecodex/codex/internal/item"
)

// selectForBucket picks the items one bucket contributes to the run.
//
// The flow is: coarse catalog fetch (rarity + attunement only), in-memory
// refinement (type substrings, value bounds, uniqueness), feasibility
// analysis against the remaining global capacity, a uniform random
// target count, then sampling with a cost-directed repair loop when a
// budget cap is active.
//
// The used set is read-only here; the orchestrator records consumed IDs
// after the bucket returns, which keeps this function independently
// testable.
func selectForBucket(
	ctx context.Context,
	catalog Catalog,
	bucket BucketSpec,
	spec Spec,
	used map[int64]bool,
	runningCount int,
	runningValue int,
	rng *rand.Rand,
) ([]item.Item, error) {
	// Step A: coarse fetch with only the cheap, indexable filters.
	// Substring and value-range refinement stays engine-owned.
	pool, err := catalog.Search(ctx, bucket.AllowedRarities, bucket.AttunementFilter)
	if err != nil {
		return nil, fmt.Errorf("catalog search for bucket %q: %w", bucket.Name, err)
	}

	// Step B: refine in memory.
	preferUnique := bucket.PreferUnique || spec.GlobalPreferUnique
	filtered := pool[:0:0]
	for _, it := range pool {
		if !matchesBucket(it, bucket) {
			continue
		}
		if preferUnique && used[it.ID] {
			continue
		}
		filtered = append(filtered, it)
	}

	if len(filtered) == 0 {
		if bucket.MinCount > 0 {
			return nil, newZeroCandidatesError(bucket.Name, bucket.MinCount)
		}
		return nil, nil
	}

	// Step C: feasible count range given remaining global capacity.
	feasibleMax := len(filtered)
	boundBy := []string{"pool"}
	lower := func(limit int, label string) {
		if limit < 0 {
			limit = 0
		}
		switch {
		case limit < feasibleMax:
			feasibleMax = limit
			boundBy = []string{label}
		case limit == feasibleMax:
			boundBy = append(boundBy, label)
		}
	}

	if max, ok := bucket.maxCountBound(); ok {
		lower(max, "max_count")
	}
	if spec.MaxItems != nil {
		lower(*spec.MaxItems-runningCount, "slots")
	}
	remainingBudget := 0
	budgetCapped := spec.MaxTotalValue != nil
	if budgetCapped {
		remainingBudget = *spec.MaxTotalValue - runningValue
		if remainingBudget < 0 {
			remainingBudget = 0
		}
		lower(affordableCount(filtered, remainingBudget), "budget")
	}

	if feasibleMax < bucket.MinCount {
		return nil, newMinUnreachableError(bucket.Name, bucket.MinCount, feasibleMax, boundBy)
	}

	// Step D: uniform target within the feasible range.
	targetCount := bucket.MinCount + rng.IntN(feasibleMax-bucket.MinCount+1)
	if targetCount == 0 {
		return nil, nil
	}

	// Step E: sample, then repair against the budget if needed.
	selected, rest := sample(filtered, targetCount, rng)
	if !budgetCapped {
		return selected, nil
	}
	if err := repairToBudget(selected, rest, remainingBudget, bucket.Name, targetCount); err != nil {
		return nil, err
	}
	return selected, nil
}

// matchesBucket applies the engine-owned refinements: type substrings
// and value bounds. Items with unknown value are excluded whenever
// either value bound is set.
func matchesBucket(it item.Item, bucket BucketSpec) bool {
	if !it.TypeContainsAny(bucket.TypeSubstrings) {
		return false
	}
	if bucket.MinValue != nil || bucket.MaxValue != nil {
		if it.Value == nil {
			return false
		}
		if bucket.MinValue != nil && *it.Value < *bucket.MinValue {
			return false
		}
		if bucket.MaxValue != nil && *it.Value > *bucket.MaxValue {
			return false
		}
	}
	return true
}

// affordableCount is the feasibility probe for the budget cap: the
// longest cheapest-first prefix of the pool whose value sum stays
// within budget. Unknown values count as 0. This bounds what *some*
// selection could afford; the uniform sample drawn later is not biased
// toward it.
func affordableCount(pool []item.Item, budget int) int {
	values := make([]int, len(pool))
	for i, it := range pool {
		values[i] = it.ValueOrZero()
	}
	sort.Ints(values)

	count, sum := 0, 0
	for _, v := range values {
		if sum+v > budget {
			break
		}
		sum += v
		count++
	}
	return count
}

// sample draws k distinct items uniformly, returning the picks and the
// remaining candidates. When k covers the whole pool the order is still
// randomized so downstream output stays seed-dependent.
func sample(pool []item.Item, k int, rng *rand.Rand) (picked, rest []item.Item) {
	perm := rng.Perm(len(pool))
	if k > len(pool) {
		k = len(pool)
	}
	picked = make([]item.Item, 0, k)
	rest = make([]item.Item, 0, len(pool)-k)
	for i, idx := range perm {
		if i < k {
			picked = append(picked, pool[idx])
		} else {
			rest = append(rest, pool[idx])
		}
	}
	return picked, rest
}

// repairToBudget is the greedy local-search repair loop: while the
// selection exceeds the budget, swap its most expensive item for the
// cheapest unselected candidate. Each accepted swap strictly decreases
// the selection's total value, so the loop cannot cycle; when no swap
// can reduce cost further it fails rather than looping.
//
// selected is repaired in place to preserve pick order.
func repairToBudget(selected, rest []item.Item, budget int, bucketName string, targetCount int) error {
	sum := 0
	for _, it := range selected {
		sum += it.ValueOrZero()
	}

	for sum > budget {
		if len(rest) == 0 {
			return newBudgetExhaustedError(bucketName, targetCount, budget)
		}

		maxIdx := 0
		for i, it := range selected {
			if it.ValueOrZero() > selected[maxIdx].ValueOrZero() {
				maxIdx = i
			}
		}
		minIdx := 0
		for i, it := range rest {
			if it.ValueOrZero() < rest[minIdx].ValueOrZero() {
				minIdx = i
			}
		}

		expensive := selected[maxIdx]
		cheap := rest[minIdx]
		if cheap.ValueOrZero() >= expensive.ValueOrZero() {
			// No swap can reduce cost further.
			return newBudgetExhaustedError(bucketName, targetCount, budget)
		}

		selected[maxIdx] = cheap
		rest[minIdx] = expensive
		sum += cheap.ValueOrZero() - expensive.ValueOrZero()
	}
	return nil
}
