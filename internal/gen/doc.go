// Package gen implements the randomized inventory generator engine.
//
// Given a declarative Spec - an ordered list of item buckets plus
// global caps on item count and total value - the engine produces a
// concrete item list that satisfies every bucket's count range and
// every global cap simultaneously, or fails with a diagnostic
// GenerationError. There is no silent truncation: an infeasible bucket
// aborts the whole run.
//
// Per-bucket flow:
//  1. Coarse fetch from the Catalog (rarity set + attunement only).
//  2. In-memory refinement: type substrings, value bounds, uniqueness.
//  3. Feasibility analysis against the remaining slots and budget,
//     using a cheapest-first prefix sum as the budget probe.
//  4. Uniform random target count within the feasible range.
//  5. Uniform sampling without replacement, then a greedy repair loop
//     that swaps the most expensive pick for the cheapest leftover
//     while over budget. Each swap strictly decreases the total, so
//     the loop terminates; "no cheaper swap exists" is the failure
//     condition.
//
// Determinism: one random source per Generate call, seeded once when
// Spec.RandomSeed is set. Bucket order influences both capacity
// consumption and draws, so the same seed, spec, and catalog snapshot
// reproduce the same result byte for byte.
package gen
