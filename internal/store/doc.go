// Package store provides SQLite-backed storage for the Towne Codex
// catalog: item entries, saved generator definitions, and persisted
// inventories.
//
// Entries are deduplicated on write: source_link is the primary
// identity, with a (name, type) fallback for rows imported without a
// link. The value_updated flag separates user-set prices from
// chart-derived ones; only UpdatePrice sets it.
//
// The store doubles as the generator engine's catalog query provider
// (gen.Catalog): a coarse rarity + attunement search, ordered by
// (name, id) and capped at a few hundred rows, so generation runs see
// deterministic candidate pools.
package store
