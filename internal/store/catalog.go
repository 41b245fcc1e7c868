package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/townecodex/codex/internal/gen"
	"github.com/townecodex/codex/internal/item"
)

// catalogPoolCap bounds the candidate pool handed to the generator
// engine. The pool is representative, not exhaustive - the engine's
// feasibility math only needs a reasonably large sample.
const catalogPoolCap = 500

// Store implements the engine's catalog query provider.
var _ gen.Catalog = (*Store)(nil)

// Search is the coarse catalog query consumed by the generator engine:
// rarity set and attunement tri-state only. Substring and value-range
// refinement is engine-owned. Results are ordered by (name, id) so
// repeated calls within one generation see identical pools.
func (s *Store) Search(ctx context.Context, rarities []string, attunement *bool) ([]item.Item, error) {
	var where []string
	var args []any

	if len(rarities) > 0 {
		where = append(where, "rarity IN ("+placeholders(len(rarities))+")")
		for _, r := range rarities {
			args = append(args, r)
		}
	}
	if attunement != nil {
		where = append(where, "attunement_required = ?")
		args = append(args, *attunement)
	}

	query := `SELECT ` + entryColumns + ` FROM entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name ASC, id ASC LIMIT ?"
	args = append(args, catalogPoolCap)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}
