package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/townecodex/codex/internal/item"
)

// UpsertEntry writes an entry idempotently:
//   - if SourceLink matches an existing entry, that entry is updated;
//   - else if exactly one entry has the same (name, type), it is updated;
//   - otherwise a new entry is inserted.
//
// Updates never clobber an existing value with an empty one, and never
// flip ValueUpdated implicitly - use UpdatePrice for the user-priced
// invariant. Returns the stored entry with its ID populated.
func (s *Store) UpsertEntry(ctx context.Context, it item.Item) (item.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return item.Item{}, fmt.Errorf("upsert entry: begin: %w", err)
	}
	defer tx.Rollback()

	targetID, err := findUpsertTarget(ctx, tx, it)
	if err != nil {
		return item.Item{}, err
	}

	tagsJSON, err := marshalTags(it.SpecificTags)
	if err != nil {
		return item.Item{}, fmt.Errorf("upsert entry %q: %w", it.Name, err)
	}

	if targetID == 0 {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO entries
			(name, type, rarity, value, general_type, specific_tags,
			 attunement_required, attunement_criteria, source_link,
			 description, image_url, value_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			it.Name,
			it.Type,
			it.Rarity,
			nullableInt(it.Value),
			nullableString(it.GeneralType),
			tagsJSON,
			it.AttunementRequired,
			nullableString(it.AttunementCriteria),
			nullableString(strings.TrimSpace(it.SourceLink)),
			nullableString(it.Description),
			nullableString(it.ImageURL),
			it.ValueUpdated,
		)
		if err != nil {
			return item.Item{}, fmt.Errorf("insert entry %q: %w", it.Name, err)
		}
		targetID, err = res.LastInsertId()
		if err != nil {
			return item.Item{}, fmt.Errorf("insert entry %q: %w", it.Name, err)
		}
	} else {
		_, err := tx.ExecContext(ctx, `
			UPDATE entries SET
				name = ?,
				type = ?,
				rarity = ?,
				value = COALESCE(?, value),
				general_type = COALESCE(?, general_type),
				specific_tags = ?,
				attunement_required = ?,
				attunement_criteria = COALESCE(?, attunement_criteria),
				description = COALESCE(?, description),
				image_url = COALESCE(?, image_url)
			WHERE id = ?
		`,
			it.Name,
			it.Type,
			it.Rarity,
			nullableInt(it.Value),
			nullableString(it.GeneralType),
			tagsJSON,
			it.AttunementRequired,
			nullableString(it.AttunementCriteria),
			nullableString(it.Description),
			nullableString(it.ImageURL),
			targetID,
		)
		if err != nil {
			return item.Item{}, fmt.Errorf("update entry %d: %w", targetID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return item.Item{}, fmt.Errorf("upsert entry %q: commit: %w", it.Name, err)
	}

	return s.GetEntry(ctx, targetID)
}

// findUpsertTarget locates an existing entry to update, or 0 to insert.
func findUpsertTarget(ctx context.Context, tx *sql.Tx, it item.Item) (int64, error) {
	link := strings.TrimSpace(it.SourceLink)
	if link != "" {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM entries WHERE source_link = ?`, link).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			return 0, nil
		case err != nil:
			return 0, fmt.Errorf("lookup by source link: %w", err)
		}
		return id, nil
	}

	// Fallback dedupe: unique (name, type) match only.
	rows, err := tx.QueryContext(ctx, `SELECT id FROM entries WHERE name = ? AND type = ?`, it.Name, it.Type)
	if err != nil {
		return 0, fmt.Errorf("lookup by name/type: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("lookup by name/type: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("lookup by name/type: %w", err)
	}
	if len(ids) == 1 {
		return ids[0], nil
	}
	return 0, nil
}

// UpdatePrice sets an entry's value and flips value_updated, marking
// the price as user-set rather than chart-derived.
func (s *Store) UpdatePrice(ctx context.Context, entryID int64, value int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE entries SET value = ?, value_updated = 1 WHERE id = ?
	`, value, entryID)
	if err != nil {
		return fmt.Errorf("update price for entry %d: %w", entryID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update price: entry %d not found", entryID)
	}
	return nil
}

// SetChartPrice assigns a chart-derived value without marking the entry
// user-priced. Used by the reprice pipeline.
func (s *Store) SetChartPrice(ctx context.Context, entryID int64, value int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE entries SET value = ?, value_updated = 0 WHERE id = ?
	`, value, entryID)
	if err != nil {
		return fmt.Errorf("set chart price for entry %d: %w", entryID, err)
	}
	return nil
}

// DeleteEntry removes an entry. Returns false if it did not exist.
func (s *Store) DeleteEntry(ctx context.Context, entryID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, entryID)
	if err != nil {
		return false, fmt.Errorf("delete entry %d: %w", entryID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete entry %d: %w", entryID, err)
	}
	return n > 0, nil
}

// SaveGenerator inserts or replaces a named generator definition.
// The config is stored as JSON text; it is parsed only when run.
func (s *Store) SaveGenerator(ctx context.Context, g Generator) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO generators (name, context, description, config_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			context = excluded.context,
			description = excluded.description,
			config_json = excluded.config_json,
			updated_at = datetime('now')
	`, g.Name, nullableString(g.Context), nullableString(g.Description), g.ConfigJSON)
	if err != nil {
		return 0, fmt.Errorf("save generator %q: %w", g.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save generator %q: %w", g.Name, err)
	}
	return id, nil
}

// SaveInventory persists a generation result as an inventory with one
// line per distinct entry. Unit values snapshot the entry values at
// save time so later repricing doesn't rewrite history.
func (s *Store) SaveInventory(ctx context.Context, name, contextLabel string, budget *int, items []item.Item) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("save inventory %q: begin: %w", name, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO inventories (name, context, budget) VALUES (?, ?, ?)
	`, name, nullableString(contextLabel), nullableInt(budget))
	if err != nil {
		return 0, fmt.Errorf("save inventory %q: %w", name, err)
	}
	invID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save inventory %q: %w", name, err)
	}

	// Collapse duplicate entries into quantities, preserving first-seen order.
	type line struct {
		entryID   int64
		quantity  int
		unitValue *int
	}
	var lines []*line
	byEntry := make(map[int64]*line)
	for _, it := range items {
		if l, ok := byEntry[it.ID]; ok {
			l.quantity++
			continue
		}
		l := &line{entryID: it.ID, quantity: 1, unitValue: it.Value}
		byEntry[it.ID] = l
		lines = append(lines, l)
	}

	for _, l := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO inventory_items (inventory_id, entry_id, quantity, unit_value)
			VALUES (?, ?, ?, ?)
		`, invID, l.entryID, l.quantity, nullableInt(l.unitValue))
		if err != nil {
			return 0, fmt.Errorf("save inventory %q: item %d: %w", name, l.entryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save inventory %q: commit: %w", name, err)
	}
	return invID, nil
}

func marshalTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(b), nil
}

// nullableString maps "" to NULL so empty imports don't overwrite
// existing data through the COALESCE update path.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
