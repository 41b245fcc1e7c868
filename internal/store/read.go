package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/townecodex/codex/internal/item"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = sql.ErrNoRows

// Generator is a saved generator definition. The bucket rules live in
// ConfigJSON, interpreted by the gen package when run.
type Generator struct {
	ID          int64
	Name        string
	Context     string
	Description string
	ConfigJSON  string
	CreatedAt   string
	UpdatedAt   string
}

// Inventory is a persisted generation result.
type Inventory struct {
	ID        int64
	Name      string
	Context   string
	Budget    *int
	CreatedAt string
	Items     []InventoryLine
}

// InventoryLine pairs an entry with its quantity and the unit value
// snapshot taken when the inventory was saved.
type InventoryLine struct {
	Entry     item.Item
	Quantity  int
	UnitValue *int
}

// EffectiveUnitValue is the snapshot value, falling back to the entry's
// current value when no snapshot was taken.
func (l InventoryLine) EffectiveUnitValue() int {
	if l.UnitValue != nil {
		return *l.UnitValue
	}
	return l.Entry.ValueOrZero()
}

// TotalValue is quantity times effective unit value.
func (l InventoryLine) TotalValue() int {
	return l.Quantity * l.EffectiveUnitValue()
}

// TotalValue sums all line totals.
func (inv Inventory) TotalValue() int {
	total := 0
	for _, l := range inv.Items {
		total += l.TotalValue()
	}
	return total
}

// EntryFilters are the typed filters for SearchEntries.
type EntryFilters struct {
	// NameContains is a case-insensitive substring over the name.
	NameContains string
	// TypeEquals is an exact match on the type column.
	TypeEquals string
	// RarityIn limits to these rarity labels; empty means any.
	RarityIn []string
	// Attunement filters the attunement flag; nil ignores it.
	Attunement *bool
	// Text is a contains search over name and description.
	Text string
}

const entryColumns = `id, name, type, rarity, value, general_type, specific_tags,
	attunement_required, attunement_criteria, source_link, description, image_url, value_updated`

// GetEntry returns the entry with the given ID, or ErrNotFound.
func (s *Store) GetEntry(ctx context.Context, id int64) (item.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	it, err := scanEntry(row)
	if err != nil {
		return item.Item{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	return it, nil
}

// GetEntryBySourceLink returns the entry with the given source link, or
// ErrNotFound.
func (s *Store) GetEntryBySourceLink(ctx context.Context, link string) (item.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE source_link = ?`, link)
	it, err := scanEntry(row)
	if err != nil {
		return item.Item{}, fmt.Errorf("get entry by link %q: %w", link, err)
	}
	return it, nil
}

// sortColumns is the allowlist for SearchEntries sort keys.
var sortColumns = map[string]string{
	"id":     "id",
	"name":   "name",
	"type":   "type",
	"rarity": "rarity",
	"value":  "value",
}

// SearchEntries runs a paged search. sort is a column name from the
// allowlist, with a "-" prefix for descending ("-value"); unknown keys
// fall back to name ascending. Page numbering starts at 1.
func (s *Store) SearchEntries(ctx context.Context, filters EntryFilters, page, size int, sort string) ([]item.Item, error) {
	var where []string
	var args []any

	if filters.NameContains != "" {
		where = append(where, "name LIKE ? COLLATE NOCASE")
		args = append(args, "%"+filters.NameContains+"%")
	}
	if filters.TypeEquals != "" {
		where = append(where, "type = ?")
		args = append(args, filters.TypeEquals)
	}
	if len(filters.RarityIn) > 0 {
		where = append(where, "rarity IN ("+placeholders(len(filters.RarityIn))+")")
		for _, r := range filters.RarityIn {
			args = append(args, r)
		}
	}
	if filters.Attunement != nil {
		where = append(where, "attunement_required = ?")
		args = append(args, *filters.Attunement)
	}
	if filters.Text != "" {
		where = append(where, "(name LIKE ? COLLATE NOCASE OR description LIKE ? COLLATE NOCASE)")
		q := "%" + filters.Text + "%"
		args = append(args, q, q)
	}

	query := `SELECT ` + entryColumns + ` FROM entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(sort)

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, size, (page-1)*size)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// orderClause resolves a sort key against the allowlist. A secondary id
// sort keeps pagination stable across equal keys.
func orderClause(sort string) string {
	desc := strings.HasPrefix(sort, "-")
	key := strings.TrimPrefix(sort, "-")
	col, ok := sortColumns[key]
	if !ok {
		col, desc = "name", false
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id ASC", col, dir)
}

// ListGenerators returns all saved generator definitions by name.
func (s *Store) ListGenerators(ctx context.Context) ([]Generator, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, context, description, config_json, created_at, updated_at
		FROM generators
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list generators: %w", err)
	}
	defer rows.Close()

	var gens []Generator
	for rows.Next() {
		var g Generator
		var genContext, description sql.NullString
		if err := rows.Scan(&g.ID, &g.Name, &genContext, &description, &g.ConfigJSON, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan generator: %w", err)
		}
		g.Context = genContext.String
		g.Description = description.String
		gens = append(gens, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generators: %w", err)
	}
	return gens, nil
}

// GetGeneratorByName returns the named generator, or ErrNotFound.
func (s *Store) GetGeneratorByName(ctx context.Context, name string) (Generator, error) {
	var g Generator
	var genContext, description sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, context, description, config_json, created_at, updated_at
		FROM generators WHERE name = ?
	`, name).Scan(&g.ID, &g.Name, &genContext, &description, &g.ConfigJSON, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return Generator{}, fmt.Errorf("get generator %q: %w", name, err)
	}
	g.Context = genContext.String
	g.Description = description.String
	return g, nil
}

// GetInventory returns an inventory with its lines, entries included.
// Lines come back in insertion order.
func (s *Store) GetInventory(ctx context.Context, id int64) (Inventory, error) {
	var inv Inventory
	var invContext sql.NullString
	var budget sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, context, budget, created_at FROM inventories WHERE id = ?
	`, id).Scan(&inv.ID, &inv.Name, &invContext, &budget, &inv.CreatedAt)
	if err != nil {
		return Inventory{}, fmt.Errorf("get inventory %d: %w", id, err)
	}
	inv.Context = invContext.String
	if budget.Valid {
		b := int(budget.Int64)
		inv.Budget = &b
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.name, e.type, e.rarity, e.value, e.general_type, e.specific_tags,
			e.attunement_required, e.attunement_criteria, e.source_link, e.description,
			e.image_url, e.value_updated,
			ii.quantity, ii.unit_value
		FROM inventory_items ii
		JOIN entries e ON e.id = ii.entry_id
		WHERE ii.inventory_id = ?
		ORDER BY ii.id ASC
	`, id)
	if err != nil {
		return Inventory{}, fmt.Errorf("get inventory %d: items: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l InventoryLine
		var unitValue sql.NullInt64
		entry, err := scanEntryFields(rows, &l.Quantity, &unitValue)
		if err != nil {
			return Inventory{}, fmt.Errorf("get inventory %d: %w", id, err)
		}
		l.Entry = entry
		if unitValue.Valid {
			v := int(unitValue.Int64)
			l.UnitValue = &v
		}
		inv.Items = append(inv.Items, l)
	}
	if err := rows.Err(); err != nil {
		return Inventory{}, fmt.Errorf("get inventory %d: %w", id, err)
	}
	return inv, nil
}

// ListInventories returns inventory headers (no lines), newest first.
func (s *Store) ListInventories(ctx context.Context) ([]Inventory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, context, budget, created_at FROM inventories ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list inventories: %w", err)
	}
	defer rows.Close()

	var out []Inventory
	for rows.Next() {
		var inv Inventory
		var invContext sql.NullString
		var budget sql.NullInt64
		if err := rows.Scan(&inv.ID, &inv.Name, &invContext, &budget, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		inv.Context = invContext.String
		if budget.Valid {
			b := int(budget.Int64)
			inv.Budget = &b
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventories: %w", err)
	}
	return out, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (item.Item, error) {
	return scanEntryFields(row)
}

// scanEntryFields scans the entry columns plus any trailing extras
// (used by the inventory join).
func scanEntryFields(row scanner, extra ...any) (item.Item, error) {
	var it item.Item
	var value sql.NullInt64
	var generalType, criteria, link, description, imageURL sql.NullString
	var tagsJSON string

	dest := []any{
		&it.ID, &it.Name, &it.Type, &it.Rarity, &value, &generalType, &tagsJSON,
		&it.AttunementRequired, &criteria, &link, &description, &imageURL, &it.ValueUpdated,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return item.Item{}, err
	}

	if value.Valid {
		v := int(value.Int64)
		it.Value = &v
	}
	it.GeneralType = generalType.String
	it.AttunementCriteria = criteria.String
	it.SourceLink = link.String
	it.Description = description.String
	it.ImageURL = imageURL.String

	if tagsJSON != "" && tagsJSON != "[]" {
		if err := json.Unmarshal([]byte(tagsJSON), &it.SpecificTags); err != nil {
			return item.Item{}, fmt.Errorf("decode tags for entry %d: %w", it.ID, err)
		}
	}
	return it, nil
}

func collectEntries(rows *sql.Rows) ([]item.Item, error) {
	var out []item.Item
	for rows.Next() {
		it, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
