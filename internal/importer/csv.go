package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// MissingToken fills cells that are empty in the source sheet, so
// downstream steps can tell "blank" apart from "column absent".
const MissingToken = "MISSING"

// RawRow is one parsed sheet row, header-normalized and trimmed.
// Empty cells carry MissingToken.
type RawRow struct {
	Name       string
	Type       string
	Rarity     string
	Attunement string
	Link       string
}

// headerAliases maps the header spellings seen in the wild to the
// canonical column names.
var headerAliases = map[string]string{
	"name":      "Name",
	"item":      "Name",
	"item name": "Name",

	"type":     "Type",
	"category": "Type",

	"rarity": "Rarity",

	"attunement":          "Attunement",
	"requires attunement": "Attunement",

	"link":       "Link",
	"source":     "Link",
	"sourcelink": "Link",
	"url":        "Link",
}

var requiredHeaders = []string{"Name", "Type", "Rarity", "Attunement", "Link"}

// ParseCSV reads an item sheet. The file must carry the five required
// columns (aliases accepted); blank rows and rows whose first cell
// starts with '#' are skipped. Non-UTF-8 files fall back to a
// Windows-1252 decode, which covers the smart-quote exports.
func ParseCSV(path string) ([]RawRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	if !utf8.Valid(data) {
		data, err = charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode sheet %s: %w", path, err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("parse sheet %s: no header row", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse sheet %s: %w", path, err)
	}

	// Column index by canonical name.
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, taken := columns[name]; !taken {
			columns[name] = i
		}
	}

	var missing []string
	for _, h := range requiredHeaders {
		if _, ok := columns[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("parse sheet %s: missing required columns: %s", path, strings.Join(missing, ", "))
	}

	var rows []RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse sheet %s: %w", path, err)
		}
		if blankRecord(record) {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(record[0]), "#") {
			continue
		}

		cell := func(name string) string {
			i := columns[name]
			if i >= len(record) {
				return MissingToken
			}
			v := strings.TrimSpace(record[i])
			if v == "" {
				return MissingToken
			}
			return v
		}

		rows = append(rows, RawRow{
			Name:       cell("Name"),
			Type:       cell("Type"),
			Rarity:     cell("Rarity"),
			Attunement: cell("Attunement"),
			Link:       cell("Link"),
		})
	}
	return rows, nil
}

func normalizeHeader(h string) string {
	key := strings.ToLower(strings.TrimSpace(h))
	if canonical, ok := headerAliases[key]; ok {
		return canonical
	}
	return strings.TrimSpace(h)
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
