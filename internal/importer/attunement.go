package importer

import "strings"

// ParseAttunement converts a sheet attunement cell to a (required,
// criteria) pair:
//
//	"No"           -> (false, "")
//	"Yes"          -> (true, "")
//	"Yes - Wizard" -> (true, "Wizard")
//	"Dex 15"       -> (true, "Dex 15")
//	"", "MISSING"  -> (false, "")
func ParseAttunement(cell string) (bool, string) {
	v := strings.TrimSpace(cell)
	if v == "" {
		return false, ""
	}
	switch strings.ToLower(v) {
	case strings.ToLower(MissingToken), "n/a", "na":
		return false, ""
	}

	lv := strings.ToLower(v)
	if strings.HasPrefix(lv, "no") {
		return false, ""
	}
	if strings.HasPrefix(lv, "yes") {
		if _, criteria, found := strings.Cut(v, "-"); found {
			return true, strings.TrimSpace(criteria)
		}
		return true, ""
	}

	// Any other free text means required, with the text as criteria.
	return true, v
}
