package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/townecodex/codex/internal/gen"
)

// LoadGenSpec reads a generation spec from a .json or .cue file.
// CUE specs are evaluated first, so they can carry computed fields and
// constraints; the concrete result must decode to the same shape as
// the JSON form.
func LoadGenSpec(path string) (gen.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gen.Spec{}, fmt.Errorf("read spec file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeJSONSpec(path, data)
	case ".cue":
		return decodeCUESpec(path, data)
	default:
		return gen.Spec{}, fmt.Errorf("spec file %s: unsupported extension (want .json or .cue)", path)
	}
}

// ParseGenSpec decodes a JSON spec held in memory, e.g. the config_json
// column of a saved generator.
func ParseGenSpec(configJSON string) (gen.Spec, error) {
	var spec gen.Spec
	decoder := json.NewDecoder(strings.NewReader(configJSON))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&spec); err != nil {
		return gen.Spec{}, fmt.Errorf("parse generator config: %w", err)
	}
	return spec, nil
}

func decodeJSONSpec(path string, data []byte) (gen.Spec, error) {
	var spec gen.Spec
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&spec); err != nil {
		return gen.Spec{}, fmt.Errorf("parse spec %s: %w", path, err)
	}
	return spec, nil
}

func decodeCUESpec(path string, data []byte) (gen.Spec, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return gen.Spec{}, fmt.Errorf("compile spec %s: %w", path, err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return gen.Spec{}, fmt.Errorf("spec %s is not concrete: %w", path, err)
	}

	var spec gen.Spec
	if err := value.Decode(&spec); err != nil {
		return gen.Spec{}, fmt.Errorf("decode spec %s: %w", path, err)
	}
	return spec, nil
}
