package configutil

import (
	"fmt"
	"sort"
	"strings"
)

// Schema names the required keys of a settings map. Optional keys are
// not enumerated: the environment carries plenty of unrelated entries.
type Schema struct {
	Required []string
}

// ValidateSettings checks that every required key is present and
// non-empty. Keys match case/underscore/hyphen insensitively.
func ValidateSettings(input map[string]any, schema Schema) error {
	missing := make([]string, 0)
	for _, key := range schema.Required {
		if isEmptyValue(lookup(input, key)) {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
}

func lookup(input map[string]any, key string) any {
	want := normalizeKey(key)
	for k, v := range input {
		if normalizeKey(k) == want {
			return v
		}
	}
	return nil
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
