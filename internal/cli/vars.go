package cli

import (
	"fmt"
	"strings"
)

// parseVars turns repeated --var name=value flags into an override map.
// Values stay strings here; the resolution pipeline coerces them to the
// question's declared type.
func parseVars(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, expected name=value", pair)
		}
		vars[name] = value
	}
	return vars, nil
}
