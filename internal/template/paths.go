package template

import (
	"os"
	"path/filepath"
)

// SearchRoots returns template search directories in precedence order. A
// configured root takes over completely; otherwise the per-user directory
// shadows the system one.
func SearchRoots(configured string) []string {
	if configured != "" {
		return []string{configured}
	}

	roots := make([]string, 0, 2)
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		roots = append(roots, filepath.Join(home, ".config", "foundry", "templates"))
	}

	roots = append(roots, filepath.Join(string(filepath.Separator), "usr", "share", "foundry", "templates"))
	return roots
}
