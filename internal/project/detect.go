// Package project inspects directories for structural markers left behind
// by the project templates.
package project

import (
	"os"
	"path/filepath"
)

// Kind classifies a project directory by its structural markers.
type Kind string

const (
	// KindUnknown means no marker matched.
	KindUnknown Kind = ""
	// KindSimple projects carry a setup.py.
	KindSimple Kind = "simple"
	// KindDevelopment projects carry pyproject.toml plus pre-commit config.
	KindDevelopment Kind = "development"
	// KindGithub projects carry a .github workflow directory.
	KindGithub Kind = "github"
)

// Detect classifies dir. Marker precedence mirrors the template feature
// sets: github implies development implies simple.
func Detect(dir string) Kind {
	switch {
	case isDir(filepath.Join(dir, ".github")):
		return KindGithub
	case isFile(filepath.Join(dir, "pyproject.toml")) && isFile(filepath.Join(dir, ".pre-commit-config.yaml")):
		return KindDevelopment
	case isFile(filepath.Join(dir, "setup.py")):
		return KindSimple
	default:
		return KindUnknown
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
