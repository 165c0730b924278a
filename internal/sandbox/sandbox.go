// Package sandbox creates disposable template copies with already-resolved
// values baked in as descriptor defaults, so the rendering engine can run
// non-interactively while the source template stays untouched.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opencode-ai/foundry/internal/template"
)

const tempPrefix = "foundry-template-"

// WithTempTemplate duplicates tmpl into a fresh temporary directory,
// rewrites the duplicate's descriptor defaults from resolved, and invokes
// fn with the duplicate's path. The temporary tree is removed on every exit
// path, including a failed copy and an fn that returns an error or panics.
func WithTempTemplate(tmpl *template.Template, resolved map[string]any, fn func(dir string) error) error {
	tempRoot, err := os.MkdirTemp("", tempPrefix)
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempRoot)

	dir := filepath.Join(tempRoot, tmpl.Name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return fmt.Errorf("create temp template dir: %w", err)
	}
	if err := os.CopyFS(dir, os.DirFS(tmpl.Dir)); err != nil {
		return fmt.Errorf("copy template %s: %w", tmpl.Name, err)
	}

	if err := bakeDefaults(dir, resolved); err != nil {
		return err
	}

	return fn(dir)
}

// bakeDefaults overwrites plain-literal question defaults in the
// descriptor with the corresponding resolved values. Expression-valued
// defaults are left untouched: they must still be evaluated live against
// the final answer set, never frozen.
func bakeDefaults(dir string, resolved map[string]any) error {
	path, ok := template.DescriptorPath(dir)
	if !ok {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read descriptor %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse descriptor %s: %w", path, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil
	}

	if !rewriteDefaults(doc.Content[0], resolved) {
		return nil
	}

	out, err := yaml.Marshal(doc.Content[0])
	if err != nil {
		return fmt.Errorf("encode descriptor %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write descriptor %s: %w", path, err)
	}

	return nil
}

func rewriteDefaults(root *yaml.Node, resolved map[string]any) bool {
	changed := false

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		question := root.Content[i+1]

		if strings.HasPrefix(key, "_") || question.Kind != yaml.MappingNode {
			continue
		}
		value, ok := resolved[key]
		if !ok {
			continue
		}

		for j := 0; j+1 < len(question.Content); j += 2 {
			if question.Content[j].Value != "default" {
				continue
			}
			current := question.Content[j+1]
			if current.Kind == yaml.ScalarNode && template.IsExpression(current.Value) {
				break
			}

			replacement := &yaml.Node{}
			if err := replacement.Encode(value); err != nil {
				break
			}
			question.Content[j+1] = replacement
			changed = true
			break
		}
	}

	return changed
}
