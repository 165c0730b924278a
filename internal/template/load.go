package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrTemplateNotFound is returned when no search root contains the named
// template.
var ErrTemplateNotFound = errors.New("template not found")

// ParseError describes a descriptor that could not be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse descriptor %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Find locates a template by name across the search roots, first root wins.
func Find(roots []string, name string) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("template name is required")
	}
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid template name %q", name)
	}

	for _, root := range roots {
		dir := filepath.Join(root, name)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		return Load(dir, name)
	}

	return nil, fmt.Errorf("template %q: %w", name, ErrTemplateNotFound)
}

// Load reads the template rooted at dir. A missing descriptor yields a
// template with no questions and the default version.
func Load(dir, name string) (*Template, error) {
	tmpl := &Template{Name: name, Version: DefaultVersion, Dir: dir}

	path, ok := DescriptorPath(dir)
	if !ok {
		return tmpl, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor %s: %w", path, err)
	}

	if err := parseDescriptor(data, tmpl); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	return tmpl, nil
}

// DescriptorPath returns the template's descriptor file, honoring the fixed
// filename precedence order.
func DescriptorPath(dir string) (string, bool) {
	for _, name := range DescriptorNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// List enumerates discoverable templates across the search roots with
// first-root precedence. Enumeration is best-effort: a template whose
// descriptor fails to parse is still listed, with an empty description.
func List(roots []string) ([]Info, error) {
	seen := make(map[string]bool)
	infos := make([]Info, 0)

	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read templates dir %s: %w", root, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if seen[entry.Name()] {
				continue
			}
			seen[entry.Name()] = true

			description := ""
			if tmpl, err := Load(filepath.Join(root, entry.Name()), entry.Name()); err == nil {
				description = tmpl.Description
			}
			infos = append(infos, Info{Name: entry.Name(), Description: description})
		}
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	return infos, nil
}

// parseDescriptor walks the descriptor document node by node so that
// question declaration order survives: default expressions may reference
// earlier-declared variables only, and resolution depends on that order.
func parseDescriptor(data []byte, tmpl *Template) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("descriptor root must be a mapping, got %s", nodeKind(root))
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		value := root.Content[i+1]

		if strings.HasPrefix(key, metaPrefix) {
			switch key {
			case "_version":
				if value.Value != "" {
					tmpl.Version = value.Value
				}
			case "_description":
				tmpl.Description = value.Value
			}
			continue
		}

		if value.Kind != yaml.MappingNode || !hasKey(value, "type") {
			continue
		}

		question, err := decodeQuestion(key, value)
		if err != nil {
			return fmt.Errorf("question %q: %w", key, err)
		}
		tmpl.Questions = append(tmpl.Questions, question)
	}

	return nil
}

func decodeQuestion(name string, node *yaml.Node) (Question, error) {
	var raw struct {
		Type    string `yaml:"type"`
		Default any    `yaml:"default"`
		Choices []any  `yaml:"choices"`
		Help    string `yaml:"help"`
		When    string `yaml:"when"`
	}
	if err := node.Decode(&raw); err != nil {
		return Question{}, err
	}

	return Question{
		Name:    name,
		Type:    raw.Type,
		Default: raw.Default,
		Choices: raw.Choices,
		Help:    raw.Help,
		When:    raw.When,
	}, nil
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "unknown"
	}
}
