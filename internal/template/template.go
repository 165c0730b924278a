// Package template loads project template descriptors.
package template

import "strings"

// DefaultVersion is used when a descriptor declares no _version.
const DefaultVersion = "0.1.0"

// DescriptorNames are the accepted descriptor filenames, in precedence
// order: the first one found wins.
var DescriptorNames = []string{"copier.yaml", "copier.yml"}

// metaPrefix marks reserved descriptor keys (_version, _description).
const metaPrefix = "_"

// Template is a named, versioned project skeleton.
type Template struct {
	Name        string
	Version     string
	Description string
	Questions   []Question
	Dir         string // root of the template tree on disk
}

// Question is one variable declaration inside a template descriptor.
type Question struct {
	Name    string
	Type    string // str, int, bool
	Default any
	Choices []any
	Help    string
	When    string // visibility condition; empty means always visible
}

// Question returns the declared question with the given name, if any.
func (t *Template) Question(name string) (Question, bool) {
	for _, q := range t.Questions {
		if q.Name == name {
			return q, true
		}
	}
	return Question{}, false
}

// Info is a listing entry for a discoverable template.
type Info struct {
	Name        string
	Description string
}

// IsExpression reports whether a descriptor value is an expression-language
// string. Such defaults are never pre-evaluated at read time and never
// frozen into a sandboxed template copy.
func IsExpression(value any) bool {
	s, ok := value.(string)
	return ok && strings.Contains(s, "{{") && strings.Contains(s, "}}")
}
