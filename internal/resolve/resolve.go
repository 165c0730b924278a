// Package resolve merges the three layered sources of template variable
// values into one binding set: template-declared defaults, previously
// persisted project state, and caller-supplied overrides.
package resolve

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opencode-ai/foundry/internal/expr"
	"github.com/opencode-ai/foundry/internal/template"
)

// CurrentYearKey is injected into every resolved binding set, recomputed on
// each resolution and never taken from persisted state.
const CurrentYearKey = "current_year"

// Resolver produces variable bindings for a provisioning operation. The
// zero value resolves against the wall clock; tests inject Now.
type Resolver struct {
	Now func() time.Time
}

// Resolve returns the final binding set for tmpl. Precedence, lowest to
// highest: evaluated template defaults, prior (persisted) state, overrides.
// When prior state exists it replaces the defaults layer entirely, so
// values chosen on an earlier pass flow forward unless overridden.
//
// Every declared question receives a value, including questions whose
// visibility condition would hide them from prompting: downstream rendering
// must never see an unresolved variable.
func (r *Resolver) Resolve(tmpl *template.Template, prior, overrides map[string]any) map[string]any {
	bindings := make(map[string]any)

	if len(prior) > 0 {
		for key, value := range prior {
			bindings[key] = value
		}
	} else {
		for _, question := range tmpl.Questions {
			bindings[question.Name] = defaultValue(question, bindings)
		}
	}

	for key, value := range overrides {
		if question, ok := tmpl.Question(key); ok {
			value = coerce(question, value)
		}
		bindings[key] = value
	}

	now := r.Now
	if now == nil {
		now = time.Now
	}
	bindings[CurrentYearKey] = now().Year()

	return bindings
}

func defaultValue(question template.Question, accumulated map[string]any) any {
	if template.IsExpression(question.Default) {
		return expr.Evaluate(question.Default.(string), accumulated)
	}
	return question.Default
}

// coerce converts an override to the question's declared type and enforces
// its choices, falling back to the declared default on an invalid choice.
func coerce(question template.Question, value any) any {
	switch question.Type {
	case "str":
		if _, ok := value.(string); !ok {
			value = fmt.Sprint(value)
		}
	case "int":
		value = coerceInt(question, value)
	case "bool":
		value = coerceBool(value)
	}

	if len(question.Choices) > 0 && !isChoice(question.Choices, value) {
		if question.Default != nil {
			return question.Default
		}
		return question.Choices[0]
	}

	return value
}

func coerceInt(question template.Question, value any) any {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	if question.Default != nil {
		return question.Default
	}
	return 0
}

func coerceBool(value any) any {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "true", "t", "1":
			return true
		default:
			return false
		}
	default:
		return value != nil
	}
}

func isChoice(choices []any, value any) bool {
	for _, choice := range choices {
		if choice == value {
			return true
		}
		if fmt.Sprint(choice) == fmt.Sprint(value) {
			return true
		}
	}
	return false
}
