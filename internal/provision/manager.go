// Package provision orchestrates template-driven project creation and
// re-provisioning.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opencode-ai/foundry/internal/render"
	"github.com/opencode-ai/foundry/internal/resolve"
	"github.com/opencode-ai/foundry/internal/sandbox"
	"github.com/opencode-ai/foundry/internal/store"
	"github.com/opencode-ai/foundry/internal/template"
)

// ErrNotProvisioned is returned by Update when the target project has no
// persisted template record. Callers should suggest running create instead.
var ErrNotProvisioned = errors.New("project is not provisioned from a template")

// Options configure optional manager collaborators.
type Options struct {
	// Now overrides the clock used for current_year resolution.
	Now func() time.Time
}

// Manager is the provisioning entry point. Operations against the same
// destination must be serialized by the caller; the manager takes no locks.
type Manager struct {
	roots    []string
	engine   render.Engine
	logger   zerolog.Logger
	resolver resolve.Resolver
}

// New constructs a manager over the given template search roots.
func New(roots []string, engine render.Engine, logger zerolog.Logger, opts Options) (*Manager, error) {
	if len(roots) == 0 {
		return nil, errors.New("at least one template root is required")
	}
	if engine == nil {
		return nil, errors.New("rendering engine is required")
	}

	return &Manager{
		roots:    roots,
		engine:   engine,
		logger:   logger,
		resolver: resolve.Resolver{Now: opts.Now},
	}, nil
}

// ListTemplates enumerates discoverable templates. Templates with unusable
// descriptors are still listed, with an empty description.
func (m *Manager) ListTemplates() ([]template.Info, error) {
	return template.List(m.roots)
}

// Create provisions a new project at destination from the named template.
// The persisted template record is written only after rendering succeeded.
func (m *Manager) Create(ctx context.Context, templateName, destination string, overrides map[string]any) error {
	tmpl, err := template.Find(m.roots, templateName)
	if err != nil {
		return err
	}

	logger := m.opLogger("create", tmpl.Name, destination)
	logger.Info().Msg("provisioning project")

	resolved := m.resolver.Resolve(tmpl, nil, overrides)

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("create destination parent: %w", err)
	}

	answers, err := m.renderTemplate(ctx, tmpl, resolved, destination)
	if err != nil {
		return err
	}

	if err := m.persist(tmpl, destination, merge(resolved, answers)); err != nil {
		return err
	}

	logger.Info().Msg("project provisioned")
	return nil
}

// Update re-renders an existing provisioned project in place, carrying its
// persisted variables forward under the new overrides.
func (m *Manager) Update(ctx context.Context, projectDir string, overrides map[string]any) error {
	st, err := store.ForProject(projectDir)
	if err != nil {
		return err
	}
	state, ok := loadState(st)
	if !ok || state.Name == "" {
		return fmt.Errorf("%s: %w", projectDir, ErrNotProvisioned)
	}

	tmpl, err := template.Find(m.roots, state.Name)
	if err != nil {
		return err
	}

	logger := m.opLogger("update", tmpl.Name, projectDir)
	logger.Info().Msg("re-provisioning project")

	resolved := m.resolver.Resolve(tmpl, state.Variables, overrides)

	answers, err := m.renderTemplate(ctx, tmpl, resolved, projectDir)
	if err != nil {
		return err
	}

	if err := m.persist(tmpl, projectDir, merge(resolved, answers)); err != nil {
		return err
	}

	logger.Info().Msg("project re-provisioned")
	return nil
}

// IsProvisioned reports whether dir carries a persisted template record
// naming a template.
func (m *Manager) IsProvisioned(dir string) bool {
	if !store.Exists(dir) {
		return false
	}
	st, err := store.ForProject(dir)
	if err != nil {
		return false
	}
	state, ok := loadState(st)
	return ok && state.Name != ""
}

// renderTemplate drives the engine. When resolution produced bindings the
// engine runs against a sandboxed copy with those values baked in as
// defaults; otherwise it runs against the source template directly. Either
// way the source template is never mutated.
func (m *Manager) renderTemplate(ctx context.Context, tmpl *template.Template, resolved map[string]any, destination string) (map[string]any, error) {
	data := engineData(resolved)

	if len(resolved) == 0 {
		return m.engine.Render(ctx, tmpl.Dir, destination, data)
	}

	var answers map[string]any
	err := sandbox.WithTempTemplate(tmpl, resolved, func(dir string) error {
		var renderErr error
		answers, renderErr = m.engine.Render(ctx, dir, destination, data)
		return renderErr
	})
	if err != nil {
		return nil, err
	}
	return answers, nil
}

func (m *Manager) persist(tmpl *template.Template, projectDir string, variables map[string]any) error {
	st, err := store.ForProject(projectDir)
	if err != nil {
		return err
	}
	return saveState(st, &TemplateState{
		Name:      tmpl.Name,
		Version:   tmpl.Version,
		Variables: variables,
	})
}

func (m *Manager) opLogger(operation, templateName, target string) zerolog.Logger {
	return m.logger.With().
		Str("op", uuid.New().String()).
		Str("operation", operation).
		Str("template", templateName).
		Str("target", target).
		Logger()
}

// engineData is the pre-seeded value map handed to the rendering engine.
// Chosen values reach the engine through the sandboxed descriptor defaults;
// only current_year has no question to carry it.
func engineData(resolved map[string]any) map[string]any {
	data := make(map[string]any, 1)
	if year, ok := resolved[resolve.CurrentYearKey]; ok {
		data[resolve.CurrentYearKey] = year
	}
	return data
}

// merge layers the engine's answers over the resolved bindings; engine
// answers take final precedence for any key they define.
func merge(resolved, answers map[string]any) map[string]any {
	merged := make(map[string]any, len(resolved)+len(answers))
	for key, value := range resolved {
		merged[key] = value
	}
	for key, value := range answers {
		merged[key] = value
	}
	return merged
}
