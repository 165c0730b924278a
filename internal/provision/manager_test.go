package provision

import (
	"context"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/foundry/internal/store"
	"github.com/opencode-ai/foundry/internal/template"
)

type renderCall struct {
	templateDir string
	destination string
	data        map[string]any
	defaults    map[string]any // descriptor defaults seen inside templateDir
}

// fakeEngine records invocations and simulates a rendered destination.
type fakeEngine struct {
	calls   []renderCall
	answers map[string]any // extra answers layered over the pre-seeded data
	err     error
}

func (f *fakeEngine) Render(ctx context.Context, templateDir, destination string, data map[string]any) (map[string]any, error) {
	call := renderCall{
		templateDir: templateDir,
		destination: destination,
		data:        data,
		defaults:    make(map[string]any),
	}
	if tmpl, err := template.Load(templateDir, filepath.Base(templateDir)); err == nil {
		for _, q := range tmpl.Questions {
			call.defaults[q.Name] = q.Default
		}
	}
	f.calls = append(f.calls, call)

	if f.err != nil {
		return nil, f.err
	}

	if err := os.MkdirAll(destination, 0o755); err != nil {
		return nil, err
	}

	answers := make(map[string]any, len(data)+len(f.answers))
	for key, value := range data {
		answers[key] = value
	}
	for key, value := range f.answers {
		answers[key] = value
	}
	return answers, nil
}

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
}

func writeTemplate(t *testing.T, root, name, descriptor string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "copier.yaml"), []byte(descriptor), 0o644))
	return dir
}

const t1Descriptor = `project_name:
  type: str
  default: demo
license:
  type: str
  default: MIT
  choices:
    - MIT
    - Apache-2.0
`

func newManager(t *testing.T, root string, engine *fakeEngine) *Manager {
	t.Helper()
	manager, err := New([]string{root}, engine, zerolog.Nop(), Options{Now: fixedClock(2026)})
	require.NoError(t, err)
	return manager
}

func persistedState(t *testing.T, projectDir string) *TemplateState {
	t.Helper()
	st, err := store.ForProject(projectDir)
	require.NoError(t, err)
	state, ok := loadState(st)
	require.True(t, ok)
	return state
}

func TestCreateEndToEnd(t *testing.T) {
	root := t.TempDir()
	sourceDir := writeTemplate(t, root, "t1", t1Descriptor)
	engine := &fakeEngine{}
	manager := newManager(t, root, engine)
	destination := filepath.Join(t.TempDir(), "proj")

	err := manager.Create(context.Background(), "t1", destination, map[string]any{"project_name": "acme"})
	require.NoError(t, err)

	state := persistedState(t, destination)
	require.Equal(t, "t1", state.Name)
	require.Equal(t, "0.1.0", state.Version)
	require.Equal(t, map[string]any{
		"project_name": "acme",
		"license":      "MIT",
		"current_year": 2026,
	}, state.Variables)

	require.Len(t, engine.calls, 1)
	call := engine.calls[0]

	// The engine ran against a disposable copy, not the source template,
	// with the resolved values baked in as defaults.
	require.NotEqual(t, sourceDir, call.templateDir)
	require.Equal(t, "acme", call.defaults["project_name"])
	require.Equal(t, "MIT", call.defaults["license"])
	require.Equal(t, map[string]any{"current_year": 2026}, call.data)

	// The disposable copy is gone.
	require.NoDirExists(t, call.templateDir)
}

func TestCreateSourceTemplateUnchanged(t *testing.T) {
	root := t.TempDir()
	sourceDir := writeTemplate(t, root, "t1", t1Descriptor)
	descriptorPath := filepath.Join(sourceDir, "copier.yaml")
	data, err := os.ReadFile(descriptorPath)
	require.NoError(t, err)
	before := sha256.Sum256(data)

	manager := newManager(t, root, &fakeEngine{})
	destination := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, manager.Create(context.Background(), "t1", destination, map[string]any{"project_name": "acme"}))

	data, err = os.ReadFile(descriptorPath)
	require.NoError(t, err)
	require.Equal(t, before, sha256.Sum256(data))
}

func TestCreateTemplateNotFound(t *testing.T) {
	manager := newManager(t, t.TempDir(), &fakeEngine{})
	destination := filepath.Join(t.TempDir(), "proj")

	err := manager.Create(context.Background(), "ghost", destination, nil)
	require.ErrorIs(t, err, template.ErrTemplateNotFound)
	require.False(t, store.Exists(destination))
}

func TestCreateEngineFailureLeavesNoState(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "t1", t1Descriptor)
	cause := errors.New("engine blew up")
	engine := &fakeEngine{err: cause}
	manager := newManager(t, root, engine)
	destination := filepath.Join(t.TempDir(), "proj")

	err := manager.Create(context.Background(), "t1", destination, nil)
	require.ErrorIs(t, err, cause)

	// No partially updated state, and the temp template is cleaned up
	// even though rendering failed inside the sandbox scope.
	require.False(t, store.Exists(destination))
	require.Len(t, engine.calls, 1)
	require.NoDirExists(t, engine.calls[0].templateDir)
}

func TestCreateMergesEngineAnswers(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "t1", t1Descriptor)
	engine := &fakeEngine{answers: map[string]any{"license": "Apache-2.0", "author": "bob"}}
	manager := newManager(t, root, engine)
	destination := filepath.Join(t.TempDir(), "proj")

	require.NoError(t, manager.Create(context.Background(), "t1", destination, nil))

	state := persistedState(t, destination)
	// Engine answers take final precedence over resolved bindings.
	require.Equal(t, "Apache-2.0", state.Variables["license"])
	require.Equal(t, "bob", state.Variables["author"])
}

func TestUpdateNotProvisioned(t *testing.T) {
	manager := newManager(t, t.TempDir(), &fakeEngine{})

	err := manager.Update(context.Background(), t.TempDir(), nil)
	require.ErrorIs(t, err, ErrNotProvisioned)
}

func TestUpdateOverridePrecedence(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "t1", t1Descriptor)
	manager := newManager(t, root, &fakeEngine{})
	destination := filepath.Join(t.TempDir(), "proj")

	require.NoError(t, manager.Create(context.Background(), "t1", destination, nil))
	require.NoError(t, manager.Update(context.Background(), destination, map[string]any{"license": "Apache-2.0"}))

	state := persistedState(t, destination)
	require.Equal(t, "Apache-2.0", state.Variables["license"])
	require.Equal(t, "demo", state.Variables["project_name"])
}

func TestUpdateIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "t1", t1Descriptor)
	manager := newManager(t, root, &fakeEngine{})
	destination := filepath.Join(t.TempDir(), "proj")
	configPath := filepath.Join(destination, store.Dir, "config.yaml")

	require.NoError(t, manager.Create(context.Background(), "t1", destination, map[string]any{"project_name": "acme"}))

	require.NoError(t, manager.Update(context.Background(), destination, nil))
	first, err := os.ReadFile(configPath)
	require.NoError(t, err)

	require.NoError(t, manager.Update(context.Background(), destination, nil))
	second, err := os.ReadFile(configPath)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestUpdateCarriesPriorVariablesForward(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "t1", t1Descriptor)
	manager := newManager(t, root, &fakeEngine{})
	destination := filepath.Join(t.TempDir(), "proj")

	require.NoError(t, manager.Create(context.Background(), "t1", destination, map[string]any{"license": "Apache-2.0"}))
	require.NoError(t, manager.Update(context.Background(), destination, nil))

	state := persistedState(t, destination)
	require.Equal(t, "Apache-2.0", state.Variables["license"])
}

func TestIsProvisioned(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "t1", t1Descriptor)
	manager := newManager(t, root, &fakeEngine{})
	destination := filepath.Join(t.TempDir(), "proj")

	require.False(t, manager.IsProvisioned(destination))

	require.NoError(t, manager.Create(context.Background(), "t1", destination, nil))
	require.True(t, manager.IsProvisioned(destination))

	// A store without a template record does not count.
	other := t.TempDir()
	st, err := store.ForProject(other)
	require.NoError(t, err)
	require.NoError(t, st.Set("unrelated", true))
	require.False(t, manager.IsProvisioned(other))
}

func TestListTemplates(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "t1", "_description: first template\n"+t1Descriptor)
	writeTemplate(t, root, "t2", "_description: second template\n")
	manager := newManager(t, root, &fakeEngine{})

	infos, err := manager.ListTemplates()
	require.NoError(t, err)
	require.Equal(t, []template.Info{
		{Name: "t1", Description: "first template"},
		{Name: "t2", Description: "second template"},
	}, infos)
}
