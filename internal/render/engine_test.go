package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	name   string
	args   []string
	stderr []byte
	err    error

	// written into the destination before "returning", simulating the
	// engine's answers file.
	answers string
}

func (f *fakeExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args

	if f.err == nil && f.answers != "" {
		destination := args[len(args)-1]
		if err := os.MkdirAll(destination, 0o755); err != nil {
			return nil, nil, err
		}
		if err := os.WriteFile(filepath.Join(destination, answersFile), []byte(f.answers), 0o644); err != nil {
			return nil, nil, err
		}
	}

	return nil, f.stderr, f.err
}

func TestCopierBuildsCommand(t *testing.T) {
	executor := &fakeExecutor{}
	engine := NewCopier("", executor, zerolog.Nop())
	destination := filepath.Join(t.TempDir(), "proj")

	_, err := engine.Render(context.Background(), "/templates/t1", destination, map[string]any{
		"current_year": 2026,
		"audit":        true,
	})
	require.NoError(t, err)

	require.Equal(t, "copier", executor.name)
	require.Equal(t, []string{
		"copy", "--trust", "--overwrite", "--defaults",
		"--data", "audit=true",
		"--data", "current_year=2026",
		"/templates/t1", destination,
	}, executor.args)
}

func TestCopierInteractiveOmitsDefaults(t *testing.T) {
	executor := &fakeExecutor{}
	engine := NewCopier("", executor, zerolog.Nop(), WithInteractive(true))
	destination := filepath.Join(t.TempDir(), "proj")

	_, err := engine.Render(context.Background(), "/templates/t1", destination, nil)
	require.NoError(t, err)

	require.Equal(t, []string{
		"copy", "--trust", "--overwrite",
		"/templates/t1", destination,
	}, executor.args)
}

func TestCopierReadsAnswersFile(t *testing.T) {
	executor := &fakeExecutor{answers: `_src_path: /templates/t1
_commit: HEAD
project_name: acme
license: MIT
`}
	engine := NewCopier("copier", executor, zerolog.Nop())
	destination := filepath.Join(t.TempDir(), "proj")

	answers, err := engine.Render(context.Background(), "/templates/t1", destination, nil)
	require.NoError(t, err)

	// Engine metadata keys are dropped, real answers kept.
	require.Equal(t, map[string]any{
		"project_name": "acme",
		"license":      "MIT",
	}, answers)
}

func TestCopierFallsBackToDataWithoutAnswersFile(t *testing.T) {
	executor := &fakeExecutor{}
	engine := NewCopier("copier", executor, zerolog.Nop())
	destination := filepath.Join(t.TempDir(), "proj")

	answers, err := engine.Render(context.Background(), "/templates/t1", destination, map[string]any{
		"current_year": 2026,
	})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"current_year": 2026}, answers)
}

func TestCopierWrapsFailure(t *testing.T) {
	cause := errors.New("exit status 1")
	executor := &fakeExecutor{err: cause, stderr: []byte("no template here\n")}
	engine := NewCopier("copier", executor, zerolog.Nop())

	_, err := engine.Render(context.Background(), "/templates/t1", t.TempDir(), nil)

	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	require.ErrorIs(t, err, cause)
	require.Contains(t, engineErr.Error(), "no template here")
}
