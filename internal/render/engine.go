// Package render drives the external template rendering engine.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultCommand is the rendering engine binary invoked when none is
// configured.
const DefaultCommand = "copier"

// answersFile is written by the engine into the destination and records the
// answers it actually used, including interactively collected ones.
const answersFile = ".copier-answers.yml"

// Engine materializes a template into a destination directory and returns
// the answers the engine actually used, a superset of the pre-seeded data.
type Engine interface {
	Render(ctx context.Context, templateDir, destination string, data map[string]any) (map[string]any, error)
}

// Executor runs the engine binary.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// EngineError wraps a failed rendering engine invocation together with the
// engine's diagnostic output.
type EngineError struct {
	Stderr string
	Err    error
}

func (e *EngineError) Error() string {
	msg := fmt.Sprintf("rendering engine failed: %v", e.Err)
	if diag := strings.TrimSpace(e.Stderr); diag != "" {
		msg += ": " + diag
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Err }

// Copier invokes the copier CLI to render templates.
type Copier struct {
	command     string
	exec        Executor
	logger      zerolog.Logger
	interactive bool
}

// CopierOption customizes the engine invocation.
type CopierOption func(*Copier)

// WithInteractive lets the engine prompt for questions that have no baked
// default. Off by default: the engine then accepts every default silently.
func WithInteractive(interactive bool) CopierOption {
	return func(c *Copier) {
		c.interactive = interactive
	}
}

// NewCopier creates a copier-backed engine. A nil executor runs the real
// binary.
func NewCopier(command string, executor Executor, logger zerolog.Logger, opts ...CopierOption) *Copier {
	if command == "" {
		command = DefaultCommand
	}
	if executor == nil {
		executor = execRunner{}
	}
	c := &Copier{command: command, exec: executor, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render copies templateDir into destination, pre-seeding the provided
// data. Invocation failure surfaces as *EngineError.
func (c *Copier) Render(ctx context.Context, templateDir, destination string, data map[string]any) (map[string]any, error) {
	args := []string{"copy", "--trust", "--overwrite"}
	if !c.interactive {
		args = append(args, "--defaults")
	}
	for _, key := range sortedKeys(data) {
		args = append(args, "--data", fmt.Sprintf("%s=%s", key, formatValue(data[key])))
	}
	args = append(args, templateDir, destination)

	c.logger.Debug().
		Str("command", c.command).
		Str("template", templateDir).
		Str("destination", destination).
		Msg("invoking rendering engine")

	_, stderr, err := c.exec.Run(ctx, c.command, args...)
	if err != nil {
		return nil, &EngineError{Stderr: string(stderr), Err: err}
	}

	answers, err := readAnswers(destination)
	if err != nil {
		// The engine succeeded; a missing or unreadable answers file
		// degrades to echoing the pre-seeded data.
		c.logger.Warn().Err(err).Msg("answers file unavailable, falling back to pre-seeded data")
		answers = make(map[string]any, len(data))
		for key, value := range data {
			answers[key] = value
		}
	}

	return answers, nil
}

func readAnswers(destination string) (map[string]any, error) {
	path := filepath.Join(destination, answersFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers %s: %w", path, err)
	}

	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse answers %s: %w", path, err)
	}

	answers := make(map[string]any, len(raw))
	for key, value := range raw {
		if strings.HasPrefix(key, "_") {
			continue
		}
		answers[key] = value
	}
	return answers, nil
}

func sortedKeys(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}

// execRunner is the real Executor backed by os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
