package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTable(t *testing.T) {
	var out strings.Builder

	err := writeTable(&out, []string{"NAME", "DESCRIPTION"}, [][]string{
		{"python_project", "Python project skeleton"},
		{"go_project", ""},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "NAME"))
	require.Contains(t, lines[1], "python_project")
	require.Contains(t, lines[2], "go_project")
}
