package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/foundry/internal/project"
	"github.com/opencode-ai/foundry/internal/store"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show a project's template provisioning state",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir := "."
		if len(args) == 1 {
			projectDir = args[0]
		}

		kind := project.Detect(projectDir)
		if kind != project.KindUnknown {
			cmd.Printf("Project kind: %s\n", kind)
		}

		st, err := store.ForProject(projectDir)
		if err != nil {
			return err
		}
		record, ok := st.Get("template", nil).(map[string]any)
		if !ok {
			cmd.Println("Not provisioned from a template.")
			return nil
		}

		cmd.Printf("Template: %v (version %v)\n", record["name"], record["version"])

		variables, ok := record["variables"].(map[string]any)
		if !ok || len(variables) == 0 {
			return nil
		}

		names := make([]string, 0, len(variables))
		for name := range variables {
			names = append(names, name)
		}
		sort.Strings(names)

		rows := make([][]string, 0, len(names))
		for _, name := range names {
			rows = append(rows, []string{name, fmt.Sprint(variables[name])})
		}
		return writeTable(cmd.OutOrStdout(), []string{"VARIABLE", "VALUE"}, rows)
	},
}
