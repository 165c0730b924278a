package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available templates",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newManager()
		if err != nil {
			return err
		}

		infos, err := manager.ListTemplates()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			cmd.Println("No templates found.")
			return nil
		}

		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			rows = append(rows, []string{info.Name, info.Description})
		}
		return writeTable(cmd.OutOrStdout(), []string{"NAME", "DESCRIPTION"}, rows)
	},
}
