package cli

import (
	"github.com/spf13/cobra"
)

var createVars []string

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringArrayVar(&createVars, "var", nil, "template variable as name=value (repeatable)")
}

var createCmd = &cobra.Command{
	Use:   "create <template> <destination>",
	Short: "Create a new project from a template",
	Long: `Create a new project from a template.

Variables passed with --var override the template's declared defaults; every
answer used is persisted in the project so a later update can re-apply the
template without re-asking.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		templateName, destination := args[0], args[1]

		overrides, err := parseVars(createVars)
		if err != nil {
			return err
		}

		manager, err := newManager()
		if err != nil {
			return err
		}

		ctx, cancel := opContext()
		defer cancel()

		if err := manager.Create(ctx, templateName, destination, overrides); err != nil {
			return err
		}

		cmd.Printf("Created %s from template %s\n", destination, templateName)
		return nil
	},
}
