package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/foundry/internal/provision"
)

var updateVars []string

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringArrayVar(&updateVars, "var", nil, "template variable as name=value (repeatable)")
}

var updateCmd = &cobra.Command{
	Use:   "update [path]",
	Short: "Re-apply a project's template in place",
	Long: `Re-apply the template a project was created from, carrying previously
persisted answers forward. Defaults to the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir := "."
		if len(args) == 1 {
			projectDir = args[0]
		}

		overrides, err := parseVars(updateVars)
		if err != nil {
			return err
		}

		manager, err := newManager()
		if err != nil {
			return err
		}

		ctx, cancel := opContext()
		defer cancel()

		if err := manager.Update(ctx, projectDir, overrides); err != nil {
			if errors.Is(err, provision.ErrNotProvisioned) {
				return fmt.Errorf("%w (run 'foundry create' first)", err)
			}
			return err
		}

		cmd.Printf("Updated %s\n", projectDir)
		return nil
	},
}
