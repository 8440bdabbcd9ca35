package cmd

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"retailsync/internal/target"
	"retailsync/internal/ui"
)

var schemaResetYes bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect or rebuild the target schema",
}

var schemaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the DDL the migration applies to the target",
	Run: func(cmd *cobra.Command, args []string) {
		ui.ShowHeader("Target Schema")
		fmt.Printf("%s\n", target.SchemaDDL)
	},
}

var schemaResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the target schema without copying data",
	Long: `Rebuild the six retail tables on the target as empty tables. All data in
them is destroyed. Useful to clear a partially migrated target before a
fresh run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if !schemaResetYes {
			ui.ShowWarning("All data in the target retail tables will be destroyed.")
			confirmed := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("Reset the schema on %s/%s?", cfg.Postgres.Server, cfg.Postgres.Database),
				Default: false,
			}
			if err := survey.AskOne(prompt, &confirmed); err != nil {
				return err
			}
			if !confirmed {
				ui.ShowInfo("Reset cancelled")
				return nil
			}
		}

		tgt, err := connectTarget(cfg)
		if err != nil {
			return err
		}
		defer tgt.Close()

		spinner := ui.NewSpinner("Rebuilding target schema...")
		spinner.Start()
		err = tgt.ResetSchema(context.Background())
		if err != nil {
			spinner.Stop(false, "Schema reset failed")
			return err
		}
		spinner.Stop(true, "Schema rebuilt; all six tables are empty")
		return nil
	},
}

func init() {
	schemaResetCmd.Flags().BoolVarP(&schemaResetYes, "yes", "y", false, "skip the confirmation prompt")
	schemaCmd.AddCommand(schemaShowCmd)
	schemaCmd.AddCommand(schemaResetCmd)
	rootCmd.AddCommand(schemaCmd)
}
