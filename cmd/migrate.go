package cmd

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"retailsync/internal/migration"
	"retailsync/internal/source"
	"retailsync/internal/ui"
)

var (
	migrateSourcePath string
	migrateBatchSize  int
	migrateYes        bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy the retail dataset from SQLite into Postgres",
	Long: `Run the full one-time migration: verify the source file holds all six
tables, drop and recreate the target schema, then copy every table in
dependency order.

The target schema is rebuilt from scratch on every run, so the command is
safe to re-run after a failure. Data already in the target is destroyed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if migrateSourcePath != "" {
			cfg.Source.Path = migrateSourcePath
		}
		if migrateBatchSize > 0 {
			cfg.Migration.BatchSize = migrateBatchSize
		}

		ui.ShowHeader("Retail Dataset Migration")
		ui.PrintKeyValue("Source", cfg.Source.Path)
		ui.PrintKeyValue("Target", fmt.Sprintf("%s/%s", cfg.Postgres.Server, cfg.Postgres.Database))
		ui.PrintKeyValue("Batch size", ui.FormatCount(int64(cfg.Migration.BatchSize)))
		fmt.Println()

		if !migrateYes {
			ui.ShowWarning("The target schema will be dropped and recreated. Existing data is lost.")
			confirmed := false
			prompt := &survey.Confirm{
				Message: "Proceed with the migration?",
				Default: false,
			}
			if err := survey.AskOne(prompt, &confirmed); err != nil {
				return err
			}
			if !confirmed {
				ui.ShowInfo("Migration cancelled")
				return nil
			}
		}

		src, err := source.NewService(cfg.Source.Path)
		if err != nil {
			return err
		}
		defer src.Close()

		tgt, err := connectTarget(cfg)
		if err != nil {
			return err
		}
		defer tgt.Close()

		progress := ui.NewTableProgress(len(migration.TableSpecs()))
		svc := migration.NewService(src, tgt, cfg.Migration.BatchSize, migration.Hooks{
			OnTableStart:  progress.StartTable,
			OnTableFinish: progress.FinishTable,
			Progress:      progress.UpdateRows,
		})

		summary, err := svc.Run(context.Background())
		if err != nil {
			return err
		}
		progress.Finish(summary.TotalRows)

		fmt.Println()
		rows := make([][]string, 0, len(summary.Tables))
		for _, t := range summary.Tables {
			rows = append(rows, []string{
				t.Table,
				ui.FormatCount(t.Rows),
				ui.FormatDuration(t.Duration),
			})
		}
		ui.RenderTable([]string{"Table", "Rows", "Duration"}, rows)

		fmt.Println()
		ui.ShowSuccess(fmt.Sprintf("Migrated %s rows in %s",
			ui.FormatCount(summary.TotalRows), ui.FormatDuration(summary.Duration)))
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateSourcePath, "source", "", "path to the SQLite source file (overrides config)")
	migrateCmd.Flags().IntVar(&migrateBatchSize, "batch-size", 0, "rows per copy batch (default 50000)")
	migrateCmd.Flags().BoolVarP(&migrateYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(migrateCmd)
}
