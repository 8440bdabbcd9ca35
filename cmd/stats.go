package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"retailsync/internal/assistant"
	"retailsync/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show headline numbers for the migrated dataset",
	Long: `Read the order, customer and product counts plus total revenue from the
Postgres target. A quick sanity check after a migration run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		tgt, err := connectTarget(cfg)
		if err != nil {
			return err
		}
		defer tgt.Close()

		m, err := assistant.FetchMetrics(context.Background(), tgt.DB())
		if err != nil {
			return err
		}

		ui.ShowHeader("Dataset Overview")
		ui.PrintKeyValue("Orders", ui.FormatCount(m.Orders))
		ui.PrintKeyValue("Customers", ui.FormatCount(m.Customers))
		ui.PrintKeyValue("Products", ui.FormatCount(m.Products))
		ui.PrintKeyValue("Total revenue", fmt.Sprintf("$%.2f", m.Revenue))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
