package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"retailsync/internal/config"
	"retailsync/internal/target"
	"retailsync/internal/ui"
	"retailsync/pkg/models"
)

var rootCmd = &cobra.Command{
	Use:   "retailsync",
	Short: "Migrate the retail dataset to Postgres and query it in plain English",
	Long: `RetailSync - Move the normalized retail dataset out of its embedded SQLite
file into a managed PostgreSQL database, then explore it with an AI-assisted
SQL console.

Typical workflow:
  retailsync setup      configure connections interactively
  retailsync verify     check both ends before migrating
  retailsync migrate    rebuild the target schema and copy all six tables
  retailsync stats      confirm headline numbers after the copy
  retailsync ask        ask questions in plain English, review, run`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Accept snake_case flag spellings (batch_size) alongside the
	// documented kebab-case ones.
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

// Execute runs the root command and renders any terminal error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
}

// loadConfig resolves the merged environment and file configuration.
func loadConfig() (*models.Config, error) {
	return config.Load()
}

// connectTarget opens and pings the Postgres target from config.
func connectTarget(cfg *models.Config) (*target.Service, error) {
	svc := target.NewService(target.Config{
		Username: cfg.Postgres.Username,
		Password: cfg.Postgres.Password,
		Server:   cfg.Postgres.Server,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,
	})
	if err := svc.Connect(); err != nil {
		return nil, err
	}
	return svc, nil
}
