package cmd

import (
	"fmt"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"retailsync/internal/assistant"
	"retailsync/internal/config"
	"retailsync/internal/migration"
	"retailsync/internal/ui"
	"retailsync/pkg/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the configuration file interactively",
	Long: `Walk through the connection and assistant settings and write them to the
config file. Environment variables still override anything saved here,
so secrets can stay out of the file entirely.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ui.ShowHeader("RetailSync Setup")

		if config.Exists() {
			overwrite := false
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("%s already exists. Overwrite it?", config.GetConfigFile()),
				Default: false,
			}
			if err := survey.AskOne(prompt, &overwrite); err != nil {
				return err
			}
			if !overwrite {
				ui.ShowInfo("Setup cancelled")
				return nil
			}
		}

		cfg := &models.Config{}

		sourceQs := []*survey.Question{
			{
				Name:     "path",
				Prompt:   &survey.Input{Message: "SQLite source file:", Default: "normalized.db"},
				Validate: survey.Required,
			},
		}
		if err := survey.Ask(sourceQs, &cfg.Source); err != nil {
			return err
		}

		pgQs := []*survey.Question{
			{
				Name:     "username",
				Prompt:   &survey.Input{Message: "Postgres username:"},
				Validate: survey.Required,
			},
			{
				Name:   "password",
				Prompt: &survey.Password{Message: "Postgres password:"},
			},
			{
				Name:     "server",
				Prompt:   &survey.Input{Message: "Postgres server (host or host:port):"},
				Validate: survey.Required,
			},
			{
				Name:     "database",
				Prompt:   &survey.Input{Message: "Postgres database:"},
				Validate: survey.Required,
			},
			{
				Name: "sslmode",
				Prompt: &survey.Select{
					Message: "SSL mode:",
					Options: []string{"require", "verify-full", "disable"},
					Default: "require",
				},
			},
		}
		if err := survey.Ask(pgQs, &cfg.Postgres); err != nil {
			return err
		}

		batch := strconv.Itoa(migration.DefaultBatchSize)
		if err := survey.AskOne(&survey.Input{Message: "Migration batch size:", Default: batch}, &batch); err != nil {
			return err
		}
		if n, err := strconv.Atoi(batch); err == nil && n > 0 {
			cfg.Migration.BatchSize = n
		} else {
			cfg.Migration.BatchSize = migration.DefaultBatchSize
		}

		if err := survey.AskOne(&survey.Password{Message: "Gemini API key (blank to use GEMINI_API_KEY):"}, &cfg.Assistant.APIKey); err != nil {
			return err
		}

		accessPassword := ""
		if err := survey.AskOne(&survey.Password{Message: "Assistant access password (blank to skip):"}, &accessPassword); err != nil {
			return err
		}
		if accessPassword != "" {
			hash, err := assistant.HashPassword(accessPassword)
			if err != nil {
				return err
			}
			cfg.Assistant.PasswordHash = hash
		}

		if err := config.Save(cfg); err != nil {
			return err
		}

		ui.ShowSuccess(fmt.Sprintf("Configuration written to %s", config.GetConfigFile()))
		ui.ShowInfo("Environment variables override these values at runtime")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
