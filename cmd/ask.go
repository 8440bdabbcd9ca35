package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"retailsync/internal/assistant"
	"retailsync/internal/ui"
	"retailsync/pkg/errors"
	"retailsync/pkg/models"
)

const maxLoginAttempts = 3

var (
	askPreset string
	askYes    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question in plain English and run the generated SQL",
	Long: `Generate a PostgreSQL query for a natural-language question about the
migrated retail dataset, review or edit it, and run it against the target.

The command is password protected. Set APP_PASSWORD_HASH to a bcrypt hash
of the shared access password.

The question comes from the first argument, a --preset name, or an
interactive prompt. Run 'retailsync ask --list-presets' to see the
built-in questions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if listPresets, _ := cmd.Flags().GetBool("list-presets"); listPresets {
			rows := make([][]string, 0)
			for _, p := range assistant.Presets() {
				rows = append(rows, []string{p.Name, p.Question})
			}
			ui.RenderTable([]string{"Preset", "Question"}, rows)
			return nil
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := login(cfg); err != nil {
			return err
		}

		question, err := resolveQuestion(args, askPreset)
		if err != nil {
			return err
		}

		gen, err := assistant.NewGeminiClient(cfg.Assistant.APIKey, cfg.Assistant.Model, cfg.Assistant.Endpoint)
		if err != nil {
			return err
		}

		tgt, err := connectTarget(cfg)
		if err != nil {
			return err
		}
		defer tgt.Close()

		ctx := context.Background()
		query, err := generateQuery(ctx, gen, question)
		if err != nil {
			return err
		}

		fmt.Println()
		ui.ShowInfo(fmt.Sprintf("Question: %s", question))
		fmt.Println(ui.ColorBold("Generated SQL:"))
		fmt.Println(color.CyanString("%s", query))
		fmt.Println()

		if !askYes {
			query, err = reviewQuery(query)
			if err != nil {
				return err
			}
			if query == "" {
				ui.ShowInfo("Query discarded")
				return nil
			}
		} else {
			ui.ShowWarning("Running generated SQL without review (--yes)")
		}

		rows, err := tgt.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		headers, table, err := rowsToTable(rows)
		if err != nil {
			return err
		}

		fmt.Println()
		ui.RenderTable(headers, table)
		ui.ShowSuccess(fmt.Sprintf("Query returned %s rows", ui.FormatCount(int64(len(table)))))
		return nil
	},
}

// login checks the shared password, allowing a few attempts.
func login(cfg *models.Config) error {
	auth, err := assistant.NewAuthenticator(cfg.Assistant.PasswordHash)
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		password := ""
		prompt := &survey.Password{Message: "Password:"}
		if err := survey.AskOne(prompt, &password); err != nil {
			return err
		}
		if err := auth.Check(password); err == nil {
			return nil
		}
		if attempt < maxLoginAttempts {
			ui.ShowWarning("Incorrect password")
		}
	}
	return errors.New(errors.ErrCodeAuthenticationFailed,
		fmt.Sprintf("Authentication failed after %d attempts", maxLoginAttempts))
}

// resolveQuestion picks the question from the argument, a preset, or an
// interactive prompt, in that order.
func resolveQuestion(args []string, preset string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if preset != "" {
		p, err := assistant.FindPreset(preset)
		if err != nil {
			return "", err
		}
		return p.Question, nil
	}

	question := ""
	prompt := &survey.Input{
		Message: "What would you like to know?",
		Help:    "Example: Show total revenue by region and country, top 20 rows.",
	}
	if err := survey.AskOne(prompt, &question, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return question, nil
}

// generateQuery calls the model with a spinner on the terminal.
func generateQuery(ctx context.Context, gen assistant.Generator, question string) (string, error) {
	spinner := ui.NewSpinner("Generating SQL...")
	spinner.Start()
	query, err := gen.GenerateSQL(ctx, question)
	if err != nil {
		spinner.Stop(false, "Generation failed")
		return "", err
	}
	spinner.Stop(true, "SQL generated")
	return query, nil
}

// reviewQuery lets the user edit the generated SQL and confirm the run.
// An empty return means the user declined.
func reviewQuery(query string) (string, error) {
	edited := query
	editPrompt := &survey.Multiline{
		Message: "Review and edit the SQL query if needed:",
		Default: query,
	}
	if err := survey.AskOne(editPrompt, &edited); err != nil {
		return "", err
	}

	confirmed := false
	confirm := &survey.Confirm{Message: "Run this query?", Default: true}
	if err := survey.AskOne(confirm, &confirmed); err != nil {
		return "", err
	}
	if !confirmed {
		return "", nil
	}
	return edited, nil
}

// rowsToTable drains a result set into headers and stringified cells.
func rowsToTable(rows *sql.Rows) ([]string, [][]string, error) {
	headers, err := rows.Columns()
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeSQLExecution, "Failed to read result columns")
	}

	var table [][]string
	for rows.Next() {
		values := make([]interface{}, len(headers))
		ptrs := make([]interface{}, len(headers))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrCodeSQLExecution, "Failed to scan result row")
		}

		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		table = append(table, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeSQLExecution, "Result read failed")
	}
	return headers, table, nil
}

// formatValue renders one result cell for terminal display.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case float64:
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func init() {
	askCmd.Flags().StringVar(&askPreset, "preset", "", "use a built-in question by name")
	askCmd.Flags().Bool("list-presets", false, "list the built-in questions and exit")
	askCmd.Flags().BoolVarP(&askYes, "yes", "y", false, "run the generated SQL without review")
	rootCmd.AddCommand(askCmd)
}
