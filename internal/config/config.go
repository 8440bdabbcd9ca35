package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"retailsync/pkg/errors"
	"retailsync/pkg/models"
)

// Environment variable bindings. The names are the contract the operator
// configures against; the viper keys mirror the config.yaml layout.
var envBindings = map[string]string{
	"source.path":             "SQLITE_DB_PATH",
	"postgres.username":       "POSTGRES_USERNAME",
	"postgres.password":       "POSTGRES_PASSWORD",
	"postgres.server":         "POSTGRES_SERVER",
	"postgres.database":       "POSTGRES_DATABASE",
	"postgres.sslmode":        "POSTGRES_SSLMODE",
	"migration.batch_size":    "MIGRATION_BATCH_SIZE",
	"assistant.api_key":       "GEMINI_API_KEY",
	"assistant.model":         "GEMINI_MODEL",
	"assistant.endpoint":      "GEMINI_ENDPOINT",
	"assistant.password_hash": "APP_PASSWORD_HASH",
}

// GetConfigPath returns the directory holding config.yaml.
func GetConfigPath() string {
	if configFile := os.Getenv("RETAILSYNC_CONFIG"); configFile != "" {
		return filepath.Dir(configFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".retailsync")
}

// GetConfigFile returns the config.yaml location.
func GetConfigFile() string {
	if configFile := os.Getenv("RETAILSYNC_CONFIG"); configFile != "" {
		return configFile
	}
	return filepath.Join(GetConfigPath(), "config.yaml")
}

// Load resolves the application configuration: a .env file if present, then an
// optional config.yaml, then environment variables (environment wins). The
// Postgres settings are validated here so a misconfigured run fails before any
// database I/O.
func Load() (*models.Config, error) {
	// Same dotenv behavior the original scripts relied on; a missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(GetConfigPath())

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to bind environment")
		}
	}

	v.SetDefault("source.path", "normalized.db")
	v.SetDefault("postgres.sslmode", "require")
	v.SetDefault("migration.batch_size", 50000)
	v.SetDefault("assistant.model", "gemini-2.5-flash")
	v.SetDefault("assistant.endpoint", "https://generativelanguage.googleapis.com/v1beta")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file")
		}
	}

	cfg := &models.Config{
		Source: models.Source{
			Path: v.GetString("source.path"),
		},
		Postgres: models.Postgres{
			Username: v.GetString("postgres.username"),
			Password: v.GetString("postgres.password"),
			Server:   v.GetString("postgres.server"),
			Database: v.GetString("postgres.database"),
			SSLMode:  v.GetString("postgres.sslmode"),
		},
		Migration: models.Migration{
			BatchSize: v.GetInt("migration.batch_size"),
		},
		Assistant: models.Assistant{
			APIKey:       v.GetString("assistant.api_key"),
			Model:        v.GetString("assistant.model"),
			Endpoint:     v.GetString("assistant.endpoint"),
			PasswordHash: v.GetString("assistant.password_hash"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks the settings every database-touching command needs.
func validate(cfg *models.Config) error {
	var missing []string
	required := []struct {
		value string
		env   string
	}{
		{cfg.Postgres.Username, "POSTGRES_USERNAME"},
		{cfg.Postgres.Password, "POSTGRES_PASSWORD"},
		{cfg.Postgres.Server, "POSTGRES_SERVER"},
		{cfg.Postgres.Database, "POSTGRES_DATABASE"},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.env)
		}
	}
	if len(missing) > 0 {
		return errors.ConfigError(
			fmt.Sprintf("Missing required configuration: %s", strings.Join(missing, ", ")),
			missing...,
		)
	}
	return nil
}

// Save writes the configuration to config.yaml with owner-only permissions.
func Save(cfg *models.Config) error {
	configPath := GetConfigPath()
	if err := os.MkdirAll(configPath, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigFile(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists reports whether a config.yaml is present.
func Exists() bool {
	_, err := os.Stat(GetConfigFile())
	return err == nil
}
