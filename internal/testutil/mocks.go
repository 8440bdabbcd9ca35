// Package testutil provides shared fakes and fixtures for tests.
package testutil

import (
	"context"

	"retailsync/pkg/models"
)

// MockGenerator provides a canned implementation of SQL generation for testing
type MockGenerator struct {
	SQL       string
	Error     error
	Questions []string
}

func (m *MockGenerator) GenerateSQL(ctx context.Context, question string) (string, error) {
	m.Questions = append(m.Questions, question)
	if m.Error != nil {
		return "", m.Error
	}
	return m.SQL, nil
}

// TestConfig returns a sample configuration for testing
func TestConfig() *models.Config {
	cfg := &models.Config{}
	cfg.Source.Path = "testdata/normalized.db"
	cfg.Postgres.Username = "retail_app"
	cfg.Postgres.Password = "s3cret"
	cfg.Postgres.Server = "db.example.com:5432"
	cfg.Postgres.Database = "retail"
	cfg.Postgres.SSLMode = "require"
	cfg.Migration.BatchSize = 50000
	cfg.Assistant.APIKey = "test-api-key"
	cfg.Assistant.Model = "gemini-2.5-flash"
	cfg.Assistant.Endpoint = "https://generativelanguage.googleapis.com/v1beta"
	cfg.Assistant.PasswordHash = "$2a$10$abcdefghijklmnopqrstuv"
	return cfg
}
