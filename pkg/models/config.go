package models

// Config is the full application configuration. It can be supplied through an
// optional config.yaml, but every field is also bound to an environment
// variable, and the environment wins.
type Config struct {
	Source    Source    `yaml:"source"`
	Postgres  Postgres  `yaml:"postgres"`
	Migration Migration `yaml:"migration"`
	Assistant Assistant `yaml:"assistant"`
}

// Source locates the embedded SQLite database holding the pre-migration dataset.
type Source struct {
	Path string `yaml:"path"`
}

// Postgres holds the target connection settings. Server may be host or host:port.
type Postgres struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Server   string `yaml:"server"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// Migration tunes the copy engine.
type Migration struct {
	BatchSize int `yaml:"batch_size"`
}

// Assistant configures the NL-to-SQL query assistant.
type Assistant struct {
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	Endpoint     string `yaml:"endpoint"`
	PasswordHash string `yaml:"password_hash"`
}
