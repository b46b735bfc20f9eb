package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported match procedure drivers.
const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
)

// Config holds the catsearch configuration.
// Secrets are not part of the YAML file: see Credentials.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// DatabaseConfig holds settings for the remote match procedure.
type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // rest, postgres (default: rest)
	Function   string `yaml:"function"`
	Schema     string `yaml:"schema"`
	TimeoutSec int    `yaml:"timeout_sec"`
	MaxConns   int32  `yaml:"max_conns"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8501
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 75
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "mistral"
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "https://api.mistral.ai/v1"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "mistral-embed"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverREST
	}
	if c.Database.Function == "" {
		c.Database.Function = "match_categories"
	}
	if c.Database.Schema == "" {
		c.Database.Schema = "public"
	}
	if c.Database.TimeoutSec <= 0 {
		c.Database.TimeoutSec = 30
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 4
	}
	// A search makes one embedding call and one database call in sequence.
	budget := c.Embedding.TimeoutSec + c.Database.TimeoutSec + writeTimeoutMarginSec
	if c.HTTP.WriteTimeoutSec < budget {
		c.HTTP.WriteTimeoutSec = budget
	}
}

// writeTimeoutMarginSec leaves room to render the error banner after both calls time out.
const writeTimeoutMarginSec = 15

// identRegex restricts the procedure and schema names to plain SQL identifiers.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverREST, DriverPostgres:
		// ok
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q",
			DriverREST, DriverPostgres, c.Database.Driver)
	}
	if !identRegex.MatchString(c.Database.Function) {
		return fmt.Errorf("database.function must be a plain identifier, got %q", c.Database.Function)
	}
	if !identRegex.MatchString(c.Database.Schema) {
		return fmt.Errorf("database.schema must be a plain identifier, got %q", c.Database.Schema)
	}
	if !strings.HasPrefix(c.Embedding.BaseURL, "http://") && !strings.HasPrefix(c.Embedding.BaseURL, "https://") {
		return fmt.Errorf("embedding.base_url must be an http(s) URL, got %q", c.Embedding.BaseURL)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
