package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"
)

// Environment variable names carrying secrets.
const (
	EnvEmbeddingAPIKey = "MISTRAL_API_KEY"
	EnvDatabaseURL     = "SUPABASE_CLIENT_URL"
	EnvDatabaseKey     = "SUPABASE_SECRET_SERVICE_ROLE_KEY"
	EnvDatabaseDSN     = "SUPABASE_DB_DSN"
)

// Credentials are read from the process environment only, never from YAML.
// Presence is checked by the client registry when a handle is first built.
type Credentials struct {
	EmbeddingAPIKey string `env:"MISTRAL_API_KEY"`
	DatabaseURL     string `env:"SUPABASE_CLIENT_URL"`
	DatabaseKey     string `env:"SUPABASE_SECRET_SERVICE_ROLE_KEY"`
	DatabaseDSN     string `env:"SUPABASE_DB_DSN"`
}

// LoadDotEnv loads .env-style files into the process environment.
// Variables already set are left untouched; missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadCredentials reads credentials from the current process environment.
func LoadCredentials() (Credentials, error) {
	return CredentialsFromEnviron(os.Environ())
}

// CredentialsFromEnviron reads credentials from KEY=VALUE pairs.
func CredentialsFromEnviron(environ []string) (Credentials, error) {
	es, err := env.EnvironToEnvSet(environ)
	if err != nil {
		return Credentials{}, fmt.Errorf("parse environment: %w", err)
	}

	var c Credentials
	if err := env.Unmarshal(es, &c); err != nil {
		return Credentials{}, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return c, nil
}
