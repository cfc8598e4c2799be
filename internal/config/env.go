package config

import (
	"errors"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Env holds settings read from the process environment. A .env file in the
// working directory is loaded first; variables already set take precedence.
type Env struct {
	DatabaseURL string `envconfig:"DATABASE_URL"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`
}

// LoadEnv reads Env. A missing .env file is not an error.
func LoadEnv() (*Env, error) {
	_ = godotenv.Load()

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// RequireDatabase reports an error when DATABASE_URL is unset.
func (e *Env) RequireDatabase() error {
	if e == nil || e.DatabaseURL == "" {
		return errors.New("DATABASE_URL must be provided")
	}
	return nil
}
