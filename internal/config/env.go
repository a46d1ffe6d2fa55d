package config

import (
	"fmt"
	"os"
	"runtime"

	"oauthkit/pkg/logging"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvOverrides are the environment-sourced settings. They take
// precedence over profile values, and the client secret has no YAML
// counterpart at all: it is only ever read from here.
type EnvOverrides struct {
	ClientID     string `env:"OAUTHKIT_CLIENT_ID"`
	ClientSecret string `env:"OAUTHKIT_CLIENT_SECRET"`
	RedirectURI  string `env:"OAUTHKIT_REDIRECT_URI"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. Group or world readable files risk
// exposing the client secret to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		logging.Warn("config", ".env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// LoadEnv reads the environment overrides. A local .env file is loaded
// first when present; variables already set in the environment win.
func LoadEnv() (EnvOverrides, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	var overrides EnvOverrides
	if err := env.Parse(&overrides); err != nil {
		return EnvOverrides{}, fmt.Errorf("parsing environment: %w", err)
	}
	return overrides, nil
}
