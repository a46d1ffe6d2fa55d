package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"oauthkit/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/oauthkit"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns ~/.config/oauthkit. The home
// directory lookup failing means the process environment is unusable,
// so this panics rather than guessing.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// LoadSettings loads config.yaml from the given directory. A missing
// file is not an error; the defaults are returned and the caller relies
// on flags and environment variables instead.
func LoadSettings(configPath string) (Settings, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	settings := DefaultSettings()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("config", "no config.yaml found at %s, using defaults", configFilePath)
			return settings, nil
		}
		return Settings{}, err
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	if settings.Profiles == nil {
		settings.Profiles = map[string]Profile{}
	}

	logging.Debug("config", "loaded configuration from %s", configFilePath)
	return settings, nil
}
