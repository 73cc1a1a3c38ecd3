package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/rivulet-video/rivulet/pkg/coordinator"
	"github.com/rivulet-video/rivulet/pkg/telemetry"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Client SDK configuration.
type Config struct {
	// Coordinator connection configuration.
	Coordinator coordinator.Config `yaml:"coordinator"`
	// Call behavior configuration.
	Call CallConfig `yaml:"call"`
	// Tracing configuration.
	Telemetry telemetry.Config `yaml:"telemetry"`
	// Starting from which level to log stuff.
	LogLevel string `yaml:"log"`
}

// CallConfig carries the call behavior tunables.
type CallConfig struct {
	// How many seconds an outgoing ringing call waits for acceptance
	// before it is dropped.
	DropTimeout int `yaml:"dropTimeout"`
}

// Tries to load a config from the `CONFIG` environment variable.
// If the environment variable is not set, tries to load a config from the
// provided path to the config file (YAML). Returns an error if the config
// could not be loaded.
func LoadConfig(path string) (*Config, error) {
	config, err := LoadConfigFromEnv()
	if err != nil {
		if !errors.Is(err, ErrNoConfigEnvVar) {
			return nil, err
		}

		return LoadConfigFromPath(path)
	}

	return config, nil
}

// ErrNoConfigEnvVar is returned when the CONFIG environment variable is not set.
var ErrNoConfigEnvVar = errors.New("environment variable not set or invalid")

// Tries to load the config from environment variable (`CONFIG`).
// Returns an error if the environment variable is not set.
func LoadConfigFromEnv() (*Config, error) {
	configEnv := os.Getenv("CONFIG")
	if configEnv == "" {
		return nil, ErrNoConfigEnvVar
	}

	return LoadConfigFromString(configEnv)
}

// Tries to load a config from the provided path.
func LoadConfigFromPath(path string) (*Config, error) {
	logrus.WithField("path", path).Info("loading config")

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return LoadConfigFromString(string(file))
}

// Load config from the provided string.
// Returns an error if the string is not a valid YAML.
func LoadConfigFromString(configString string) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(configString), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML file: %w", err)
	}

	if config.Coordinator.BaseURL == "" ||
		config.Coordinator.WebsocketURL == "" ||
		config.Coordinator.Token == "" ||
		config.Coordinator.UserID == "" ||
		config.Call.DropTimeout <= 0 {
		return nil, errors.New("invalid config values")
	}

	return &config, nil
}
