package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Player  PlayerConfig  `yaml:"player,omitempty"`
	Plugin  PluginConfig  `yaml:"plugin,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// PlayerConfig contains media player settings
type PlayerConfig struct {
	Path       string `yaml:"path,omitempty"`
	Args       string `yaml:"args,omitempty"`
	SocketPath string `yaml:"socket_path,omitempty"`
	// Volume is a percentage between 0 and 100 applied when playback becomes ready
	Volume int  `yaml:"volume,omitempty"`
	Muted  bool `yaml:"muted,omitempty"`
	// StartDelay is waited before a non-accelerated playback start
	StartDelay     time.Duration `yaml:"start_delay,omitempty"`
	UpdateInterval time.Duration `yaml:"update_interval,omitempty"`
}

// PluginConfig contains the video plugin parameters
type PluginConfig struct {
	// URL is used when no url parameter is given on the command line
	URL                string `yaml:"url,omitempty"`
	DisableDebugEvents bool   `yaml:"disable_debug_events,omitempty"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`
	FilePath string `yaml:"file_path,omitempty"`
}

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties, i.e. those determined at runtime such as the per-OS log file location
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
func Load() (*Config, error) {
	cfg := createBaseDefaultConfig()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// A failed save still lets the application start with the defaults
		_ = save(cfg, configPath)
	}

	applyDynamicDefaults(cfg)

	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	applyEnvVarOverrides(cfg)
	clamp(cfg)

	return cfg, nil
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
}

// clamp keeps values that would confuse the player within their valid ranges
func clamp(cfg *Config) {
	if cfg.Player.Volume < 0 {
		cfg.Player.Volume = 0
	}
	if cfg.Player.Volume > 100 {
		cfg.Player.Volume = 100
	}
	if cfg.Player.UpdateInterval <= 0 {
		cfg.Player.UpdateInterval = time.Second
	}
	if cfg.Player.StartDelay < 0 {
		cfg.Player.StartDelay = 0
	}
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// UpdateConfig reads the existing config, applies the update function, and saves it back to disk
func UpdateConfig(updateFn func(*Config)) error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config file path: %w", err)
	}

	cfg, err := loadFromDisk(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file from disk: %w", err)
	}

	updateFn(cfg)

	return save(cfg, configPath)
}

// Path returns the config file location in use
func Path() (string, error) {
	return getConfigPath()
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv(EnvConfigPath)
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "vplug", "config.yaml"), nil
}

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	return &Config{
		Player: PlayerConfig{
			Path:           "mpv",
			Volume:         100,
			StartDelay:     2 * time.Second,
			UpdateInterval: time.Second,
		},
		Plugin: PluginConfig{},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	var basePath string
	homedir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "vplug.log")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\vplug\logs
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, "vplug", "logs")
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", "vplug", "logs")
		}
	case "darwin":
		// macOS:  ~/Library/Logs/vplug
		basePath = filepath.Join(homedir, "Library", "Logs", "vplug")
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, "vplug", "logs")
		} else {
			basePath = filepath.Join(homedir, ".local", "state", "vplug", "logs")
		}
	}

	if err := os.MkdirAll(basePath, 0700); err != nil {
		return filepath.Join(".", "vplug.log")
	}
	return filepath.Join(basePath, "vplug.log")
}
