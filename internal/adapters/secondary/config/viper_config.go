// Package config provides configuration management using Viper
// for the PRD manager CLI.
package config

import (
	"encoding"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	legacymapstructure "github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"prd-manager/internal/domain/entities"
	"prd-manager/internal/domain/ports"
)

const (
	// EnvPrefix is prepended to every environment override
	EnvPrefix = "PRDCTL"

	configFileName = "config.yaml"
)

var validKeys = []string{
	"cli.output_format",
	"cli.color_scheme",
	"cli.recent_limit",
	"storage.data_file",
	"storage.backup_count",
	"defaults.priority",
	"defaults.author",
	"logging.level",
	"logging.format",
	"logging.file",
}

var intKeys = []string{
	"cli.recent_limit",
	"storage.backup_count",
}

// ViperConfigManager implements ConfigManager using Viper
type ViperConfigManager struct {
	viper     *viper.Viper
	validator *validator.Validate
	configDir string
	logger    *slog.Logger
}

// NewViperConfigManager creates a new Viper-based configuration manager
func NewViperConfigManager(logger *slog.Logger) (ports.ConfigManager, error) {
	loadDotEnv(logger)

	v := viper.New()

	configDir, err := getConfigDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	return &ViperConfigManager{
		viper:     v,
		validator: validator.New(),
		configDir: configDir,
		logger:    logger,
	}, nil
}

// loadDotEnv reads a .env file from the working directory. A missing file
// is not an error.
func loadDotEnv(logger *slog.Logger) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to load .env file", slog.Any("error", err))
		}
		return
	}
	logger.Debug("loaded .env file")
}

// Load reads configuration from all sources
func (c *ViperConfigManager) Load() (*entities.Config, error) {
	if err := c.viper.ReadInConfig(); err != nil {
		var configFileNotFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		c.logger.Debug("config file not found, using defaults",
			slog.String("expected_path", c.GetConfigPath()))
	} else {
		c.logger.Debug("loaded config file",
			slog.String("path", c.viper.ConfigFileUsed()))
	}

	var config entities.Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := c.viper.Unmarshal(&config, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := c.validator.Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Save persists the configuration to file
func (c *ViperConfigManager) Save(config *entities.Config) error {
	if err := c.validator.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configMap := make(map[string]interface{})
	decoder, err := legacymapstructure.NewDecoder(&legacymapstructure.DecoderConfig{
		Result:  &configMap,
		TagName: "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	for key, value := range flattenMap("", configMap) {
		c.viper.Set(key, value)
	}

	configPath := c.GetConfigPath()
	if err := c.viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.logger.Info("config saved",
		slog.String("path", configPath))
	return nil
}

// Set updates a specific configuration value
func (c *ViperConfigManager) Set(key, value string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("invalid configuration key: %s", key)
	}

	parsedValue, err := parseValue(key, value)
	if err != nil {
		return err
	}
	c.viper.Set(key, parsedValue)

	config, err := c.Load()
	if err != nil {
		return err
	}

	return c.Save(config)
}

// Get retrieves a specific configuration value
func (c *ViperConfigManager) Get(key string) (interface{}, error) {
	if !c.viper.IsSet(key) {
		return nil, fmt.Errorf("configuration key not found: %s", key)
	}

	return c.viper.Get(key), nil
}

// GetConfigPath returns the path to the configuration file
func (c *ViperConfigManager) GetConfigPath() string {
	return filepath.Join(c.configDir, configFileName)
}

// Validate checks if the current configuration is valid
func (c *ViperConfigManager) Validate() error {
	config, err := c.Load()
	if err != nil {
		return err
	}

	return c.validator.Struct(config)
}

// Reset restores configuration to defaults
func (c *ViperConfigManager) Reset() error {
	for _, key := range c.viper.AllKeys() {
		c.viper.Set(key, nil)
	}

	setDefaults(c.viper)

	return c.Save(entities.DefaultConfig())
}

// ValidKeys returns the keys accepted by Set
func ValidKeys() []string {
	return slices.Clone(validKeys)
}

func setDefaults(v *viper.Viper) {
	defaults := entities.DefaultConfig()

	v.SetDefault("cli.output_format", defaults.CLI.OutputFormat)
	v.SetDefault("cli.color_scheme", defaults.CLI.ColorScheme)
	v.SetDefault("cli.recent_limit", defaults.CLI.RecentLimit)

	v.SetDefault("storage.data_file", defaults.Storage.DataFile)
	v.SetDefault("storage.backup_count", defaults.Storage.BackupCount)

	v.SetDefault("defaults.priority", defaults.Defaults.Priority.String())
	v.SetDefault("defaults.author", defaults.Defaults.Author)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("logging.file", defaults.Logging.File)
}

func getConfigDirectory() (string, error) {
	if dir := os.Getenv(EnvPrefix + "_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	// XDG Base Directory specification
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "prdctl"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".prdctl"), nil
}

// flattenMap turns nested maps into dotted keys. Values that know how to
// render themselves as text (enums) are stored by name.
func flattenMap(prefix string, m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		switch v := value.(type) {
		case map[string]interface{}:
			for k, val := range flattenMap(fullKey, v) {
				result[k] = val
			}
		case encoding.TextMarshaler:
			text, err := v.MarshalText()
			if err != nil {
				result[fullKey] = value
				continue
			}
			result[fullKey] = string(text)
		default:
			result[fullKey] = value
		}
	}

	return result
}

func isValidConfigKey(key string) bool {
	return slices.Contains(validKeys, key)
}

func parseValue(key, value string) (interface{}, error) {
	if slices.Contains(intKeys, key) {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %q is not an integer", key, value)
		}
		return n, nil
	}

	if key == "defaults.priority" {
		priority, err := entities.ParsePriority(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		return priority.String(), nil
	}

	return value, nil
}
