package entities

// Config represents the complete CLI configuration
type Config struct {
	CLI      CLIConfig      `mapstructure:"cli"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// CLIConfig holds CLI behavior configuration
type CLIConfig struct {
	OutputFormat string `mapstructure:"output_format" validate:"oneof=table json plain"`
	ColorScheme  string `mapstructure:"color_scheme" validate:"oneof=auto always never"`
	RecentLimit  int    `mapstructure:"recent_limit" validate:"min=1,max=50"`
}

// StorageConfig holds snapshot file configuration. An empty DataFile keeps
// every invocation purely in memory.
type StorageConfig struct {
	DataFile    string `mapstructure:"data_file"`
	BackupCount int    `mapstructure:"backup_count" validate:"min=0,max=10"`
}

// DefaultsConfig holds values applied to PRDs created from the CLI
type DefaultsConfig struct {
	Priority Priority `mapstructure:"priority" validate:"min=1,max=4"`
	Author   string   `mapstructure:"author"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
	File   string `mapstructure:"file"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		CLI: CLIConfig{
			OutputFormat: "table",
			ColorScheme:  "auto",
			RecentLimit:  5,
		},
		Storage: StorageConfig{
			DataFile:    "",
			BackupCount: 3,
		},
		Defaults: DefaultsConfig{
			Priority: PriorityMedium,
			Author:   "",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
			File:   "",
		},
	}
}
