// Package config loads gazette processor settings from an optional YAML file
// and GAZETTE_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked for in the working directory.
const DefaultFileName = "gazette.yaml"

// EnvPrefix prefixes every environment override, e.g. GAZETTE_HTTP_ADDR.
const EnvPrefix = "GAZETTE"

// Config keys.
const (
	KeyLibraryPath         = "library_path"
	KeyDatabasePath        = "database_path"
	KeyOutputDir           = "output_dir"
	KeyGovernmentName      = "government_name"
	KeySimilarityThreshold = "similarity.threshold"
	KeyLogLevel            = "log.level"
	KeyLogFormat           = "log.format"
	KeyHTTPAddr            = "http.addr"
)

// Config is the resolved processor configuration.
type Config struct {
	LibraryPath    string     `yaml:"library_path" mapstructure:"library_path"`
	DatabasePath   string     `yaml:"database_path" mapstructure:"database_path"`
	OutputDir      string     `yaml:"output_dir" mapstructure:"output_dir"`
	GovernmentName string     `yaml:"government_name" mapstructure:"government_name"`
	Similarity     Similarity `yaml:"similarity" mapstructure:"similarity"`
	Log            Log        `yaml:"log" mapstructure:"log"`
	HTTP           HTTP       `yaml:"http" mapstructure:"http"`
}

// Similarity configures portfolio name matching.
type Similarity struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// HTTP configures the review server.
type HTTP struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LibraryPath:    "./library",
		DatabasePath:   "./state.db",
		OutputDir:      "./output",
		GovernmentName: "Government of Sri Lanka",
		Similarity:     Similarity{Threshold: 70},
		Log:            Log{Level: "info", Format: "text"},
		HTTP:           HTTP{Addr: ":8000"},
	}
}

// Load reads configPath (or DefaultFileName when empty and present) over the
// defaults, then applies environment overrides. A missing explicit file is
// an error; a missing default file is not.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault(KeyLibraryPath, defaults.LibraryPath)
	v.SetDefault(KeyDatabasePath, defaults.DatabasePath)
	v.SetDefault(KeyOutputDir, defaults.OutputDir)
	v.SetDefault(KeyGovernmentName, defaults.GovernmentName)
	v.SetDefault(KeySimilarityThreshold, defaults.Similarity.Threshold)
	v.SetDefault(KeyLogLevel, defaults.Log.Level)
	v.SetDefault(KeyLogFormat, defaults.Log.Format)
	v.SetDefault(KeyHTTPAddr, defaults.HTTP.Addr)

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultFileName
	}
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
		}
	} else if explicit {
		return Config{}, fmt.Errorf("config file %s: %w", configPath, err)
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return Config{}, err
	}
	return loaded, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Similarity.Threshold < 0 || c.Similarity.Threshold > 100 {
		return fmt.Errorf("%s must be within 0..100, got %v", KeySimilarityThreshold, c.Similarity.Threshold)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%s must be text or json, got %q", KeyLogFormat, c.Log.Format)
	}
	if c.LibraryPath == "" || c.DatabasePath == "" || c.OutputDir == "" {
		return errors.New("library_path, database_path and output_dir must be set")
	}
	return nil
}

// WriteDefault writes the built-in configuration to path as YAML. It refuses
// to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
