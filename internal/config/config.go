package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	GroupColumn  string `mapstructure:"group_column" yaml:"group_column"`
	TargetColumn string `mapstructure:"target_column" yaml:"target_column"`
	// Number parsing for the target column: decimal "." | "," | "auto"; thousands "" | "," | "." | "space".
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	// Input/output
	Delimiter    string `mapstructure:"delimiter" yaml:"delimiter"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	OutputDir    string `mapstructure:"output_dir" yaml:"output_dir"`
	SheetName    string `mapstructure:"sheet_name" yaml:"sheet_name"`
	// Groups processed concurrently; 1 disables concurrency.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// Logging mode for --debug output: "dev" or "prod".
	LogMode string `mapstructure:"log_mode" yaml:"log_mode"`
}

// DefaultPath returns ~/.groupfill/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".groupfill", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.groupfill/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("GROUPFILL")
	v.AutomaticEnv()

	v.SetDefault("group_column", "material")
	v.SetDefault("target_column", "qty_final")
	v.SetDefault("decimal_separator", ".")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("delimiter", "")
	v.SetDefault("output_format", "")
	v.SetDefault("output_dir", "")
	v.SetDefault("sheet_name", "")
	v.SetDefault("workers", 1)
	v.SetDefault("log_mode", "dev")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return &c, nil
}
