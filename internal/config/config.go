package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/offense-sql/internal/offense"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. OFFENSE_SQL_OUTDIR
	EnvPrefix = "OFFENSE_SQL"

	// Default values
	DefaultOutputDir   = "."
	DefaultPrefix      = "sqloutput"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultEnvFile     = ".env"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for a run
type Config struct {
	// Output configuration
	OutputDir string
	Prefix    string
	Stdout    bool

	// Statement and layout configuration
	Table        string
	Marker       string
	MarkerOffset float64
	ColumnCutoff float64
	ValueExpand  float64
	Discard      offense.DiscardPolicy

	// Application configuration
	ConfigFile  string
	EnvFile     string
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration that reproduces the record export layout
func DefaultConfig() *Config {
	s := offense.DefaultSettings()
	return &Config{
		OutputDir:    DefaultOutputDir,
		Prefix:       DefaultPrefix,
		Table:        s.Table,
		Marker:       s.Marker,
		MarkerOffset: s.MarkerOffset,
		ColumnCutoff: s.ColumnCutoff,
		ValueExpand:  s.ValueExpand,
		Discard:      s.Discard,
		EnvFile:      DefaultEnvFile,
		Version:      "1.0.0",
		ServerName:   "offense-sql",
		LogLevel:     DefaultLogLevel,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// DefineFlags registers every configuration flag on fs
func DefineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("config", cfg.ConfigFile, "Configuration file (yaml, json or toml)")
	fs.String("env-file", cfg.EnvFile, "Dotenv file with OFFENSE_SQL_* variables, ignored when missing")
	fs.String("outdir", cfg.OutputDir, "Directory for generated SQL files")
	fs.String("prefix", cfg.Prefix, "Output file name prefix; files are <prefix><N>.sql")
	fs.Bool("stdout", cfg.Stdout, "Print statements to stdout instead of writing files")
	fs.String("table", cfg.Table, "Table targeted by the UPDATE statements")
	fs.String("marker", cfg.Marker, "Text that starts each offense on a page")
	fs.Float64("marker-offset", cfg.MarkerOffset, "Distance above a marker where its offense begins")
	fs.Float64("column-cutoff", cfg.ColumnCutoff, "Distance from the first hit that still counts as the label column")
	fs.Float64("value-expand", cfg.ValueExpand, "Rightward expansion of a value rectangle")
	fs.StringToInt("discard", cfg.Discard.Counts(), "Trailing markers to ignore, as page=count (zero-based page index; 1=0 disables the default)")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// Load resolves the configuration from defaults, an optional config file,
// the environment and the flags of fs, in increasing precedence. fs must
// have been set up with DefineFlags and parsed. Variables from the env file
// never replace ones already set in the process environment.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := DefaultConfig()
	if flag := fs.Lookup("env-file"); flag != nil {
		cfg.EnvFile = flag.Value.String()
	}
	if err := loadEnvFile(cfg.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()

	setupViperEnvironment(v, cfg)
	if err := bindFlagsToViper(v, fs); err != nil {
		return nil, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", file, err)
		}
		cfg.ConfigFile = file
	}

	if err := populateConfigFromViper(v, cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot read env file %s: %w", path, err)
	}
	return nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("outdir", cfg.OutputDir)
	v.SetDefault("prefix", cfg.Prefix)
	v.SetDefault("stdout", cfg.Stdout)
	v.SetDefault("table", cfg.Table)
	v.SetDefault("marker", cfg.Marker)
	v.SetDefault("marker-offset", cfg.MarkerOffset)
	v.SetDefault("column-cutoff", cfg.ColumnCutoff)
	v.SetDefault("value-expand", cfg.ValueExpand)
	v.SetDefault("discard", cfg.Discard.Counts())
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
}

var flagKeys = []string{
	"config", "outdir", "prefix", "stdout", "table", "marker", "marker-offset",
	"column-cutoff", "value-expand", "discard", "loglevel", "maxfilesize",
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range flagKeys {
		flag := fs.Lookup(key)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("cannot bind flag %s: %w", key, err)
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) error {
	cfg.OutputDir = v.GetString("outdir")
	cfg.Prefix = v.GetString("prefix")
	cfg.Stdout = v.GetBool("stdout")
	cfg.Table = v.GetString("table")
	cfg.Marker = v.GetString("marker")
	cfg.MarkerOffset = v.GetFloat64("marker-offset")
	cfg.ColumnCutoff = v.GetFloat64("column-cutoff")
	cfg.ValueExpand = v.GetFloat64("value-expand")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")

	discard, err := discardPolicy(v.Get("discard"))
	if err != nil {
		return err
	}
	cfg.Discard = discard
	return nil
}

// discardPolicy reads the discard setting in any of its sources' shapes: a
// map from a flag or config file, or "page=count,..." text from the
// environment. Anything else is an error.
func discardPolicy(raw any) (offense.DiscardPolicy, error) {
	if raw == nil {
		return offense.DiscardPolicy{}, nil
	}

	if text, ok := raw.(string); ok {
		text = strings.TrimSpace(strings.Trim(text, "[]"))
		if text == "" {
			return offense.DiscardPolicy{}, nil
		}
		fs := pflag.NewFlagSet("discard", pflag.ContinueOnError)
		counts := fs.StringToInt("discard", nil, "")
		if err := fs.Set("discard", text); err != nil {
			return nil, fmt.Errorf("invalid discard %q: %w", text, err)
		}
		return offense.NewDiscardPolicy(*counts)
	}

	counts, err := cast.ToStringMapIntE(raw)
	if err != nil {
		return nil, fmt.Errorf("discard must map page indexes to counts, got %T: %w", raw, err)
	}
	return offense.NewDiscardPolicy(counts)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Marker == "" {
		return errors.New("marker cannot be empty")
	}
	if c.Table == "" {
		return errors.New("table cannot be empty")
	}
	if c.Prefix == "" {
		return errors.New("output prefix cannot be empty")
	}
	if strings.ContainsAny(c.Prefix, `/\`) {
		return fmt.Errorf("output prefix %q must not contain a path separator", c.Prefix)
	}

	if c.MarkerOffset < 0 || c.ColumnCutoff < 0 || c.ValueExpand < 0 {
		return errors.New("marker offset, column cutoff and value expansion must not be negative")
	}
	for page, count := range c.Discard {
		if page < 0 || count < 0 {
			return fmt.Errorf("invalid discard entry %d=%d", page, count)
		}
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if !c.Stdout && c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}

	return nil
}

// EnsureOutputDir creates the output directory when it does not exist yet.
// Only runs that write files call it.
func (c *Config) EnsureOutputDir() error {
	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}
	if info, err := os.Stat(c.OutputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access output directory %s: %w", c.OutputDir, err)
	} else if !info.IsDir() {
		return fmt.Errorf("output path %s is not a directory", c.OutputDir)
	}

	return nil
}

// Settings returns the pipeline settings described by the configuration
func (c *Config) Settings() offense.Settings {
	s := offense.DefaultSettings()
	s.Marker = c.Marker
	s.MarkerOffset = c.MarkerOffset
	s.ColumnCutoff = c.ColumnCutoff
	s.ValueExpand = c.ValueExpand
	s.Discard = c.Discard
	s.Table = c.Table
	return s
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{OutputDir: %s, Prefix: %s, Stdout: %t, Table: %s, Marker: %q, "+
		"MarkerOffset: %g, ColumnCutoff: %g, ValueExpand: %g, Discard: %s, EnvFile: %s, LogLevel: %s, MaxFileSize: %d}",
		c.OutputDir, c.Prefix, c.Stdout, c.Table, c.Marker,
		c.MarkerOffset, c.ColumnCutoff, c.ValueExpand, c.Discard, c.EnvFile, c.LogLevel, c.MaxFileSize)
}
