// Package config provides configuration loading and management.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ersonp/tankgraph/internal/errors"
)

const (
	// DefaultConfigDir is the directory name for tankgraph configuration.
	DefaultConfigDir = ".tankgraph"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultGraphsFile is the default named-graphs file name.
	DefaultGraphsFile = "graphs.yaml"
	// DefaultGraph is the graph used when none is named.
	DefaultGraph = "default"
)

// Environment variables that override the config file.
const (
	EnvLogLevel = "TANKGRAPH_LOG_LEVEL"
	EnvLogJSON  = "TANKGRAPH_LOG_JSON"
	EnvSeed     = "TANKGRAPH_SEED"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static configuration (read-only after init).
type Config struct {
	Data   DataConfig   `yaml:"data,omitempty"`
	Ingest IngestConfig `yaml:"ingest,omitempty"`
	Query  QueryConfig  `yaml:"query,omitempty"`
	SQLite SQLiteConfig `yaml:"sqlite,omitempty"`
	Log    LogConfig    `yaml:"log,omitempty"`
}

// DataConfig locates the source tables.
type DataConfig struct {
	Dir                string `yaml:"dir,omitempty"`
	CatalogueFile      string `yaml:"catalogue_file,omitempty"`
	BattlesFile        string `yaml:"battles_file,omitempty"`
	CatalogueDelimiter string `yaml:"catalogue_delimiter,omitempty"`
	BattlesDelimiter   string `yaml:"battles_delimiter,omitempty"`
}

// CataloguePath returns the catalogue file path relative to basePath.
func (d DataConfig) CataloguePath(basePath string) string {
	return filepath.Join(basePath, d.Dir, d.CatalogueFile)
}

// BattlesPath returns the battle-log file path relative to basePath.
func (d DataConfig) BattlesPath(basePath string) string {
	return filepath.Join(basePath, d.Dir, d.BattlesFile)
}

// CatalogueComma returns the catalogue delimiter as a rune.
func (d DataConfig) CatalogueComma() rune {
	return delimiter(d.CatalogueDelimiter, ';')
}

// BattlesComma returns the battle-log delimiter as a rune.
func (d DataConfig) BattlesComma() rune {
	return delimiter(d.BattlesDelimiter, ',')
}

func delimiter(s string, fallback rune) rune {
	switch s {
	case "":
		return fallback
	case `\t`, "tab":
		return '\t'
	}
	return []rune(s)[0]
}

// IngestConfig holds ingestion defaults.
type IngestConfig struct {
	// Battles is how many battle rows to select; 0 selects all.
	Battles int `yaml:"battles,omitempty"`
	// Tanks is how many catalogue rows to read; 0 reads all.
	Tanks         int    `yaml:"tanks,omitempty"`
	Random        bool   `yaml:"random"`
	Seed          uint64 `yaml:"seed,omitempty"`
	ProgressEvery int    `yaml:"progress_every,omitempty"`
}

// QueryConfig holds canned query defaults.
type QueryConfig struct {
	Limit      int    `yaml:"limit,omitempty"`
	MinBattles int    `yaml:"min_battles,omitempty"`
	Nation     string `yaml:"nation,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite snapshot database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	// For named graphs, this is computed dynamically using SnapshotPathForGraph.
	Path string `yaml:"path,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	JSON  bool   `yaml:"json,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Dir:                "data",
			CatalogueFile:      "wot_data.csv",
			BattlesFile:        "tomato.csv",
			CatalogueDelimiter: ";",
			BattlesDelimiter:   ",",
		},
		Ingest: IngestConfig{
			Battles:       10000,
			Random:        true,
			Seed:          42,
			ProgressEvery: 1000,
		},
		Query: QueryConfig{
			MinBattles: 50,
			Nation:     "USSR",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the .tankgraph directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, errors.WithHint(
			errors.NewNotFoundError("config file %s", configFile),
			"run 'tankgraph init' first")
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the config file if one exists and falls back to the
// defaults otherwise. Environment overrides apply either way.
func LoadOrDefault(basePath string) (*Config, error) {
	if Exists(basePath) {
		return Load(basePath)
	}
	cfg := Default()
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
	if v := os.Getenv(EnvLogJSON); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.NewInvalidRequestError("%s=%q is not a boolean", EnvLogJSON, v)
		}
		c.Log.JSON = b
	}
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.NewInvalidRequestError("%s=%q is not a seed", EnvSeed, v)
		}
		c.Ingest.Seed = seed
	}
	return nil
}

// ConfigDir returns the path to the .tankgraph config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// GraphsFilePath returns the path to the named-graphs file.
func GraphsFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultGraphsFile)
}

// Exists checks if a tankgraph config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// SanitizeGraphName converts a graph name to a directory-safe form.
func SanitizeGraphName(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces and hyphens with underscores
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	// Trim leading/trailing underscores
	name = strings.Trim(name, "_")

	if name == "" {
		return DefaultGraph
	}
	return name
}

// GraphDir returns the directory path for a given graph.
func GraphDir(basePath, graphName string) string {
	return filepath.Join(basePath, DefaultConfigDir, "graphs", SanitizeGraphName(graphName))
}

// SnapshotPathForGraph returns the SQLite snapshot path for a given graph.
func SnapshotPathForGraph(basePath, graphName string) string {
	return filepath.Join(GraphDir(basePath, graphName), "graph.db")
}
