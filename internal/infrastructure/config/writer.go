package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ersonp/tankgraph/internal/errors"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# tankgraph configuration

data:
  dir: data
  catalogue_file: wot_data.csv
  battles_file: tomato.csv
  catalogue_delimiter: ";"
  battles_delimiter: ","

ingest:
  battles: 10000       # battle rows to select, 0 for all
  random: true         # sample battles instead of taking the first rows
  seed: 42             # or set TANKGRAPH_SEED
  progress_every: 1000

query:
  min_battles: 50
  nation: USSR

log:
  level: info          # or set TANKGRAPH_LOG_LEVEL
  json: false          # or set TANKGRAPH_LOG_JSON
`

// WriteDefault creates the .tankgraph directory and writes a default config file.
func WriteDefault(basePath string) error {
	configFile := ConfigFilePath(basePath)

	if err := os.MkdirAll(ConfigDir(basePath), 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	if _, err := os.Stat(configFile); err == nil {
		return errors.Newf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return errors.Wrap(err, "writing config file")
	}
	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}

	if err := os.WriteFile(ConfigFilePath(basePath), data, 0644); err != nil {
		return errors.Wrap(err, "writing config file")
	}
	return nil
}
