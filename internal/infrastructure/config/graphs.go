package config

import (
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ersonp/tankgraph/internal/errors"
)

// GraphsConfig holds the named graph registry (read/write).
type GraphsConfig struct {
	Graphs map[string]GraphEntry `yaml:"graphs,omitempty"`
}

// GraphEntry describes one named graph.
type GraphEntry struct {
	Description string    `yaml:"description,omitempty"`
	UpdatedAt   time.Time `yaml:"updated_at,omitempty"`
	Triples     int       `yaml:"triples,omitempty"`
}

// LoadGraphs loads the graph registry from the .tankgraph directory.
func LoadGraphs(basePath string) (*GraphsConfig, error) {
	data, err := os.ReadFile(GraphsFilePath(basePath))
	if os.IsNotExist(err) {
		// Return empty config if file doesn't exist
		return &GraphsConfig{Graphs: make(map[string]GraphEntry)}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading graphs file")
	}

	var cfg GraphsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing graphs file")
	}
	if cfg.Graphs == nil {
		cfg.Graphs = make(map[string]GraphEntry)
	}
	return &cfg, nil
}

// Save writes the graph registry.
func (g *GraphsConfig) Save(basePath string) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	data, err := yaml.Marshal(g)
	if err != nil {
		return errors.Wrap(err, "marshaling graphs config")
	}

	if err := os.WriteFile(GraphsFilePath(basePath), data, 0600); err != nil {
		return errors.Wrap(err, "writing graphs file")
	}
	return nil
}

// Add records or updates a graph.
func (g *GraphsConfig) Add(name string, entry GraphEntry) {
	if g.Graphs == nil {
		g.Graphs = make(map[string]GraphEntry)
	}
	g.Graphs[SanitizeGraphName(name)] = entry
}

// Remove removes a graph from the registry.
func (g *GraphsConfig) Remove(name string) {
	delete(g.Graphs, SanitizeGraphName(name))
}

// Names returns the registered graph names, sorted.
func (g *GraphsConfig) Names() []string {
	return slices.Sorted(maps.Keys(g.Graphs))
}

// Get returns the entry for a graph.
func (g *GraphsConfig) Get(name string) (*GraphEntry, error) {
	if len(g.Graphs) == 0 {
		return nil, errors.WithHint(errors.NewNotFoundError("no graphs registered"), "run 'tankgraph ingest' first")
	}

	entry, ok := g.Graphs[SanitizeGraphName(name)]
	if !ok {
		names := g.Names()
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return nil, errors.NewNotFoundError("graph %q not found (available: %s)", name, strings.Join(names, ", "))
	}
	return &entry, nil
}

// Exists checks if a graph is registered.
func (g *GraphsConfig) Exists(name string) bool {
	_, ok := g.Graphs[SanitizeGraphName(name)]
	return ok
}
