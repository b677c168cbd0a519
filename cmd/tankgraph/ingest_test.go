package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/tankgraph/internal/application/handlers"
	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/config"
)

func TestIngestOptions(t *testing.T) {
	base := "/work"

	tests := []struct {
		name    string
		args    []string
		cfg     func(c *config.Config)
		wantErr bool
		checkFn func(t *testing.T, opts handlers.IngestOptions)
	}{
		{
			name: "config defaults",
			checkFn: func(t *testing.T, opts handlers.IngestOptions) {
				assert.Equal(t, filepath.Join(base, "data", "wot_data.csv"), opts.CataloguePath)
				assert.Equal(t, filepath.Join(base, "data", "tomato.csv"), opts.BattlesPath)
				assert.Equal(t, ';', opts.CatalogueComma)
				assert.Equal(t, ',', opts.BattlesComma)
				assert.Equal(t, 10000, opts.Battles)
				assert.True(t, opts.Random)
				assert.Equal(t, uint64(42), opts.Seed)
			},
		},
		{
			name: "flags override config",
			args: []string{"--battles", "25", "--no-random", "--seed", "7", "--tanks", "3", "--battle-log", "b.csv", "--extend"},
			checkFn: func(t *testing.T, opts handlers.IngestOptions) {
				assert.Equal(t, "b.csv", opts.BattlesPath)
				assert.Equal(t, 25, opts.Battles)
				assert.Equal(t, 3, opts.Tanks)
				assert.False(t, opts.Random)
				assert.Equal(t, uint64(7), opts.Seed)
				assert.True(t, opts.Extend)
			},
		},
		{
			name: "zero battles selects all",
			args: []string{"-n", "0"},
			checkFn: func(t *testing.T, opts handlers.IngestOptions) {
				assert.Zero(t, opts.Battles)
			},
		},
		{
			name: "skip catalogue",
			args: []string{"--no-catalogue"},
			checkFn: func(t *testing.T, opts handlers.IngestOptions) {
				assert.Empty(t, opts.CataloguePath)
				assert.NotEmpty(t, opts.BattlesPath)
			},
		},
		{
			name: "unset config seed falls back to default",
			cfg:  func(c *config.Config) { c.Ingest.Seed = 0 },
			checkFn: func(t *testing.T, opts handlers.IngestOptions) {
				assert.Equal(t, uint64(42), opts.Seed)
			},
		},
		{
			name:    "nothing to ingest",
			args:    []string{"--no-catalogue", "--no-battles"},
			wantErr: true,
		},
		{
			name:    "negative battles",
			args:    []string{"--battles=-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}

			var flags ingestFlags
			cmd := &cobra.Command{Use: "ingest"}
			addIngestFlags(cmd, &flags)
			require.NoError(t, cmd.ParseFlags(tt.args))

			opts, err := ingestOptions(cmd, cfg, base, flags)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
				return
			}
			require.NoError(t, err)
			tt.checkFn(t, opts)
		})
	}
}

func TestRecordGraph(t *testing.T) {
	base := t.TempDir()
	at := time.Date(2024, 5, 1, 12, 30, 15, 500, time.UTC)

	require.NoError(t, recordGraph(base, "ranked", "Ranked battles", 100, at))
	require.NoError(t, recordGraph(base, "ranked", "", 250, at.Add(time.Hour)))

	graphs, err := config.LoadGraphs(base)
	require.NoError(t, err)
	entry, err := graphs.Get("ranked")
	require.NoError(t, err)

	assert.Equal(t, "Ranked battles", entry.Description, "description kept")
	assert.Equal(t, 250, entry.Triples)
	assert.True(t, at.Add(time.Hour).Truncate(time.Second).Equal(entry.UpdatedAt))
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n        int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatCount(tt.n))
		})
	}
}
