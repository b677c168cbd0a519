package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/tankgraph/internal/errors"
	"github.com/ersonp/tankgraph/internal/infrastructure/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(config.LogConfig{Level: "info", JSON: true}, &buf)
	require.NoError(t, err)

	log.Debugw("hidden")
	log.Infow("Ingestion finished", "triples", 42)
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Ingestion finished", entry["msg"])
	assert.Equal(t, float64(42), entry["triples"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_ConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(config.LogConfig{Level: "debug"}, &buf)
	require.NoError(t, err)

	log.Debugw("Discarded module value", "module", "Gun_1")
	assert.Contains(t, buf.String(), "Discarded module value")
	assert.Contains(t, buf.String(), `"module": "Gun_1"`)
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}
