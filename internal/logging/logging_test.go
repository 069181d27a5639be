package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oy3o/parcel/internal/config"
)

func TestSetupTee(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "gen.log")

	log, err := Setup(config.LogConfig{
		Level:   "info",
		Format:  "json",
		Outputs: []string{"stdout", "stderr", path},
	}, &stdout, &stderr)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("derived", zap.String("schema", "Pair"))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &entry))
	assert.Equal(t, "derived", entry["msg"])
	assert.Equal(t, "Pair", entry["schema"])
	assert.Equal(t, stdout.String(), stderr.String())

	file, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, stdout.String(), string(file))
}

func TestSetupLevel(t *testing.T) {
	var stderr bytes.Buffer
	log, err := Setup(config.LogConfig{Level: "warning", Outputs: []string{"stderr"}}, nil, &stderr)
	require.NoError(t, err)
	log.Info("quiet")
	log.Warn("loud")
	assert.NotContains(t, stderr.String(), "quiet")
	assert.Contains(t, stderr.String(), "loud")

	_, err = Setup(config.LogConfig{Level: "loud"}, nil, nil)
	assert.Error(t, err)
}
