package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOptions_YAML(t *testing.T) {
	path := writeFile(t, "socket.yaml", `
endpoint: ws://localhost:4000/socket/websocket
heartbeatIntervalMillis: 15000
headers:
  - [X-Foo, "1"]
  - [X-Bar, "2"]
transportOptions:
  protocols: [json]
`)

	opts, err := LoadOptions(path)
	require.NoError(t, err)

	cfg, err := Validate(opts)
	require.NoError(t, err)
	assert.Equal(t, "localhost:4000", cfg.Endpoint.Host)
	assert.Equal(t, 15*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, []Header{{Name: "X-Foo", Value: "1"}, {Name: "X-Bar", Value: "2"}}, cfg.Headers)
}

func TestLoadOptions_JSON(t *testing.T) {
	path := writeFile(t, "socket.json", `{
		"endpoint": "wss://example.com/socket/websocket",
		"reconnectBackoffMillis": [10, 20]
	}`)

	opts, err := LoadOptions(path)
	require.NoError(t, err)

	cfg, err := Validate(opts)
	require.NoError(t, err)
	assert.Equal(t, "443", cfg.Endpoint.Port())
	assert.Equal(t, Backoff{10 * time.Millisecond, 20 * time.Millisecond}, cfg.ReconnectBackoff)
}

func TestLoadOptions_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadOptions(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := LoadOptions(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "directory")
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, "empty.yaml", "")
		_, err := LoadOptions(path)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "endpoint: [unclosed")
		_, err := LoadOptions(path)
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeFile(t, "bad.json", "{not json")
		_, err := LoadOptions(path)
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})
}
