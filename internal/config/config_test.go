package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err, "default config not written")
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dir, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Zero(t, dir.Mode().Perm()&0o077, "config dir readable by others")
}

func TestLoadKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("socket_path: /rt\n"), 0o644))

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "/rt", cfg.SocketPath)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "socket_path: /rt\n", string(data))
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envDirKey, dir)

	got, err := resolveConfigPath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, fileName), got)

	got, err = resolveConfigPath("/etc/evidark.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/evidark.yaml", got)

	t.Setenv(envDirKey, "")
	t.Setenv("HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	_, err = resolveConfigPath("")
	assert.Error(t, err, "no fallback to the working directory")
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server_url: https://evidark.example\nhandshake_timeout: 3s\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("EVIDARK_LOG_LEVEL", "warn")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "https://evidark.example", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.HandshakeTimeout)
	assert.Equal(t, "warn", cfg.LogLevel, "env beats file")
	assert.Equal(t, Default().SocketPath, cfg.SocketPath)
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{StoragePath: "/tmp/other.db", MaxMessageBytes: 42})

	assert.Equal(t, "/tmp/other.db", cfg.StoragePath)
	assert.Equal(t, int64(42), cfg.MaxMessageBytes)
	assert.Equal(t, Default().ServerURL, cfg.ServerURL)
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		server string
		path   string
		want   string
	}{
		{"http://localhost:5000", "/socket", "ws://localhost:5000/socket"},
		{"https://evidark.example/", "socket", "wss://evidark.example/socket"},
		{"https://evidark.example/api", "/ws", "wss://evidark.example/api/ws"},
		{"ws://127.0.0.1:9000", "", "ws://127.0.0.1:9000"},
	}
	for _, tt := range tests {
		got, err := Config{ServerURL: tt.server, SocketPath: tt.path}.SocketURL()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.server)
	}
}
