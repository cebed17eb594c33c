package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginWhoamiLogout(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EVIDARK_STORAGE_PATH", filepath.Join(dir, "local.db"))
	configFlag := "--config=" + filepath.Join(dir, "config.yaml")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = execute(t, configFlag, "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")

	out, err := execute(t, configFlag, "login", "--token", token)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as u1")

	out, err = execute(t, configFlag, "--log-level=error", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "user: u1")
	assert.Contains(t, out, "expires: ")

	out, err = execute(t, configFlag, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = execute(t, configFlag, "whoami")
	assert.Error(t, err)
}

func TestLoginRejectsMalformedToken(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EVIDARK_STORAGE_PATH", filepath.Join(dir, "local.db"))

	_, err := execute(t, "--config="+filepath.Join(dir, "config.yaml"), "login", "--token", "nope")
	assert.Error(t, err)
}

func TestChatRequiresRoomFlag(t *testing.T) {
	_, err := execute(t, "chat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "room")
}
