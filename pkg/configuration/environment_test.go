package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "ITAM_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "modules", "inventory")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(sub))

	_ = os.Unsetenv("ITAM_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("ITAM_TEST_ENV_LOAD"))
}

func TestConfiguration_Defaults(t *testing.T) {
	var c Configuration
	require.NoError(t, env.ParseWithOptions(&c, env.Options{Environment: map[string]string{}}))

	assert.Equal(t, 10*time.Second, c.API.Timeout)
	assert.Equal(t, "memory", c.State.Backend)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, c.AllowedOrigins())
	require.NoError(t, c.validate())
}

func TestConfiguration_ValidateRejectsRedisWithoutURL(t *testing.T) {
	var c Configuration
	require.NoError(t, env.ParseWithOptions(&c, env.Options{Environment: map[string]string{
		"STATE_BACKEND": "redis",
		"REDIS_URL":     "",
	}}))
	c.State.RedisURL = ""
	assert.Error(t, c.validate())
}

func TestConfiguration_LogrusLogLevel(t *testing.T) {
	c := Configuration{LogLevel: "debug"}
	assert.Equal(t, "debug", c.LogrusLogLevel().String())
	c.LogLevel = "nonsense"
	assert.Equal(t, "error", c.LogrusLogLevel().String())
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
