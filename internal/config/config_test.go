package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  api_key: secret
database:
  host: localhost
  user: piv
  password: piv
  name: piv
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "piv_balanced", cfg.Piv.DefaultPreset)
	assert.Equal(t, 0.8, cfg.Piv.MinFaceConfidence)
	assert.Equal(t, 15.0, cfg.Piv.MaxRotationDegrees)
	assert.Equal(t, 3, cfg.Piv.ROIStartLevel)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Worker.ProcessingTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
nats:
  url: nats://file:4222
`)
	t.Setenv("PIV_SERVER_PORT", "9100")
	t.Setenv("PIV_NATS_URL", "nats://env:4222")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAMLFails(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDSNFormat(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "piv", User: "u", Password: "p"}
	assert.Equal(t, "postgres://u:p@db:5432/piv?sslmode=disable", d.DSN())
}
