package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/qflip/internal/config"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) config.Option {
	return config.WithLookup(func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.WithFile(writeFile(t, "empty.yaml", "")), config.WithEnvFiles(), envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, 1000, cfg.Shots)
	assert.Equal(t, "results", cfg.OutputDir)
	assert.Equal(t, "truncate", cfg.Rounding)
	assert.Equal(t, config.StoreNone, cfg.Store)
}

func TestLoad_Precedence(t *testing.T) {
	file := writeFile(t, "qflip.yaml", `
shots: 200
rounding: largest-remainder
store: file
redis:
  addr: redis:6379
  ttl: 30
ibm:
  poll_interval: 500ms
  instance: ibm-q/open/main
`)
	cfg, err := config.Load(config.WithFile(file), config.WithEnvFiles(), envMap(map[string]string{
		"QFLIP_SHOTS":      "50",
		"QFLIP_REAL":       "true",
		"QFLIP_REDIS_DB":   "3",
		"QFLIP_SEED":       "42",
		"QFLIP_REDIS_ADDR": "",
	}))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Shots, "env overrides file")
	assert.True(t, cfg.Real)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.Equal(t, "largest-remainder", cfg.Rounding, "file overrides defaults")
	assert.Equal(t, config.StoreFile, cfg.Store)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr, "empty env values are ignored")
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "qflip:run:", cfg.Redis.Prefix, "nested defaults survive partial sections")
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, 500*time.Millisecond, cfg.IBM.PollInterval)
	assert.Equal(t, "ibm-q/open/main", cfg.IBM.Instance)
}

func TestLoad_DotEnv(t *testing.T) {
	dotenv := writeFile(t, ".env", "QFLIP_OUTPUT_DIR=from-dotenv\n")
	t.Setenv("QFLIP_OUTPUT_DIR", "")
	os.Unsetenv("QFLIP_OUTPUT_DIR")

	cfg, err := config.Load(config.WithFile(writeFile(t, "c.yaml", "")), config.WithEnvFiles(dotenv))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.OutputDir)
}

func TestLoad_MissingFiles(t *testing.T) {
	_, err := config.Load(config.WithFile(filepath.Join(t.TempDir(), "nope.yaml")), config.WithEnvFiles(), envMap(nil))
	assert.Error(t, err, "an explicit config file must exist")

	_, err = config.Load(config.WithFile(writeFile(t, "c.yaml", "")), config.WithEnvFiles(filepath.Join(t.TempDir(), ".env")), envMap(nil))
	assert.NoError(t, err, "a missing .env is fine")
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		env  map[string]string
		is   error
	}{
		{name: "rounding", yaml: "rounding: bankers", is: domain.ErrUnknownRounding},
		{name: "store", env: map[string]string{"QFLIP_STORE": "postgres"}, is: domain.ErrUnknownStore},
		{name: "negative shots", yaml: "shots: -1", is: domain.ErrInvalidShots},
		{name: "unknown key", yaml: "shotz: 10"},
		{name: "bad yaml", yaml: "shots: [1"},
		{name: "bad duration", env: map[string]string{"QFLIP_REDIS_TTL": "soon"}},
		{name: "zero poll", yaml: "ibm:\n  poll_interval: 0s"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(config.WithFile(writeFile(t, "c.yaml", tc.yaml)), config.WithEnvFiles(), envMap(tc.env))
			require.Error(t, err)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}
