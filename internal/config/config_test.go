package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "data/warfront.db", c.DBPath)
	assert.Equal(t, 5*time.Second, c.TickInterval)
	assert.Equal(t, int64(4000), c.MsPerDay)
	assert.Equal(t, 240, c.MaxNPCs)
	assert.Equal(t, 12, c.BatchCap)
	assert.Equal(t, 140, c.DeltaRetention)
	assert.Equal(t, 24*time.Hour, c.Session)
	assert.Equal(t, slog.LevelInfo, c.SlogLevel())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WORLDSIM_MS_PER_DAY", "1000")
	t.Setenv("WORLDSIM_TICK_INTERVAL", "250ms")
	t.Setenv("WORLDSIM_LOG_LEVEL", "DEBUG")
	t.Setenv("WORLDSIM_NOISE_SEED", "42")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.MsPerDay)
	assert.Equal(t, 250*time.Millisecond, c.TickInterval)
	assert.Equal(t, slog.LevelDebug, c.SlogLevel())
	assert.Equal(t, int64(42), c.NoiseSeed)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("WORLDSIM_MS_PER_DAY", "0")
	_, err := Load()
	assert.ErrorContains(t, err, "WORLDSIM_MS_PER_DAY")

	t.Setenv("WORLDSIM_MS_PER_DAY", "4000")
	t.Setenv("WORLDSIM_MAX_NPCS", "-5")
	_, err = Load()
	assert.ErrorContains(t, err, "WORLDSIM_MAX_NPCS")

	t.Setenv("WORLDSIM_MAX_NPCS", "many")
	_, err = Load()
	assert.Error(t, err)
}

func TestEmbeddedTuning(t *testing.T) {
	tun, err := LoadTuning("")
	require.NoError(t, err)
	assert.Equal(t, 24, tun.Population)
	require.Len(t, tun.Divisions, 5)

	codes := make([]string, len(tun.Divisions))
	for i, d := range tun.Divisions {
		codes[i] = d.Code
		assert.Positive(t, d.QuotaTotal)
		assert.Positive(t, d.CooldownDays)
	}
	assert.Equal(t, []string{"INF", "LOG", "MED", "INT", "SOF"}, codes)
	assert.Equal(t, 3, tun.Divisions[4].MinTier)
}

func TestTuningFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
divisions:
  - code: ENG
    name: Engineers
    min_tier: 2
    quota_total: 3
    cooldown_days: 4
    weights:
      intelligence: 2
      support: 1
`), 0o644))

	tun, err := LoadTuning(path)
	require.NoError(t, err)
	assert.Equal(t, 24, tun.Population, "population defaults when omitted")
	require.Len(t, tun.Divisions, 1)
	assert.Equal(t, 2.0, tun.Divisions[0].Weights.Intelligence)

	_, err = LoadTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestTuningValidation(t *testing.T) {
	cases := map[string]string{
		"empty":     `population: 10`,
		"no code":   "divisions:\n  - name: X\n    min_tier: 1\n    quota_total: 1\n",
		"duplicate": "divisions:\n  - {code: A, min_tier: 1, quota_total: 1}\n  - {code: A, min_tier: 1, quota_total: 1}\n",
		"tier":      "divisions:\n  - {code: A, min_tier: 4, quota_total: 1}\n",
		"quota":     "divisions:\n  - {code: A, min_tier: 1, quota_total: 0}\n",
		"syntax":    "divisions: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseTuning([]byte(raw))
			assert.Error(t, err)
		})
	}
}
