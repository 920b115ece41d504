package config

import (
	"testing"

	"veritas/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Harness.Rounds)
	assert.Equal(t, 0.75, cfg.Harness.TrainFraction)
	assert.Equal(t, int64(42), cfg.Harness.Seed)
	assert.Equal(t, 3, cfg.Harness.InnerRounds)
	assert.Equal(t, 0.5, cfg.Harness.InnerFraction)
	assert.Equal(t, 19.0, cfg.Clean.FreqCut)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VERITAS_ROUNDS", "4")
	t.Setenv("VERITAS_TRAIN_FRACTION", "0.5")
	t.Setenv("VERITAS_SEED", "2024")
	t.Setenv("VERITAS_FAIL_FAST", "true")
	t.Setenv("VERITAS_WORKERS", "not-a-number")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Harness.Rounds)
	assert.Equal(t, 0.5, cfg.Harness.TrainFraction)
	assert.Equal(t, int64(2024), cfg.Harness.Seed)
	assert.True(t, cfg.Harness.FailFast)
	assert.Equal(t, 1, cfg.Harness.Workers, "unparsable values fall back to the default")
}

func TestFromEnvRejectsInvalidFraction(t *testing.T) {
	for _, v := range []string{"0", "1", "1.5", "-0.2"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("VERITAS_TRAIN_FRACTION", v)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestFromEnvRejectsUnknownLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := FromEnv()
	assert.Error(t, err)
}
