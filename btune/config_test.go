package btune

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blosc/btune-go/btune/params"
)

func TestConfig_Validate_ClampsTradeoff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tradeoff = 5.0
	cfg.Validate()
	assert.Equal(t, 1.0, cfg.Tradeoff)

	cfg.Tradeoff = -2.0
	cfg.Validate()
	assert.Equal(t, 0.0, cfg.Tradeoff)
}

func TestConfig_Validate_ReplacesNonPositiveBandwidth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bandwidth = -1
	cfg.Validate()
	assert.Greater(t, cfg.Bandwidth, 0.0)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("BTUNE_TRADEOFF", "0.9")
	t.Setenv("BTUNE_PERF_MODE", "COMP")
	t.Setenv("BTUNE_MODELS_DIR", "/tmp/models")
	t.Setenv("BTUNE_USE_INFERENCE", "5")
	t.Setenv("BTUNE_TRACE", "1")

	cfg := DefaultConfig()
	ApplyEnvOverrides(&cfg)

	assert.Equal(t, 0.9, cfg.Tradeoff)
	assert.Equal(t, params.PerfComp, cfg.PerfMode)
	assert.Equal(t, "/tmp/models", cfg.ModelsDir)
	assert.Equal(t, 5, cfg.UseInference)
	assert.True(t, cfg.Trace)
}

func TestApplyEnvOverrides_InvalidTradeoffIgnored(t *testing.T) {
	t.Setenv("BTUNE_TRADEOFF", "not-a-float")
	cfg := DefaultConfig()
	want := cfg.Tradeoff
	ApplyEnvOverrides(&cfg)
	assert.Equal(t, want, cfg.Tradeoff)
}

func TestLoadConfig_MissingPath_ReturnsDefault(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_NonexistentFile_ReturnsDefault(t *testing.T) {
	cfg, err := LoadConfig("/no/such/path/btune.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesYAML(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "btune-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString(`
perf_mode: DECOMP
tradeoff: 0.8
bandwidth: 2048
cparams_hint: true
use_inference: 3
models_dir: ./models
trace: true
nsofts_before_hard: 7
repeat_mode: REPEAT_ALL
`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, err := LoadConfig(f.Name())
	require.NoError(t, err)
	assert.Equal(t, params.PerfDecomp, cfg.PerfMode)
	assert.Equal(t, 0.8, cfg.Tradeoff)
	assert.Equal(t, 2048.0, cfg.Bandwidth)
	assert.True(t, cfg.CParamsHint)
	assert.Equal(t, 3, cfg.UseInference)
	assert.Equal(t, "./models", cfg.ModelsDir)
	assert.True(t, cfg.Trace)
	assert.Equal(t, 7, cfg.Behaviour.NSoftsBeforeHard)
	assert.Equal(t, RepeatAll, cfg.Behaviour.RepeatMode)
}
