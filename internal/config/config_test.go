package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/agriml-api/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FEATURE_ARTIFACT", "features.json")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Address())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "gpt-4o-mini", cfg.Chat.Model)
	assert.Equal(t, 400, cfg.Remedy.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Chat.Timeout)
	assert.Equal(t, "models/disease.onnx", cfg.ModelPath("disease.onnx"))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CROP_DATASET", "crop.csv")
	t.Setenv("PORT", "9090")
	t.Setenv("MODELS_DIR", "/srv/models")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("REMEDY_MODEL", "tiny")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Address())
	assert.Equal(t, "/srv/models/quality.onnx", cfg.ModelPath("quality.onnx"))
	assert.Equal(t, 5*time.Second, cfg.Remedy.Timeout)
	assert.Equal(t, "tiny", cfg.Remedy.Model)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("FEATURE_ARTIFACT", "features.json")
	t.Setenv("LLM_TIMEOUT", "soon")
	_, err := config.Load()
	assert.ErrorContains(t, err, "LLM_TIMEOUT")
}

func TestLoad_RequiresFeatureSource(t *testing.T) {
	t.Setenv("FEATURE_ARTIFACT", "")
	t.Setenv("CROP_DATASET", "")
	t.Setenv("MANDI_DATASET", "")

	_, err := config.Load()
	assert.ErrorContains(t, err, "FEATURE_ARTIFACT")

	cfg, err := config.LoadLLM()
	require.NoError(t, err)
	assert.Equal(t, "https://router.huggingface.co/v1", cfg.Remedy.BaseURL)
}
