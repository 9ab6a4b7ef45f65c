package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the prediction service.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	ModelsDir      string
	ONNXRuntimeLib string

	FeatureArtifact string
	CropDataset     string
	MandiDataset    string

	Chat   LLMConfig
	Remedy LLMConfig
}

type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Load reads an optional .env file and then the environment. The server
// needs a feature artifact or at least one dataset to fit one from.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if cfg.FeatureArtifact == "" && cfg.CropDataset == "" && cfg.MandiDataset == "" {
		return nil, fmt.Errorf("one of FEATURE_ARTIFACT, CROP_DATASET or MANDI_DATASET must be set")
	}
	return cfg, nil
}

// LoadLLM is Load without the feature source check, for tools that only
// talk to the LLM APIs.
func LoadLLM() (*Config, error) {
	return read()
}

func read() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	timeout, err := getDuration("LLM_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	maxTokens, err := getInt("REMEDY_MAX_TOKENS", 400)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8000"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		ModelsDir:      getEnv("MODELS_DIR", "models"),
		ONNXRuntimeLib: getEnv("ONNXRUNTIME_LIB", ""),

		FeatureArtifact: getEnv("FEATURE_ARTIFACT", ""),
		CropDataset:     getEnv("CROP_DATASET", ""),
		MandiDataset:    getEnv("MANDI_DATASET", ""),

		Chat: LLMConfig{
			BaseURL:     getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("LLM_API_KEY", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			Temperature: 1,
			Timeout:     timeout,
		},
		Remedy: LLMConfig{
			BaseURL:     getEnv("REMEDY_BASE_URL", "https://router.huggingface.co/v1"),
			APIKey:      getEnv("REMEDY_API_KEY", ""),
			Model:       getEnv("REMEDY_MODEL", "meta-llama/Llama-3.1-8B-Instruct:nebius"),
			MaxTokens:   maxTokens,
			Temperature: 0.7,
			Timeout:     timeout,
		},
	}
	return cfg, nil
}

// Address returns the HTTP listen address.
func (c *Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// ModelPath returns the path of a file under ModelsDir.
func (c *Config) ModelPath(name string) string {
	return filepath.Join(c.ModelsDir, name)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
