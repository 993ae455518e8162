package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "medical_references", cfg.Chroma.Collection)
	assert.Equal(t, "nomic-embed-text:v1.5", cfg.Ollama.EmbedModel)
	assert.Equal(t, []string{"huggingface", "groq", "deepseek"}, cfg.Providers.Order)
	assert.Equal(t, 45*time.Second, cfg.Providers.Timeout)
	assert.Equal(t, 12*time.Second, cfg.Chat.SearchDeadline)
	assert.Equal(t, 600, cfg.Chat.PublicMaxTokens)
	assert.Equal(t, 1200, cfg.Chat.PrivateMaxTokens)
	assert.Equal(t, time.Hour, cfg.Summary.CacheTTL)
}

func TestLoad_SecretsFromEnvironment(t *testing.T) {
	t.Setenv("SERPAPI_API_KEY", "serp-secret")
	t.Setenv("GROQ_API_KEY", "groq-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "serp-secret", cfg.SerpAPI.APIKey)
	assert.Equal(t, "groq-secret", cfg.Providers.GroqKey)
}

func TestValidateProviders(t *testing.T) {
	var cfg Config
	require.Error(t, cfg.ValidateProviders())

	cfg.Providers.DeepSeekKey = "some-key"
	assert.NoError(t, cfg.ValidateProviders())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"huggingface", "groq"}, splitList("huggingface, groq"))
	assert.Equal(t, []string{"groq"}, splitList(" groq ,,"))
	assert.Empty(t, splitList(""))
}
