package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/config"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks variables the loader reads so the host environment does
// not leak into assertions. Empty values are treated as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "SERVER_PORT", "REDIS_HOST", "REDIS_PORT", "REDIS_DB", "REDIS_PASSWORD",
		"OPENAI_API_KEY", "COMPLETION_API_KEY", "COMPLETION_PROVIDER", "COMPLETION_MODEL",
		"COMPLETION_TEMPERATURE", "COMPLETION_TOP_P", "SESSION_TTL", "SEARCH_BACKEND", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "zlib", cfg.Session.Compression)
	assert.True(t, cfg.Session.AtomicAppend)
	assert.Equal(t, 1024, cfg.Budget.DocTokens)
	assert.Equal(t, 2048, cfg.Budget.TotalTokens)
	assert.Equal(t, "reference", cfg.Budget.DocPolicy)
	assert.Equal(t, "openai", cfg.Completion.Provider)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Completion.Model)
	require.NotNil(t, cfg.Completion.Temperature)
	assert.InDelta(t, 0.7, *cfg.Completion.Temperature, 1e-9)
	assert.Nil(t, cfg.Completion.TopP)
	assert.Equal(t, 1, cfg.Completion.Retries)
	assert.Equal(t, "none", cfg.Search.Backend)
	assert.Equal(t, "system.md", cfg.Prompt.Name)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := config.Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", cfg.Redis.Address())
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "sk-test", cfg.Completion.APIKey)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
}

func TestOpenAIKeyOnlyFeedsOpenAIBackends(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("COMPLETION_PROVIDER", "anthropic")

	cfg, err := config.Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Completion.APIKey)
	assert.Equal(t, "sk-test", cfg.Search.EmbeddingAPIKey)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is present, even if empty
	require.NoError(t, os.Unsetenv("REDIS_HOST"))
	envFile := writeFile(t, ".env", "REDIS_HOST=from-dotenv\n")

	cfg, err := config.Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Redis.Host)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
completion:
  provider: anthropic
  model: claude-3-5-haiku-latest
  top_p: 0.9
  stop: ["END"]
budget:
  doc_tokens: 512
  doc_policy: group
tokenizer:
  encoding_overrides:
    claude-3-5-haiku-latest: cl100k_base
search:
  backend: postgres
  postgres_dsn: postgres://localhost/docs
log:
  level: debug
  format: json
`)

	cfg, err := config.Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Completion.Provider)
	assert.Nil(t, cfg.Completion.Temperature)
	require.NotNil(t, cfg.Completion.TopP)
	assert.InDelta(t, 0.9, *cfg.Completion.TopP, 1e-9)
	assert.Equal(t, []string{"END"}, cfg.Completion.Stop)
	assert.Equal(t, 512, cfg.Budget.DocTokens)
	assert.Equal(t, "group", cfg.Budget.DocPolicy)
	assert.Equal(t, map[string]string{"claude-3-5-haiku-latest": "cl100k_base"}, cfg.Tokenizer.EncodingOverrides)
	assert.Equal(t, "postgres", cfg.Search.Backend)

	lc := cfg.Log.Logx()
	assert.Equal(t, logx.LevelDebug, lc.Level)
	assert.Equal(t, logx.FormatJSON, lc.Format)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, config.ErrLoad))
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown provider", func(c *config.Config) { c.Completion.Provider = "mistral" }},
		{"zero ttl", func(c *config.Config) { c.Session.TTL = 0 }},
		{"bad compression", func(c *config.Config) { c.Session.Compression = "brotli" }},
		{"negative budget", func(c *config.Config) { c.Budget.TotalTokens = -1 }},
		{"postgres without dsn", func(c *config.Config) { c.Search.Backend = "postgres" }},
		{"s3 prompt without bucket", func(c *config.Config) { c.Prompt.Source = "s3" }},
		{"zero retries", func(c *config.Config) { c.Completion.Retries = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load("", filepath.Join(t.TempDir(), "missing.env"))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.True(t, errx.HasCode(err, config.ErrInvalid))
		})
	}
}
