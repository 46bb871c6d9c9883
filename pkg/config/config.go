// Package config loads the service configuration from defaults, an
// optional config file, a .env file and the environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrRegistry = errx.NewRegistry("CONFIG")

var (
	ErrLoad    = ErrRegistry.Register("LOAD", errx.TypeInternal, http.StatusInternalServerError, "Failed to load configuration")
	ErrInvalid = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Invalid configuration")
)

// Config is the complete service configuration
type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Session    SessionConfig
	Budget     BudgetConfig
	Completion CompletionConfig
	Tokenizer  TokenizerConfig
	Search     SearchConfig
	Prompt     PromptConfig
	Log        LogConfig
}

// Load reads configuration. path may be empty; a missing .env file is not
// an error. Environment variables map onto keys with dots replaced by
// underscores, so session.ttl is SESSION_TTL.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvAliases(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, ErrRegistry.NewWithCause(ErrLoad, err).WithDetail("path", path)
		}
	}

	cfg := &Config{
		Server:     loadServerConfig(v),
		Redis:      loadRedisConfig(v),
		Session:    loadSessionConfig(v),
		Budget:     loadBudgetConfig(v),
		Completion: loadCompletionConfig(v),
		Tokenizer:  loadTokenizerConfig(v),
		Search:     loadSearchConfig(v),
		Prompt:     loadPromptConfig(v),
		Log:        loadLogConfig(v),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ErrRegistry.NewWithCause(ErrLoad, err).WithDetail("path", f)
		}
	}
	return nil
}

// bindEnvAliases maps the variable names the deployment already uses
func bindEnvAliases(v *viper.Viper) {
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("completion.openai_api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("search.embedding_api_key", "SEARCH_EMBEDDING_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	checks := []struct {
		ok    bool
		field string
		value any
	}{
		{c.Server.Port > 0 && c.Server.Port < 65536, "server.port", c.Server.Port},
		{c.Redis.Port > 0 && c.Redis.Port < 65536, "redis.port", c.Redis.Port},
		{c.Redis.DB >= 0, "redis.db", c.Redis.DB},
		{c.Session.TTL > 0, "session.ttl", c.Session.TTL},
		{c.Session.ReadTimeout >= 0, "session.read_timeout", c.Session.ReadTimeout},
		{c.Session.AppendRetries > 0, "session.append_retries", c.Session.AppendRetries},
		{oneOf(c.Session.Backend, SessionBackendRedis, SessionBackendMemory), "session.backend", c.Session.Backend},
		{oneOf(c.Session.Compression, "none", "zlib", "zstd", "lz4"), "session.compression", c.Session.Compression},
		{c.Budget.DocTokens >= 0, "budget.doc_tokens", c.Budget.DocTokens},
		{c.Budget.TotalTokens >= 0, "budget.total_tokens", c.Budget.TotalTokens},
		{oneOf(c.Budget.DocPolicy, "reference", "group"), "budget.doc_policy", c.Budget.DocPolicy},
		{oneOf(c.Completion.Provider, ProviderOpenAI, ProviderAzure, ProviderAnthropic, ProviderGemini, ProviderBedrock), "completion.provider", c.Completion.Provider},
		{c.Completion.Model != "", "completion.model", c.Completion.Model},
		{c.Completion.MaxTokens > 0, "completion.max_tokens", c.Completion.MaxTokens},
		{c.Completion.Timeout > 0, "completion.timeout", c.Completion.Timeout},
		{c.Completion.Retries >= 1, "completion.retries", c.Completion.Retries},
		{oneOf(c.Tokenizer.CostMode, "reference", "content_only"), "tokenizer.cost_mode", c.Tokenizer.CostMode},
		{oneOf(c.Search.Backend, SearchBackendNone, SearchBackendChromem, SearchBackendPostgres), "search.backend", c.Search.Backend},
		{c.Search.Limit > 0, "search.limit", c.Search.Limit},
		{c.Search.Backend != SearchBackendPostgres || c.Search.PostgresDSN != "", "search.postgres_dsn", c.Search.PostgresDSN},
		{oneOf(c.Prompt.Source, PromptSourceLocal, PromptSourceS3), "prompt.source", c.Prompt.Source},
		{c.Prompt.Source != PromptSourceS3 || c.Prompt.S3Bucket != "", "prompt.s3_bucket", c.Prompt.S3Bucket},
	}

	for _, chk := range checks {
		if !chk.ok {
			return ErrRegistry.New(ErrInvalid).
				WithDetail("field", chk.field).
				WithDetail("value", chk.value)
		}
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
