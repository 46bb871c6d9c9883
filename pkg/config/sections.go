package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/logx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ptrx"
	"github.com/spf13/viper"
)

// Backend and provider names accepted in the configuration
const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"

	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderBedrock   = "bedrock"

	SearchBackendNone     = "none"
	SearchBackendChromem  = "chromem"
	SearchBackendPostgres = "postgres"

	PromptSourceLocal = "local"
	PromptSourceS3    = "s3"
)

const defaultTemperature = 0.7

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", "*")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.debug", false)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.backend", SessionBackendRedis)
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("session.key_prefix", "messages")
	v.SetDefault("session.compression", "zlib")
	v.SetDefault("session.atomic_append", true)
	v.SetDefault("session.read_timeout", 2*time.Second)
	v.SetDefault("session.append_retries", 5)

	v.SetDefault("budget.doc_tokens", 1024)
	v.SetDefault("budget.total_tokens", 2048)
	v.SetDefault("budget.doc_policy", "reference")

	v.SetDefault("completion.provider", ProviderOpenAI)
	v.SetDefault("completion.model", "gpt-3.5-turbo")
	v.SetDefault("completion.max_tokens", 1024)
	v.SetDefault("completion.timeout", 60*time.Second)
	v.SetDefault("completion.retries", 1)
	v.SetDefault("completion.retry_delay", 500*time.Millisecond)
	v.SetDefault("completion.azure_api_version", "2024-06-01")
	v.SetDefault("completion.aws_region", "us-east-1")

	v.SetDefault("tokenizer.cost_mode", "reference")

	v.SetDefault("search.backend", SearchBackendNone)
	v.SetDefault("search.limit", 5)
	v.SetDefault("search.timeout", 5*time.Second)
	v.SetDefault("search.chunk_size", 1200)
	v.SetDefault("search.chromem_path", "./data/chromem")
	v.SetDefault("search.chromem_collection", "reference-docs")
	v.SetDefault("search.embedding_model", "text-embedding-3-small")
	v.SetDefault("search.postgres_table", "reference_chunks")
	v.SetDefault("search.text_search_config", "english")

	v.SetDefault("prompt.source", PromptSourceLocal)
	v.SetDefault("prompt.dir", "prompts")
	v.SetDefault("prompt.name", "system.md")
	v.SetDefault("prompt.aws_region", "us-east-1")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.colors", true)
	v.SetDefault("log.caller", false)
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Port            int
	CORSOrigins     string
	ShutdownTimeout time.Duration
	// Debug exposes underlying causes in error responses
	Debug bool
}

func loadServerConfig(v *viper.Viper) ServerConfig {
	return ServerConfig{
		Port:            v.GetInt("server.port"),
		CORSOrigins:     v.GetString("server.cors_origins"),
		ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		Debug:           v.GetBool("server.debug"),
	}
}

// RedisConfig locates the session store. REDIS_HOST, REDIS_PORT and
// REDIS_DB override the file values.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns host:port
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func loadRedisConfig(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Host:     v.GetString("redis.host"),
		Port:     v.GetInt("redis.port"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	}
}

// SessionConfig configures conversation history storage
type SessionConfig struct {
	Backend     string
	TTL         time.Duration
	KeyPrefix   string
	Compression string
	// AtomicAppend persists each turn with a watched transaction. When
	// false the history is re-read and overwritten, last writer wins.
	AtomicAppend  bool
	ReadTimeout   time.Duration
	AppendRetries int
}

func loadSessionConfig(v *viper.Viper) SessionConfig {
	return SessionConfig{
		Backend:       strings.ToLower(v.GetString("session.backend")),
		TTL:           v.GetDuration("session.ttl"),
		KeyPrefix:     v.GetString("session.key_prefix"),
		Compression:   strings.ToLower(v.GetString("session.compression")),
		AtomicAppend:  v.GetBool("session.atomic_append"),
		ReadTimeout:   v.GetDuration("session.read_timeout"),
		AppendRetries: v.GetInt("session.append_retries"),
	}
}

// BudgetConfig holds the token budgets of prompt assembly
type BudgetConfig struct {
	DocTokens   int
	TotalTokens int
	DocPolicy   string
}

func loadBudgetConfig(v *viper.Viper) BudgetConfig {
	return BudgetConfig{
		DocTokens:   v.GetInt("budget.doc_tokens"),
		TotalTokens: v.GetInt("budget.total_tokens"),
		DocPolicy:   strings.ToLower(v.GetString("budget.doc_policy")),
	}
}

// CompletionConfig selects and tunes the completion backend
type CompletionConfig struct {
	Provider  string
	Model     string
	MaxTokens int
	// Temperature defaults to 0.7 unless TopP is configured instead
	Temperature *float64
	TopP        *float64
	Stop        []string
	Timeout     time.Duration
	Retries     int
	RetryDelay  time.Duration

	APIKey  string
	BaseURL string

	AzureEndpoint   string
	AzureAPIVersion string
	VertexProject   string
	VertexLocation  string
	AWSRegion       string
}

func loadCompletionConfig(v *viper.Viper) CompletionConfig {
	cfg := CompletionConfig{
		Provider:        strings.ToLower(v.GetString("completion.provider")),
		Model:           v.GetString("completion.model"),
		MaxTokens:       v.GetInt("completion.max_tokens"),
		Stop:            v.GetStringSlice("completion.stop"),
		Timeout:         v.GetDuration("completion.timeout"),
		Retries:         v.GetInt("completion.retries"),
		RetryDelay:      v.GetDuration("completion.retry_delay"),
		APIKey:          v.GetString("completion.api_key"),
		BaseURL:         v.GetString("completion.base_url"),
		AzureEndpoint:   v.GetString("completion.azure_endpoint"),
		AzureAPIVersion: v.GetString("completion.azure_api_version"),
		VertexProject:   v.GetString("completion.vertex_project"),
		VertexLocation:  v.GetString("completion.vertex_location"),
		AWSRegion:       v.GetString("completion.aws_region"),
	}

	// OPENAI_API_KEY only applies to the backends that accept it
	if cfg.APIKey == "" && (cfg.Provider == ProviderOpenAI || cfg.Provider == ProviderAzure) {
		cfg.APIKey = v.GetString("completion.openai_api_key")
	}

	switch {
	case v.IsSet("completion.temperature"):
		cfg.Temperature = ptrx.To(v.GetFloat64("completion.temperature"))
	case !v.IsSet("completion.top_p"):
		cfg.Temperature = ptrx.To(defaultTemperature)
	}
	if v.IsSet("completion.top_p") {
		cfg.TopP = ptrx.To(v.GetFloat64("completion.top_p"))
	}
	return cfg
}

// TokenizerConfig configures the token meter
type TokenizerConfig struct {
	// Model selects the encoding; empty means the completion model
	Model    string
	CostMode string
	// EncodingOverrides maps model names the tokenizer does not know to
	// encoding names such as cl100k_base
	EncodingOverrides map[string]string
}

func loadTokenizerConfig(v *viper.Viper) TokenizerConfig {
	return TokenizerConfig{
		Model:             v.GetString("tokenizer.model"),
		CostMode:          strings.ToLower(v.GetString("tokenizer.cost_mode")),
		EncodingOverrides: v.GetStringMapString("tokenizer.encoding_overrides"),
	}
}

// SearchConfig selects the reference document backend
type SearchConfig struct {
	Backend   string
	Limit     int
	Timeout   time.Duration
	ChunkSize int

	ChromemPath       string
	ChromemCollection string
	EmbeddingModel    string
	EmbeddingAPIKey   string

	PostgresDSN      string
	PostgresTable    string
	TextSearchConfig string
}

func loadSearchConfig(v *viper.Viper) SearchConfig {
	return SearchConfig{
		Backend:           strings.ToLower(v.GetString("search.backend")),
		Limit:             v.GetInt("search.limit"),
		Timeout:           v.GetDuration("search.timeout"),
		ChunkSize:         v.GetInt("search.chunk_size"),
		ChromemPath:       v.GetString("search.chromem_path"),
		ChromemCollection: v.GetString("search.chromem_collection"),
		EmbeddingModel:    v.GetString("search.embedding_model"),
		EmbeddingAPIKey:   v.GetString("search.embedding_api_key"),
		PostgresDSN:       v.GetString("search.postgres_dsn"),
		PostgresTable:     v.GetString("search.postgres_table"),
		TextSearchConfig:  v.GetString("search.text_search_config"),
	}
}

// PromptConfig locates the system prompt template
type PromptConfig struct {
	Source    string
	Dir       string
	Name      string
	S3Bucket  string
	AWSRegion string
	// Vars switch on template rendering of the prompt; without them the
	// file is used unchanged. Keys are lower-cased by the configuration loader.
	Vars map[string]string
}

func loadPromptConfig(v *viper.Viper) PromptConfig {
	return PromptConfig{
		Source:    strings.ToLower(v.GetString("prompt.source")),
		Dir:       v.GetString("prompt.dir"),
		Name:      v.GetString("prompt.name"),
		S3Bucket:  v.GetString("prompt.s3_bucket"),
		AWSRegion: v.GetString("prompt.aws_region"),
		Vars:      v.GetStringMapString("prompt.vars"),
	}
}

// LogConfig configures logx
type LogConfig struct {
	Level  string
	Format string
	Colors bool
	Caller bool
}

func loadLogConfig(v *viper.Viper) LogConfig {
	return LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		Colors: v.GetBool("log.colors"),
		Caller: v.GetBool("log.caller"),
	}
}

// Logx converts the section into a logger configuration
func (l LogConfig) Logx() *logx.Config {
	cfg := logx.DefaultConfig()
	cfg.Level = logx.ParseLevel(l.Level)
	cfg.Format = logx.ParseFormat(l.Format)
	cfg.EnableColors = l.Colors
	cfg.EnableCaller = l.Caller
	return cfg
}
