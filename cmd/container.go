// cmd/container.go
//
// Composition root. Owns infrastructure (Redis, Postgres, prompt storage)
// and wires the assistant from configuration. This is the only place that
// knows about every package.
package main

import (
	"context"
	"time"

	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm/memoryx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/llm/promptx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/providers/aianthropic"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/providers/aiazure"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/providers/aibedrock"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/providers/aigemini"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/providers/aiopenai"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/ai/tokenx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/assistant"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/config"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/errx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/fsx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/fsx/fsxlocal"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/fsx/fsxs3"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/logx"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search/searchchromem"
	"github.com/Sunbird-VA/sunbird-va-rag/pkg/search/searchpg"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	"github.com/openai/openai-go/v3/option"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"
)

const (
	pingTimeout    = 5 * time.Second
	searchMaxConns = 10
)

// Container holds shared infrastructure and the wired assistant.
type Container struct {
	Config *config.Config

	// Infrastructure
	Redis    *redis.Client
	SearchDB *sqlx.DB
	Prompts  fsx.FileReader

	// Pipeline
	Store     memoryx.Store
	Meter     *tokenx.Meter
	Assembler *promptx.Assembler
	Gateway   llm.Gateway
	Searcher  search.Searcher
	Indexer   search.Indexer
	System    llm.Message
	Assistant *assistant.Service
}

// NewContainer wires the full question answering pipeline. Partially
// built resources are released when a step fails.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}
	steps := []func(context.Context) error{
		c.initSessionStore,
		c.initSearch,
		c.initPrompts,
		c.initAssembler,
		c.initGateway,
		c.initAssistant,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			c.Cleanup()
			return nil, err
		}
	}

	logx.Info("✅ Application container initialized")
	return c, nil
}

// NewSearchContainer wires only the search backend, for ingestion
func NewSearchContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	if err := c.initSearch(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Infrastructure
// ---------------------------------------------------------------------------

func (c *Container) initSessionStore(ctx context.Context) error {
	sc := c.Config.Session

	compression, err := memoryx.ParseCompression(sc.Compression)
	if err != nil {
		return err
	}
	opts := []memoryx.Option{
		memoryx.WithKeyPrefix(sc.KeyPrefix),
		memoryx.WithDefaultTTL(sc.TTL),
		memoryx.WithCodec(memoryx.NewCodec(compression)),
		memoryx.WithAppendRetries(sc.AppendRetries),
	}

	if sc.Backend == config.SessionBackendMemory {
		c.Store = memoryx.NewInMemoryStore(opts...)
		logx.Info("  ✅ In-memory session store configured")
		return nil
	}

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	c.Store = memoryx.NewRedisStore(c.Redis, opts...)

	// Reads degrade to an empty history, so an unreachable Redis is not fatal
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Redis.Ping(pingCtx).Err(); err != nil {
		logx.WithError(err).WithField("addr", c.Config.Redis.Address()).Warn("  ⚠️ Redis unreachable, sessions will not persist until it recovers")
		return nil
	}
	logx.Infof("  ✅ Redis connected (%s, compression: %s)", c.Config.Redis.Address(), compression)
	return nil
}

func (c *Container) initSearch(ctx context.Context) error {
	sc := c.Config.Search

	switch sc.Backend {
	case config.SearchBackendChromem:
		embedder := aiopenai.NewOpenAIProvider(sc.EmbeddingAPIKey)
		s, err := searchchromem.Open(sc.ChromemPath, sc.ChromemCollection, embedder.EmbeddingFunc(sc.EmbeddingModel))
		if err != nil {
			return err
		}
		c.Searcher, c.Indexer = s, s
		logx.Infof("  ✅ chromem search configured (path: %s, documents: %d, embeddings: %s)",
			sc.ChromemPath, s.Count(), sc.EmbeddingModel)

	case config.SearchBackendPostgres:
		db, err := searchpg.Connect(ctx, sc.PostgresDSN, searchMaxConns, pingTimeout)
		if err != nil {
			return err
		}
		c.SearchDB = db
		s, err := searchpg.New(db,
			searchpg.WithTable(sc.PostgresTable),
			searchpg.WithTextSearchConfig(sc.TextSearchConfig),
		)
		if err != nil {
			return err
		}
		c.Searcher, c.Indexer = s, s
		logx.Infof("  ✅ Postgres search configured (table: %s)", sc.PostgresTable)

	case config.SearchBackendNone, "":
		c.Searcher = search.None{}
		logx.Info("  ✅ Document search disabled")

	default:
		return search.ErrRegistry.New(search.ErrUnsupported).WithDetail("backend", sc.Backend)
	}
	return nil
}

func (c *Container) initPrompts(ctx context.Context) error {
	pc := c.Config.Prompt

	switch pc.Source {
	case config.PromptSourceS3:
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(pc.AWSRegion))
		if err != nil {
			return errx.Wrap(err, "unable to load AWS SDK config", errx.TypeInternal)
		}
		c.Prompts = fsxs3.NewS3FileSystem(s3.NewFromConfig(awsCfg), pc.S3Bucket, "")
		logx.Infof("  ✅ Prompts read from S3 (bucket: %s, region: %s)", pc.S3Bucket, pc.AWSRegion)

	default:
		local, err := fsxlocal.NewLocalFileSystem(".")
		if err != nil {
			return err
		}
		c.Prompts = local
		logx.Infof("  ✅ Prompts read from %s", local.GetBasePath())
	}

	system, err := promptx.LoadSystemMessage(ctx, c.Prompts, pc.Dir, pc.Name, pc.Vars)
	if err != nil {
		return err
	}
	c.System = system
	return nil
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

func (c *Container) tokenizerModel() string {
	if c.Config.Tokenizer.Model != "" {
		return c.Config.Tokenizer.Model
	}
	return c.Config.Completion.Model
}

func (c *Container) initAssembler(context.Context) error {
	tc := c.Config.Tokenizer
	model := c.tokenizerModel()

	c.Meter = tokenx.NewMeter(
		tokenx.WithCostMode(tokenx.ParseCostMode(tc.CostMode)),
		tokenx.WithEncodingOverrides(tc.EncodingOverrides),
	)
	if err := c.Meter.Preload(model); err != nil {
		return err
	}

	assembler, err := promptx.NewAssembler(c.Meter, promptx.Config{
		Model:       model,
		DocBudget:   c.Config.Budget.DocTokens,
		TotalBudget: c.Config.Budget.TotalTokens,
		DocPolicy:   promptx.ParseDocPolicy(c.Config.Budget.DocPolicy),
	})
	if err != nil {
		return err
	}
	c.Assembler = assembler
	logx.Infof("  ✅ Token budgets: documents %d, payload %d (tokenizer: %s)",
		c.Config.Budget.DocTokens, c.Config.Budget.TotalTokens, model)
	return nil
}

func (c *Container) initGateway(ctx context.Context) error {
	cc := c.Config.Completion

	var provider llm.Gateway
	switch cc.Provider {
	case config.ProviderAzure:
		provider = aiazure.NewAzureOpenAIProvider(cc.AzureEndpoint, cc.APIKey, aiazure.WithAPIVersion(cc.AzureAPIVersion))

	case config.ProviderAnthropic:
		var opts []anthropicoption.RequestOption
		if cc.BaseURL != "" {
			opts = append(opts, anthropicoption.WithBaseURL(cc.BaseURL))
		}
		provider = aianthropic.NewAnthropicProvider(cc.APIKey, opts...)

	case config.ProviderGemini:
		var opts []aigemini.ProviderOption
		if cc.VertexProject != "" {
			opts = append(opts, aigemini.WithVertexAI(cc.VertexProject, cc.VertexLocation))
		}
		if cc.BaseURL != "" {
			opts = append(opts, aigemini.WithHTTPOptions(genai.HTTPOptions{BaseURL: cc.BaseURL}))
		}
		p, err := aigemini.NewGeminiProvider(ctx, cc.APIKey, opts...)
		if err != nil {
			return err
		}
		provider = p

	case config.ProviderBedrock:
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cc.AWSRegion))
		if err != nil {
			return errx.Wrap(err, "unable to load AWS SDK config", errx.TypeInternal)
		}
		provider = aibedrock.NewBedrockProvider(awsCfg)

	default:
		var opts []option.RequestOption
		if cc.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cc.BaseURL))
		}
		provider = aiopenai.NewOpenAIProvider(cc.APIKey, opts...)
	}

	c.Gateway = llm.NewRetryingGateway(provider, llm.RetryOptions{
		Attempts:     cc.Retries,
		InitialDelay: cc.RetryDelay,
	})
	logx.Infof("  ✅ Completion backend: %s (model: %s, attempts: %d)", cc.Provider, cc.Model, cc.Retries)
	return nil
}

func (c *Container) initAssistant(context.Context) error {
	cc := c.Config.Completion
	params := llm.Params{
		Model:       cc.Model,
		MaxTokens:   cc.MaxTokens,
		Temperature: cc.Temperature,
		TopP:        cc.TopP,
		Stop:        cc.Stop,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	c.Assistant = assistant.NewService(c.Store, c.Searcher, c.Assembler, c.Gateway, c.System, assistant.Config{
		Params:            params,
		SearchLimit:       c.Config.Search.Limit,
		SearchTimeout:     c.Config.Search.Timeout,
		ReadTimeout:       c.Config.Session.ReadTimeout,
		CompletionTimeout: cc.Timeout,
		SessionTTL:        c.Config.Session.TTL,
		AtomicAppend:      c.Config.Session.AtomicAppend,
	})
	return nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Ping checks the backing stores the service depends on
func (c *Container) Ping(ctx context.Context) map[string]error {
	checks := map[string]error{}
	if c.Redis != nil {
		checks["redis"] = c.Redis.Ping(ctx).Err()
	}
	if c.SearchDB != nil {
		checks["search_db"] = c.SearchDB.PingContext(ctx)
	}
	return checks
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.SearchDB != nil {
		if err := c.SearchDB.Close(); err != nil {
			logx.Errorf("Error closing search database: %v", err)
		} else {
			logx.Info("  ✅ Search database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
