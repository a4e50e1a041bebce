package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/forge/internal/compiler"
	"github.com/davidbz/forge/internal/config"
	"github.com/davidbz/forge/internal/corpus"
	"github.com/davidbz/forge/internal/domain"
	embeddinggemini "github.com/davidbz/forge/internal/embedding/gemini"
	embeddingopenai "github.com/davidbz/forge/internal/embedding/openai"
	"github.com/davidbz/forge/internal/http"
	"github.com/davidbz/forge/internal/http/middleware"
	"github.com/davidbz/forge/internal/observability"
	"github.com/davidbz/forge/internal/provider/anthropic"
	"github.com/davidbz/forge/internal/provider/echo"
	"github.com/davidbz/forge/internal/provider/gemini"
	"github.com/davidbz/forge/internal/provider/openai"
	"github.com/davidbz/forge/internal/provider/registry"
	"github.com/davidbz/forge/internal/routing"
	"github.com/davidbz/forge/internal/speccompiler"
	usageredis "github.com/davidbz/forge/internal/usage/redis"
	vectorredis "github.com/davidbz/forge/internal/vectorstore/redis"
	"github.com/davidbz/forge/internal/vectorstore/weaviate"
)

const shutdownTimeout = 30 * time.Second

// ErrProviderNotConfigured indicates that a provider is not configured and should be skipped.
var ErrProviderNotConfigured = errors.New("provider not configured")

// exampleIndex is a vector store that can be both searched and seeded.
type exampleIndex interface {
	domain.ExampleStore
	domain.ExampleIndexer
}

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server, client *redis.Client) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return client.Close()
	})
	if err != nil {
		log.Fatalf("Application stopped: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	provideConfig(container)
	provideInfrastructure(container)
	provideProviders(container)
	provideRetrieval(container)
	provideServices(container)
	provideHTTP(container)

	return container
}

func provideConfig(container *dig.Container) {
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}
}

func provideInfrastructure(container *dig.Container) {
	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Invoke(func(*zap.Logger) {}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Redis
	if err := container.Provide(func(cfg *config.RedisConfig) (*redis.Client, error) {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return redis.NewClient(opts), nil
	}); err != nil {
		log.Fatalf("Failed to provide redis client: %v", err)
	}

	// Trace records
	if err := container.Provide(func(
		features *config.FeaturesConfig,
		analytics *config.AnalyticsConfig,
		client *redis.Client,
	) domain.EventPublisher {
		if !features.Analytics {
			return observability.NewEventBus(nil)
		}
		return observability.NewEventBus(observability.NewRedisStreamSink(client, analytics.Stream, analytics.MaxLen))
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Dialect catalog
	if err := container.Provide(func(cfg *config.CorpusConfig) (*corpus.Catalog, error) {
		if cfg.Dir == "" {
			return corpus.Load()
		}
		return corpus.Load(os.DirFS(cfg.Dir))
	}); err != nil {
		log.Fatalf("Failed to provide dialect catalog: %v", err)
	}
}

func provideProviders(container *dig.Container) {
	// Provider Registry
	if err := container.Provide(func() domain.ProviderRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// Pricing
	if err := container.Provide(func() domain.PricingRegistry {
		return domain.NewInMemoryPricingRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide pricing registry: %v", err)
	}
	if err := container.Provide(func(pricing domain.PricingRegistry) domain.CostCalculator {
		return domain.NewStandardCostCalculator(pricing)
	}); err != nil {
		log.Fatalf("Failed to provide cost calculator: %v", err)
	}

	// Register providers with registry (invoked for side effects)
	if err := container.Invoke(registerProviders); err != nil {
		log.Fatalf("Failed to register providers: %v", err)
	}

	// Model tiers
	if err := container.Provide(func(reg domain.ProviderRegistry, cfg *routing.TierConfig) domain.ModelRouter {
		return routing.NewTierRouter(reg, *cfg)
	}); err != nil {
		log.Fatalf("Failed to provide model router: %v", err)
	}
}

// registerProviders registers every provider with credentials plus the echo provider.
func registerProviders(
	reg domain.ProviderRegistry,
	pricing domain.PricingRegistry,
	openaiCfg *openai.Config,
	anthropicCfg *anthropic.Config,
	geminiCfg *gemini.Config,
) error {
	ctx := context.Background()
	logger := observability.FromContext(ctx)

	type candidate struct {
		name    string
		build   func() (domain.Provider, error)
		pricing func(context.Context, domain.PricingRegistry) error
	}

	candidates := []candidate{
		{
			name: "openai",
			build: func() (domain.Provider, error) {
				if openaiCfg.APIKey == "" {
					return nil, ErrProviderNotConfigured
				}
				return openai.NewProvider(*openaiCfg)
			},
			pricing: openai.RegisterPricing,
		},
		{
			name: "anthropic",
			build: func() (domain.Provider, error) {
				if anthropicCfg.APIKey == "" {
					return nil, ErrProviderNotConfigured
				}
				return anthropic.NewProvider(*anthropicCfg)
			},
			pricing: anthropic.RegisterPricing,
		},
		{
			name: "gemini",
			build: func() (domain.Provider, error) {
				if geminiCfg.APIKey == "" {
					return nil, ErrProviderNotConfigured
				}
				return gemini.NewProvider(ctx, *geminiCfg)
			},
			pricing: gemini.RegisterPricing,
		},
		{
			name: "echo",
			build: func() (domain.Provider, error) {
				return echo.NewProvider(), nil
			},
		},
	}

	for _, c := range candidates {
		provider, err := c.build()
		if errors.Is(err, ErrProviderNotConfigured) {
			logger.Info("provider not configured, skipping", observability.String("provider", c.name))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create %s provider: %w", c.name, err)
		}

		if err := reg.Register(ctx, provider); err != nil {
			return fmt.Errorf("failed to register %s provider: %w", c.name, err)
		}
		if c.pricing != nil {
			if err := c.pricing(ctx, pricing); err != nil {
				return fmt.Errorf("failed to register %s pricing: %w", c.name, err)
			}
		}
	}

	return nil
}

func provideRetrieval(container *dig.Container) {
	// Embeddings; nil when vector search is off or the backend lacks credentials.
	if err := container.Provide(func(
		features *config.FeaturesConfig,
		cfg *config.EmbeddingConfig,
	) (domain.EmbeddingGenerator, error) {
		if !features.VectorSearch {
			return nil, nil
		}

		ctx := context.Background()
		switch cfg.Backend {
		case "gemini":
			if cfg.Gemini.APIKey == "" {
				return nil, nil
			}
			return embeddinggemini.NewGenerator(ctx, cfg.Gemini)
		default:
			if cfg.OpenAI.APIKey == "" {
				return nil, nil
			}
			return embeddingopenai.NewGenerator(cfg.OpenAI)
		}
	}); err != nil {
		log.Fatalf("Failed to provide embedding generator: %v", err)
	}

	// Vector store
	if err := container.Provide(func(
		features *config.FeaturesConfig,
		retrieval *config.RetrievalConfig,
		redisCfg *config.RedisConfig,
		weaviateCfg *weaviate.Config,
		client *redis.Client,
		embeddings domain.EmbeddingGenerator,
	) (exampleIndex, error) {
		if !features.VectorSearch || embeddings == nil {
			return nil, nil
		}

		ctx := context.Background()
		logger := observability.FromContext(ctx)

		var (
			store exampleIndex
			err   error
		)
		switch retrieval.Backend {
		case config.BackendWeaviate:
			store, err = weaviate.NewExampleStore(ctx, *weaviateCfg)
		default:
			store, err = vectorredis.NewExampleStore(ctx, client,
				redisCfg.ExampleIndex, redisCfg.ExamplePrefix, embeddings.Dimension())
		}
		if err != nil {
			// Retrieval degrades to keyword search.
			logger.Warn("vector store unavailable, using keyword retrieval only",
				observability.String("backend", retrieval.Backend),
				observability.Error(err))
			return nil, nil
		}
		return store, nil
	}); err != nil {
		log.Fatalf("Failed to provide example store: %v", err)
	}

	// Seed the vector store from the dialect catalog (invoked for side effects)
	if err := container.Invoke(func(
		features *config.FeaturesConfig,
		embeddings domain.EmbeddingGenerator,
		store exampleIndex,
		catalog *corpus.Catalog,
	) {
		if !features.SeedExamples || embeddings == nil || store == nil {
			return
		}

		ctx := context.Background()
		if _, err := domain.SeedExamples(ctx, embeddings, store, catalog, catalog.Names()); err != nil {
			observability.FromContext(ctx).Warn("example seeding failed", observability.Error(err))
		}
	}); err != nil {
		log.Fatalf("Failed to seed examples: %v", err)
	}

	// Retriever
	if err := container.Provide(func(
		features *config.FeaturesConfig,
		retrieval *config.RetrievalConfig,
		embeddings domain.EmbeddingGenerator,
		store exampleIndex,
		catalog *corpus.Catalog,
		events domain.EventPublisher,
	) *domain.RetrieverService {
		var search domain.ExampleStore
		if store != nil {
			search = store
		}
		return domain.NewRetrieverService(embeddings, search, catalog, events, domain.RetrieverOptions{
			VectorSearch: features.VectorSearch,
			HybridSearch: features.HybridSearch,
			Weight:       retrieval.Weight,
			Timeout:      retrieval.Timeout,
		})
	}); err != nil {
		log.Fatalf("Failed to provide retriever: %v", err)
	}
}

func provideServices(container *dig.Container) {
	// Prompt compiler
	if err := container.Provide(func(
		features *config.FeaturesConfig,
		cfg *speccompiler.Config,
		events domain.EventPublisher,
	) (*domain.PromptCompilerService, error) {
		var external domain.SpecCompiler
		if features.SpecCompiler {
			client, err := speccompiler.NewClient(*cfg)
			if err != nil {
				return nil, err
			}
			external = client
		}

		return domain.NewPromptCompilerService(external, events, domain.PromptCompilerOptions{
			SpecCompilerEnabled: features.SpecCompiler,
			LegacyFallback:      features.LegacyFallback,
			Timeout:             cfg.Timeout,
		}), nil
	}); err != nil {
		log.Fatalf("Failed to provide prompt compiler: %v", err)
	}

	// Streaming generator
	if err := container.Provide(func(
		reg domain.ProviderRegistry,
		events domain.EventPublisher,
		cfg *config.PipelineConfig,
	) *domain.StreamingGenerator {
		return domain.NewStreamingGenerator(reg, events, cfg.MaxContinuations)
	}); err != nil {
		log.Fatalf("Failed to provide generator: %v", err)
	}

	// Compiler service
	if err := container.Provide(func(cfg *compiler.Config) (*compiler.Client, error) {
		return compiler.NewClient(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide compiler client: %v", err)
	}

	if err := container.Provide(func(cfg *compiler.Config, client *compiler.Client) *domain.PostProcessor {
		if !cfg.FormatEnabled {
			return domain.NewPostProcessor(nil)
		}
		return domain.NewPostProcessor(client)
	}); err != nil {
		log.Fatalf("Failed to provide post-processor: %v", err)
	}

	if err := container.Provide(func() *domain.ErrorClassifier {
		return domain.NewErrorClassifier(nil)
	}); err != nil {
		log.Fatalf("Failed to provide error classifier: %v", err)
	}

	if err := container.Provide(func(
		cfg *compiler.Config,
		client *compiler.Client,
		classifier *domain.ErrorClassifier,
		events domain.EventPublisher,
	) *domain.VerifierService {
		return domain.NewVerifierService(client, classifier, events, domain.VerifierOptions{
			PollInterval: cfg.PollInterval,
			PollAttempts: cfg.PollAttempts,
		})
	}); err != nil {
		log.Fatalf("Failed to provide verifier: %v", err)
	}

	// Dialect instructions: compiler grammar first when enabled, then the catalog.
	if err := container.Provide(func(
		features *config.FeaturesConfig,
		client *compiler.Client,
		catalog *corpus.Catalog,
	) *domain.InstructionCache {
		if features.CompilerGrammar {
			return domain.NewInstructionCache(client, catalog)
		}
		return domain.NewInstructionCache(catalog)
	}); err != nil {
		log.Fatalf("Failed to provide instruction cache: %v", err)
	}

	// Usage accounting
	if err := container.Provide(func(
		features *config.FeaturesConfig,
		billing *config.BillingConfig,
		client *redis.Client,
		calculator domain.CostCalculator,
		events domain.EventPublisher,
	) *domain.UsageAccountant {
		var store domain.UsageStore
		if features.UsageStore {
			store = usageredis.NewStore(client, usageredis.Options{
				AuditStream:  billing.AuditStream,
				AuditMaxLen:  billing.AuditMaxLen,
				PeriodMaxAge: billing.PeriodRetention,
			})
		}

		return domain.NewUsageAccountant(calculator, store, events, domain.BillingOptions{
			UnitPrice:     billing.UnitPrice,
			TokensPerUnit: billing.TokensPerUnit,
			OriginalShare: billing.OriginalShare,
		})
	}); err != nil {
		log.Fatalf("Failed to provide usage accountant: %v", err)
	}

	// Pipeline
	if err := container.Provide(func(
		retriever *domain.RetrieverService,
		prompts *domain.PromptCompilerService,
		generator *domain.StreamingGenerator,
		post *domain.PostProcessor,
		verifier *domain.VerifierService,
		classifier *domain.ErrorClassifier,
		router domain.ModelRouter,
		accountant *domain.UsageAccountant,
		catalog *corpus.Catalog,
		instructions *domain.InstructionCache,
		events domain.EventPublisher,
		pipelineCfg *config.PipelineConfig,
		retrievalCfg *config.RetrievalConfig,
	) *domain.PipelineService {
		return domain.NewPipelineService(domain.PipelineDeps{
			Retriever:    retriever,
			Prompts:      prompts,
			Generator:    generator,
			Post:         post,
			Verifier:     verifier,
			Classifier:   classifier,
			Router:       router,
			Accountant:   accountant,
			Dialects:     catalog,
			Instructions: instructions,
			Events:       events,
		}, domain.PipelineOptions{
			MaxFixAttempts:     pipelineCfg.MaxFixAttempts,
			RetrievalK:         retrievalCfg.K,
			DefaultTemperature: pipelineCfg.Temperature,
			DefaultMaxTokens:   pipelineCfg.MaxTokens,
		})
	}); err != nil {
		log.Fatalf("Failed to provide pipeline: %v", err)
	}
}

func provideHTTP(container *dig.Container) {
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}
}
