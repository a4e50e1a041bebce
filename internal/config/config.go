package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/forge/internal/compiler"
	embeddinggemini "github.com/davidbz/forge/internal/embedding/gemini"
	embeddingopenai "github.com/davidbz/forge/internal/embedding/openai"
	"github.com/davidbz/forge/internal/provider/anthropic"
	"github.com/davidbz/forge/internal/provider/gemini"
	"github.com/davidbz/forge/internal/provider/openai"
	"github.com/davidbz/forge/internal/routing"
	"github.com/davidbz/forge/internal/speccompiler"
	"github.com/davidbz/forge/internal/vectorstore/weaviate"
)

// Retrieval backends.
const (
	BackendRedis    = "redis"
	BackendWeaviate = "weaviate"
)

// Config represents the service configuration.
type Config struct {
	Server       ServerConfig
	CORS         CORSConfig
	Features     FeaturesConfig
	OpenAI       openai.Config
	Anthropic    anthropic.Config
	Gemini       gemini.Config
	Embedding    EmbeddingConfig
	Redis        RedisConfig
	Weaviate     weaviate.Config
	Retrieval    RetrievalConfig
	SpecCompiler speccompiler.Config
	Compiler     compiler.Config
	Routing      routing.TierConfig
	Pipeline     PipelineConfig
	Billing      BillingConfig
	Analytics    AnalyticsConfig
	Corpus       CorpusConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"300"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization,X-Account-Id,X-Request-Id"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// FeaturesConfig toggles optional pipeline behavior.
type FeaturesConfig struct {
	VectorSearch    bool `env:"FEATURE_VECTOR_SEARCH"   envDefault:"true"`
	HybridSearch    bool `env:"FEATURE_HYBRID_SEARCH"   envDefault:"true"`
	SpecCompiler    bool `env:"FEATURE_SPEC_COMPILER"   envDefault:"false"`
	LegacyFallback  bool `env:"FEATURE_LEGACY_FALLBACK" envDefault:"true"`
	Analytics       bool `env:"FEATURE_ANALYTICS"       envDefault:"false"`
	UsageStore      bool `env:"FEATURE_USAGE_STORE"     envDefault:"true"`
	SeedExamples    bool `env:"FEATURE_SEED_EXAMPLES"   envDefault:"false"`
	CompilerGrammar bool `env:"FEATURE_COMPILER_GRAMMAR" envDefault:"false"`
}

// EmbeddingConfig selects and configures the embedding generator.
type EmbeddingConfig struct {
	Backend string `env:"EMBEDDING_BACKEND" envDefault:"openai"`
	OpenAI  embeddingopenai.Config
	Gemini  embeddinggemini.Config
}

// RedisConfig contains Redis connection and index settings.
type RedisConfig struct {
	URL           string `env:"REDIS_URL"            envDefault:"redis://localhost:6379/0"`
	ExampleIndex  string `env:"REDIS_EXAMPLE_INDEX"  envDefault:"idx:examples"`
	ExamplePrefix string `env:"REDIS_EXAMPLE_PREFIX" envDefault:"example:"`
}

// RetrievalConfig configures the similarity retriever.
type RetrievalConfig struct {
	Backend string        `env:"RETRIEVAL_BACKEND"       envDefault:"redis"`
	K       int           `env:"RETRIEVAL_K"             envDefault:"3"`
	Weight  float64       `env:"RETRIEVAL_HYBRID_WEIGHT" envDefault:"0.7"`
	Timeout time.Duration `env:"RETRIEVAL_TIMEOUT"       envDefault:"5s"`
}

// PipelineConfig configures generation and the repair loop.
type PipelineConfig struct {
	MaxFixAttempts   int     `env:"PIPELINE_MAX_FIX_ATTEMPTS"   envDefault:"2"`
	MaxContinuations int     `env:"PIPELINE_MAX_CONTINUATIONS"  envDefault:"10"`
	MaxTokens        int     `env:"PIPELINE_MAX_TOKENS"         envDefault:"4096"`
	Temperature      float64 `env:"PIPELINE_TEMPERATURE"        envDefault:"0.2"`
}

// BillingConfig configures usage accounting.
type BillingConfig struct {
	UnitPrice       float64       `env:"BILLING_UNIT_PRICE"       envDefault:"0.01"`
	TokensPerUnit   int           `env:"BILLING_TOKENS_PER_UNIT"  envDefault:"1000"`
	OriginalShare   float64       `env:"BILLING_ORIGINAL_SHARE"   envDefault:"0.7"`
	AuditStream     string        `env:"BILLING_AUDIT_STREAM"     envDefault:"usage:audit"`
	AuditMaxLen     int64         `env:"BILLING_AUDIT_MAX_LEN"    envDefault:"100000"`
	PeriodRetention time.Duration `env:"BILLING_PERIOD_RETENTION" envDefault:"2160h"`
}

// AnalyticsConfig configures the trace record stream.
type AnalyticsConfig struct {
	Stream string `env:"ANALYTICS_STREAM"  envDefault:"forge:events"`
	MaxLen int64  `env:"ANALYTICS_MAX_LEN" envDefault:"100000"`
}

// CorpusConfig points at an optional directory of dialect overlays.
type CorpusConfig struct {
	Dir string `env:"CORPUS_DIR"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out

	Server       *ServerConfig
	CORS         *CORSConfig
	Features     *FeaturesConfig
	OpenAI       *openai.Config
	Anthropic    *anthropic.Config
	Gemini       *gemini.Config
	Embedding    *EmbeddingConfig
	Redis        *RedisConfig
	Weaviate     *weaviate.Config
	Retrieval    *RetrievalConfig
	SpecCompiler *speccompiler.Config
	Compiler     *compiler.Config
	Routing      *routing.TierConfig
	Pipeline     *PipelineConfig
	Billing      *BillingConfig
	Analytics    *AnalyticsConfig
	Corpus       *CorpusConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Server:       &cfg.Server,
		CORS:         &cfg.CORS,
		Features:     &cfg.Features,
		OpenAI:       &cfg.OpenAI,
		Anthropic:    &cfg.Anthropic,
		Gemini:       &cfg.Gemini,
		Embedding:    &cfg.Embedding,
		Redis:        &cfg.Redis,
		Weaviate:     &cfg.Weaviate,
		Retrieval:    &cfg.Retrieval,
		SpecCompiler: &cfg.SpecCompiler,
		Compiler:     &cfg.Compiler,
		Routing:      &cfg.Routing,
		Pipeline:     &cfg.Pipeline,
		Billing:      &cfg.Billing,
		Analytics:    &cfg.Analytics,
		Corpus:       &cfg.Corpus,
	}
}
