package anthropic

// Config contains Anthropic provider configuration. HeaderTimeout (seconds)
// bounds the wait for response headers only; the event stream itself is
// bounded by the caller's context.
type Config struct {
	APIKey        string `env:"ANTHROPIC_API_KEY"`
	BaseURL       string `env:"ANTHROPIC_BASE_URL"       envDefault:"https://api.anthropic.com"`
	Version       string `env:"ANTHROPIC_VERSION"        envDefault:"2023-06-01"`
	HeaderTimeout int    `env:"ANTHROPIC_HEADER_TIMEOUT" envDefault:"60"`
	MaxTokens     int    `env:"ANTHROPIC_MAX_TOKENS"     envDefault:"8192"`
}
