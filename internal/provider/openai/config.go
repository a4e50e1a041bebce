package openai

// Config contains OpenAI provider configuration.
// HeaderTimeout (seconds) bounds the wait for response headers only; a
// healthy stream is never cut off by it. ExtraModels are served in addition
// to the built-in families, e.g. fine-tuned "ft:" models.
type Config struct {
	APIKey        string   `env:"OPENAI_API_KEY"`
	BaseURL       string   `env:"OPENAI_BASE_URL"      envDefault:"https://api.openai.com/v1"`
	Organization  string   `env:"OPENAI_ORGANIZATION"`
	HeaderTimeout int      `env:"OPENAI_HEADER_TIMEOUT" envDefault:"60"`
	MaxRetries    int      `env:"OPENAI_MAX_RETRIES"   envDefault:"3"`
	ExtraModels   []string `env:"OPENAI_EXTRA_MODELS"  envSeparator:","`
}
