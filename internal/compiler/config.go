package compiler

import "time"

// Config contains compiler service configuration.
type Config struct {
	URL           string        `env:"COMPILER_URL"           envDefault:"http://localhost:8090"`
	APIKey        string        `env:"COMPILER_API_KEY"`
	Timeout       time.Duration `env:"COMPILER_TIMEOUT"       envDefault:"30s"`
	PollInterval  time.Duration `env:"COMPILER_POLL_INTERVAL" envDefault:"500ms"`
	PollAttempts  int           `env:"COMPILER_POLL_ATTEMPTS" envDefault:"20"`
	FormatEnabled bool          `env:"COMPILER_FORMAT_ENABLED" envDefault:"false"`
}
