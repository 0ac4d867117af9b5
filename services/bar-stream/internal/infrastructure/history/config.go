package history

import "time"

// Config configures the upstream history provider.
type Config struct {
	Enabled    bool          `env:"ENABLED" envDefault:"false"`
	BaseURL    string        `env:"BASE_URL"`
	APIKey     string        `env:"API_KEY"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"4s"`
	RetryCount int           `env:"RETRY_COUNT" envDefault:"2"`
	// Intervals upstream can serve history for.
	Intervals []string `env:"INTERVALS" envSeparator:"," envDefault:"1m,3m,5m,15m,30m,1d,1w"`
}
