package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database
	BaseURL     string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`
	SeedCatalog bool   `env:"SEED_CATALOG" envDefault:"false"`

	Stripe   Stripe   `envPrefix:"STRIPE_"`
	Checkout Checkout `envPrefix:"CHECKOUT_"`
}

type Stripe struct {
	SecretKey string `env:"SECRET_KEY,required,notEmpty"`
	// empty is tolerated at startup; the webhook answers 500 until it is set
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type Checkout struct {
	EnablePromoCodes bool          `env:"ENABLE_PROMO_CODES" envDefault:"false"`
	AllowedCountries []string      `env:"ALLOWED_COUNTRIES" envSeparator:"," envDefault:"US,CA,HK"`
	RateLimitMax     int           `env:"RATE_LIMIT_MAX" envDefault:"10"`
	RateLimitWindow  time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitSweep   time.Duration `env:"RATE_LIMIT_SWEEP" envDefault:"5m"`
}

type Database struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite"` // mysql, sqlite
	URL    string `env:"DATABASE_URL" envDefault:"storefront.db"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

func (h HTTPServer) Address() string {
	return h.Host + ":" + h.Port
}

// Load reads an optional .env file into the process environment and parses it.
func Load(envFiles ...string) (*Config, error) {
	// missing .env is fine in prod
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Checkout.RateLimitMax <= 0 {
		return nil, fmt.Errorf("CHECKOUT_RATE_LIMIT_MAX must be positive, got %d", cfg.Checkout.RateLimitMax)
	}
	if cfg.Checkout.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("CHECKOUT_RATE_LIMIT_WINDOW must be positive, got %s", cfg.Checkout.RateLimitWindow)
	}

	return cfg, nil
}

// LoadDatabase parses only the database settings, for tools that never talk
// to the payment provider.
func LoadDatabase(envFiles ...string) (*Database, error) {
	_ = godotenv.Load(envFiles...)

	db := &Database{}
	if err := env.Parse(db); err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	return db, nil
}
