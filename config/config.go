package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/yeremiapane/table-order/utils"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"4000"`
	GinMode string `env:"GIN_MODE" envDefault:"debug"`

	DBDriver string `env:"DB_DRIVER" envDefault:"mysql"`
	DBDSN    string `env:"DB_DSN" envDefault:"root:@tcp(127.0.0.1:3306)/table_order?charset=utf8mb4&parseTime=True&loc=Local"`

	AccessTokenSecret    string        `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret   string        `env:"REFRESH_TOKEN_SECRET"`
	AccessTokenTTL       time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN" envDefault:"15m"`
	RefreshTokenTTL      time.Duration `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"168h"`
	GuestAccessTokenTTL  time.Duration `env:"GUEST_ACCESS_TOKEN_EXPIRES_IN" envDefault:"15m"`
	GuestRefreshTokenTTL time.Duration `env:"GUEST_REFRESH_TOKEN_EXPIRES_IN" envDefault:"24h"`

	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`

	InitialOwnerEmail    string `env:"INITIAL_OWNER_EMAIL"`
	InitialOwnerPassword string `env:"INITIAL_OWNER_PASSWORD"`

	PayOSClientID        string        `env:"PAYOS_CLIENT_ID"`
	PayOSAPIKey          string        `env:"PAYOS_API_KEY"`
	PayOSChecksumKey     string        `env:"PAYOS_CHECKSUM_KEY"`
	PayOSBaseURL         string        `env:"PAYOS_BASE_URL" envDefault:"https://api-merchant.payos.vn"`
	PaymentLinkExpiresIn time.Duration `env:"PAYMENT_LINK_EXPIRES_IN" envDefault:"15m"`

	RabbitMQURL      string `env:"RABBITMQ_URL"`
	RabbitMQExchange string `env:"RABBITMQ_EXCHANGE" envDefault:"table_order_events"`

	RejectHiddenTableForGuest bool `env:"ORDER_REJECT_HIDDEN_TABLE_GUEST" envDefault:"true"`
	RejectHiddenTableForStaff bool `env:"ORDER_REJECT_HIDDEN_TABLE_STAFF" envDefault:"false"`

	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`
	RateLimitPerSecond   int           `env:"RATE_LIMIT_PER_SECOND" envDefault:"50"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found, using environment only")
	}
	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if c.GuestRefreshTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("refresh token lifetimes must be positive")
	}
	return nil
}
