package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	WebhookSecret string `envconfig:"WEBHOOK_SECRET" required:"true"`

	CatalogEndpoint string        `envconfig:"CATALOG_ENDPOINT" required:"true"`
	CatalogToken    string        `envconfig:"CATALOG_TOKEN" required:"true"`
	CatalogTimeout  time.Duration `envconfig:"CATALOG_TIMEOUT" default:"15s"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	SMTPHost string `envconfig:"SMTP_HOST" default:"127.0.0.1"`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	SMTPFrom string `envconfig:"SMTP_FROM" default:"no-reply@stockpilot.local"`

	AlertRecipients []string `envconfig:"ALERT_RECIPIENTS"`

	ReportCooldown time.Duration `envconfig:"REPORT_COOLDOWN" default:"4h"`
	SearchLimit    int           `envconfig:"SEARCH_LIMIT" default:"50"`
	ScanPageSize   int           `envconfig:"SCAN_PAGE_SIZE" default:"250"`

	StorefrontURL  string `envconfig:"STOREFRONT_URL" default:"http://127.0.0.1:3000"`
	FieldNamespace string `envconfig:"FIELD_NAMESPACE" default:"stockpilot"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("webhook secret must be provided")
	}
	if cfg.SearchLimit <= 0 {
		return nil, errors.New("search limit must be positive")
	}
	if cfg.ScanPageSize <= 0 {
		return nil, errors.New("scan page size must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
