package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every environment-driven setting. Integration credentials are
// optional: an absent credential leaves its adapter unconfigured rather than
// failing startup.
type Config struct {
	Environment  string `mapstructure:"APP_ENV"`
	ServerPort   string `mapstructure:"SERVER_PORT"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`

	// Feature flags.
	MasterLoginEnabled bool `mapstructure:"MASTER_LOGIN_ENABLED"`
	DemoModeEnabled    bool `mapstructure:"DEMO_MODE_ENABLED"`
	RateLimitEnabled   bool `mapstructure:"RATE_LIMIT_ENABLED"`

	// Master test account (only honored when MasterLoginEnabled).
	MasterEmail        string `mapstructure:"MASTER_EMAIL"`
	MasterPasswordHash string `mapstructure:"MASTER_PASSWORD_HASH"`

	// Rate limiting.
	RateLimitMax       int `mapstructure:"RATE_LIMIT_MAX"`
	RateLimitWindowSec int `mapstructure:"RATE_LIMIT_WINDOW_SEC"`

	// Payments (Stripe hosted checkout).
	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// CRM sync.
	CRMBaseURL string `mapstructure:"CRM_BASE_URL"`
	CRMToken   string `mapstructure:"CRM_TOKEN"`

	// Maps / distance lookups.
	MapsAPIKey string `mapstructure:"MAPS_API_KEY"`

	// Web push (VAPID).
	VAPIDPublicKey  string `mapstructure:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `mapstructure:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `mapstructure:"VAPID_SUBSCRIBER"`

	// Outbound automation webhook.
	AutomationWebhookURL string `mapstructure:"AUTOMATION_WEBHOOK_URL"`

	// Email (AWS SESv2).
	AWSRegion string `mapstructure:"AWS_REGION"`
	EmailFrom string `mapstructure:"EMAIL_FROM"`
}

// LoadConfig reads configuration from a .env file in the given path and from
// the process environment; environment variables win.
func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing .env file is fine in containerized deployments.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config.LoadConfig: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config.LoadConfig: unmarshal: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config.LoadConfig: DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config.LoadConfig: JWT_SECRET is required")
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CLIENT_ORIGIN", "http://localhost:5173")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("RATE_LIMIT_MAX", 30)
	viper.SetDefault("RATE_LIMIT_WINDOW_SEC", 60)
	viper.SetDefault("AWS_REGION", "us-east-1")
}

// Development reports whether the app runs with unredacted error output.
func (c *Config) Development() bool {
	return c.Environment == "development"
}

// IntegrationStatus reports which external integrations have credentials
// present. Booleans only; exposed by the config health endpoint.
type IntegrationStatus struct {
	Payments   bool `json:"payments"`
	CRM        bool `json:"crm"`
	Maps       bool `json:"maps"`
	Push       bool `json:"push"`
	Email      bool `json:"email"`
	Automation bool `json:"automation"`
}

// Integrations summarizes credential presence per integration.
func (c *Config) Integrations() IntegrationStatus {
	return IntegrationStatus{
		Payments:   c.StripeSecretKey != "",
		CRM:        c.CRMBaseURL != "" && c.CRMToken != "",
		Maps:       c.MapsAPIKey != "",
		Push:       c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != "",
		Email:      c.EmailFrom != "",
		Automation: c.AutomationWebhookURL != "",
	}
}
