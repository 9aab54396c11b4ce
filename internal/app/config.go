package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/kart-checkout/internal/payment/stripe"
)

// Payment providers accepted in PaymentConfig.Provider.
const (
	ProviderSandbox = "sandbox"
	ProviderStripe  = "stripe"
)

// Config holds the complete application configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL; orders are kept in memory when empty" flag:"database-url"`
	Payment     PaymentConfig
	SMTP        SMTPConfig
	Graceful    GracefulConfig
}

// PaymentConfig selects and configures the payment gateway.
type PaymentConfig struct {
	Provider       string   `default:"sandbox" usage:"Payment provider: sandbox or stripe"`
	StripeKey      string   `usage:"Stripe secret key" flag:"stripe-key"`
	StripeURL      string   `usage:"Override Stripe API URL (stripe-mock)" flag:"stripe-url"`
	Currency       string   `default:"usd" usage:"ISO currency code for charges"`
	BlocklistFiles []string `usage:"Gzip files of blocked payment instruments" flag:"blocklist-files"`
}

// SMTPConfig configures confirmation email delivery. Emails are only logged
// when Host is empty.
type SMTPConfig struct {
	Host     string `usage:"SMTP relay host"`
	Port     string `default:"587" usage:"SMTP relay port"`
	Username string `usage:"SMTP username"`
	Password string `usage:"SMTP password"`
	From     string `usage:"Sender address (defaults to username)"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, flags and YAML
// files, then applies platform defaults and validates the result.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CHECKOUT",
		Files:     []string{"config.yaml", "/etc/checkout/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Payment.Provider {
	case ProviderSandbox:
	case ProviderStripe:
		if c.Payment.StripeKey == "" {
			return errors.New("stripe key is required: set CHECKOUT_PAYMENT_STRIPE_KEY")
		}
		if err := stripe.ValidateCurrency(c.Payment.Currency); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown payment provider %q", c.Payment.Provider)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided DATABASE_URL and PORT to the
// CHECKOUT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
