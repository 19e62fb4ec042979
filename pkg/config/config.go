package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied by envconfig on top of the per-field tags.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Backend      BackendConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	MercadoPago  MercadoPagoConfig
	Confirmation ConfirmationConfig
	Pricing      PricingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Confirmation.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOLETERA_APP_ENV" required:"true"`
	Port         string `envconfig:"BOLETERA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOLETERA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOLETERA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points at the ticketing REST backend that owns pricing,
// purchases, and auth. The gateway only consumes its bearer token.
type BackendConfig struct {
	BaseURL      string        `envconfig:"BOLETERA_BACKEND_BASE_URL" required:"true"`
	ServiceToken string        `envconfig:"BOLETERA_BACKEND_SERVICE_TOKEN" required:"true"`
	Timeout      time.Duration `envconfig:"BOLETERA_BACKEND_TIMEOUT" default:"10s"`
	VerifyExpiry bool          `envconfig:"BOLETERA_BACKEND_VERIFY_TOKEN_EXPIRY" default:"true"`
}

type DBConfig struct {
	DSN    string `envconfig:"BOLETERA_DB_DSN"`
	Driver string `envconfig:"BOLETERA_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"BOLETERA_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"BOLETERA_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"BOLETERA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOLETERA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOLETERA_REDIS_URL"`
	Address      string        `envconfig:"BOLETERA_REDIS_ADDR"`
	Password     string        `envconfig:"BOLETERA_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOLETERA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOLETERA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOLETERA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOLETERA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOLETERA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOLETERA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"BOLETERA_STRIPE_API_KEY"`
	Env    string `envconfig:"BOLETERA_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type MercadoPagoConfig struct {
	AccessToken string `envconfig:"BOLETERA_MERCADOPAGO_ACCESS_TOKEN"`
	BaseURL     string `envconfig:"BOLETERA_MERCADOPAGO_BASE_URL" default:"https://api.mercadopago.com"`
}

// ConfirmationConfig is the resolver's retry policy. The defaults (4 total
// attempts spaced 3s apart) bound the settlement-latency window; both knobs
// are tunable because provider latency varies by region.
type ConfirmationConfig struct {
	Attempts   int           `envconfig:"BOLETERA_CONFIRMATION_ATTEMPTS" default:"4"`
	RetryDelay time.Duration `envconfig:"BOLETERA_CONFIRMATION_RETRY_DELAY" default:"3s"`
}

func (c ConfirmationConfig) validate() error {
	if c.Attempts < 1 {
		return fmt.Errorf("BOLETERA_CONFIRMATION_ATTEMPTS must be >= 1, got %d", c.Attempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("BOLETERA_CONFIRMATION_RETRY_DELAY must not be negative, got %s", c.RetryDelay)
	}
	return nil
}

type PricingConfig struct {
	ConstantsTTL time.Duration `envconfig:"BOLETERA_PRICING_CONSTANTS_TTL" default:"10m"`
}
