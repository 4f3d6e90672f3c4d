package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "floragems"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Admin         AdminConfig
	Google        GoogleConfig
	Stripe        StripeConfig
	SMTP          SMTPConfig
	Checkout      CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"FLORAGEMS_APP_ENV" required:"true"`
	Port         string   `envconfig:"FLORAGEMS_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"FLORAGEMS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"FLORAGEMS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"FLORAGEMS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"FLORAGEMS_DB_DSN"`

	Host     string `envconfig:"FLORAGEMS_DB_HOST"`
	Port     int    `envconfig:"FLORAGEMS_DB_PORT" default:"5432"`
	User     string `envconfig:"FLORAGEMS_DB_USER"`
	Password string `envconfig:"FLORAGEMS_DB_PASSWORD"`
	Name     string `envconfig:"FLORAGEMS_DB_NAME"`
	SSLMode  string `envconfig:"FLORAGEMS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLORAGEMS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLORAGEMS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLORAGEMS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLORAGEMS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for env, value := range map[string]string{
		"FLORAGEMS_DB_HOST": db.Host,
		"FLORAGEMS_DB_USER": db.User,
		"FLORAGEMS_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either FLORAGEMS_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	db.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(db.User),
		url.QueryEscape(db.Password),
		db.Host,
		db.Port,
		db.Name,
		db.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"FLORAGEMS_REDIS_URL"`
	Address      string        `envconfig:"FLORAGEMS_REDIS_ADDR"`
	Password     string        `envconfig:"FLORAGEMS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLORAGEMS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLORAGEMS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLORAGEMS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLORAGEMS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLORAGEMS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLORAGEMS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FLORAGEMS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FLORAGEMS_JWT_ISSUER" default:"floragems"`
	ExpirationMinutes int    `envconfig:"FLORAGEMS_JWT_EXPIRATION_MINUTES" default:"10080"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FLORAGEMS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FLORAGEMS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FLORAGEMS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FLORAGEMS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FLORAGEMS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FLORAGEMS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FLORAGEMS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FLORAGEMS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FLORAGEMS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FLORAGEMS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FLORAGEMS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FLORAGEMS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FLORAGEMS_AUTO_MIGRATE" default:"false"`
}

// AdminConfig holds the fixed back-office credentials.
type AdminConfig struct {
	Email    string `envconfig:"FLORAGEMS_ADMIN_EMAIL"`
	Password string `envconfig:"FLORAGEMS_ADMIN_PASSWORD"`
}

type GoogleConfig struct {
	ClientID string `envconfig:"FLORAGEMS_GOOGLE_CLIENT_ID"`
}

type StripeConfig struct {
	APIKey string `envconfig:"FLORAGEMS_STRIPE_API_KEY"`
	Env    string `envconfig:"FLORAGEMS_STRIPE_ENV" default:"test"`
}

func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SMTPConfig struct {
	Host     string `envconfig:"FLORAGEMS_SMTP_HOST"`
	Port     int    `envconfig:"FLORAGEMS_SMTP_PORT" default:"587"`
	Username string `envconfig:"FLORAGEMS_SMTP_USERNAME"`
	Password string `envconfig:"FLORAGEMS_SMTP_PASSWORD"`
	From     string `envconfig:"FLORAGEMS_SMTP_FROM"`
}

// CheckoutConfig drives the hosted-checkout session the API creates for card payments.
type CheckoutConfig struct {
	Currency       string `envconfig:"FLORAGEMS_CHECKOUT_CURRENCY" default:"usd"`
	DeliveryFee    int64  `envconfig:"FLORAGEMS_CHECKOUT_DELIVERY_FEE_MINOR" default:"1000"`
	FrontendOrigin string `envconfig:"FLORAGEMS_CHECKOUT_FRONTEND_ORIGIN" default:"http://localhost:5173"`
}
