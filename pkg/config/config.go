package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Orders        OrdersConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

// Load reads the FIELDSERVICE_* environment. Every semantic problem is
// reported at once rather than one per restart.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	err := multierr.Combine(
		cfg.DB.resolveDSN(),
		cfg.JWT.validate(),
		cfg.Orders.validate(),
		cfg.Outbox.validate(),
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"FIELDSERVICE_APP_ENV" required:"true"`
	Port         string   `envconfig:"FIELDSERVICE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"FIELDSERVICE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"FIELDSERVICE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"FIELDSERVICE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FIELDSERVICE_SERVICE_KIND" default:"api"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FIELDSERVICE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FIELDSERVICE_REDIS_ADDR"`
	Password     string        `envconfig:"FIELDSERVICE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FIELDSERVICE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FIELDSERVICE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FIELDSERVICE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FIELDSERVICE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FIELDSERVICE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FIELDSERVICE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FIELDSERVICE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FIELDSERVICE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FIELDSERVICE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"FIELDSERVICE_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

func (j JWTConfig) validate() error {
	if j.ExpirationMinutes <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	return nil
}

// RefreshTokenTTL is zero when refresh tokens should not expire.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FIELDSERVICE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FIELDSERVICE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FIELDSERVICE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FIELDSERVICE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FIELDSERVICE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"FIELDSERVICE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"FIELDSERVICE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"FIELDSERVICE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FIELDSERVICE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FIELDSERVICE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"FIELDSERVICE_IDEMPOTENCY_TTL" default:"24h"`
}

// OrdersConfig tunes service order code minting and listing.
type OrdersConfig struct {
	CodeStrategy string `envconfig:"FIELDSERVICE_ORDER_CODE_STRATEGY" default:"sequence"`
	ListMaxLimit int    `envconfig:"FIELDSERVICE_ORDER_LIST_MAX_LIMIT" default:"200"`
}

func (o OrdersConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(o.CodeStrategy)) {
	case OrderCodeStrategySequence, OrderCodeStrategyCount:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvOrderCodeStrategy, OrderCodeStrategySequence, OrderCodeStrategyCount)
	}
	if o.ListMaxLimit <= 0 {
		return fmt.Errorf("%s must be positive", EnvOrderListMaxLimit)
	}
	return nil
}

// Strategy returns the normalized code strategy.
func (o OrdersConfig) Strategy() string {
	return strings.ToLower(strings.TrimSpace(o.CodeStrategy))
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FIELDSERVICE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FIELDSERVICE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FIELDSERVICE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ServiceOrdersTopic string `envconfig:"FIELDSERVICE_PUBSUB_SERVICE_ORDERS_TOPIC" default:"fs-service-order-events"`
	DeadLetterTopic    string `envconfig:"FIELDSERVICE_PUBSUB_DEAD_LETTER_TOPIC"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FIELDSERVICE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FIELDSERVICE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FIELDSERVICE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"FIELDSERVICE_OUTBOX_RETENTION_DAYS" default:"30"`
}

func (o OutboxConfig) validate() error {
	if o.MaxAttempts <= 0 {
		return fmt.Errorf("%s must be positive", EnvOutboxMaxAttempts)
	}
	return nil
}

type CronConfig struct {
	Interval time.Duration `envconfig:"FIELDSERVICE_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"FIELDSERVICE_CRON_LOCK_TTL" default:"30m"`
}
