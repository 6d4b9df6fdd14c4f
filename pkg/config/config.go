package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	FeatureFlags  FeatureFlagsConfig
	Commerce      CommerceConfig
	Notifications NotificationsConfig
	Idempotency   IdempotencyConfig
	HTTP          HTTPConfig
	Cron          CronConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Commerce.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Notifications.validate(cfg.GCP); err != nil {
		return nil, err
	}
	if err := cfg.JWT.validate(cfg.App); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HARVESTLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"HARVESTLINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HARVESTLINK_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"HARVESTLINK_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"HARVESTLINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HARVESTLINK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HARVESTLINK_DB_DSN"`
	Driver string `envconfig:"HARVESTLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HARVESTLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"HARVESTLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HARVESTLINK_DB_USER"`
	LegacyPassword string `envconfig:"HARVESTLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"HARVESTLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"HARVESTLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HARVESTLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HARVESTLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HARVESTLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HARVESTLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// TxMaxAttempts bounds how often a deadlocked or serialization-failed transaction is retried.
	TxMaxAttempts      int           `envconfig:"HARVESTLINK_DB_TX_MAX_ATTEMPTS" default:"3"`
	SlowQueryThreshold time.Duration `envconfig:"HARVESTLINK_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HARVESTLINK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HARVESTLINK_REDIS_ADDR"`
	Password     string        `envconfig:"HARVESTLINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"HARVESTLINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HARVESTLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HARVESTLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HARVESTLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HARVESTLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HARVESTLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"HARVESTLINK_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"HARVESTLINK_JWT_ISSUER" required:"true"`
	// ExpirationMinutes bounds tokens minted by MintAccessToken.
	ExpirationMinutes int `envconfig:"HARVESTLINK_JWT_EXPIRATION_MINUTES" default:"60"`
	// Leeway absorbs clock skew between the issuer and this service.
	Leeway time.Duration `envconfig:"HARVESTLINK_JWT_LEEWAY" default:"30s"`
}

// minProdSecretBytes is the HS256 key floor enforced outside dev.
const minProdSecretBytes = 32

func (j JWTConfig) validate(app AppConfig) error {
	if app.IsProd() && len(j.Secret) < minProdSecretBytes {
		return fmt.Errorf("%s must be at least %d bytes in %s", EnvJWTSecret, minProdSecretBytes, AppEnvProd)
	}
	return nil
}

// CronConfig drives the maintenance worker.
type CronConfig struct {
	Interval          time.Duration `envconfig:"HARVESTLINK_CRON_INTERVAL" default:"15m"`
	LockKey           string        `envconfig:"HARVESTLINK_CRON_LOCK_KEY" default:"harvestlink:cron:lock"`
	LockTTL           time.Duration `envconfig:"HARVESTLINK_CRON_LOCK_TTL" default:"10m"`
	PendingOrderTTL   time.Duration `envconfig:"HARVESTLINK_CRON_PENDING_ORDER_TTL" default:"72h"`
	ExpiryBatchSize   int           `envconfig:"HARVESTLINK_CRON_EXPIRY_BATCH" default:"100"`
	CleanupBatch      int           `envconfig:"HARVESTLINK_CRON_CLEANUP_BATCH" default:"500"`
	CleanupMaxBatches int           `envconfig:"HARVESTLINK_CRON_CLEANUP_MAX_BATCHES" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HARVESTLINK_AUTO_MIGRATE" default:"false"`
}

// CommerceConfig carries marketplace pricing knobs.
type CommerceConfig struct {
	DeliveryFee string `envconfig:"HARVESTLINK_COMMERCE_DELIVERY_FEE" default:"0"`
}

// DeliveryFeeAmount parses DeliveryFee. Load rejects values that do not parse.
func (c CommerceConfig) DeliveryFeeAmount() decimal.Decimal {
	fee, err := decimal.NewFromString(strings.TrimSpace(c.DeliveryFee))
	if err != nil {
		return decimal.Zero
	}
	return fee
}

func (c CommerceConfig) validate() error {
	fee, err := decimal.NewFromString(strings.TrimSpace(c.DeliveryFee))
	if err != nil {
		return fmt.Errorf("%s must be a decimal amount: %w", EnvCommerceDeliveryFee, err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvCommerceDeliveryFee)
	}
	return nil
}

type NotificationsConfig struct {
	RealtimeChannelPrefix string `envconfig:"HARVESTLINK_NOTIFICATIONS_CHANNEL_PREFIX" default:"notifications"`
	BroadcastChannel      string `envconfig:"HARVESTLINK_NOTIFICATIONS_BROADCAST_CHANNEL" default:"notifications:broadcast"`
	// Sinks is a comma separated subset of store,realtime,pubsub.
	Sinks      []string `envconfig:"HARVESTLINK_NOTIFICATIONS_SINKS" default:"store,realtime"`
	InboxLimit int      `envconfig:"HARVESTLINK_NOTIFICATIONS_INBOX_LIMIT" default:"50"`
	// Retention is how long read notifications are kept before cleanup.
	Retention time.Duration `envconfig:"HARVESTLINK_NOTIFICATIONS_RETENTION" default:"720h"`
}

// SinkEnabled reports whether the named sink is configured.
func (n NotificationsConfig) SinkEnabled(name string) bool {
	for _, sink := range n.Sinks {
		if strings.EqualFold(strings.TrimSpace(sink), name) {
			return true
		}
	}
	return false
}

func (n NotificationsConfig) validate(gcp GCPConfig) error {
	for _, sink := range n.Sinks {
		switch strings.ToLower(strings.TrimSpace(sink)) {
		case SinkStore, SinkRealtime:
		case SinkPubSub:
			if gcp.ProjectID == "" {
				return fmt.Errorf("%s is required when the %s sink is enabled", EnvGCPProjectID, SinkPubSub)
			}
		default:
			return fmt.Errorf("unknown notification sink %q", sink)
		}
	}
	return nil
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"HARVESTLINK_IDEMPOTENCY_TTL" default:"24h"`
	// CriticalTTL covers routes that move money or stock.
	CriticalTTL time.Duration `envconfig:"HARVESTLINK_IDEMPOTENCY_CRITICAL_TTL" default:"168h"`
}

type HTTPConfig struct {
	CORSOrigins     []string      `envconfig:"HARVESTLINK_HTTP_CORS_ORIGINS" default:"http://localhost:3000"`
	WriteRateLimit  int           `envconfig:"HARVESTLINK_HTTP_WRITE_RATE_LIMIT" default:"60"`
	WriteRateWindow time.Duration `envconfig:"HARVESTLINK_HTTP_WRITE_RATE_WINDOW" default:"1m"`
	ShutdownTimeout time.Duration `envconfig:"HARVESTLINK_HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HARVESTLINK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"HARVESTLINK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HARVESTLINK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	CommerceTopic string `envconfig:"HARVESTLINK_PUBSUB_COMMERCE_TOPIC" default:"harvestlink-commerce-events"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
