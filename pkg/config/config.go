package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Fees         FeesConfig
	Loyalty      LoyaltyConfig
	Platform     PlatformConfig
	Square       SquareConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Fees.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HAVENTRIP_APP_ENV" required:"true"`
	Port         string `envconfig:"HAVENTRIP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HAVENTRIP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HAVENTRIP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HAVENTRIP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HAVENTRIP_DB_DSN"`
	Driver string `envconfig:"HAVENTRIP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HAVENTRIP_DB_HOST"`
	LegacyPort     int    `envconfig:"HAVENTRIP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HAVENTRIP_DB_USER"`
	LegacyPassword string `envconfig:"HAVENTRIP_DB_PASSWORD"`
	LegacyName     string `envconfig:"HAVENTRIP_DB_NAME"`
	LegacySSLMode  string `envconfig:"HAVENTRIP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HAVENTRIP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HAVENTRIP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HAVENTRIP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HAVENTRIP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HAVENTRIP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HAVENTRIP_REDIS_ADDR"`
	Password     string        `envconfig:"HAVENTRIP_REDIS_PASSWORD"`
	DB           int           `envconfig:"HAVENTRIP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HAVENTRIP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HAVENTRIP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HAVENTRIP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HAVENTRIP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HAVENTRIP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HAVENTRIP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HAVENTRIP_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"HAVENTRIP_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	PromoCacheTTL        time.Duration `envconfig:"HAVENTRIP_PROMO_CACHE_TTL" default:"10m"`
}

// FeesConfig holds the marketplace service-fee rates in basis points,
// keyed by listing category.
type FeesConfig struct {
	StayRateBps       int `envconfig:"HAVENTRIP_FEE_STAY_BPS" default:"1000"`
	ExperienceRateBps int `envconfig:"HAVENTRIP_FEE_EXPERIENCE_BPS" default:"2000"`
	ServiceRateBps    int `envconfig:"HAVENTRIP_FEE_SERVICE_BPS" default:"1200"`
}

func (f FeesConfig) validate() error {
	for name, bps := range map[string]int{
		"stay":       f.StayRateBps,
		"experience": f.ExperienceRateBps,
		"service":    f.ServiceRateBps,
	} {
		if bps < 0 || bps > 10000 {
			return fmt.Errorf("fee rate for %s out of range: %d bps", name, bps)
		}
	}
	return nil
}

type LoyaltyConfig struct {
	GuestPointsPerBooking int64 `envconfig:"HAVENTRIP_LOYALTY_GUEST_POINTS" default:"50"`
	HostPointsPerBooking  int64 `envconfig:"HAVENTRIP_LOYALTY_HOST_POINTS" default:"100"`
}

type PlatformConfig struct {
	AccountID string `envconfig:"HAVENTRIP_PLATFORM_ACCOUNT_ID" default:"platform"`
	Currency  string `envconfig:"HAVENTRIP_PLATFORM_CURRENCY" default:"PHP"`
}

// OwnerID resolves the platform ledger owner. Deployments may set a literal
// UUID; any other value derives a stable one so every environment agrees on
// the singleton platform account.
func (p PlatformConfig) OwnerID() uuid.UUID {
	if parsed, err := uuid.Parse(p.AccountID); err == nil {
		return parsed
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("haventrip:"+p.AccountID))
}

type SquareConfig struct {
	AccessToken   string `envconfig:"HAVENTRIP_SQUARE_ACCESS_TOKEN"`
	LocationID    string `envconfig:"HAVENTRIP_SQUARE_LOCATION_ID"`
	WebhookSecret string `envconfig:"HAVENTRIP_SQUARE_WEBHOOK_SECRET"`
	Env           string `envconfig:"HAVENTRIP_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HAVENTRIP_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"HAVENTRIP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HAVENTRIP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	BookingsTopic            string `envconfig:"HAVENTRIP_PUBSUB_BOOKINGS_TOPIC" required:"true"`
	BookingsSubscription     string `envconfig:"HAVENTRIP_PUBSUB_BOOKINGS_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"HAVENTRIP_PUBSUB_NOTIFICATION_TOPIC" default:"ht-notification-events"`
	NotificationSubscription string `envconfig:"HAVENTRIP_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HAVENTRIP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HAVENTRIP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HAVENTRIP_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type RateLimitConfig struct {
	BookingWindow     time.Duration `envconfig:"HAVENTRIP_RATE_LIMIT_BOOKING_WINDOW" default:"1m"`
	BookingGuestLimit int           `envconfig:"HAVENTRIP_RATE_LIMIT_BOOKING_GUEST_LIMIT" default:"10"`
	QuoteWindow       time.Duration `envconfig:"HAVENTRIP_RATE_LIMIT_QUOTE_WINDOW" default:"1m"`
	QuoteIPLimit      int           `envconfig:"HAVENTRIP_RATE_LIMIT_QUOTE_IP_LIMIT" default:"60"`
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
