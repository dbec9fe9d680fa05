package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	WhatsApp      WhatsAppConfig
	Campaigns     CampaignConfig
	Cron          CronConfig
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
	Env          string `envconfig:"SAFETATT_APP_ENV" required:"true"`
	Port         string `envconfig:"SAFETATT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SAFETATT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SAFETATT_LOG_WARN_STACK" default:"false"`
	Timezone     string `envconfig:"SAFETATT_DEFAULT_TIMEZONE" default:"America/Sao_Paulo"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SAFETATT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SAFETATT_DB_DSN"`
	Driver string `envconfig:"SAFETATT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SAFETATT_DB_HOST"`
	LegacyPort     int    `envconfig:"SAFETATT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SAFETATT_DB_USER"`
	LegacyPassword string `envconfig:"SAFETATT_DB_PASSWORD"`
	LegacyName     string `envconfig:"SAFETATT_DB_NAME"`
	LegacySSLMode  string `envconfig:"SAFETATT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SAFETATT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SAFETATT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SAFETATT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SAFETATT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SAFETATT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SAFETATT_REDIS_ADDR"`
	Password     string        `envconfig:"SAFETATT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SAFETATT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SAFETATT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SAFETATT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SAFETATT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SAFETATT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SAFETATT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SAFETATT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SAFETATT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SAFETATT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SAFETATT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SAFETATT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SAFETATT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SAFETATT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SAFETATT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SAFETATT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SAFETATT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SAFETATT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SAFETATT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SAFETATT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SAFETATT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SAFETATT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SAFETATT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SAFETATT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SAFETATT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"SAFETATT_GCS_BUCKET_NAME"`
	DownloadURLExpiry time.Duration `envconfig:"SAFETATT_GCS_DOWNLOAD_URL_EXPIRY" default:"15m"`
}

type PubSubConfig struct {
	CampaignTopic        string `envconfig:"SAFETATT_PUBSUB_CAMPAIGN_TOPIC" default:"st-campaign-dispatch"`
	CampaignSubscription string `envconfig:"SAFETATT_PUBSUB_CAMPAIGN_SUBSCRIPTION" required:"true"`
}

type WhatsAppConfig struct {
	BaseURL string        `envconfig:"SAFETATT_WHATSAPP_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"SAFETATT_WHATSAPP_API_KEY" required:"true"`
	Timeout time.Duration `envconfig:"SAFETATT_WHATSAPP_TIMEOUT" default:"30s"`
}

type CampaignConfig struct {
	MinSendDelay     time.Duration `envconfig:"SAFETATT_CAMPAIGN_MIN_SEND_DELAY" default:"1s"`
	MaxSendDelay     time.Duration `envconfig:"SAFETATT_CAMPAIGN_MAX_SEND_DELAY" default:"45s"`
	MessageRetention time.Duration `envconfig:"SAFETATT_CAMPAIGN_MESSAGE_RETENTION" default:"2160h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"SAFETATT_CRON_INTERVAL" default:"1h"`
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
