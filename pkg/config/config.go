package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is empty because every field spells out its full variable name.
	EnvPrefix = ""

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
	Cart          CartConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"MARKETMASTER_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETMASTER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MARKETMASTER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETMASTER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETMASTER_DB_DSN"`
	Driver string `envconfig:"MARKETMASTER_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MARKETMASTER_DB_HOST"`
	Port     int    `envconfig:"MARKETMASTER_DB_PORT" default:"5432"`
	User     string `envconfig:"MARKETMASTER_DB_USER"`
	Password string `envconfig:"MARKETMASTER_DB_PASSWORD"`
	Name     string `envconfig:"MARKETMASTER_DB_NAME"`
	SSLMode  string `envconfig:"MARKETMASTER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETMASTER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETMASTER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETMASTER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETMASTER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a DSN from the discrete host fields when one was not
// provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either MARKETMASTER_DB_DSN or host/user/name fields are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETMASTER_REDIS_URL"`
	Address      string        `envconfig:"MARKETMASTER_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETMASTER_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETMASTER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETMASTER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETMASTER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETMASTER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETMASTER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETMASTER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MARKETMASTER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MARKETMASTER_JWT_ISSUER" default:"marketmaster"`
	ExpirationMinutes      int    `envconfig:"MARKETMASTER_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"MARKETMASTER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MARKETMASTER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MARKETMASTER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MARKETMASTER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MARKETMASTER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MARKETMASTER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MARKETMASTER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MARKETMASTER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MARKETMASTER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MARKETMASTER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MARKETMASTER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MARKETMASTER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// CartConfig bounds the server-side cart keyspace. The browser original kept
// carts in localStorage forever; Redis slots get a TTL instead.
type CartConfig struct {
	SlotTTL time.Duration `envconfig:"MARKETMASTER_CART_SLOT_TTL" default:"720h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"MARKETMASTER_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKETMASTER_AUTO_MIGRATE" default:"false"`
}
