package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Token formats
const (
	TokenJWT    = "jwt"
	TokenPaseto = "paseto"
)

// Password hashing algorithms
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// Rate limit backends
const (
	RateLimitRedis  = "redis"
	RateLimitMemory = "memory"
	RateLimitOff    = "off"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	GRPCPort        string        `env:"GRPC_PORT" envDefault:"50051"`
	Env             string        `env:"APP_ENV" envDefault:"dev"` // dev or prod
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	TrustedOrigins  []string      `env:"TRUSTED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	// TrustedProxies lists the CIDRs (e.g. 10.0.0.0/8,127.0.0.1/32) whose
	// X-Forwarded-For and X-Real-IP headers are believed. Empty means none.
	TrustedProxies []netip.Prefix `env:"TRUSTED_PROXIES" envSeparator:","`
}

type StoreConfig struct {
	Driver      string `env:"USER_STORE" envDefault:"mongo"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	// ConnectTimeout bounds the startup Connect call of either store
	ConnectTimeout time.Duration `env:"STORE_CONNECT_TIMEOUT" envDefault:"10s"`
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DATABASE" envDefault:"auth"`
	Collection     string        `env:"MONGO_COLLECTION" envDefault:"users"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`
}

type DatabaseConfig struct {
	Host           string `env:"DB_HOST" envDefault:"localhost"`
	Port           string `env:"DB_PORT" envDefault:"5432"`
	User           string `env:"DB_USER" envDefault:"postgres"`
	Password       string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName         string `env:"DB_NAME" envDefault:"auth"`
	SSLMode        string `env:"DB_SSLMODE" envDefault:"disable"`
	ChannelBinding string `env:"DB_CHANNEL_BINDING"` // "require" for Neon DB, empty for local
	MaxOpenConns   int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns   int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type RateLimitConfig struct {
	Backend     string        `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	MaxRequests int           `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"10"`
	Window      time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
}

type AuthConfig struct {
	TokenFormat   string        `env:"TOKEN_FORMAT" envDefault:"jwt"`
	JWTSecret     string        `env:"JWT_SECRET"`
	PasetoKey     string        `env:"PASETO_KEY"` // must be 32 bytes for v4.local
	TokenIssuer   string        `env:"TOKEN_ISSUER" envDefault:"auth-ms"`
	TokenDuration time.Duration `env:"TOKEN_DURATION" envDefault:"2h"`
	Hasher        string        `env:"PASSWORD_HASHER" envDefault:"bcrypt"`
	BcryptCost    int           `env:"BCRYPT_COST" envDefault:"10"`
}

// allowedChoices defines the accepted values of each enumerated setting.
var allowedChoices = map[string][]string{
	"USER_STORE":         {StoreMongo, StorePostgres},
	"TOKEN_FORMAT":       {TokenJWT, TokenPaseto},
	"PASSWORD_HASHER":    {HasherBcrypt, HasherArgon2id},
	"RATE_LIMIT_BACKEND": {RateLimitRedis, RateLimitMemory, RateLimitOff},
	"APP_ENV":            {"dev", "prod"},
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks enumerated settings and key material
func (c *Config) Validate() error {
	choices := map[string]string{
		"USER_STORE":         c.Store.Driver,
		"TOKEN_FORMAT":       c.Auth.TokenFormat,
		"PASSWORD_HASHER":    c.Auth.Hasher,
		"RATE_LIMIT_BACKEND": c.RateLimit.Backend,
		"APP_ENV":            c.Server.Env,
	}
	for key, value := range choices {
		if err := validateChoice(key, value); err != nil {
			return err
		}
	}

	switch c.Auth.TokenFormat {
	case TokenJWT:
		// HS256 keys shorter than the hash output weaken the MAC
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.Auth.JWTSecret))
		}
	case TokenPaseto:
		if len(c.Auth.PasetoKey) != 32 {
			return fmt.Errorf("PASETO_KEY must be exactly 32 bytes, got %d", len(c.Auth.PasetoKey))
		}
	}

	if c.Auth.TokenDuration <= 0 {
		return fmt.Errorf("TOKEN_DURATION must be positive, got %s", c.Auth.TokenDuration)
	}

	if c.Auth.Hasher == HasherBcrypt && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}

	if c.RateLimit.Backend != RateLimitOff && (c.RateLimit.MaxRequests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}

	return nil
}

func validateChoice(key, value string) error {
	allowed := allowedChoices[key]
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("unsupported %s %q (allowed: %s)", key, value, strings.Join(allowed, ", "))
}

// ConnectionString returns the lib/pq keyword/value DSN
func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// URL returns the postgres:// URL form used by the migrator
func (c *DatabaseConfig) URL() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if c.ChannelBinding != "" {
		q.Set("channel_binding", c.ChannelBinding)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}
