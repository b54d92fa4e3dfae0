package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration. Loaded once at startup and
// passed by value to constructors; nothing reads it ambiently afterwards.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Gateway  GatewayConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines the token and hashing parameters. SecretKey and
// TokenTTL are the cross-process contract: every process that mints or
// verifies tokens must load identical values.
type AuthConfig struct {
	SecretKey        []byte
	TokenTTL         time.Duration
	BcryptCost       int
	LoginMaxAttempts int
	LoginCooldown    time.Duration
}

// Route maps a path prefix to an upstream base URL.
type Route struct {
	Prefix   string
	Upstream string
}

// GatewayConfig describes the perimeter's upstreams. AuthUpstream is
// proxied without enforcement; Routes are guarded.
type GatewayConfig struct {
	AuthUpstream string
	Routes       []Route
}

const minSecretBytes = 32

// Load reads configuration from environment variables. It fails when the
// signing secret is absent or weak; there is deliberately no compiled-in
// fallback.
func Load() (*Config, error) {
	_ = godotenv.Load()

	secret, err := loadSecret()
	if err != nil {
		return nil, err
	}

	tokenTTL, err := getEnvAsDuration("AUTH_TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	loginCooldown, err := getEnvAsDuration("AUTH_LOGIN_COOLDOWN", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	routes, err := parseRoutes(os.Getenv("GATEWAY_UPSTREAMS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "campus-auth"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SecretKey:        secret,
			TokenTTL:         tokenTTL,
			BcryptCost:       getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LoginMaxAttempts: getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 5),
			LoginCooldown:    loginCooldown,
		},
		Gateway: GatewayConfig{
			AuthUpstream: getEnv("GATEWAY_AUTH_UPSTREAM", ""),
			Routes:       routes,
		},
	}

	return cfg, nil
}

// loadSecret decodes AUTH_JWT_SECRET, a base64-encoded key shared by every
// issuer and verifier process.
func loadSecret() ([]byte, error) {
	raw := os.Getenv("AUTH_JWT_SECRET")
	if raw == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be set")
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be base64: %w", err)
	}
	if len(key) < minSecretBytes {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must decode to at least %d bytes", minSecretBytes)
	}
	return key, nil
}

// parseRoutes reads "prefix=url,prefix=url" pairs.
func parseRoutes(raw string) ([]Route, error) {
	if raw == "" {
		return nil, nil
	}
	var routes []Route
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		prefix, upstream, found := strings.Cut(pair, "=")
		if !found || prefix == "" || upstream == "" {
			return nil, fmt.Errorf("invalid GATEWAY_UPSTREAMS entry %q", pair)
		}
		routes = append(routes, Route{
			Prefix:   "/" + strings.Trim(prefix, "/"),
			Upstream: strings.TrimRight(upstream, "/"),
		})
	}
	return routes, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return parsed, nil
}
