package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Catalog  CatalogConfig
	Events   EventsConfig
	Email    EmailConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	RunMigrations     bool
}

type ServerConfig struct {
	Port            string
	Env             string
	LogLevel        string
	AllowedOrigins  []string
	TrustedProxies  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CookieDomain    string
}

type AuthConfig struct {
	JWTSecret         string
	SessionTTL        time.Duration
	MaxAttempts       int
	AttemptWindow     time.Duration
	BlockDuration     time.Duration
	IPRequestsPerMin  int
	TimingBaseDelay   time.Duration
	TimingRandomDelay time.Duration
	CleanupInterval   time.Duration
	AdminEmail        string
	AdminPassword     string
}

type CatalogConfig struct {
	DefaultLanguage string
	RedisURL        string // Empty disables the cache
	CacheTTL        time.Duration
}

type EventsConfig struct {
	KafkaBrokers       []string // Empty disables the stream sink
	KafkaTopic         string
	SendTimeout        time.Duration
	AccessLogRetention time.Duration
}

type EmailConfig struct {
	AWSRegion        string
	AlertFromAddress string // Empty disables block alerts
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "prospectiva"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			RunMigrations:     getEnvAsBool("DB_RUN_MIGRATIONS", true),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Env:             env,
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			AllowedOrigins:  parseAllowedOrigins(env),
			TrustedProxies:  getEnvAsList("TRUSTED_PROXIES"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			CookieDomain:    getEnv("COOKIE_DOMAIN", ""),
		},
		Auth: AuthConfig{
			JWTSecret:         jwtSecret,
			SessionTTL:        getEnvAsDuration("SESSION_TTL", 8*time.Hour),
			MaxAttempts:       getEnvAsInt("RATE_LIMIT_MAX_ATTEMPTS", 5),
			AttemptWindow:     getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
			BlockDuration:     getEnvAsDuration("RATE_LIMIT_BLOCK_DURATION", 30*time.Minute),
			IPRequestsPerMin:  getEnvAsInt("AUTH_IP_REQUESTS_PER_MINUTE", 20),
			TimingBaseDelay:   getEnvAsDuration("AUTH_TIMING_BASE_DELAY", 200*time.Millisecond),
			TimingRandomDelay: getEnvAsDuration("AUTH_TIMING_RANDOM_DELAY", 100*time.Millisecond),
			CleanupInterval:   getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
			AdminEmail:        getEnv("ADMIN_EMAIL", ""),
			AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		},
		Catalog: CatalogConfig{
			DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "es"),
			RedisURL:        getEnv("REDIS_URL", ""),
			CacheTTL:        getEnvAsDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		},
		Events: EventsConfig{
			KafkaBrokers:       getEnvAsList("KAFKA_BROKERS"),
			KafkaTopic:         getEnv("KAFKA_SECURITY_TOPIC", "security-events"),
			SendTimeout:        getEnvAsDuration("EVENT_SEND_TIMEOUT", 5*time.Second),
			AccessLogRetention: time.Duration(getEnvAsInt("ACCESS_LOG_RETENTION_DAYS", 90)) * 24 * time.Hour,
		},
		Email: EmailConfig{
			AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
			AlertFromAddress: getEnv("ALERT_FROM_ADDRESS", ""),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if cfg.Auth.MaxAttempts < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_ATTEMPTS must be at least 1 (got %d)", cfg.Auth.MaxAttempts)
	}

	if (cfg.Auth.AdminEmail == "") != (cfg.Auth.AdminPassword == "") {
		return nil, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// IsProduction reports whether the server runs with production defaults
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

// getEnvAsList splits a comma-separated variable, dropping empty entries
func getEnvAsList(key string) []string {
	out := []string{}
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return getEnvAsList("ALLOWED_ORIGINS")
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://localhost:8080",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
		"http://127.0.0.1:8080",
	}
}
