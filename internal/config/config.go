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
	Port           string
	GinMode        string
	LogLevel       string
	AllowedOrigins []string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMaxConns int

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	ReferenceDataPath string
	CNAECacheTTL      time.Duration

	RabbitURI   string
	RabbitQueue string

	SeedAdminEmail    string
	SeedAdminPassword string

	ShutdownTimeout time.Duration
}

// Load reads configs/.env when present and builds the Config from the environment.
func Load() *Config {
	_ = godotenv.Load("configs/.env")

	return &Config{
		Port:           getenv("PORT", "8080"),
		GinMode:        getenv("GIN_MODE", "debug"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		AllowedOrigins: parseList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),

		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),
		DBName:     getenv("DB_NAME", "postgres"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),
		DBMaxConns: parseInt("DB_MAX_CONNS", 10),

		JWTSecret:       getenv("JWT_SECRET", ""),
		AccessTokenTTL:  parseDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTokenTTL: parseDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),

		ReferenceDataPath: getenv("REFERENCE_DATA_PATH", ""),
		CNAECacheTTL:      parseDuration("CNAE_CACHE_TTL", 5*time.Minute),

		RabbitURI:   getenv("RABBIT_URI", ""),
		RabbitQueue: getenv("RABBIT_QUEUE", "tax_calculations"),

		SeedAdminEmail:    getenv("SEED_ADMIN_EMAIL", ""),
		SeedAdminPassword: getenv("SEED_ADMIN_PASSWORD", ""),

		ShutdownTimeout: parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// Validate reports settings that must not fall back to defaults in release mode.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.IsRelease() {
			return fmt.Errorf("JWT_SECRET is required in release mode")
		}
		c.JWTSecret = "default_super_secret_key"
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.CNAECacheTTL <= 0 {
		return fmt.Errorf("CNAE_CACHE_TTL must be positive")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseDuration(env string, def time.Duration) time.Duration {
	if v := os.Getenv(env); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseInt(env string, def int) int {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func parseList(env string, def []string) []string {
	v := os.Getenv(env)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
