package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"aidmap-api/internal/pkg/logger"

	"github.com/joho/godotenv"
)

const (
	defaultJWTSecret        = "default_secret"
	defaultJWTRefreshSecret = "default_refresh_secret"
)

// Config holds all configuration for the application
type Config struct {
	AppMode     string
	Port        string
	LogLevel    string
	Database    DatabaseConfig
	JWT         JWTConfig
	Cookie      CookieConfig
	Payment     PaymentConfig
	Chat        ChatConfig
	Storage     StorageConfig
	RedisURL    string
	AdminEmails []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	DSN      string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// PaymentConfig bounds the simulated processing delay of the mock provider
type PaymentConfig struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// ChatConfig holds community chat throttling
type ChatConfig struct {
	RatePerMinute int
}

// StorageConfig holds the proof-of-delivery bucket settings
type StorageConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		logger.L().Warn("⚠️ .env file not found, using environment variables")
	}

	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:     appMode,
		Port:        getEnv("PORT", "3000"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Database:    loadDatabaseConfig(appMode),
		JWT:         loadJWTConfig(appMode),
		Cookie:      loadCookieConfig(appMode),
		Payment:     loadPaymentConfig(),
		Chat:        ChatConfig{RatePerMinute: getEnvInt("CHAT_RATE_PER_MINUTE", 20)},
		Storage:     loadStorageConfig(),
		RedisURL:    getEnv("REDIS_URL", ""),
		AdminEmails: splitList(getEnv("ADMIN_EMAILS", "")),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	AppConfig = config
	return config, nil
}

// Validate checks settings that cannot fall back to defaults
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	case "sqlite":
		if c.Database.DSN == "" {
			return errors.New("DB_DSN is required when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER: '%s' (must be mysql, postgres or sqlite)", c.Database.Driver)
	}

	if c.Payment.MaxDelay < c.Payment.MinDelay {
		return errors.New("PAYMENT_MAX_DELAY_MS must not be below PAYMENT_MIN_DELAY_MS")
	}

	if !c.IsProd() {
		return nil
	}
	if c.JWT.Secret == defaultJWTSecret || c.JWT.RefreshSecret == defaultJWTRefreshSecret {
		return errors.New("PROD_JWT_SECRET and PROD_JWT_REFRESH_SECRET must be set in prod")
	}
	if c.Database.DSN == "" && c.Database.Password == "" {
		return errors.New("PROD_DB_DSN or PROD_DB_PASS must be set in prod")
	}
	return nil
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)
	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))

	defaultPort := "3306"
	defaultUser := "root"
	if driver == "postgres" {
		defaultPort = "5432"
		defaultUser = "postgres"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", defaultUser),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "aidmap"),
		DSN:      getEnv(prefix+"DB_DSN", ""),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", defaultJWTSecret),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", defaultJWTRefreshSecret),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 15),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		MinDelay: time.Duration(getEnvInt("PAYMENT_MIN_DELAY_MS", 2000)) * time.Millisecond,
		MaxDelay: time.Duration(getEnvInt("PAYMENT_MAX_DELAY_MS", 3000)) * time.Millisecond,
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		Region:          getEnv("S3_REGION", "auto"),
		Bucket:          getEnv("S3_BUCKET", ""),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		PublicURL:       getEnv("S3_PUBLIC_URL", ""),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// IsAdminEmail reports whether email is promoted to admin at registration
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://aidmap.app"
	}
	return origins
}
