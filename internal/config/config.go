package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Engine   EngineConfig
	Notify   NotifyConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds auth cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// EngineConfig holds EMI engine knobs
type EngineConfig struct {
	// PaymentTolerance is the max accepted difference between a payment and
	// the installment amount before it is rejected (below) or flagged (above).
	PaymentTolerance  decimal.Decimal
	SweepCron         string
	ReminderCron      string
	ReminderDaysAhead int
}

// NotifyConfig holds outbound notification configuration
type NotifyConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	engine, err := loadEngineConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Engine:   engine,
		Notify:   loadNotifyConfig(),
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "loansuite"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadCookieConfig loads auth cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	if mode == "prod" {
		return CookieConfig{
			Secure:   true,
			SameSite: getEnv("COOKIE_SAMESITE", "Strict"),
			Domain:   getEnv("COOKIE_DOMAIN", ""),
		}
	}

	return CookieConfig{
		Secure:   false,
		SameSite: getEnv("COOKIE_SAMESITE", "Lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadEngineConfig loads EMI engine config
func loadEngineConfig() (EngineConfig, error) {
	tolerance, err := decimal.NewFromString(getEnv("EMI_PAYMENT_TOLERANCE", "0.01"))
	if err != nil || tolerance.IsNegative() {
		return EngineConfig{}, fmt.Errorf("invalid EMI_PAYMENT_TOLERANCE")
	}

	daysAhead, _ := strconv.Atoi(getEnv("REMINDER_DAYS_AHEAD", "3"))
	if daysAhead < 1 {
		daysAhead = 3
	}

	return EngineConfig{
		PaymentTolerance:  tolerance,
		SweepCron:         getEnv("SWEEP_CRON", "0 1 * * *"),
		ReminderCron:      getEnv("REMINDER_CRON", "0 8 * * *"),
		ReminderDaysAhead: daysAhead,
	}, nil
}

// loadNotifyConfig loads webhook notification config
func loadNotifyConfig() NotifyConfig {
	timeoutSecs, _ := strconv.Atoi(getEnv("NOTIFY_TIMEOUT_SECONDS", "5"))
	if timeoutSecs < 1 {
		timeoutSecs = 5
	}

	return NotifyConfig{
		WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		Timeout:    time.Duration(timeoutSecs) * time.Second,
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://app.loansuite.local"
	}
	return origins
}
