package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Library  LibraryConfig
	Cron     CronConfig
	Seed     SeedConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string // mysql, postgres or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// HTTPConfig holds per-IP request limits (requests per minute, 0 disables)
type HTTPConfig struct {
	RateLimitPerMinute  int
	LoginLimitPerMinute int
}

// LibraryConfig holds circulation rules
type LibraryConfig struct {
	FineRatePerDay     int64
	Timezone           string
	PatronCodeAttempts int
}

// CronConfig holds schedules for background jobs (robfig/cron spec strings)
type CronConfig struct {
	Enabled          bool
	OverdueSweepSpec string
	ReconcileSpec    string
}

// SeedConfig holds the bootstrap administrator account
type SeedConfig struct {
	AdminUsername string
	AdminPassword string
	SampleData    bool
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	config, err := FromEnv()
	if err != nil {
		return nil, err
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", config.AppMode, config.Database.Driver)
	return config, nil
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	database := loadDatabaseConfig(appMode)
	switch database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql', 'postgres' or 'sqlite')", database.Driver)
	}

	library, err := loadLibraryConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: database,
		JWT:      loadJWTConfig(appMode),
		HTTP:     loadHTTPConfig(),
		Library:  library,
		Cron:     loadCronConfig(),
		Seed:     loadSeedConfig(appMode),
	}
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	driver := strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql")))
	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:     driver,
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", defaultPort),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "library"),
		SQLitePath: getEnv("SQLITE_PATH", "library.db"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "60"))

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", "default_secret"),
		AccessTokenMins: accessMins,
	}
}

// loadHTTPConfig loads request limits
func loadHTTPConfig() HTTPConfig {
	general, _ := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	login, _ := strconv.Atoi(getEnv("LOGIN_LIMIT_PER_MINUTE", "5"))

	return HTTPConfig{
		RateLimitPerMinute:  general,
		LoginLimitPerMinute: login,
	}
}

// loadLibraryConfig loads circulation rules
func loadLibraryConfig() (LibraryConfig, error) {
	rate, err := strconv.ParseInt(getEnv("FINE_RATE_PER_DAY", "1000"), 10, 64)
	if err != nil || rate < 0 {
		return LibraryConfig{}, fmt.Errorf("invalid FINE_RATE_PER_DAY: '%s'", os.Getenv("FINE_RATE_PER_DAY"))
	}

	attempts, err := strconv.Atoi(getEnv("PATRON_CODE_ATTEMPTS", "10"))
	if err != nil || attempts < 1 {
		return LibraryConfig{}, fmt.Errorf("invalid PATRON_CODE_ATTEMPTS: '%s'", os.Getenv("PATRON_CODE_ATTEMPTS"))
	}

	tz := getEnv("LIBRARY_TIMEZONE", "Local")
	if _, err := time.LoadLocation(tz); err != nil {
		return LibraryConfig{}, fmt.Errorf("invalid LIBRARY_TIMEZONE: '%s': %w", tz, err)
	}

	return LibraryConfig{
		FineRatePerDay:     rate,
		Timezone:           tz,
		PatronCodeAttempts: attempts,
	}, nil
}

// loadCronConfig loads background job schedules
func loadCronConfig() CronConfig {
	enabled, _ := strconv.ParseBool(getEnv("CRON_ENABLED", "true"))

	return CronConfig{
		Enabled:          enabled,
		OverdueSweepSpec: getEnv("OVERDUE_SWEEP_SPEC", "30 8 * * *"),
		ReconcileSpec:    getEnv("RECONCILE_SPEC", "0 2 * * *"),
	}
}

// loadSeedConfig loads bootstrap account settings
func loadSeedConfig(mode string) SeedConfig {
	sample, _ := strconv.ParseBool(getEnv("SEED_SAMPLE_DATA", strconv.FormatBool(mode == "dev")))

	return SeedConfig{
		AdminUsername: getEnv("SEED_ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		SampleData:    sample,
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

// Location returns the library time zone used for due dates and fines
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Library.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:5173"
	}
	return origins
}
