package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	CORS       CORSConfig
	Log        LogConfig
	Escrow     EscrowConfig
	Investment InvestmentConfig
	Scheduler  SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig selects the logger flavour ("production" emits JSON).
type LogConfig struct {
	Env string
}

// EscrowConfig holds the escrow payment policy.
type EscrowConfig struct {
	FeeRate          decimal.Decimal
	InspectionWindow time.Duration
	// ContactKey is a base64 fernet key used to seal payer contact details.
	ContactKey string
	// ContactKeyFile stores a generated key when ContactKey is empty. It
	// defaults to a file next to the database and is empty for in-memory
	// databases, which get an ephemeral key.
	ContactKeyFile string
}

// InvestmentConfig holds the fractional investment policy.
type InvestmentConfig struct {
	// EnforceShareCap rejects purchases that would push the outstanding
	// shares of a property above 1.
	EnforceShareCap bool
}

// SchedulerConfig holds cron specifications for background jobs.
type SchedulerConfig struct {
	AppreciationSchedule  string
	EscrowReleaseSchedule string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	feeRate, err := decimal.NewFromString(getEnv("ESCROW_FEE_RATE", "0.05"))
	if err != nil {
		return nil, fmt.Errorf("invalid ESCROW_FEE_RATE: %w", err)
	}
	if !feeRate.IsPositive() || feeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("invalid ESCROW_FEE_RATE: %s must be in (0, 1)", feeRate)
	}

	window, err := time.ParseDuration(getEnv("ESCROW_INSPECTION_WINDOW", "72h"))
	if err != nil {
		return nil, fmt.Errorf("invalid ESCROW_INSPECTION_WINDOW: %w", err)
	}
	if window <= 0 {
		return nil, fmt.Errorf("invalid ESCROW_INSPECTION_WINDOW: must be positive")
	}

	enforceCap, err := strconv.ParseBool(getEnv("INVESTMENT_ENFORCE_SHARE_CAP", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid INVESTMENT_ENFORCE_SHARE_CAP: %w", err)
	}

	dbPath := getEnv("DB_PATH", "./data/property_investment.db")

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Log: LogConfig{
			Env: getEnv("LOG_ENV", "development"),
		},
		Escrow: EscrowConfig{
			FeeRate:          feeRate,
			InspectionWindow: window,
			ContactKey:       os.Getenv("ESCROW_CONTACT_KEY"),
			ContactKeyFile:   getEnv("ESCROW_CONTACT_KEY_FILE", defaultKeyFile(dbPath)),
		},
		Investment: InvestmentConfig{
			EnforceShareCap: enforceCap,
		},
		Scheduler: SchedulerConfig{
			AppreciationSchedule:  getEnv("APPRECIATION_SCHEDULE", "0 2 * * *"),
			EscrowReleaseSchedule: getEnv("ESCROW_AUTO_RELEASE_SCHEDULE", "@every 5m"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func defaultKeyFile(dbPath string) string {
	if dbPath == ":memory:" || strings.HasPrefix(dbPath, "file::memory:") {
		return ""
	}
	return filepath.Join(filepath.Dir(dbPath), "escrow_contact.key")
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
