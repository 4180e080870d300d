package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Telebirr TelebirrConfig
	Secrets  SecretsConfig
	Logger   LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int

	// Request rate limit on the public surface (requests/second per IP)
	RateLimit int
	RateBurst int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// TelebirrConfig holds gateway connection and merchant identity settings.
// The app secret and PEM key material are NOT configured here; they are
// loaded through the secret manager using the *Path fields.
type TelebirrConfig struct {
	BaseURL    string // API origin, e.g. https://app.ethiomobilemoney.et:2121/ammapi
	WebBaseURL string // hosted checkout page base

	FabricAppID   string
	MerchantAppID string
	MerchantCode  string

	NotifyURL   string
	RedirectURL string

	AppSecretPath  string // secret manager path of the fabric app secret
	PrivateKeyPath string // secret manager path of the merchant signing key (PEM)
	PublicKeyPath  string // secret manager path of the provider verify key (PEM)

	RequestTimeout int // seconds
	ConnectTimeout int // seconds
}

// SecretsConfig selects and configures the secret manager backend
type SecretsConfig struct {
	// Backend: "local", "vault" or "aws"
	Backend string

	// local backend
	LocalBasePath string

	// vault backend
	VaultAddress   string
	VaultToken     string
	VaultMountPath string

	// aws backend
	AWSRegion  string
	AWSProfile string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
			RateLimit:   getEnvAsInt("RATE_LIMIT_RPS", 20),
			RateBurst:   getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "telebirr_gateway"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Telebirr: TelebirrConfig{
			BaseURL:        getEnv("TELEBIRR_BASE_URL", ""),
			WebBaseURL:     getEnv("TELEBIRR_WEB_BASE_URL", ""),
			FabricAppID:    getEnv("TELEBIRR_FABRIC_APP_ID", ""),
			MerchantAppID:  getEnv("TELEBIRR_MERCHANT_APP_ID", ""),
			MerchantCode:   getEnv("TELEBIRR_MERCHANT_CODE", ""),
			NotifyURL:      getEnv("TELEBIRR_NOTIFY_URL", ""),
			RedirectURL:    getEnv("TELEBIRR_REDIRECT_URL", ""),
			AppSecretPath:  getEnv("TELEBIRR_APP_SECRET_PATH", "telebirr/app_secret"),
			PrivateKeyPath: getEnv("TELEBIRR_PRIVATE_KEY_PATH", "telebirr/private_key"),
			PublicKeyPath:  getEnv("TELEBIRR_PUBLIC_KEY_PATH", "telebirr/public_key"),
			RequestTimeout: getEnvAsInt("TELEBIRR_REQUEST_TIMEOUT", 30),
			ConnectTimeout: getEnvAsInt("TELEBIRR_CONNECT_TIMEOUT", 10),
		},
		Secrets: SecretsConfig{
			Backend:        getEnv("SECRETS_BACKEND", "local"),
			LocalBasePath:  getEnv("SECRETS_LOCAL_PATH", "./secrets"),
			VaultAddress:   getEnv("VAULT_ADDR", ""),
			VaultToken:     getEnv("VAULT_TOKEN", ""),
			VaultMountPath: getEnv("VAULT_MOUNT_PATH", "secret"),
			AWSRegion:      getEnv("AWS_REGION", ""),
			AWSProfile:     getEnv("AWS_PROFILE", ""),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	if cfg.Telebirr.BaseURL == "" {
		return nil, fmt.Errorf("TELEBIRR_BASE_URL is required")
	}
	if cfg.Telebirr.WebBaseURL == "" {
		return nil, fmt.Errorf("TELEBIRR_WEB_BASE_URL is required")
	}
	if cfg.Telebirr.FabricAppID == "" {
		return nil, fmt.Errorf("TELEBIRR_FABRIC_APP_ID is required")
	}
	if cfg.Telebirr.MerchantAppID == "" {
		return nil, fmt.Errorf("TELEBIRR_MERCHANT_APP_ID is required")
	}
	if cfg.Telebirr.MerchantCode == "" {
		return nil, fmt.Errorf("TELEBIRR_MERCHANT_CODE is required")
	}
	if cfg.Telebirr.NotifyURL == "" {
		return nil, fmt.Errorf("TELEBIRR_NOTIFY_URL is required")
	}
	switch cfg.Secrets.Backend {
	case "local", "vault", "aws":
	default:
		return nil, fmt.Errorf("SECRETS_BACKEND must be local, vault or aws, got %q", cfg.Secrets.Backend)
	}
	if cfg.Secrets.Backend == "vault" && cfg.Secrets.VaultAddress == "" {
		return nil, fmt.Errorf("VAULT_ADDR is required for the vault secrets backend")
	}
	if cfg.Secrets.Backend == "aws" && cfg.Secrets.AWSRegion == "" {
		return nil, fmt.Errorf("AWS_REGION is required for the aws secrets backend")
	}

	return cfg, nil
}

// ConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
