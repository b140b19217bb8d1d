package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Email    EmailConfig
	Support  SupportConfig
}

// AppConfig holds application-level configuration
type AppConfig struct {
	Name       string
	Version    string
	Debug      bool
	Port       string
	Host       string
	SiteDomain string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	SecretKey          string
	TokenExpiryMinutes int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// EmailConfig holds outbound mail configuration
type EmailConfig struct {
	Enabled   bool
	SMTPHost  string
	SMTPPort  int
	Username  string
	Password  string
	UseTLS    bool
	FromEmail string
	FromName  string
}

// SupportConfig holds the support form configuration: the confirmation
// email gate, template resolution, and the optional GeoIP database.
type SupportConfig struct {
	SendConfirmation     bool
	ConfirmationTemplate string
	ConfirmationSubject  string
	TemplateDir          string
	FallbackTemplateDirs []string
	GeoIPPath            string
}

var globalConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:       getEnv("APP_NAME", "Support Desk API"),
			Version:    getEnv("APP_VERSION", "1.0.0"),
			Debug:      getEnvAsBool("DEBUG", false),
			Port:       getEnv("PORT", "8000"),
			Host:       getEnv("HOST", "0.0.0.0"),
			SiteDomain: getEnv("SITE_DOMAIN", "localhost"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "sqlite:///./supportdesk.db"),
		},
		Auth: AuthConfig{
			SecretKey:          getEnv("SECRET_KEY", "your-secret-key-change-in-production"),
			TokenExpiryMinutes: getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_HOSTS", []string{"*"}),
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
			AllowedHeaders: []string{"*"},
			MaxAge:         86400,
		},
		Email: EmailConfig{
			Enabled:   getEnvAsBool("EMAIL_ENABLED", false),
			SMTPHost:  getEnv("SMTP_HOST", ""),
			SMTPPort:  getEnvAsInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			UseTLS:    getEnvAsBool("SMTP_USE_TLS", false),
			FromEmail: getEnv("EMAIL_FROM", "support@localhost"),
			FromName:  getEnv("EMAIL_FROM_NAME", "Support Desk"),
		},
		Support: SupportConfig{
			SendConfirmation:     getEnvAsBool("SUPPORT_SEND_CONFIRMATION", true),
			ConfirmationTemplate: getEnv("SUPPORT_CONFIRMATION_TEMPLATE", ""),
			ConfirmationSubject:  getEnv("SUPPORT_CONFIRMATION_SUBJECT", "We received your support request"),
			TemplateDir:          getEnv("TEMPLATE_DIR", "templates"),
			FallbackTemplateDirs: getEnvAsSlice("FALLBACK_TEMPLATE_DIRS", nil),
			GeoIPPath:            getEnv("GEOIP_PATH", ""),
		},
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	globalConfig = config
	return config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.App.Port == "" {
		return fmt.Errorf("PORT must be set")
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.Auth.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY must be set")
	}
	if cfg.Auth.TokenExpiryMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be greater than 0")
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		// Load default config if not loaded
		config, _ := Load()
		return config
	}
	return globalConfig
}

// ResolveConfirmationTemplate resolves the configured confirmation template
// against the primary template directory, then each fallback directory in
// order. It returns the first existing path, or "" when the template is
// unset or found nowhere.
func (c *SupportConfig) ResolveConfirmationTemplate() string {
	if c.ConfirmationTemplate == "" {
		return ""
	}
	candidates := make([]string, 0, len(c.FallbackTemplateDirs)+1)
	candidates = append(candidates, filepath.Join(c.TemplateDir, c.ConfirmationTemplate))
	for _, dir := range c.FallbackTemplateDirs {
		candidates = append(candidates, filepath.Join(dir, c.ConfirmationTemplate))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}

// IsPostgres checks if the database URL is for PostgreSQL
func (c *DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(c.URL, "postgresql") || strings.HasPrefix(c.URL, "postgres")
}

// GetPostgresDSN converts a postgres:// URL to the key=value DSN format the
// driver expects. URLs already in DSN form are returned unchanged.
func (c *DatabaseConfig) GetPostgresDSN() string {
	url := c.URL

	if strings.Contains(url, " ") || strings.Contains(url, "=") {
		return url
	}

	var prefix string
	switch {
	case strings.HasPrefix(url, "postgresql://"):
		prefix = "postgresql://"
	case strings.HasPrefix(url, "postgres://"):
		prefix = "postgres://"
	default:
		return url
	}
	url = url[len(prefix):]

	// user:pass@host:port/db?params
	parts := strings.SplitN(url, "@", 2)
	if len(parts) != 2 {
		return url
	}

	credentials := parts[0]
	rest := parts[1]

	var user, password string
	if strings.Contains(credentials, ":") {
		creds := strings.SplitN(credentials, ":", 2)
		user = creds[0]
		password = creds[1]
	} else {
		user = credentials
	}

	host := "localhost"
	port := "5432"
	dbname := "postgres"
	sslmode := "disable"

	hostPort := rest
	if idx := strings.Index(rest, "/"); idx >= 0 {
		hostPort = rest[:idx]
		dbAndParams := rest[idx+1:]
		if qIdx := strings.Index(dbAndParams, "?"); qIdx >= 0 {
			dbname = dbAndParams[:qIdx]
			for _, param := range strings.Split(dbAndParams[qIdx+1:], "&") {
				if strings.HasPrefix(param, "sslmode=") {
					sslmode = strings.TrimPrefix(param, "sslmode=")
				}
			}
		} else {
			dbname = dbAndParams
		}
	}
	if strings.Contains(hostPort, ":") {
		hp := strings.SplitN(hostPort, ":", 2)
		host = hp[0]
		port = hp[1]
	} else if hostPort != "" {
		host = hostPort
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s", host, port, user, dbname, sslmode)
	if password != "" {
		dsn += " password=" + password
	}
	return dsn
}

// GetSQLitePath extracts SQLite database path from URL
func (c *DatabaseConfig) GetSQLitePath() string {
	return strings.TrimPrefix(c.URL, "sqlite:///")
}
