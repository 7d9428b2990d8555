package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Client      ClientConfig
	DevServer   DevServerConfig
	Session     SessionConfig
	Logging     LoggingConfig
	ServiceName string
}

// ClientConfig configures the client-side session kernel.
type ClientConfig struct {
	// APIBaseURL is the base URL of the remote auth service.
	APIBaseURL string
	// StoragePath is the JSON file backing the persistent session store.
	StoragePath string
	// IdleThreshold is how long the session may sit without user activity
	// before the lockscreen engages.
	IdleThreshold time.Duration
	// LockCheckInterval is how often the idle controller evaluates the
	// threshold. Coarse on purpose; sub-second precision is not needed.
	LockCheckInterval time.Duration
	// LoginPath is where unauthenticated navigations are redirected.
	LoginPath string
}

type DevServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type SessionConfig struct {
	JWTSecret       string
	JWTIssuer       string
	SessionTTLHours int
}

type LoggingConfig struct {
	Level string
	Dir   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8085")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("API_BASE_URL", "http://localhost:8085")
	v.SetDefault("STORAGE_PATH", "hlms-session.json")
	v.SetDefault("IDLE_THRESHOLD_SECONDS", 300)
	v.SetDefault("LOCK_CHECK_INTERVAL_SECONDS", 1)
	v.SetDefault("LOGIN_PATH", "/login")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "")
	v.SetDefault("SERVICE_NAME", "hlms-client")

	// Dev auth server session defaults
	v.SetDefault("JWT_ISSUER", "hlms-devserver")
	v.SetDefault("SESSION_TTL_HOURS", 24)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	// Parse allowed CORS origins (comma-separated)
	allowedOrigins := []string{}
	originsStr := v.GetString("ALLOWED_CORS_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins = append(allowedOrigins, origin)
			}
		}
	}

	cfg := &Config{
		Client: ClientConfig{
			APIBaseURL:        strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
			StoragePath:       v.GetString("STORAGE_PATH"),
			IdleThreshold:     time.Duration(v.GetInt("IDLE_THRESHOLD_SECONDS")) * time.Second,
			LockCheckInterval: time.Duration(v.GetInt("LOCK_CHECK_INTERVAL_SECONDS")) * time.Second,
			LoginPath:         v.GetString("LOGIN_PATH"),
		},
		DevServer: DevServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: allowedOrigins,
		},
		Session: SessionConfig{
			JWTSecret:       v.GetString("JWT_SECRET"),
			JWTIssuer:       v.GetString("JWT_ISSUER"),
			SessionTTLHours: v.GetInt("SESSION_TTL_HOURS"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		ServiceName: v.GetString("SERVICE_NAME"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Client.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.Client.StoragePath == "" {
		return fmt.Errorf("STORAGE_PATH is required")
	}
	if c.Client.IdleThreshold <= 0 {
		return fmt.Errorf("IDLE_THRESHOLD_SECONDS must be positive")
	}
	if c.Client.LockCheckInterval <= 0 {
		return fmt.Errorf("LOCK_CHECK_INTERVAL_SECONDS must be positive")
	}
	if c.Client.LoginPath == "" {
		return fmt.Errorf("LOGIN_PATH is required")
	}
	if c.DevServer.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.DevServer.AppEnv == "development" || c.DevServer.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.DevServer.AppEnv == "production"
}
