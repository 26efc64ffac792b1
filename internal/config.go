package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	API           APIConfig           `mapstructure:"api"`
	Session       SessionConfig       `mapstructure:"session"`
	Forms         FormsConfig         `mapstructure:"forms"`
	MockAPI       MockAPIConfig       `mapstructure:"mock_api"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ServerConfig configures the static bundle host.
type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	AssetDir          string        `mapstructure:"asset_dir"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

// APIConfig points the client at the remote expense API.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ValidateResponses bool          `mapstructure:"validate_responses"`
}

type SessionConfig struct {
	Path string `mapstructure:"path"`
}

type FormsConfig struct {
	FeedbackTTL time.Duration `mapstructure:"feedback_ttl"`
}

type MockAPIConfig struct {
	Port      int           `mapstructure:"port"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Seed      bool          `mapstructure:"seed"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const DefaultFeedbackTTL = 3 * time.Second

// DefaultConfig is the development configuration used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              3000,
			AssetDir:          "build",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
		API: APIConfig{
			BaseURL:           "http://localhost:8081",
			Timeout:           10 * time.Second,
			ValidateResponses: true,
		},
		Session: SessionConfig{Path: ".expense-session.db"},
		Forms:   FormsConfig{FeedbackTTL: DefaultFeedbackTTL},
		MockAPI: MockAPIConfig{
			Port:      8081,
			JWTSecret: "development-secret-change-me-please",
			TokenTTL:  12 * time.Hour,
			Seed:      true,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// LoadConfigFromEnv builds the configuration from environment variables on top of the defaults.
func LoadConfigFromEnv() *Config {
	cfg := DefaultConfig()

	cfg.Server.Port = getEnvAsInt("PORT", cfg.Server.Port)
	cfg.Server.AssetDir = getEnv("ASSET_DIR", cfg.Server.AssetDir)
	cfg.Server.ReadTimeout = getEnvAsDuration("HTTP_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsDuration("HTTP_WRITE_TIMEOUT", cfg.Server.WriteTimeout)

	cfg.API.BaseURL = getEnv("API_URL", cfg.API.BaseURL)
	cfg.API.Timeout = getEnvAsDuration("API_TIMEOUT", cfg.API.Timeout)
	cfg.API.ValidateResponses = getEnvAsBool("API_VALIDATE_RESPONSES", cfg.API.ValidateResponses)

	cfg.Session.Path = getEnv("SESSION_PATH", cfg.Session.Path)
	cfg.Forms.FeedbackTTL = getEnvAsDuration("FEEDBACK_TTL", cfg.Forms.FeedbackTTL)

	cfg.MockAPI.Port = getEnvAsInt("MOCK_API_PORT", cfg.MockAPI.Port)
	cfg.MockAPI.JWTSecret = getEnv("MOCK_API_JWT_SECRET", cfg.MockAPI.JWTSecret)
	cfg.MockAPI.TokenTTL = getEnvAsDuration("MOCK_API_TOKEN_TTL", cfg.MockAPI.TokenTTL)
	cfg.MockAPI.Seed = getEnvAsBool("MOCK_API_SEED", cfg.MockAPI.Seed)

	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)

	return cfg
}

// ----------------- HELPERS -----------------

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
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.API.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("api config: %v", err))
	}

	if c.Session.Path == "" {
		errs = append(errs, "session config: path is required")
	}

	if c.Forms.FeedbackTTL < 0 {
		errs = append(errs, "forms config: feedback_ttl cannot be negative")
	}

	if err := c.MockAPI.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("mock api config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.AssetDir == "" {
		return errors.New("asset_dir is required")
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *APIConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %s: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", u.Scheme)
	}
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	return nil
}

func (c *MockAPIConfig) Validate() error {
	if len(c.JWTSecret) < 16 {
		return errors.New("jwt_secret must be at least 16 characters")
	}
	if c.TokenTTL < time.Minute {
		return errors.New("token_ttl must be at least 1m")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be one of debug, info, warn, error, got %q", c.Level)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("format must be json or text, got %q", c.Format)
	}
	return nil
}
