package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"trackswift/internal/logger"
)

// LogSettings is shared by both binaries.
type LogSettings struct {
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"console"`
	LogTimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02T15:04:05Z07:00"`
	LogOutput     string `envconfig:"LOG_OUTPUT" default:"stderr"`
}

// GetLoggerConfig returns a logger configuration from the main config
func (l LogSettings) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      l.LogLevel,
		Format:     l.LogFormat,
		TimeFormat: l.LogTimeFormat,
		Output:     l.LogOutput,
	}
}

// ServerConfig configures cmd/server.
type ServerConfig struct {
	LogSettings

	Addr    string `envconfig:"SERVER_ADDR" default:":5000"`
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:5000"`

	DBDriver         string `envconfig:"DB_DRIVER" default:"mysql"`
	DBDSN            string `envconfig:"DB_DSN"`
	DBConnectRetries int    `envconfig:"DB_CONNECT_RETRIES" default:"5"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// Registration opens a public sign-up route. Disable it for closed installs.
	AllowRegistration bool     `envconfig:"ALLOW_REGISTRATION" default:"true"`
	CORSOrigins       []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	Production        bool     `envconfig:"PRODUCTION" default:"false"`

	GotenbergURL    string `envconfig:"GOTENBERG_URL"`
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	GeminiModel     string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash-001"`
	DefaultCurrency string `envconfig:"DEFAULT_CURRENCY" default:"OMR"`
}

// LoadServer reads .env (when present) and the environment.
func LoadServer() (*ServerConfig, error) {
	_ = godotenv.Load()

	var cfg ServerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *ServerConfig) validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required for the mysql driver")
		}
	case "sqlite":
		if c.DBDSN == "" {
			c.DBDSN = "trackswift.db"
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

// ClientConfig configures cmd/trackswift.
type ClientConfig struct {
	LogSettings

	APIURL      string        `envconfig:"TRACKSWIFT_API_URL" default:"http://localhost:5000/api"`
	HTTPTimeout time.Duration `envconfig:"TRACKSWIFT_HTTP_TIMEOUT" default:"30s"`

	SessionBackend string `envconfig:"TRACKSWIFT_SESSION_BACKEND" default:"file"`
	SessionFile    string `envconfig:"TRACKSWIFT_SESSION_FILE"`
	RedisAddr      string `envconfig:"TRACKSWIFT_REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPrefix    string `envconfig:"TRACKSWIFT_REDIS_PREFIX" default:"trackswift:"`

	CacheTTL  time.Duration `envconfig:"TRACKSWIFT_CACHE_TTL" default:"30s"`
	CacheSize int           `envconfig:"TRACKSWIFT_CACHE_SIZE" default:"256"`

	DownloadDir string `envconfig:"TRACKSWIFT_DOWNLOAD_DIR" default:"."`
}

// LoadClient reads .env (when present) and the environment.
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	var cfg ClientConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *ClientConfig) validate() error {
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("TRACKSWIFT_API_URL must be an http(s) URL, got %q", c.APIURL)
	}
	switch c.SessionBackend {
	case "file":
		if c.SessionFile == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("locate config dir: %w", err)
			}
			c.SessionFile = filepath.Join(dir, "trackswift", "session.json")
		}
	case "redis", "memory":
	default:
		return fmt.Errorf("unsupported TRACKSWIFT_SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.CacheSize <= 0 {
		return errors.New("TRACKSWIFT_CACHE_SIZE must be positive")
	}
	return nil
}
