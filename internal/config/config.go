package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/uttam4027/MHJ-SKU-Checker/internal/browser"
)

const (
	// MinDelaySeconds and MaxDelaySeconds bound the per-SKU delay a client
	// may request. DefaultDelaySeconds applies when the form leaves it out.
	MinDelaySeconds     = 1
	MaxDelaySeconds     = 5
	DefaultDelaySeconds = 2
)

type Config struct {
	Server  ServerConfig
	Target  TargetConfig
	Browser BrowserConfig
	Checker CheckerConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type TargetConfig struct {
	BaseURL string
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type CheckerConfig struct {
	DelaySeconds int
	SettleDelay  time.Duration
	RunHistory   int
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Target: TargetConfig{
			BaseURL: getEnvOrDefault("TARGET_BASE_URL", "https://www.michaelhill.com.au"),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-AU,en;q=0.9"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Australia/Sydney"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-AU"),
		},
		Checker: CheckerConfig{
			DelaySeconds: getIntOrDefault("CHECKER_DELAY_SECONDS", DefaultDelaySeconds),
			SettleDelay:  getDurationOrDefault("CHECKER_SETTLE_DELAY", browser.DefaultSettleDelay),
			RunHistory:   getIntOrDefault("CHECKER_RUN_HISTORY", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Target.BaseURL == "" {
		return fmt.Errorf("TARGET_BASE_URL must not be empty")
	}

	if !strings.HasPrefix(c.Target.BaseURL, "http://") && !strings.HasPrefix(c.Target.BaseURL, "https://") {
		return fmt.Errorf("TARGET_BASE_URL must start with http:// or https://")
	}

	if c.Checker.DelaySeconds < MinDelaySeconds || c.Checker.DelaySeconds > MaxDelaySeconds {
		return fmt.Errorf("CHECKER_DELAY_SECONDS must be between %d and %d", MinDelaySeconds, MaxDelaySeconds)
	}

	if c.Checker.SettleDelay < 0 {
		return fmt.Errorf("CHECKER_SETTLE_DELAY must not be negative")
	}

	if c.Checker.RunHistory < 1 {
		return fmt.Errorf("CHECKER_RUN_HISTORY must be at least 1")
	}

	return nil
}

// ClampDelay forces a requested per-SKU delay into the allowed range.
func ClampDelay(seconds int) int {
	if seconds < MinDelaySeconds {
		return MinDelaySeconds
	}
	if seconds > MaxDelaySeconds {
		return MaxDelaySeconds
	}
	return seconds
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
