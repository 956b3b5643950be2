package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mailcove/mailcore/internal/connection"
	"github.com/mailcove/mailcore/internal/models"
)

type Config struct {
	Environment string
	IMAPServer  string
	IMAPPort    int
	SMTPServer  string
	SMTPPort    int
	Username    string
	Password    string

	Timeout            time.Duration
	MaxRetries         int
	InsecureSkipVerify bool
	AllowInsecure      bool
	Verbose            bool
}

func NewConfig() (*Config, error) {
	env := os.Getenv("MAILCORE_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" {
		if err := godotenv.Load(); err != nil {
			fmt.Println("Warning: .env file not found, using environment variables")
		}
	}

	config := &Config{
		Environment:        env,
		IMAPServer:         os.Getenv("MAILCORE_IMAP_SERVER"),
		IMAPPort:           getEnvIntOrDefault("MAILCORE_IMAP_PORT", 993),
		SMTPServer:         os.Getenv("MAILCORE_SMTP_SERVER"),
		SMTPPort:           getEnvIntOrDefault("MAILCORE_SMTP_PORT", 587),
		Username:           os.Getenv("MAILCORE_USERNAME"),
		Password:           os.Getenv("MAILCORE_PASSWORD"),
		Timeout:            time.Duration(getEnvIntOrDefault("MAILCORE_TIMEOUT_SECONDS", 60)) * time.Second,
		MaxRetries:         getEnvIntOrDefault("MAILCORE_MAX_RETRIES", 1),
		InsecureSkipVerify: getEnvBoolOrDefault("MAILCORE_INSECURE_SKIP_VERIFY", true),
		AllowInsecure:      getEnvBoolOrDefault("MAILCORE_ALLOW_INSECURE", true),
		Verbose:            getEnvBoolOrDefault("MAILCORE_VERBOSE", false),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.IMAPServer == "" {
		return fmt.Errorf("MAILCORE_IMAP_SERVER is required")
	}

	if c.SMTPServer == "" {
		return fmt.Errorf("MAILCORE_SMTP_SERVER is required")
	}

	if c.Username == "" {
		return fmt.Errorf("MAILCORE_USERNAME is required")
	}

	if c.Password == "" {
		return fmt.Errorf("MAILCORE_PASSWORD is required")
	}

	return nil
}

// AccountSettings converts the configuration into the account form the
// client consumes.
func (c *Config) AccountSettings() models.AccountSettings {
	return models.AccountSettings{
		IMAPServer: c.IMAPServer,
		IMAPPort:   c.IMAPPort,
		SMTPServer: c.SMTPServer,
		SMTPPort:   c.SMTPPort,
		Username:   c.Username,
		Password:   c.Password,
	}
}

// ConnectionOptions converts the tuning knobs into ladder options.
func (c *Config) ConnectionOptions() connection.Options {
	opts := connection.DefaultOptions()
	opts.Timeout = c.Timeout
	opts.MaxRetries = c.MaxRetries
	opts.InsecureSkipVerify = c.InsecureSkipVerify
	opts.AllowInsecure = c.AllowInsecure
	opts.Verbose = c.Verbose
	return opts
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
