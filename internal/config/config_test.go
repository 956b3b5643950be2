package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MAILCORE_ENV", "production")
	t.Setenv("MAILCORE_IMAP_SERVER", "imap.example.com")
	t.Setenv("MAILCORE_SMTP_SERVER", "smtp.example.com")
	t.Setenv("MAILCORE_USERNAME", "user@example.com")
	t.Setenv("MAILCORE_PASSWORD", "test-password")
}

func TestNewConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAILCORE_IMAP_PORT", "1993")
	t.Setenv("MAILCORE_SMTP_PORT", "2525")
	t.Setenv("MAILCORE_TIMEOUT_SECONDS", "15")
	t.Setenv("MAILCORE_MAX_RETRIES", "3")
	t.Setenv("MAILCORE_INSECURE_SKIP_VERIFY", "false")
	t.Setenv("MAILCORE_ALLOW_INSECURE", "false")
	t.Setenv("MAILCORE_VERBOSE", "true")

	config, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() returned error: %v", err)
	}

	if config.Environment != "production" {
		t.Errorf("expected Environment 'production', got '%s'", config.Environment)
	}
	if config.IMAPServer != "imap.example.com" {
		t.Errorf("expected IMAPServer 'imap.example.com', got '%s'", config.IMAPServer)
	}
	if config.IMAPPort != 1993 {
		t.Errorf("expected IMAPPort 1993, got %d", config.IMAPPort)
	}
	if config.SMTPServer != "smtp.example.com" {
		t.Errorf("expected SMTPServer 'smtp.example.com', got '%s'", config.SMTPServer)
	}
	if config.SMTPPort != 2525 {
		t.Errorf("expected SMTPPort 2525, got %d", config.SMTPPort)
	}
	if config.Username != "user@example.com" {
		t.Errorf("expected Username 'user@example.com', got '%s'", config.Username)
	}
	if config.Password != "test-password" {
		t.Errorf("expected Password 'test-password', got '%s'", config.Password)
	}
	if config.Timeout != 15*time.Second {
		t.Errorf("expected Timeout 15s, got %v", config.Timeout)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
	if config.InsecureSkipVerify {
		t.Errorf("expected InsecureSkipVerify false")
	}
	if config.AllowInsecure {
		t.Errorf("expected AllowInsecure false")
	}
	if !config.Verbose {
		t.Errorf("expected Verbose true")
	}
}

func TestNewConfigWithDefaults(t *testing.T) {
	setRequiredEnv(t)

	config, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() returned error: %v", err)
	}

	if config.IMAPPort != 993 {
		t.Errorf("expected default IMAPPort 993, got %d", config.IMAPPort)
	}
	if config.SMTPPort != 587 {
		t.Errorf("expected default SMTPPort 587, got %d", config.SMTPPort)
	}
	if config.Timeout != 60*time.Second {
		t.Errorf("expected default Timeout 60s, got %v", config.Timeout)
	}
	if config.MaxRetries != 1 {
		t.Errorf("expected default MaxRetries 1, got %d", config.MaxRetries)
	}
	if !config.InsecureSkipVerify {
		t.Errorf("expected default InsecureSkipVerify true")
	}
	if !config.AllowInsecure {
		t.Errorf("expected default AllowInsecure true")
	}
	if config.Verbose {
		t.Errorf("expected default Verbose false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		shouldErr bool
		errMsg    string
	}{
		{
			name: "valid config",
			config: &Config{
				IMAPServer: "imap.example.com",
				SMTPServer: "smtp.example.com",
				Username:   "user",
				Password:   "password",
			},
			shouldErr: false,
		},
		{
			name: "missing IMAP server",
			config: &Config{
				SMTPServer: "smtp.example.com",
				Username:   "user",
				Password:   "password",
			},
			shouldErr: true,
			errMsg:    "MAILCORE_IMAP_SERVER is required",
		},
		{
			name: "missing SMTP server",
			config: &Config{
				IMAPServer: "imap.example.com",
				Username:   "user",
				Password:   "password",
			},
			shouldErr: true,
			errMsg:    "MAILCORE_SMTP_SERVER is required",
		},
		{
			name: "missing username",
			config: &Config{
				IMAPServer: "imap.example.com",
				SMTPServer: "smtp.example.com",
				Password:   "password",
			},
			shouldErr: true,
			errMsg:    "MAILCORE_USERNAME is required",
		},
		{
			name: "missing password",
			config: &Config{
				IMAPServer: "imap.example.com",
				SMTPServer: "smtp.example.com",
				Username:   "user",
			},
			shouldErr: true,
			errMsg:    "MAILCORE_PASSWORD is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.shouldErr && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
			if tt.shouldErr && err != nil && err.Error() != tt.errMsg {
				t.Errorf("expected error message '%s', got '%s'", tt.errMsg, err.Error())
			}
		})
	}
}

func TestAccountSettings(t *testing.T) {
	config := &Config{
		IMAPServer: "imap.example.com",
		IMAPPort:   993,
		SMTPServer: "smtp.example.com",
		SMTPPort:   587,
		Username:   "user@example.com",
		Password:   "secret",
	}

	settings := config.AccountSettings()
	if settings.IMAPServer != "imap.example.com" || settings.IMAPPort != 993 {
		t.Errorf("unexpected IMAP settings: %s:%d", settings.IMAPServer, settings.IMAPPort)
	}
	if settings.SMTPServer != "smtp.example.com" || settings.SMTPPort != 587 {
		t.Errorf("unexpected SMTP settings: %s:%d", settings.SMTPServer, settings.SMTPPort)
	}
	if settings.Username != "user@example.com" || settings.Password != "secret" {
		t.Errorf("unexpected credentials: %s", settings.Username)
	}
}

func TestConnectionOptions(t *testing.T) {
	config := &Config{
		Timeout:            10 * time.Second,
		MaxRetries:         2,
		InsecureSkipVerify: true,
		AllowInsecure:      true,
		Verbose:            true,
	}

	opts := config.ConnectionOptions()
	if opts.Timeout != 10*time.Second {
		t.Errorf("expected Timeout 10s, got %v", opts.Timeout)
	}
	if opts.MaxRetries != 2 {
		t.Errorf("expected MaxRetries 2, got %d", opts.MaxRetries)
	}
	if !opts.InsecureSkipVerify || !opts.AllowInsecure || !opts.Verbose {
		t.Errorf("expected posture flags to carry over")
	}
	if opts.IMAPStartTLSPort != 143 || opts.SMTPTLSPort != 465 || opts.SMTPPlainPort != 25 {
		t.Errorf("expected default ladder ports, got %d/%d/%d",
			opts.IMAPStartTLSPort, opts.SMTPTLSPort, opts.SMTPPlainPort)
	}
}

func TestGetEnvIntOrDefault(t *testing.T) {
	t.Setenv("TEST_INT_KEY", "42")
	if got := getEnvIntOrDefault("TEST_INT_KEY", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if got := getEnvIntOrDefault("NONEXISTENT_KEY", 7); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}

	t.Setenv("TEST_INT_KEY", "not-a-number")
	if got := getEnvIntOrDefault("TEST_INT_KEY", 7); got != 7 {
		t.Errorf("expected fallback 7 on malformed value, got %d", got)
	}
}

func TestGetEnvBoolOrDefault(t *testing.T) {
	t.Setenv("TEST_BOOL_KEY", "true")
	if got := getEnvBoolOrDefault("TEST_BOOL_KEY", false); !got {
		t.Errorf("expected true")
	}
	if got := getEnvBoolOrDefault("NONEXISTENT_KEY", true); !got {
		t.Errorf("expected default true")
	}

	t.Setenv("TEST_BOOL_KEY", "maybe")
	if got := getEnvBoolOrDefault("TEST_BOOL_KEY", true); !got {
		t.Errorf("expected fallback true on malformed value")
	}
}

func TestNewConfigMissingRequired(t *testing.T) {
	t.Setenv("MAILCORE_ENV", "production")
	os.Unsetenv("MAILCORE_IMAP_SERVER")
	os.Unsetenv("MAILCORE_SMTP_SERVER")
	os.Unsetenv("MAILCORE_USERNAME")
	os.Unsetenv("MAILCORE_PASSWORD")

	if _, err := NewConfig(); err == nil {
		t.Fatalf("expected error for missing required settings")
	}
}
