package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// MatrixConfig holds the homeserver connection settings.
type MatrixConfig struct {
	Host        string `toml:"host"`
	AccessToken string `toml:"access_token"`
}

// TwilioConfig holds the SMS provider credentials and sender number.
type TwilioConfig struct {
	AccountSID string `toml:"account_sid"`
	AuthToken  string `toml:"auth_token"`
	FromNum    string `toml:"from_num"`
}

// Config stores runtime configuration loaded from config.toml, with secrets
// optionally overridden from the environment.
type Config struct {
	Database      string `toml:"database"`
	LogLevel      string `toml:"log_level"`
	CommandPrefix string `toml:"command_prefix"`

	Matrix MatrixConfig `toml:"matrix"`
	Twilio TwilioConfig `toml:"twilio"`
}

// Load reads the TOML configuration file at path, applies environment
// overrides for credentials, fills defaults, and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := &Config{
		LogLevel:      "info",
		CommandPrefix: "testbot",
	}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Secrets may come from the environment instead of the file.
	if v := os.Getenv("MATRIX_ACCESS_TOKEN"); v != "" {
		cfg.Matrix.AccessToken = v
	}
	if v := os.Getenv("TWILIO_ACCOUNT_SID"); v != "" {
		cfg.Twilio.AccountSID = v
	}
	if v := os.Getenv("TWILIO_AUTH_TOKEN"); v != "" {
		cfg.Twilio.AuthToken = v
	}

	cfg.Matrix.Host = strings.TrimRight(cfg.Matrix.Host, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return errors.New("database path must not be empty")
	}
	if strings.TrimSpace(c.Matrix.Host) == "" {
		return errors.New("matrix.host must not be empty")
	}
	if !strings.HasPrefix(c.Matrix.Host, "http://") && !strings.HasPrefix(c.Matrix.Host, "https://") {
		return fmt.Errorf("matrix.host must include a scheme, got %q", c.Matrix.Host)
	}
	if strings.TrimSpace(c.Matrix.AccessToken) == "" {
		return errors.New("matrix.access_token must not be empty")
	}
	if strings.TrimSpace(c.Twilio.AccountSID) == "" {
		return errors.New("twilio.account_sid must not be empty")
	}
	if strings.TrimSpace(c.Twilio.AuthToken) == "" {
		return errors.New("twilio.auth_token must not be empty")
	}
	if strings.TrimSpace(c.Twilio.FromNum) == "" {
		return errors.New("twilio.from_num must not be empty")
	}
	if strings.TrimSpace(c.CommandPrefix) == "" {
		return errors.New("command_prefix must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of trace, debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}
