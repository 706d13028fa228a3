// Package config loads runtime configuration for the terminal client.
//
// Sources are applied in order, later ones winning: built-in defaults, an
// optional JSON file (-c/-config or DATINGAPP_CLI_CONFIG), DATINGAPP_CLI_*
// environment variables and command-line flags.
//
//	-a string   base URL of the API server
//	-d string   directory holding the session database and message keys
//	-t int      request timeout in seconds
package config

import (
	"fmt"
	"time"
)

// EnvPrefix prefixes every environment variable read by the client.
const EnvPrefix = "DATINGAPP_CLI_"

// Config holds runtime settings for the terminal client.
type Config struct {
	ServerURL      string
	DataDir        string
	RequestTimeout time.Duration
	// KeyBits is the RSA modulus size used by keygen.
	KeyBits int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5001"
	c.DataDir = ".datingapp"
	c.RequestTimeout = 30 * time.Second
	c.KeyBits = 2048
}

// LoadConfig applies defaults, then the JSON file, the environment and the
// flags found in args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
