package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

func parseEnv(cfg *Config) error {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return err
	}

	if k.Exists("server_url") {
		cfg.ServerURL = k.String("server_url")
	}
	if k.Exists("data_dir") {
		cfg.DataDir = k.String("data_dir")
	}
	if k.Exists("request_timeout") {
		d, err := time.ParseDuration(k.String("request_timeout"))
		if err != nil {
			return fmt.Errorf("%srequest_timeout: %w", EnvPrefix, err)
		}
		cfg.RequestTimeout = d
	}
	if k.Exists("key_bits") {
		n, err := strconv.Atoi(k.String("key_bits"))
		if err != nil {
			return fmt.Errorf("%skey_bits: %w", EnvPrefix, err)
		}
		cfg.KeyBits = n
	}
	return nil
}
