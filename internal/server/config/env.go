package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type setter func(c *Config, v string) error

func str(field func(*Config) *string) setter {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func duration(field func(*Config) *time.Duration) setter {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func integer(field func(*Config) *int) setter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

// envSettings maps lower-cased variable names (prefix stripped) onto Config.
// The names match the JSON keys.
var envSettings = map[string]setter{
	"http_addr":        str(func(c *Config) *string { return &c.HTTPAddr }),
	"grpc_health_addr": str(func(c *Config) *string { return &c.GRPCHealthAddr }),
	"database_dsn":     str(func(c *Config) *string { return &c.DatabaseDSN }),
	"token_key":        str(func(c *Config) *string { return &c.TokenKey }),
	"access_token_validity_duration": duration(func(c *Config) *time.Duration {
		return &c.AccessTokenValidityDuration
	}),
	"refresh_token_validity_duration": duration(func(c *Config) *time.Duration {
		return &c.RefreshTokenValidityDuration
	}),
	"verify_refresh_token": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.VerifyRefreshToken = b
		return nil
	},
	"log_level":             str(func(c *Config) *string { return &c.LogLevel }),
	"log_backend":           str(func(c *Config) *string { return &c.LogBackend }),
	"storage_backend":       str(func(c *Config) *string { return &c.StorageBackend }),
	"photo_folder":          str(func(c *Config) *string { return &c.PhotoFolder }),
	"cloudinary_cloud_name": str(func(c *Config) *string { return &c.CloudinaryCloudName }),
	"cloudinary_api_key":    str(func(c *Config) *string { return &c.CloudinaryAPIKey }),
	"cloudinary_api_secret": str(func(c *Config) *string { return &c.CloudinaryAPISecret }),
	"s3_root_user":          str(func(c *Config) *string { return &c.S3RootUser }),
	"s3_root_password":      str(func(c *Config) *string { return &c.S3RootPassword }),
	"s3_bucket":             str(func(c *Config) *string { return &c.S3Bucket }),
	"s3_region":             str(func(c *Config) *string { return &c.S3Region }),
	"s3_base_endpoint":      str(func(c *Config) *string { return &c.S3BaseEndpoint }),
	"s3_public_base_url":    str(func(c *Config) *string { return &c.S3PublicBaseURL }),
	"clamav_addr":           str(func(c *Config) *string { return &c.ClamAVAddr }),
	"scan_timeout":          duration(func(c *Config) *time.Duration { return &c.ScanTimeout }),
	"similarity_threshold": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.SimilarityThreshold = f
		return nil
	},
	"similarity_box_size": integer(func(c *Config) *int { return &c.SimilarityBoxSize }),
	"resize_filter":       str(func(c *Config) *string { return &c.ResizeFilter }),
	"similarity_workers":  integer(func(c *Config) *int { return &c.SimilarityWorkers }),
	"photo_fetch_timeout": duration(func(c *Config) *time.Duration { return &c.PhotoFetchTimeout }),
	"max_upload_bytes": func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.MaxUploadBytes = n
		return nil
	},
	"cors_origins": func(c *Config, v string) error {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
		return nil
	},
	"rate_limit_per_minute":       integer(func(c *Config) *int { return &c.RateLimitPerMinute }),
	"login_rate_limit_per_minute": integer(func(c *Config) *int { return &c.LoginRateLimitPerMinute }),
	"admin_username":              str(func(c *Config) *string { return &c.AdminUsername }),
	"admin_password":              str(func(c *Config) *string { return &c.AdminPassword }),
	"shutdown_timeout":            duration(func(c *Config) *time.Duration { return &c.ShutdownTimeout }),
	"health_check_interval":       duration(func(c *Config) *time.Duration { return &c.HealthCheckInterval }),
}

// parseEnv overlays DATINGAPP_* variables, e.g. DATINGAPP_TOKEN_KEY.
func parseEnv(config *Config) error {
	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return err
	}

	for key, set := range envSettings {
		if !k.Exists(key) {
			continue
		}
		if err := set(config, k.String(key)); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, strings.ToUpper(key), err)
		}
	}
	return nil
}
