package config

import (
	"os"

	"github.com/dmitrijs2005/datingapp/internal/flagx"
	"github.com/dmitrijs2005/datingapp/internal/timex"
	"github.com/goccy/go-json"
)

// JsonConfig mirrors Config for JSON files. Durations accept "24h" style
// strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	GRPCHealthAddr               string         `json:"grpc_health_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	TokenKey                     string         `json:"token_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	VerifyRefreshToken           bool           `json:"verify_refresh_token"`
	LogLevel                     string         `json:"log_level"`
	LogBackend                   string         `json:"log_backend"`
	StorageBackend               string         `json:"storage_backend"`
	PhotoFolder                  string         `json:"photo_folder"`
	CloudinaryCloudName          string         `json:"cloudinary_cloud_name"`
	CloudinaryAPIKey             string         `json:"cloudinary_api_key"`
	CloudinaryAPISecret          string         `json:"cloudinary_api_secret"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	S3PublicBaseURL              string         `json:"s3_public_base_url"`
	ClamAVAddr                   string         `json:"clamav_addr"`
	ScanTimeout                  timex.Duration `json:"scan_timeout"`
	SimilarityThreshold          float64        `json:"similarity_threshold"`
	SimilarityBoxSize            int            `json:"similarity_box_size"`
	ResizeFilter                 string         `json:"resize_filter"`
	SimilarityWorkers            int            `json:"similarity_workers"`
	PhotoFetchTimeout            timex.Duration `json:"photo_fetch_timeout"`
	MaxUploadBytes               int64          `json:"max_upload_bytes"`
	CORSOrigins                  []string       `json:"cors_origins"`
	RateLimitPerMinute           int            `json:"rate_limit_per_minute"`
	LoginRateLimitPerMinute      int            `json:"login_rate_limit_per_minute"`
	AdminUsername                string         `json:"admin_username"`
	AdminPassword                string         `json:"admin_password"`
	ShutdownTimeout              timex.Duration `json:"shutdown_timeout"`
	HealthCheckInterval          timex.Duration `json:"health_check_interval"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:                     c.HTTPAddr,
		GRPCHealthAddr:               c.GRPCHealthAddr,
		DatabaseDSN:                  c.DatabaseDSN,
		TokenKey:                     c.TokenKey,
		AccessTokenValidityDuration:  timex.Duration{Duration: c.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: c.RefreshTokenValidityDuration},
		VerifyRefreshToken:           c.VerifyRefreshToken,
		LogLevel:                     c.LogLevel,
		LogBackend:                   c.LogBackend,
		StorageBackend:               c.StorageBackend,
		PhotoFolder:                  c.PhotoFolder,
		CloudinaryCloudName:          c.CloudinaryCloudName,
		CloudinaryAPIKey:             c.CloudinaryAPIKey,
		CloudinaryAPISecret:          c.CloudinaryAPISecret,
		S3RootUser:                   c.S3RootUser,
		S3RootPassword:               c.S3RootPassword,
		S3Bucket:                     c.S3Bucket,
		S3Region:                     c.S3Region,
		S3BaseEndpoint:               c.S3BaseEndpoint,
		S3PublicBaseURL:              c.S3PublicBaseURL,
		ClamAVAddr:                   c.ClamAVAddr,
		ScanTimeout:                  timex.Duration{Duration: c.ScanTimeout},
		SimilarityThreshold:          c.SimilarityThreshold,
		SimilarityBoxSize:            c.SimilarityBoxSize,
		ResizeFilter:                 c.ResizeFilter,
		SimilarityWorkers:            c.SimilarityWorkers,
		PhotoFetchTimeout:            timex.Duration{Duration: c.PhotoFetchTimeout},
		MaxUploadBytes:               c.MaxUploadBytes,
		CORSOrigins:                  c.CORSOrigins,
		RateLimitPerMinute:           c.RateLimitPerMinute,
		LoginRateLimitPerMinute:      c.LoginRateLimitPerMinute,
		AdminUsername:                c.AdminUsername,
		AdminPassword:                c.AdminPassword,
		ShutdownTimeout:              timex.Duration{Duration: c.ShutdownTimeout},
		HealthCheckInterval:          timex.Duration{Duration: c.HealthCheckInterval},
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.HTTPAddr = j.HTTPAddr
	c.GRPCHealthAddr = j.GRPCHealthAddr
	c.DatabaseDSN = j.DatabaseDSN
	c.TokenKey = j.TokenKey
	c.AccessTokenValidityDuration = j.AccessTokenValidityDuration.Duration
	c.RefreshTokenValidityDuration = j.RefreshTokenValidityDuration.Duration
	c.VerifyRefreshToken = j.VerifyRefreshToken
	c.LogLevel = j.LogLevel
	c.LogBackend = j.LogBackend
	c.StorageBackend = j.StorageBackend
	c.PhotoFolder = j.PhotoFolder
	c.CloudinaryCloudName = j.CloudinaryCloudName
	c.CloudinaryAPIKey = j.CloudinaryAPIKey
	c.CloudinaryAPISecret = j.CloudinaryAPISecret
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.S3PublicBaseURL = j.S3PublicBaseURL
	c.ClamAVAddr = j.ClamAVAddr
	c.ScanTimeout = j.ScanTimeout.Duration
	c.SimilarityThreshold = j.SimilarityThreshold
	c.SimilarityBoxSize = j.SimilarityBoxSize
	c.ResizeFilter = j.ResizeFilter
	c.SimilarityWorkers = j.SimilarityWorkers
	c.PhotoFetchTimeout = j.PhotoFetchTimeout.Duration
	c.MaxUploadBytes = j.MaxUploadBytes
	c.CORSOrigins = j.CORSOrigins
	c.RateLimitPerMinute = j.RateLimitPerMinute
	c.LoginRateLimitPerMinute = j.LoginRateLimitPerMinute
	c.AdminUsername = j.AdminUsername
	c.AdminPassword = j.AdminPassword
	c.ShutdownTimeout = j.ShutdownTimeout.Duration
	c.HealthCheckInterval = j.HealthCheckInterval.Duration
}

// parseJson overlays the file named by -c/-config (or DATINGAPP_CONFIG).
// Keys missing from the file keep their current values.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args, EnvPrefix+"CONFIG")
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	j := toJson(config)
	if err := json.Unmarshal(file, j); err != nil {
		return err
	}
	j.apply(config)
	return nil
}
