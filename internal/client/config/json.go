package config

import (
	"os"

	"github.com/dmitrijs2005/datingapp/internal/flagx"
	"github.com/dmitrijs2005/datingapp/internal/timex"
	"github.com/goccy/go-json"
)

// JsonConfig is the on-disk form. Absent fields keep their current value.
type JsonConfig struct {
	ServerURL      *string         `json:"server_url"`
	DataDir        *string         `json:"data_dir"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	KeyBits        *int            `json:"key_bits"`
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFilePath(args, EnvPrefix+"CONFIG")
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	if jc.ServerURL != nil {
		cfg.ServerURL = *jc.ServerURL
	}
	if jc.DataDir != nil {
		cfg.DataDir = *jc.DataDir
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.KeyBits != nil {
		cfg.KeyBits = *jc.KeyBits
	}
	return nil
}
