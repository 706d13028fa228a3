package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/flagx"
)

// parseFlags applies the short command-line flags:
//
//	-a string   HTTP bind address (":5001")
//	-g string   gRPC health bind address (":50051")
//	-d string   PostgreSQL DSN, or "memory" for the in-memory store
//	-k string   token signing key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-l string   log level
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-k", "-t", "-r", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.TokenKey, "k", config.TokenKey, "token signing key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	access := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (minutes)")
	refresh := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (minutes)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*access) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refresh) * time.Minute
		}
	})
	return nil
}
