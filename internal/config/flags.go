package config

import (
	"flag"
	"os"
	"time"

	"authd/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-d string     PostgreSQL DSN
//	-env string   environment, "dev" or "prod"
//	-s string     access-token HMAC secret key
//	-k string     refresh-token HMAC secret key
//	-p string     password pepper secret
//	-t int        access token validity, minutes
//	-r int        refresh token validity, minutes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration flags
// are accepted as integers in minutes and converted to time.Duration values.
// The path lists (prefixes, exclusions) are configurable via JSON only.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-env", "-s", "-k", "-p", "-t", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Environment, "env", config.Environment, "environment (dev|prod)")
	fs.StringVar(&config.AccessTokenSecretKey, "s", config.AccessTokenSecretKey, "access token secret key")
	fs.StringVar(&config.RefreshTokenSecretKey, "k", config.RefreshTokenSecretKey, "refresh token secret key")
	fs.StringVar(&config.PepperSecretKey, "p", config.PepperSecretKey, "password pepper secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
}
