package config

import (
	"encoding/json"
	"os"

	"authd/internal/flagx"
	"authd/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for the token lifetimes, which allows parsing both
// string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr                 string         `json:"endpoint_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	Environment                  string         `json:"environment"`
	AccessTokenSecretKey         string         `json:"access_token_secret_key"`
	RefreshTokenSecretKey        string         `json:"refresh_token_secret_key"`
	PepperSecretKey              string         `json:"pepper_secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	RefreshTokenCookieName       string         `json:"refresh_token_cookie_name"`
	RefreshTokenPath             string         `json:"refresh_token_path"`
	RoutePrefixes                []string       `json:"route_prefixes"`
	AuthExcludePaths             []string       `json:"auth_exclude_paths"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path is taken from the -c or -config command-line flags.
// If it is not set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
//
// Only fields present in the file override the current values; zero-value
// fields keep whatever the defaults established.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.Environment != "" {
		config.Environment = c.Environment
	}
	if c.AccessTokenSecretKey != "" {
		config.AccessTokenSecretKey = c.AccessTokenSecretKey
	}
	if c.RefreshTokenSecretKey != "" {
		config.RefreshTokenSecretKey = c.RefreshTokenSecretKey
	}
	if c.PepperSecretKey != "" {
		config.PepperSecretKey = c.PepperSecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.RefreshTokenCookieName != "" {
		config.RefreshTokenCookieName = c.RefreshTokenCookieName
	}
	if c.RefreshTokenPath != "" {
		config.RefreshTokenPath = c.RefreshTokenPath
	}
	if len(c.RoutePrefixes) > 0 {
		config.RoutePrefixes = c.RoutePrefixes
	}
	if len(c.AuthExcludePaths) > 0 {
		config.AuthExcludePaths = c.AuthExcludePaths
	}
}
