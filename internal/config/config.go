// Package config loads server configuration from the environment and,
// optionally, from a standard google-ads.yaml file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ptmyrd/google-ads-mcp/internal/googleads"
)

// Environment variable names.
const (
	EnvDeveloperToken  = "GOOGLE_ADS_DEVELOPER_TOKEN"
	EnvClientID        = "GOOGLE_ADS_CLIENT_ID"
	EnvClientSecret    = "GOOGLE_ADS_CLIENT_SECRET"
	EnvRefreshToken    = "GOOGLE_ADS_REFRESH_TOKEN"
	EnvLoginCustomerID = "GOOGLE_ADS_LOGIN_CUSTOMER_ID"
	EnvConfigFilePath  = "GOOGLE_ADS_CONFIGURATION_FILE_PATH"
	EnvBearerToken     = "MCP_BEARER_TOKEN"
	EnvPort            = "PORT"
)

const defaultPort = 8080

// Config holds everything the serve command needs to boot.
type Config struct {
	Port        int
	Credentials googleads.Credentials
}

// adsFile mirrors the subset of google-ads.yaml keys we consume.
type adsFile struct {
	DeveloperToken  string `yaml:"developer_token"`
	ClientID        string `yaml:"client_id"`
	ClientSecret    string `yaml:"client_secret"`
	RefreshToken    string `yaml:"refresh_token"`
	LoginCustomerID string `yaml:"login_customer_id"`
}

// FromEnv builds a Config from the process environment. If
// GOOGLE_ADS_CONFIGURATION_FILE_PATH points at a google-ads.yaml, its values
// are used as defaults; environment variables override file values.
// Missing required credential fields are an error: credential problems are
// fatal at startup, never a per-request concern.
func FromEnv() (*Config, error) {
	var file adsFile
	if path := os.Getenv(EnvConfigFilePath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	creds := googleads.Credentials{
		DeveloperToken:  firstNonEmpty(os.Getenv(EnvDeveloperToken), file.DeveloperToken),
		ClientID:        firstNonEmpty(os.Getenv(EnvClientID), file.ClientID),
		ClientSecret:    firstNonEmpty(os.Getenv(EnvClientSecret), file.ClientSecret),
		RefreshToken:    firstNonEmpty(os.Getenv(EnvRefreshToken), file.RefreshToken),
		LoginCustomerID: firstNonEmpty(os.Getenv(EnvLoginCustomerID), file.LoginCustomerID),
	}

	required := []struct {
		name  string
		value string
	}{
		{EnvDeveloperToken, creds.DeveloperToken},
		{EnvClientID, creds.ClientID},
		{EnvClientSecret, creds.ClientSecret},
		{EnvRefreshToken, creds.RefreshToken},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("missing required configuration: %s", r.name)
		}
	}

	port := defaultPort
	if raw := os.Getenv(EnvPort); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("invalid %s value %q", EnvPort, raw)
		}
		port = p
	}

	return &Config{Port: port, Credentials: creds}, nil
}

// BearerToken reads the gateway bearer token from the environment. It is
// deliberately re-read on every request so a token rotation via environment
// update takes effect without a restart. Empty means auth is disabled.
func BearerToken() string {
	return os.Getenv(EnvBearerToken)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
