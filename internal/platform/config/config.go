// Package config builds process configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the adapter reads from its environment.
type Config struct {
	Addr    string
	AppName string

	// Collaborator base URLs.
	SmaugURL    string
	UserinfoURL string
	PublizonURL string

	// Static credential list, CSV lines of "agencyId,licenseKey,retailerId".
	Credentials string

	// Remote credential lookup (used instead of Credentials when
	// CredentialsURL is set): list endpoint, service token issuance endpoint
	// and the client credentials for it.
	CredentialsURL   string
	AuthURL          string
	AuthClientID     string
	AuthClientSecret string

	// Optional egress proxy for provider traffic.
	HTTPSProxy string

	// CORS allowed origin; "all" means any origin.
	CORSOrigin string

	// Route classification policy: "prefix" (default) or "exact".
	RouteMatch string

	// Bound on a single outbound provider call.
	UpstreamTimeout time.Duration
}

// RemoteCredentials reports whether credentials are fetched from the identity
// service instead of the static list.
func (c Config) RemoteCredentials() bool {
	return c.CredentialsURL != ""
}

// FromEnv builds a Config from environment variables, applying defaults for
// anything optional.
func FromEnv() Config {
	return Config{
		Addr:             envOr("ADAPTER_ADDR", ":3000"),
		AppName:          envOr("APP_NAME", "publizon-adapter"),
		SmaugURL:         os.Getenv("SMAUG_URL"),
		UserinfoURL:      os.Getenv("USERINFO_URL"),
		PublizonURL:      os.Getenv("PUBLIZON_URL"),
		Credentials:      os.Getenv("PUBLIZON_CREDENTIALS"),
		CredentialsURL:   os.Getenv("CREDENTIALS_URL"),
		AuthURL:          os.Getenv("AUTH_URL"),
		AuthClientID:     os.Getenv("AUTH_CLIENT_ID"),
		AuthClientSecret: os.Getenv("AUTH_CLIENT_SECRET"),
		HTTPSProxy:       os.Getenv("HTTPS_PROXY"),
		CORSOrigin:       envOr("CORS_ORIGIN", "all"),
		RouteMatch:       envOr("ROUTE_MATCH", "prefix"),
		UpstreamTimeout:  envDurationSeconds("UPSTREAM_TIMEOUT_SECONDS", 60*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
