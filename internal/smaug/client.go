// Package smaug resolves opaque bearer tokens into agency configurations via
// the identity-configuration service.
package smaug

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"publizon-adapter/internal/platform/fetcher"
	dErrors "publizon-adapter/pkg/domain-errors"
	"publizon-adapter/pkg/requestcontext"
)

// Configuration is the resolved identity of a token. AgencyID identifies the
// library that owns the token; User.UniqueID is present only for tokens bound
// to a patron.
type Configuration struct {
	AgencyID string `json:"agencyId"`
	App      struct {
		ClientID string `json:"clientId"`
	} `json:"app"`
	User struct {
		UniqueID string `json:"uniqueId"`
	} `json:"user"`
}

// Authenticated reports whether the token is bound to a specific patron.
func (c *Configuration) Authenticated() bool {
	return c.User.UniqueID != ""
}

// Client queries the identity-configuration service.
type Client struct {
	baseURL string
	fetch   *fetcher.Fetcher
	logger  *slog.Logger
}

func NewClient(baseURL string, fetch *fetcher.Fetcher, logger *slog.Logger) *Client {
	return &Client{baseURL: baseURL, fetch: fetch, logger: logger}
}

// Resolve looks up the configuration for a token.
//
// A 404 means the token is unknown (forbidden), a 200 without an agency id is
// a misconfigured token client (forbidden), anything else is an upstream
// failure. When patronScopeRequired is set and the token carries no patron,
// that is only logged: anonymous tokens are allowed onto patron-scoped
// routes, and the provider decides what they may do there.
func (c *Client) Resolve(ctx context.Context, token string, patronScopeRequired bool) (*Configuration, error) {
	u := c.baseURL + "?" + url.Values{"token": {token}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.KindUpstreamFailure, "internal server error")
	}

	res, err := c.fetch.Do(ctx, req, "smaug")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		var configuration Configuration
		if err := json.NewDecoder(res.Body).Decode(&configuration); err != nil {
			return nil, dErrors.Wrap(err, dErrors.KindUpstreamFailure, "internal server error")
		}
		if configuration.AgencyID == "" {
			return nil, dErrors.New(dErrors.KindMissingAgencyConfiguration,
				"Token client has missing configuration 'agencyId'")
		}
		if patronScopeRequired && !configuration.Authenticated() {
			// Deliberate soft check, see doc comment.
			c.logger.InfoContext(ctx, "smaug configuration is missing a user or uniqueId",
				"req_id", requestcontext.RequestID(ctx),
				"agency_id", configuration.AgencyID,
			)
		}
		return &configuration, nil
	case http.StatusNotFound:
		return nil, dErrors.New(dErrors.KindInvalidToken, "invalid token")
	default:
		c.logger.ErrorContext(ctx, "smaug request failed, this is unexpected",
			"req_id", requestcontext.RequestID(ctx),
			"status", res.StatusCode,
		)
		return nil, dErrors.New(dErrors.KindUpstreamFailure, "internal server error")
	}
}
