// Package userinfo resolves the municipality agency of a patron-bound token
// via the user-info service.
package userinfo

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"publizon-adapter/internal/platform/fetcher"
	dErrors "publizon-adapter/pkg/domain-errors"
	"publizon-adapter/pkg/requestcontext"
)

type attributes struct {
	MunicipalityAgencyID string `json:"municipalityAgencyId"`
}

type response struct {
	Attributes attributes `json:"attributes"`
}

// Client queries the user-info service.
type Client struct {
	baseURL string
	fetch   *fetcher.Fetcher
	logger  *slog.Logger
}

func NewClient(baseURL string, fetch *fetcher.Fetcher, logger *slog.Logger) *Client {
	return &Client{baseURL: baseURL, fetch: fetch, logger: logger}
}

// ResolvePatronAgency returns the municipalityAgencyId bound to the token's
// patron. A response without the attribute and an outright 401 mean the same
// thing to callers: the token client is not configured for patron scoping.
func (c *Client) ResolvePatronAgency(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.KindUpstreamFailure, "internal server error")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.fetch.Do(ctx, req, "userinfo")
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		var body response
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			return "", dErrors.Wrap(err, dErrors.KindUpstreamFailure, "internal server error")
		}
		if body.Attributes.MunicipalityAgencyID == "" {
			return "", c.missingMunicipalityAgency(ctx)
		}
		return body.Attributes.MunicipalityAgencyID, nil
	case http.StatusUnauthorized:
		return "", c.missingMunicipalityAgency(ctx)
	default:
		c.logger.ErrorContext(ctx, "userinfo request failed, this is unexpected",
			"req_id", requestcontext.RequestID(ctx),
			"status", res.StatusCode,
		)
		return "", dErrors.New(dErrors.KindUpstreamFailure, "internal server error")
	}
}

func (c *Client) missingMunicipalityAgency(ctx context.Context) error {
	c.logger.InfoContext(ctx, "userinfo attributes are missing a municipalityAgencyId",
		"req_id", requestcontext.RequestID(ctx),
	)
	return dErrors.New(dErrors.KindMissingPatronAgency,
		"token client does not include a municipalityAgencyId")
}
