package credentials

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"publizon-adapter/internal/platform/fetcher"
	dErrors "publizon-adapter/pkg/domain-errors"
	"publizon-adapter/pkg/requestcontext"
)

// serviceToken is the cached anonymous service token used for credential
// lookups. It carries no usable expiry signal; staleness only shows up as a
// failed lookup.
type serviceToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// RemoteDirectory fetches credential lists from the identity service using a
// service-level access token.
//
// The token lives in a single atomic slot shared across requests. Concurrent
// refreshes may race; the extra fetch is harmless and cheaper than a lock,
// and readers always see a complete token value.
type RemoteDirectory struct {
	listURL      string
	authURL      string
	clientID     string
	clientSecret string

	token  atomic.Pointer[serviceToken]
	fetch  *fetcher.Fetcher
	logger *slog.Logger
}

func NewRemoteDirectory(listURL, authURL, clientID, clientSecret string, fetch *fetcher.Fetcher, logger *slog.Logger) *RemoteDirectory {
	return &RemoteDirectory{
		listURL:      listURL,
		authURL:      authURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		fetch:        fetch,
		logger:       logger,
	}
}

// Lookup fetches the credential list and returns the record for an agency.
//
// A failed list fetch cannot be told apart from an expired cached token, so
// the directory refreshes the token exactly once and retries. A second
// failure is reported as an upstream failure.
func (d *RemoteDirectory) Lookup(ctx context.Context, agencyID string) (Credentials, error) {
	token, err := d.cachedToken(ctx)
	if err != nil {
		return Credentials{}, err
	}

	records, err := d.fetchList(ctx, token)
	if err != nil {
		d.logger.InfoContext(ctx, "credential list fetch failed, refreshing service token",
			"req_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		token, err = d.refreshToken(ctx)
		if err != nil {
			return Credentials{}, err
		}
		records, err = d.fetchList(ctx, token)
		if err != nil {
			return Credentials{}, dErrors.Wrap(err, dErrors.KindUpstreamFailure, "internal server error")
		}
	}

	record, ok := records[agencyID]
	if !ok || !record.Complete() {
		d.logger.InfoContext(ctx, "agency is missing Publizon credentials",
			"req_id", requestcontext.RequestID(ctx),
			"agency_id", agencyID,
		)
		return Credentials{}, dErrors.New(dErrors.KindMissingCredentials,
			"Agency is missing Publizon credentials")
	}
	return record, nil
}

func (d *RemoteDirectory) cachedToken(ctx context.Context) (*serviceToken, error) {
	if token := d.token.Load(); token != nil {
		return token, nil
	}
	return d.refreshToken(ctx)
}

func (d *RemoteDirectory) refreshToken(ctx context.Context) (*serviceToken, error) {
	form := url.Values{
		"grant_type":    {"password"},
		"username":      {"@"},
		"password":      {"@"},
		"client_id":     {d.clientID},
		"client_secret": {d.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.authURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.KindUpstreamFailure, "internal server error")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := d.fetch.Do(ctx, req, "auth")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		d.logger.ErrorContext(ctx, "service token request failed",
			"req_id", requestcontext.RequestID(ctx),
			"status", res.StatusCode,
		)
		return nil, dErrors.New(dErrors.KindUpstreamFailure, "internal server error")
	}

	var token serviceToken
	if err := json.NewDecoder(res.Body).Decode(&token); err != nil {
		return nil, dErrors.Wrap(err, dErrors.KindUpstreamFailure, "internal server error")
	}
	d.token.Store(&token)
	return &token, nil
}

func (d *RemoteDirectory) fetchList(ctx context.Context, token *serviceToken) (map[string]Credentials, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.listURL, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.KindUpstreamFailure, "internal server error")
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	res, err := d.fetch.Do(ctx, req, "credentials")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, dErrors.New(dErrors.KindUpstreamFailure, "internal server error")
	}

	var records map[string]Credentials
	if err := json.NewDecoder(res.Body).Decode(&records); err != nil {
		return nil, dErrors.Wrap(err, dErrors.KindUpstreamFailure, "internal server error")
	}
	return records, nil
}
