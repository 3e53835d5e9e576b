// Package gateway sequences the credential-resolution pipeline for every
// inbound request: token extraction, route classification, identity and
// patron resolution, credential selection, and forwarding.
package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"publizon-adapter/internal/credentials"
	"publizon-adapter/internal/platform/metrics"
	"publizon-adapter/internal/routes"
	"publizon-adapter/internal/smaug"
	dErrors "publizon-adapter/pkg/domain-errors"
	"publizon-adapter/pkg/platform/httputil"
	"publizon-adapter/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// IdentityResolver resolves a bearer token to an agency configuration.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string, patronScopeRequired bool) (*smaug.Configuration, error)
}

// PatronResolver resolves a bearer token to the patron's municipality agency.
type PatronResolver interface {
	ResolvePatronAgency(ctx context.Context, token string) (string, error)
}

// CredentialResolver looks up the credential record for an agency.
type CredentialResolver interface {
	Lookup(ctx context.Context, agencyID string) (credentials.Credentials, error)
}

// Forwarder sends the composed request to the provider and relays the
// response, returning the relayed status code.
type Forwarder interface {
	Forward(w http.ResponseWriter, r *http.Request, creds credentials.Credentials, cardNumber string) (int, error)
}

// Handler runs the pipeline. All collaborators are injected so tests can
// exercise the sequencing and fallback rules in isolation.
type Handler struct {
	identity  IdentityResolver
	patron    PatronResolver
	directory CredentialResolver
	forwarder Forwarder
	table     *routes.Table
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func New(
	identity IdentityResolver,
	patron PatronResolver,
	directory CredentialResolver,
	forwarder Forwarder,
	table *routes.Table,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		identity:  identity,
		patron:    patron,
		directory: directory,
		forwarder: forwarder,
		table:     table,
		logger:    logger,
		metrics:   m,
	}
}

// summary collects the fields of the per-request TRACK log line.
type summary struct {
	class                string
	agencyID             string
	clientID             string
	authenticated        bool
	municipalityAgencyID string
}

// Handle processes one inbound request end to end. The first failure at any
// step terminates the pipeline and is rendered with its mapped status.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	sum := summary{}

	status, err := h.run(w, r, &sum)
	if err != nil {
		kind := dErrors.KindOf(err)
		status = dErrors.HTTPStatus(kind)
		if h.metrics != nil {
			h.metrics.PipelineFailures.WithLabelValues(string(kind)).Inc()
		}
		if dErrors.Expected(err) {
			h.logger.InfoContext(ctx, "request rejected",
				"req_id", requestcontext.RequestID(ctx),
				"kind", string(kind),
				"error", err,
			)
		} else {
			// Untagged errors are likely defects, not control flow.
			h.logger.ErrorContext(ctx, "request failed unexpectedly",
				"req_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
	}

	if h.metrics != nil {
		h.metrics.RequestsTotal.WithLabelValues(strconv.Itoa(status), sum.class).Inc()
	}
	h.logger.InfoContext(ctx, "TRACK",
		"req_id", requestcontext.RequestID(ctx),
		"status", status,
		"method", r.Method,
		"url", r.URL.RequestURI(),
		"class", sum.class,
		"agency_id", sum.agencyID,
		"client_id", sum.clientID,
		"authenticated", sum.authenticated,
		"municipality_agency_id", sum.municipalityAgencyID,
		"client_ip", requestcontext.ClientIP(ctx),
		"user_agent", requestcontext.UserAgent(ctx),
		"total_ms", time.Since(start).Milliseconds(),
	)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request, sum *summary) (int, error) {
	ctx := r.Context()

	token, err := bearerToken(r)
	if err != nil {
		return 0, err
	}

	class := h.table.Classify(r.Method, r.URL.Path)
	sum.class = class.String()

	configuration, err := h.identity.Resolve(ctx, token, class != routes.Public)
	if err != nil {
		return 0, err
	}
	sum.agencyID = configuration.AgencyID
	sum.clientID = configuration.App.ClientID
	sum.authenticated = configuration.Authenticated()

	// The patron's municipality agency takes precedence over the token's own
	// agency for credential selection, and the card number rides along only
	// on patron-scoped routes.
	agencyID := configuration.AgencyID
	cardNumber := ""
	if configuration.Authenticated() && class != routes.Public {
		municipalityAgencyID, err := h.patron.ResolvePatronAgency(ctx, token)
		if err != nil {
			return 0, err
		}
		sum.municipalityAgencyID = municipalityAgencyID
		agencyID = municipalityAgencyID
		cardNumber = configuration.User.UniqueID
	}

	creds, err := h.directory.Lookup(ctx, agencyID)
	if err != nil {
		return 0, err
	}

	return h.forwarder.Forward(w, r, creds, cardNumber)
}

// bearerToken extracts the token from the Authorization header, stripping a
// case-insensitive "bearer " prefix.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", dErrors.New(dErrors.KindMissingAuthorization,
			"headers should have required property 'authorization'")
	}
	const prefix = "bearer "
	if len(header) >= len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):], nil
	}
	return header, nil
}
