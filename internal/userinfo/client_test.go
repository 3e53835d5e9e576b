package userinfo

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"publizon-adapter/internal/platform/fetcher"
	dErrors "publizon-adapter/pkg/domain-errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := slog.New(slog.DiscardHandler)
	return NewClient(srv.URL+"/userinfo", fetcher.New(srv.Client(), logger, nil), logger)
}

func TestResolvePatronAgency(t *testing.T) {
	ctx := context.Background()

	t.Run("returns municipalityAgencyId", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer AUTHENTICATED_TOKEN", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"attributes":{"municipalityAgencyId":"000002"}}`))
		})

		agencyID, err := client.ResolvePatronAgency(ctx, "AUTHENTICATED_TOKEN")
		require.NoError(t, err)
		assert.Equal(t, "000002", agencyID)
	})

	t.Run("missing attribute is forbidden", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"attributes":{}}`))
		})

		_, err := client.ResolvePatronAgency(ctx, "AUTHENTICATED_TOKEN")
		require.Error(t, err)
		assert.True(t, dErrors.HasKind(err, dErrors.KindMissingPatronAgency))
		assert.Equal(t, "token client does not include a municipalityAgencyId", dErrors.MessageOf(err))
	})

	t.Run("401 is treated as a missing attribute, not a distinct error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.ResolvePatronAgency(ctx, "AUTHENTICATED_TOKEN")
		require.Error(t, err)
		assert.True(t, dErrors.HasKind(err, dErrors.KindMissingPatronAgency))
	})

	t.Run("unexpected status is an upstream failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.ResolvePatronAgency(ctx, "AUTHENTICATED_TOKEN")
		require.Error(t, err)
		assert.True(t, dErrors.HasKind(err, dErrors.KindUpstreamFailure))
	})
}
