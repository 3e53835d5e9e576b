package smaug

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
	return NewClient(srv.URL+"/smaug/configuration", fetcher.New(srv.Client(), logger, nil), logger)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("valid anonymous configuration", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "SOME_TOKEN", r.URL.Query().Get("token"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"agencyId":"000001","app":{"clientId":"some-clientId"}}`))
		})

		configuration, err := client.Resolve(ctx, "SOME_TOKEN", false)
		require.NoError(t, err)
		assert.Equal(t, "000001", configuration.AgencyID)
		assert.Equal(t, "some-clientId", configuration.App.ClientID)
		assert.False(t, configuration.Authenticated())
	})

	t.Run("authenticated configuration", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"agencyId":"000001","app":{"clientId":"some-clientId"},"user":{"uniqueId":"some-uniqueId"}}`))
		})

		configuration, err := client.Resolve(ctx, "AUTHENTICATED_TOKEN", true)
		require.NoError(t, err)
		assert.True(t, configuration.Authenticated())
		assert.Equal(t, "some-uniqueId", configuration.User.UniqueID)
	})

	t.Run("unknown token maps 404 to invalid token", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.Resolve(ctx, "INVALID_TOKEN", false)
		require.Error(t, err)
		assert.True(t, dErrors.HasKind(err, dErrors.KindInvalidToken))
		assert.Equal(t, "invalid token", dErrors.MessageOf(err))
	})

	t.Run("missing agencyId is a hard failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"app":{"clientId":"some-clientId"}}`))
		})

		_, err := client.Resolve(ctx, "VALID_TOKEN", false)
		require.Error(t, err)
		assert.True(t, dErrors.HasKind(err, dErrors.KindMissingAgencyConfiguration))
		assert.Equal(t, "Token client has missing configuration 'agencyId'", dErrors.MessageOf(err))
	})

	t.Run("anonymous token on patron route does not fail", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"agencyId":"000001","app":{"clientId":"some-clientId"}}`))
		})

		configuration, err := client.Resolve(ctx, "ANONYMOUS_TOKEN", true)
		require.NoError(t, err, "missing patron identity is tolerated and only logged")
		assert.False(t, configuration.Authenticated())
	})

	t.Run("unexpected status is an upstream failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Resolve(ctx, "VALID_TOKEN", false)
		require.Error(t, err)
		assert.True(t, dErrors.HasKind(err, dErrors.KindUpstreamFailure))
	})

	t.Run("transport error is an upstream failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()
		logger := slog.New(slog.DiscardHandler)
		client := NewClient(srv.URL, fetcher.New(http.DefaultClient, logger, nil), logger)

		_, err := client.Resolve(ctx, "VALID_TOKEN", false)
		require.Error(t, err)
		assert.True(t, dErrors.HasKind(err, dErrors.KindUpstreamFailure))
	})
}
