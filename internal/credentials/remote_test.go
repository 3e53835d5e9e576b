package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"publizon-adapter/internal/platform/fetcher"
	"publizon-adapter/internal/platform/metrics"
	dErrors "publizon-adapter/pkg/domain-errors"
)

// remoteFixture fakes the auth and identity services. Each token request
// issues "token-N" with N increasing; the list endpoint only accepts tokens
// at or above minTokenGeneration, so lower generations read as expired.
type remoteFixture struct {
	tokenRequests      atomic.Int32
	listRequests       atomic.Int32
	minTokenGeneration int32
	srv                *httptest.Server
}

func newRemoteFixture(t *testing.T, minTokenGeneration int32) *remoteFixture {
	t.Helper()
	f := &remoteFixture{minTokenGeneration: minTokenGeneration}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "@", r.PostForm.Get("username"))
		assert.Equal(t, "@", r.PostForm.Get("password"))
		n := f.tokenRequests.Add(1)
		fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"bearer","expires_in":2592000}`, n)
	})
	mux.HandleFunc("GET /credentials", func(w http.ResponseWriter, r *http.Request) {
		f.listRequests.Add(1)
		var generation int32
		fmt.Sscanf(r.Header.Get("Authorization"), "Bearer token-%d", &generation)
		if generation < f.minTokenGeneration {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"000002":{"licenseKey":"lk-2","retailerId":"rt-2"},"000006":{"licenseKey":"lk-6"}}`))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *remoteFixture) directory() *RemoteDirectory {
	logger := slog.New(slog.DiscardHandler)
	return NewRemoteDirectory(
		f.srv.URL+"/credentials",
		f.srv.URL,
		"some-client-id",
		"some-client-secret",
		fetcher.New(f.srv.Client(), logger, nil),
		logger,
	)
}

func TestRemoteLookup(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches token on first use and returns record", func(t *testing.T) {
		f := newRemoteFixture(t, 1)
		d := f.directory()

		record, err := d.Lookup(ctx, "000002")
		require.NoError(t, err)
		assert.Equal(t, Credentials{LicenseKey: "lk-2", RetailerID: "rt-2"}, record)
		assert.EqualValues(t, 1, f.tokenRequests.Load())
	})

	t.Run("reuses cached token across lookups", func(t *testing.T) {
		f := newRemoteFixture(t, 1)
		d := f.directory()

		_, err := d.Lookup(ctx, "000002")
		require.NoError(t, err)
		_, err = d.Lookup(ctx, "000002")
		require.NoError(t, err)
		assert.EqualValues(t, 1, f.tokenRequests.Load(), "second lookup must not mint a new token")
	})

	t.Run("refreshes once on a stale token", func(t *testing.T) {
		f := newRemoteFixture(t, 2)
		d := f.directory()

		record, err := d.Lookup(ctx, "000002")
		require.NoError(t, err)
		assert.Equal(t, "lk-2", record.LicenseKey)
		assert.EqualValues(t, 2, f.tokenRequests.Load(), "stale token must be replaced exactly once")
		assert.EqualValues(t, 2, f.listRequests.Load())
	})

	t.Run("second failure is an upstream failure", func(t *testing.T) {
		f := newRemoteFixture(t, 99)
		d := f.directory()

		_, err := d.Lookup(ctx, "000002")
		require.Error(t, err)
		assert.True(t, dErrors.HasKind(err, dErrors.KindUpstreamFailure))
		assert.EqualValues(t, 2, f.listRequests.Load(), "exactly one retry is allowed")
	})

	t.Run("missing agency is forbidden", func(t *testing.T) {
		f := newRemoteFixture(t, 1)
		d := f.directory()

		_, err := d.Lookup(ctx, "000009")
		require.Error(t, err)
		assert.True(t, dErrors.HasKind(err, dErrors.KindMissingCredentials))
	})

	t.Run("incomplete record is forbidden", func(t *testing.T) {
		f := newRemoteFixture(t, 1)
		d := f.directory()

		_, err := d.Lookup(ctx, "000006")
		require.Error(t, err)
		assert.True(t, dErrors.HasKind(err, dErrors.KindMissingCredentials))
	})

	t.Run("records distinct datasources for token and list calls", func(t *testing.T) {
		f := newRemoteFixture(t, 1)
		registry := prometheus.NewRegistry()
		logger := slog.New(slog.DiscardHandler)
		d := NewRemoteDirectory(
			f.srv.URL+"/credentials",
			f.srv.URL,
			"some-client-id",
			"some-client-secret",
			fetcher.New(f.srv.Client(), logger, metrics.New(registry)),
			logger,
		)

		_, err := d.Lookup(ctx, "000002")
		require.NoError(t, err)

		families, err := registry.Gather()
		require.NoError(t, err)
		datasources := make(map[string]bool)
		for _, family := range families {
			if family.GetName() != "publizon_adapter_upstream_duration_seconds" {
				continue
			}
			for _, metric := range family.GetMetric() {
				for _, label := range metric.GetLabel() {
					if label.GetName() == "datasource" {
						datasources[label.GetValue()] = true
					}
				}
			}
		}
		assert.Equal(t, map[string]bool{"auth": true, "credentials": true}, datasources)
	})
}
