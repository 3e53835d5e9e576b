// Package proxy forwards inbound requests to the Publizon API with resolved
// credentials injected, relaying the response as a byte stream.
package proxy

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"publizon-adapter/internal/credentials"
	"publizon-adapter/internal/platform/fetcher"
	dErrors "publizon-adapter/pkg/domain-errors"
	"publizon-adapter/pkg/requestcontext"
)

// Forwarder composes and sends provider requests.
type Forwarder struct {
	baseURL string
	fetch   *fetcher.Fetcher
	timeout time.Duration
	logger  *slog.Logger
}

func NewForwarder(baseURL string, fetch *fetcher.Fetcher, timeout time.Duration, logger *slog.Logger) *Forwarder {
	return &Forwarder{baseURL: baseURL, fetch: fetch, timeout: timeout, logger: logger}
}

// NewTransport builds the egress transport, routing through proxyAddr when
// set. Provider responses can be hundreds of megabytes, so response bodies
// are never buffered by this transport.
func NewTransport(proxyAddr string) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if proxyAddr != "" {
		if proxyURL, err := url.Parse(proxyAddr); err == nil {
			t.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return t
}

// Forward sends the inbound request to the provider with credentials injected
// and streams the response back. It returns the relayed status code.
//
// The inbound headers travel along minus Host and Authorization; RetailerID
// goes out as the clientId header, and cardNumber is attached only when
// non-empty. A provider 401 means the adapter's own credentials were
// rejected, which is an upstream failure rather than something to relay;
// every other status is passed through untouched. Once response headers are
// written, a stream error can no longer change the status, so the connection
// is aborted instead.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, creds credentials.Credentials, cardNumber string) (int, error) {
	ctx, cancel := context.WithTimeout(r.Context(), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, r.Method, f.baseURL+r.URL.RequestURI(), r.Body)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.KindUpstreamFailure, "internal server error")
	}
	req.ContentLength = r.ContentLength

	req.Header = r.Header.Clone()
	req.Header.Del("Authorization")
	req.Header.Del("Connection")
	req.Header.Set("clientId", creds.RetailerID)
	req.Header.Set("licenseKey", creds.LicenseKey)
	if cardNumber != "" {
		req.Header.Set("cardNumber", cardNumber)
	}

	res, err := f.fetch.Do(ctx, req, "publizon")
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		f.logger.ErrorContext(ctx, "provider rejected adapter credentials",
			"req_id", requestcontext.RequestID(ctx),
		)
		return 0, dErrors.New(dErrors.KindUpstreamFailure, "internal server error")
	}

	copyHeaders(w.Header(), res.Header)
	w.WriteHeader(res.StatusCode)

	if _, err := io.Copy(w, res.Body); err != nil {
		// Headers are already flushed; the only honest signal left is
		// killing the connection.
		f.logger.ErrorContext(ctx, "response stream aborted",
			"req_id", requestcontext.RequestID(ctx),
			"status", res.StatusCode,
			"error", err,
		)
		panic(http.ErrAbortHandler)
	}
	return res.StatusCode, nil
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		switch key {
		case "Connection", "Keep-Alive", "Transfer-Encoding", "Upgrade":
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}
