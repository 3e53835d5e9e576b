// Package fetcher wraps outbound HTTP calls with logging, timing metrics and
// transport-error classification shared by every upstream client.
package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"publizon-adapter/internal/platform/metrics"
	dErrors "publizon-adapter/pkg/domain-errors"
	"publizon-adapter/pkg/requestcontext"
)

// Fetcher issues requests on behalf of the upstream clients. A nil metrics
// receiver is allowed so unit tests can skip instrumentation.
type Fetcher struct {
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(client *http.Client, logger *slog.Logger, m *metrics.Metrics) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, logger: logger, metrics: m}
}

// Do executes the request and logs method, URL, status and elapsed time under
// the datasource name. Transport failures come back tagged: a deadline hit is
// an upstream timeout, anything else an upstream failure. The caller owns the
// response body.
func (f *Fetcher) Do(ctx context.Context, req *http.Request, datasource string) (*http.Response, error) {
	start := time.Now()

	f.logger.DebugContext(ctx, "outbound request",
		"req_id", requestcontext.RequestID(ctx),
		"datasource", datasource,
		"method", req.Method,
		"url", req.URL.String(),
	)

	res, err := f.client.Do(req.WithContext(ctx))
	elapsed := time.Since(start)
	if f.metrics != nil {
		f.metrics.ObserveUpstream(datasource, elapsed)
	}

	if err != nil {
		kind := dErrors.KindUpstreamFailure
		if errors.Is(err, context.DeadlineExceeded) {
			kind = dErrors.KindUpstreamTimeout
		}
		f.logger.ErrorContext(ctx, "outbound request failed",
			"req_id", requestcontext.RequestID(ctx),
			"datasource", datasource,
			"method", req.Method,
			"url", req.URL.String(),
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, kind, "internal server error")
	}

	f.logger.InfoContext(ctx, "outbound request done",
		"req_id", requestcontext.RequestID(ctx),
		"datasource", datasource,
		"method", req.Method,
		"url", req.URL.String(),
		"status", res.StatusCode,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return res, nil
}
