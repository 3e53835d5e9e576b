package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"publizon-adapter/pkg/platform/middleware/metadata"
)

// NewRouter wires the liveness route, metrics endpoint and the catch-all
// pipeline handler. Every method on every other path goes through the
// pipeline.
func NewRouter(h *Handler, corsOrigin string, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(metadata.RequestMetadata)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{allowedOrigin(corsOrigin)},
		AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders: []string{"*"},
	}))

	// Liveness probe, deliberately outside the pipeline.
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.HandleFunc("/*", h.Handle)
	return r
}

func allowedOrigin(origin string) string {
	if origin == "all" || origin == "" {
		return "*"
	}
	return origin
}
