package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"publizon-adapter/internal/credentials"
	"publizon-adapter/internal/gateway"
	"publizon-adapter/internal/platform/config"
	"publizon-adapter/internal/platform/fetcher"
	"publizon-adapter/internal/platform/httpserver"
	"publizon-adapter/internal/platform/logger"
	"publizon-adapter/internal/platform/metrics"
	"publizon-adapter/internal/proxy"
	"publizon-adapter/internal/routes"
	"publizon-adapter/internal/smaug"
	"publizon-adapter/internal/userinfo"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.AppName)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// The client timeout bounds every outbound call. The forwarder adds its
	// own per-request deadline for the provider leg.
	client := &http.Client{
		Transport: proxy.NewTransport(cfg.HTTPSProxy),
		Timeout:   cfg.UpstreamTimeout,
	}
	fetch := fetcher.New(client, log, m)

	identity := smaug.NewClient(cfg.SmaugURL, fetch, log)
	patron := userinfo.NewClient(cfg.UserinfoURL, fetch, log)

	var directory gateway.CredentialResolver
	if cfg.RemoteCredentials() {
		directory = credentials.NewRemoteDirectory(
			cfg.CredentialsURL, cfg.AuthURL, cfg.AuthClientID, cfg.AuthClientSecret, fetch, log)
		log.Info("using remote credential directory", "url", cfg.CredentialsURL)
	} else {
		static := credentials.NewDirectory(cfg.Credentials, log)
		log.Info("using static credential directory", "agencies", static.Size())
		directory = static
	}

	forwarder := proxy.NewForwarder(cfg.PublizonURL, fetch, cfg.UpstreamTimeout, log)
	table := routes.Default(routes.PolicyFromString(cfg.RouteMatch))

	handler := gateway.New(identity, patron, directory, forwarder, table, log, m)
	router := gateway.NewRouter(handler, cfg.CORSOrigin, registry)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting publizon-adapter", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
