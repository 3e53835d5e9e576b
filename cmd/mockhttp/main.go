package main

import (
	"os"

	"publizon-adapter/internal/platform/httpserver"
	"publizon-adapter/internal/platform/logger"
	"publizon-adapter/pkg/testutil/mockhttp"
)

// main runs the programmable HTTP mock as a standalone service for the
// end-to-end suite, standing in for smaug, userinfo and the provider.
func main() {
	addr := os.Getenv("MOCK_HTTP_ADDR")
	if addr == "" {
		addr = ":3002"
	}
	log := logger.New("mockhttp")

	srv := httpserver.New(addr, mockhttp.NewServer())
	log.Info("starting mockhttp", "addr", addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
