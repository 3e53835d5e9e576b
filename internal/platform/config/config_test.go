package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"publizon-adapter/pkg/testutil"
)

func TestFromEnv(t *testing.T) {
	testutil.Given(t, "an empty environment", func(t *testing.T) {
		cfg := FromEnv()

		testutil.Then(t, "defaults apply", func(t *testing.T) {
			assert.Equal(t, ":3000", cfg.Addr)
			assert.Equal(t, "publizon-adapter", cfg.AppName)
			assert.Equal(t, "all", cfg.CORSOrigin)
			assert.Equal(t, "prefix", cfg.RouteMatch)
			assert.Equal(t, 60*time.Second, cfg.UpstreamTimeout)
			assert.False(t, cfg.RemoteCredentials())
		})
	})

	testutil.Given(t, "a configured environment", func(t *testing.T) {
		t.Setenv("ADAPTER_ADDR", ":8080")
		t.Setenv("SMAUG_URL", "http://smaug.local/configuration")
		t.Setenv("PUBLIZON_CREDENTIALS", "000001,some-licenseKey,some-retailerId")
		t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "15")
		cfg := FromEnv()

		testutil.Then(t, "values are picked up", func(t *testing.T) {
			assert.Equal(t, ":8080", cfg.Addr)
			assert.Equal(t, "http://smaug.local/configuration", cfg.SmaugURL)
			assert.Equal(t, "000001,some-licenseKey,some-retailerId", cfg.Credentials)
			assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
		})
	})

	testutil.Given(t, "a remote credential endpoint", func(t *testing.T) {
		t.Setenv("CREDENTIALS_URL", "http://smaug.local/credentials/list")
		cfg := FromEnv()

		testutil.Then(t, "the remote directory is selected", func(t *testing.T) {
			assert.True(t, cfg.RemoteCredentials())
		})
	})

	testutil.Given(t, "an invalid timeout", func(t *testing.T) {
		t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "soon")
		cfg := FromEnv()

		testutil.Then(t, "the default is kept", func(t *testing.T) {
			assert.Equal(t, 60*time.Second, cfg.UpstreamTimeout)
		})
	})
}
