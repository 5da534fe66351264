package config_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffreyyong/globalone-gateway/internal/config"
	"github.com/jeffreyyong/globalone-gateway/internal/globalone"
)

const fullConfig = `
http_addr: ":9090"
privileged_tokens:
  s3cr3t: checkout
gateway:
  terminal_id: "33001"
  secret: SandboxSecret001
  test_mode: true
  health_url: https://testpayments.globalone.me/
  currency: USD
  terminal_type: 1
  hash_layout: without_currency
  digest: sha512
  envelope: form
  cvv_policy: always
  timeout: 10s
  probe_endpoint: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "config")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadFrom(t *testing.T) {
	cfg, err := config.LoadFrom(writeConfig(t, fullConfig))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, map[string]string{"s3cr3t": "checkout"}, cfg.PrivilegedTokens)
	assert.Equal(t, "https://testpayments.globalone.me/", cfg.Gateway.HealthURL)
	assert.True(t, cfg.Gateway.ProbeEndpoint)

	assert.Equal(t, globalone.Config{
		TerminalID:   "33001",
		Secret:       "SandboxSecret001",
		Test:         true,
		Currency:     "USD",
		TerminalType: 1,
		HashLayout:   globalone.HashWithoutCurrency,
		Digest:       globalone.DigestSHA512,
		Envelope:     globalone.EnvelopeForm,
		CVVPolicy:    globalone.CVVAlways,
		Timeout:      10 * time.Second,
	}, cfg.GatewayConfig())
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(writeConfig(t, "gateway:\n  terminal_id: \"33002\"\n  secret: s\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.PrivilegedTokens)

	g, err := globalone.New(cfg.GatewayConfig())
	require.NoError(t, err)
	assert.False(t, g.Test())
	assert.Equal(t, globalone.DefaultLiveURL, g.Endpoint())
}

func TestLoadFrom_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadFrom(filepath.Join(os.TempDir(), "does-not-exist.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can't open file config file")
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := config.LoadFrom(writeConfig(t, "gateway:\n  terminal: x\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode config")
	})

	t.Run("bad timeout", func(t *testing.T) {
		_, err := config.LoadFrom(writeConfig(t, "gateway:\n  timeout: soon\n"))
		assert.Error(t, err)
	})
}

func TestLoad_UsesEnv(t *testing.T) {
	path := writeConfig(t, fullConfig)

	prev, had := os.LookupEnv(config.EnvConfigFile)
	require.NoError(t, os.Setenv(config.EnvConfigFile, path))
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(config.EnvConfigFile, prev)
			return
		}
		_ = os.Unsetenv(config.EnvConfigFile)
	})

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
}
