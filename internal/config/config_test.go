// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "termcheck", cfg.Logger.ServiceName)
	assert.Equal(t, "https://medicalterms.vercel.app", cfg.Target.BaseURL)
	assert.Equal(t, "sign", cfg.Target.SuccessMarker)
	assert.Equal(t, DriverChromedp, cfg.Browser.Driver)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, DefaultUserAgent, cfg.Browser.UserAgent)
	assert.Equal(t, 10*time.Second, cfg.Network.CheckTimeout)
	assert.Equal(t, 10*time.Second, cfg.Network.ActionTimeout)
	assert.Equal(t, 10, cfg.Run.Accounts)
	assert.Equal(t, 2, cfg.Run.TermsPerAccount)
	assert.Equal(t, 2*time.Second, cfg.Run.AccountDelay)
	assert.Len(t, cfg.Run.Terms, len(DefaultTerms))

	w, h := cfg.Browser.ViewportSize()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)

	require.NoError(t, cfg.Validate())
}

func TestDefaultTermsAreDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for _, term := range DefaultTerms {
		assert.False(t, seen[term], "duplicate term %q", term)
		seen[term] = true
	}
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"relative base url", func(c *Config) { c.Target.BaseURL = "/local" }, "target.base_url"},
		{"missing result xpath", func(c *Config) { c.Target.ResultXPath = "" }, "target.result_xpath"},
		{"unknown driver", func(c *Config) { c.Browser.Driver = "selenium" }, "browser.driver"},
		{"unknown scheme", func(c *Config) { c.Run.Scheme = "fancy" }, "run.scheme"},
		{"zero accounts", func(c *Config) { c.Run.Accounts = 0 }, "run.accounts"},
		{"too many terms", func(c *Config) { c.Run.Terms = []string{"asthma"} }, "run.terms_per_account"},
		{"zero poll interval", func(c *Config) { c.Run.PollInterval = 0 }, "run.poll_interval"},
		{"zero action timeout", func(c *Config) { c.Network.ActionTimeout = 0 }, "network.action_timeout"},
		{"negative retries", func(c *Config) { c.Network.CheckRetries = -1 }, "network.check_retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// -- Viper Integration Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("yaml overrides defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		yamlConfig := []byte(`
target:
  base_url: "http://localhost:8080"
browser:
  driver: static
run:
  accounts: 3
  scheme: random
  seed: 42
  lookup_timeout: 2s
`)
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", cfg.Target.BaseURL)
		assert.Equal(t, DriverStatic, cfg.Browser.Driver)
		assert.Equal(t, 3, cfg.Run.Accounts)
		assert.Equal(t, SchemeRandom, cfg.Run.Scheme)
		assert.Equal(t, int64(42), cfg.Run.Seed)
		assert.Equal(t, 2*time.Second, cfg.Run.LookupTimeout)
		// Untouched values keep their defaults.
		assert.Equal(t, 2, cfg.Run.TermsPerAccount)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("run.accounts", -4)

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestViewportSizeFallback(t *testing.T) {
	b := BrowserConfig{Viewport: map[string]int{"width": 800}}
	w, h := b.ViewportSize()
	assert.Equal(t, 800, w)
	assert.Equal(t, 1080, h)
}
