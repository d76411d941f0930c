// internal/browser/pw/driver_test.go
package pw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/termcheck/internal/browser"
	"github.com/xkilldash9x/termcheck/internal/config"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		by       browser.By
		selector string
		want     string
	}{
		{browser.ByCSS, "input[type='password']", "css=input[type='password']"},
		{browser.ByID, "search", `css=[id="search"]`},
		{browser.ByXPath, "//textarea", "xpath=//textarea"},
		{browser.ByLinkText, "Sign Up", "xpath=//a[normalize-space(.)='Sign Up']"},
	}
	for _, tt := range tests {
		got, err := translate(tt.by, tt.selector)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := translate(browser.By("shadow"), "x")
	assert.ErrorIs(t, err, browser.ErrUnsupportedStrategy)
}

func TestLaunchAndContextOptions(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser
	cfg.Args = []string{"--mute-audio"}

	lo := launchOptions(cfg)
	require.NotNil(t, lo.Headless)
	assert.True(t, *lo.Headless)
	assert.Contains(t, lo.Args, "--no-sandbox")
	assert.Contains(t, lo.Args, "--disable-gpu")
	assert.Contains(t, lo.Args, "--mute-audio")

	co := contextOptions(cfg)
	require.NotNil(t, co.Viewport)
	assert.Equal(t, 1920, co.Viewport.Width)
	assert.Equal(t, 1080, co.Viewport.Height)
	require.NotNil(t, co.UserAgent)
	assert.Equal(t, config.DefaultUserAgent, *co.UserAgent)
}
