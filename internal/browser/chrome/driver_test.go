// internal/browser/chrome/driver_test.go
package chrome

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/termcheck/internal/browser"
	"github.com/xkilldash9x/termcheck/internal/config"
)

func flagValue(flags []flag, name string) (interface{}, bool) {
	for _, f := range flags {
		if f.name == name {
			return f.value, true
		}
	}
	return nil, false
}

func TestLaunchFlags(t *testing.T) {
	t.Run("defaults on linux", func(t *testing.T) {
		cfg := config.NewDefaultConfig().Browser
		flags := launchFlags(cfg, "linux")

		v, ok := flagValue(flags, "headless")
		require.True(t, ok)
		assert.Equal(t, true, v)

		v, _ = flagValue(flags, "window-size")
		assert.Equal(t, "1920,1080", v)

		for _, name := range []string{"disable-gpu", "no-sandbox", "disable-dev-shm-usage"} {
			_, ok := flagValue(flags, name)
			assert.True(t, ok, "missing %s", name)
		}
	})

	t.Run("sandbox flags only on linux", func(t *testing.T) {
		flags := launchFlags(config.BrowserConfig{Headless: true}, "darwin")
		_, ok := flagValue(flags, "no-sandbox")
		assert.False(t, ok)
	})

	t.Run("custom args", func(t *testing.T) {
		cfg := config.BrowserConfig{Args: []string{"--lang=de-DE", "--mute-audio"}}
		flags := launchFlags(cfg, "linux")

		v, _ := flagValue(flags, "lang")
		assert.Equal(t, "de-DE", v)
		v, _ = flagValue(flags, "mute-audio")
		assert.Equal(t, true, v)
	})
}

func TestTranslate(t *testing.T) {
	query, opt, err := translate(browser.ByName, "username")
	require.NoError(t, err)
	assert.Equal(t, `[name="username"]`, query)
	assert.NotNil(t, opt)

	query, _, err = translate(browser.ByPartialLinkText, "Sign Up")
	require.NoError(t, err)
	assert.Equal(t, "//a[contains(normalize-space(.), 'Sign Up')]", query)
}

func TestCombine(t *testing.T) {
	primary, cancelPrimary := context.WithCancel(context.Background())
	defer cancelPrimary()
	secondary, cancelSecondary := context.WithCancel(context.Background())

	ctx, cancel := combine(primary, secondary)
	defer cancel()

	cancelSecondary()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("combined context should end with the secondary context")
	}
	assert.NoError(t, primary.Err())
}

func TestCombine_InheritsDeadline(t *testing.T) {
	secondary, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ctx, done := combine(context.Background(), secondary)
	defer done()

	want, _ := secondary.Deadline()
	got, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Equal(t, want, got)
}

// TestDriver_EndToEnd drives a real Chrome and is skipped when none is
// installed.
func TestDriver_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	found := false
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Chrome binary available")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Terms</title></head><body>
<input name="username" placeholder="Username">
<div style="display:none"><input type="password" name="password" id="decoy"></div>
<input type="password" name="password" id="real">
<div class="result">ready</div></body></html>`)
	}))
	defer srv.Close()

	cfg := config.NewDefaultConfig()
	cfg.Network.PostLoadWait = 0
	cfg.Network.ActionTimeout = 500 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	page, err := New(cfg, zaptest.NewLogger(t)).Launch(ctx)
	require.NoError(t, err)
	defer page.Close(context.Background())

	require.NoError(t, page.Navigate(ctx, srv.URL))
	title, err := page.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Terms", title)

	input, err := page.FindElement(ctx, browser.ByName, "username")
	require.NoError(t, err)
	require.NoError(t, input.SendKeys(ctx, "testuser1"))
	v, err := input.Attribute(ctx, "value")
	require.NoError(t, err)
	assert.Equal(t, "testuser1", v)

	result, err := page.FindElement(ctx, browser.ByXPath, "//div[contains(@class,'result')]")
	require.NoError(t, err)
	text, err := result.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ready", text)

	passwords, err := page.FindElements(ctx, browser.ByCSS, "input[name=password]")
	require.NoError(t, err)
	require.Len(t, passwords, 2)
	visible, err := passwords[0].Visible(ctx)
	require.NoError(t, err)
	assert.False(t, visible)

	// Typing into the hidden field gives up after the action timeout.
	start := time.Now()
	assert.Error(t, passwords[0].SendKeys(ctx, "secret"))
	assert.Less(t, time.Since(start), 5*time.Second)

	pw, err := browser.FirstVisible(ctx, page, browser.ByCSS, "input[name=password]")
	require.NoError(t, err)
	id, err := pw.Attribute(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, "real", id)

	_, err = page.FindElement(ctx, browser.ByID, "absent")
	assert.ErrorIs(t, err, browser.ErrNoSuchElement)

	require.NoError(t, page.Close(ctx))
	_, err = page.CurrentURL(ctx)
	assert.ErrorIs(t, err, browser.ErrSessionLost)
}
