// internal/browser/strategy_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCSS(t *testing.T) {
	tests := []struct {
		by       By
		selector string
		want     string
	}{
		{ByCSS, "input[type='password']", "input[type='password']"},
		{ByName, "username", `[name="username"]`},
		{ByID, "search", `[id="search"]`},
		{ByClass, "search-box", `[class~="search-box"]`},
		{ByName, `we"ird`, `[name="we\"ird"]`},
	}
	for _, tt := range tests {
		got, err := ToCSS(tt.by, tt.selector)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ToCSS(ByLinkText, "Sign Up")
	assert.ErrorIs(t, err, ErrUnsupportedStrategy)
}

func TestToXPath(t *testing.T) {
	tests := []struct {
		by       By
		selector string
		want     string
	}{
		{ByXPath, "//input[@placeholder='Search']", "//input[@placeholder='Search']"},
		{ByName, "email", "//*[@name='email']"},
		{ByID, "password", "//*[@id='password']"},
		{ByLinkText, "Register", "//a[normalize-space(.)='Register']"},
		{ByPartialLinkText, "Sign", "//a[contains(normalize-space(.), 'Sign')]"},
		{ByClass, "result", "//*[contains(concat(' ', normalize-space(@class), ' '), ' result ')]"},
	}
	for _, tt := range tests {
		got, err := ToXPath(tt.by, tt.selector)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ToXPath(ByCSS, "div")
	assert.ErrorIs(t, err, ErrUnsupportedStrategy)
}

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, "'plain'", XPathLiteral("plain"))
	assert.Equal(t, `"it's"`, XPathLiteral("it's"))
	assert.Equal(t, `concat('a"b', "'", 'c')`, XPathLiteral(`a"b'c`))
}

func TestByValid(t *testing.T) {
	assert.True(t, ByPartialLinkText.Valid())
	assert.False(t, By("tag_name").Valid())
}
