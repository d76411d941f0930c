// internal/browser/strategy.go
package browser

import (
	"fmt"
	"strings"
)

// By names a lookup strategy.
type By string

const (
	ByName            By = "name"
	ByID              By = "id"
	ByClass           By = "class"
	ByCSS             By = "css"
	ByXPath           By = "xpath"
	ByLinkText        By = "link_text"
	ByPartialLinkText By = "partial_link_text"
)

// Valid reports whether b is a known strategy.
func (b By) Valid() bool {
	switch b {
	case ByName, ByID, ByClass, ByCSS, ByXPath, ByLinkText, ByPartialLinkText:
		return true
	}
	return false
}

// ToCSS translates attribute style strategies into a CSS selector. Link text
// and XPath have no CSS form and return ErrUnsupportedStrategy.
func ToCSS(by By, selector string) (string, error) {
	switch by {
	case ByCSS:
		return selector, nil
	case ByName:
		return fmt.Sprintf("[name=%s]", cssString(selector)), nil
	case ByID:
		return fmt.Sprintf("[id=%s]", cssString(selector)), nil
	case ByClass:
		return fmt.Sprintf("[class~=%s]", cssString(selector)), nil
	}
	return "", fmt.Errorf("%w: %s has no CSS form", ErrUnsupportedStrategy, by)
}

// ToXPath translates every strategy except CSS into an XPath expression.
// Link text matches anchors by their whitespace normalized text.
func ToXPath(by By, selector string) (string, error) {
	lit := XPathLiteral(selector)
	switch by {
	case ByXPath:
		return selector, nil
	case ByName:
		return fmt.Sprintf("//*[@name=%s]", lit), nil
	case ByID:
		return fmt.Sprintf("//*[@id=%s]", lit), nil
	case ByClass:
		return fmt.Sprintf("//*[contains(concat(' ', normalize-space(@class), ' '), %s)]", XPathLiteral(" "+selector+" ")), nil
	case ByLinkText:
		return fmt.Sprintf("//a[normalize-space(.)=%s]", lit), nil
	case ByPartialLinkText:
		return fmt.Sprintf("//a[contains(normalize-space(.), %s)]", lit), nil
	}
	return "", fmt.Errorf("%w: %s has no XPath form", ErrUnsupportedStrategy, by)
}

// XPathLiteral quotes s for use inside an XPath 1.0 expression. XPath has no
// escape sequences, so strings holding both quote kinds are built with concat().
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
