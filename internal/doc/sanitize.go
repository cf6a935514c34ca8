package doc

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	colorRe      = regexp.MustCompile(`(?i)^(#[0-9a-f]{3,8}|rgba?\(\s*[\d.%]+\s*(,\s*[\d.%]+\s*){2,3}\)|[a-z]+)$`)
	fontSizeRe   = regexp.MustCompile(`^\d+(\.\d+)?(px|pt|em|rem|%)$`)
	fontFamilyRe = regexp.MustCompile(`^[\w\s,"'-]+$`)
)

// ValidColor reports whether v is a colour the editor accepts.
func ValidColor(v string) bool { return colorRe.MatchString(v) }

// ValidFontSize reports whether v is a font size the editor accepts.
func ValidFontSize(v string) bool { return fontSizeRe.MatchString(v) }

// ValidFontFamily reports whether v is a font family the editor accepts.
func ValidFontFamily(v string) bool { return fontFamilyRe.MatchString(v) }

var (
	contentPolicy = newContentPolicy()
	stripPolicy   = bluemonday.StrictPolicy()
)

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("span", "u", "s", "strike", "del", "code")
	p.AllowAttrs("color").OnElements("font")
	p.AllowStyles("color").Matching(colorRe).Globally()
	p.AllowStyles("font-size").Matching(fontSizeRe).Globally()
	p.AllowStyles("font-family").Matching(fontFamilyRe).Globally()
	p.AllowStyles("text-align").Matching(bluemonday.CellAlign).Globally()
	return p
}

// Sanitize strips scripts, event handlers and disallowed styles from markup
// that did not come out of Serialize.
func Sanitize(markup string) string {
	return contentPolicy.Sanitize(markup)
}

// ParseUntrusted sanitizes then parses markup received from outside the
// editor (API payloads, imported files).
func ParseUntrusted(markup string) (*Node, error) {
	return Parse(Sanitize(markup))
}

// StripTags removes every tag, leaving escaped text. Used for titles.
func StripTags(s string) string {
	return strings.TrimSpace(stripPolicy.Sanitize(s))
}
