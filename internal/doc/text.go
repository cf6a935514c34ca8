package doc

import (
	"strings"
	"unicode"
)

// PlainText returns the document text with text blocks separated by newlines.
func (n *Node) PlainText() string {
	blocks := n.TextBlocks()
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Node.TextContent()
	}
	return strings.Join(parts, "\n")
}

// NormalizeNewlines converts CRLF and CR line endings to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// CleanText normalizes line endings, replaces invalid UTF-8 and drops C0
// control characters other than tab and newline. Markup parsing discards
// most of those, so text stored in a document never carries them.
func CleanText(s string) string {
	s = strings.ToValidUTF8(NormalizeNewlines(s), "\uFFFD")
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, s)
}

// FromPlainText builds a document with one paragraph per line.
func FromPlainText(s string) *Node {
	lines := strings.Split(NormalizeNewlines(s), "\n")
	blocks := make([]*Node, len(lines))
	for i, line := range lines {
		blocks[i] = Paragraph(Text(line))
	}
	return New(blocks...)
}

// Stats summarises the plain text of a document.
type Stats struct {
	Characters int `json:"characters"`
	Words      int `json:"words"`
	Spaces     int `json:"spaces"`
}

// Stats counts non-whitespace characters, words and whitespace characters.
// Block breaks count as whitespace.
func (n *Node) Stats() Stats {
	text := n.PlainText()
	var s Stats
	for _, r := range text {
		if unicode.IsSpace(r) {
			s.Spaces++
		} else {
			s.Characters++
		}
	}
	s.Words = len(strings.FieldsFunc(text, unicode.IsSpace))
	return s
}
