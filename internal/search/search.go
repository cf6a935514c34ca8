// Package search finds literal text in a document and builds the
// transactions that replace it.
//
// Search state is an explicit value: callers keep a State, refresh it after
// every document change and pass it back into the replace functions.
package search

import (
	"strings"
	"unicode"

	"github.com/starford/noteflow/internal/doc"
)

// Decoration classes for rendered matches.
const (
	ClassResult  = "search-result"
	ClassCurrent = "current-search-result"
)

// Match is one occurrence of the query.
type Match struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Text string `json:"text"`
}

// Find returns the non-overlapping occurrences of query in document order.
// The query is matched literally inside each text block; matches never span
// a block boundary. An empty query has no matches.
func Find(d *doc.Node, query string, caseSensitive bool) []Match {
	q := []rune(query)
	if len(q) == 0 {
		return nil
	}
	var out []Match
	for _, b := range d.TextBlocks() {
		text := []rune(b.Node.TextContent())
		for i := 0; i+len(q) <= len(text); {
			if !matchAt(text[i:], q, caseSensitive) {
				i++
				continue
			}
			out = append(out, Match{
				From: b.Start + i,
				To:   b.Start + i + len(q),
				Text: string(text[i : i+len(q)]),
			})
			i += len(q)
		}
	}
	return out
}

func matchAt(text, q []rune, caseSensitive bool) bool {
	for i, r := range q {
		if text[i] == r {
			continue
		}
		if caseSensitive || !equalFold(text[i], r) {
			return false
		}
	}
	return true
}

// equalFold reports whether a and b are equal under simple Unicode case
// folding.
func equalFold(a, b rune) bool {
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}

// State is the transient search session of one editor.
type State struct {
	Query         string  `json:"query"`
	CaseSensitive bool    `json:"caseSensitive"`
	Matches       []Match `json:"matches"`
	Current       int     `json:"current"`
}

// New starts a search for query on d.
func New(d *doc.Node, query string, caseSensitive bool) State {
	s := State{Query: query, CaseSensitive: caseSensitive}
	return s.Refresh(d)
}

// Refresh recomputes the matches against d, keeping the current index
// inside the new match count.
func (s State) Refresh(d *doc.Node) State {
	s.Matches = Find(d, s.Query, s.CaseSensitive)
	switch {
	case len(s.Matches) == 0:
		s.Current = 0
	case s.Current >= len(s.Matches):
		s.Current = len(s.Matches) - 1
	case s.Current < 0:
		s.Current = 0
	}
	return s
}

// Next moves to the following match, wrapping to the first.
func (s State) Next() State {
	if n := len(s.Matches); n > 0 {
		s.Current = (s.Current + 1) % n
	}
	return s
}

// Previous moves to the preceding match, wrapping to the last.
func (s State) Previous() State {
	if n := len(s.Matches); n > 0 {
		s.Current = (s.Current - 1 + n) % n
	}
	return s
}

// CurrentMatch returns the match at the current index.
func (s State) CurrentMatch() (Match, bool) {
	if s.Current < 0 || s.Current >= len(s.Matches) {
		return Match{}, false
	}
	return s.Matches[s.Current], true
}

// Count returns the number of matches.
func (s State) Count() int {
	return len(s.Matches)
}

// Decoration is a non-destructive visual annotation over [From, To).
type Decoration struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Class string `json:"class"`
}

// Decorations renders every match; the current one carries both classes.
func (s State) Decorations() []Decoration {
	out := make([]Decoration, 0, len(s.Matches))
	for i, m := range s.Matches {
		class := ClassResult
		if i == s.Current {
			class += " " + ClassCurrent
		}
		out = append(out, Decoration{From: m.From, To: m.To, Class: class})
	}
	return out
}

// Highlight wraps every match in the plain text of d with open and close.
// It is used by text surfaces that cannot render decorations.
func Highlight(d *doc.Node, s State, open, close string) string {
	var b strings.Builder
	for i, tb := range d.TextBlocks() {
		if i > 0 {
			b.WriteByte('\n')
		}
		text := []rune(tb.Node.TextContent())
		at := 0
		for _, m := range s.Matches {
			if m.From < tb.Start || m.To > tb.End {
				continue
			}
			b.WriteString(string(text[at : m.From-tb.Start]))
			b.WriteString(open + string(text[m.From-tb.Start:m.To-tb.Start]) + close)
			at = m.To - tb.Start
		}
		b.WriteString(string(text[at:]))
	}
	return b.String()
}
