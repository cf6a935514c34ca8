package doc

import (
	"slices"
	"strings"
)

// MarkType identifies a kind of inline annotation.
type MarkType string

// Mark types. Style is the single composite mark carrying color, font family
// and font size.
const (
	Bold      MarkType = "bold"
	Italic    MarkType = "italic"
	Underline MarkType = "underline"
	Strike    MarkType = "strike"
	Code      MarkType = "code"
	Link      MarkType = "link"
	Style     MarkType = "textStyle"
)

// markRank fixes the canonical order of marks inside a MarkSet and the
// nesting order of tags in serialized markup (outermost first).
var markRank = map[MarkType]int{
	Link:      0,
	Style:     1,
	Bold:      2,
	Italic:    3,
	Underline: 4,
	Strike:    5,
	Code:      6,
}

// FormattingTypes are the marks reconciled against the style mark.
var FormattingTypes = []MarkType{Bold, Italic, Underline, Strike, Code}

// Valid reports whether t is a known mark type.
func (t MarkType) Valid() bool {
	_, ok := markRank[t]
	return ok
}

// Formatting reports whether t takes part in mark co-occurrence reconciliation.
func (t MarkType) Formatting() bool {
	return slices.Contains(FormattingTypes, t)
}

// StyleAttr names one independent axis of the style mark.
type StyleAttr string

// Style axes.
const (
	AttrColor      StyleAttr = "color"
	AttrFontFamily StyleAttr = "fontFamily"
	AttrFontSize   StyleAttr = "fontSize"
)

// Valid reports whether a is a known style axis.
func (a StyleAttr) Valid() bool {
	switch a {
	case AttrColor, AttrFontFamily, AttrFontSize:
		return true
	}
	return false
}

// Mark is a single annotation. Only the fields relevant to Type are used:
// Href for links, the style attributes for Style.
type Mark struct {
	Type       MarkType `json:"type"`
	Href       string   `json:"href,omitempty"`
	Color      string   `json:"color,omitempty"`
	FontFamily string   `json:"fontFamily,omitempty"`
	FontSize   string   `json:"fontSize,omitempty"`
}

// NewMark returns an attribute-less mark of type t.
func NewMark(t MarkType) Mark {
	return Mark{Type: t}
}

// LinkMark returns a link mark pointing at href.
func LinkMark(href string) Mark {
	return Mark{Type: Link, Href: href}
}

// StyleMark returns a style mark with the given axes. Empty values are unset.
func StyleMark(color, fontFamily, fontSize string) Mark {
	return Mark{Type: Style, Color: color, FontFamily: fontFamily, FontSize: fontSize}
}

// Attr returns the value of a style axis.
func (m Mark) Attr(a StyleAttr) string {
	switch a {
	case AttrColor:
		return m.Color
	case AttrFontFamily:
		return m.FontFamily
	case AttrFontSize:
		return m.FontSize
	}
	return ""
}

// WithAttr returns a copy of m with one style axis replaced.
func (m Mark) WithAttr(a StyleAttr, value string) Mark {
	switch a {
	case AttrColor:
		m.Color = value
	case AttrFontFamily:
		m.FontFamily = value
	case AttrFontSize:
		m.FontSize = value
	}
	return m
}

// empty reports whether the mark carries nothing worth keeping.
func (m Mark) empty() bool {
	switch m.Type {
	case Style:
		return m.Color == "" && m.FontFamily == "" && m.FontSize == ""
	case Link:
		return m.Href == ""
	}
	return false
}

// css renders the style mark as an inline style declaration.
func (m Mark) css() string {
	var parts []string
	if m.Color != "" {
		parts = append(parts, "color: "+m.Color)
	}
	if m.FontFamily != "" {
		parts = append(parts, "font-family: "+m.FontFamily)
	}
	if m.FontSize != "" {
		parts = append(parts, "font-size: "+m.FontSize)
	}
	return strings.Join(parts, "; ")
}

// MarkSet is an ordered set of marks holding at most one mark per type.
// Sets are values: every method returns a new set and never mutates the
// receiver.
type MarkSet []Mark

// Marks builds a set from the given marks; later marks of the same type win.
func Marks(ms ...Mark) MarkSet {
	var s MarkSet
	for _, m := range ms {
		s = s.With(m)
	}
	return s
}

// Has reports whether the set contains a mark of type t.
func (s MarkSet) Has(t MarkType) bool {
	_, ok := s.Get(t)
	return ok
}

// Get returns the mark of type t.
func (s MarkSet) Get(t MarkType) (Mark, bool) {
	for _, m := range s {
		if m.Type == t {
			return m, true
		}
	}
	return Mark{}, false
}

// With returns a set where the mark of m's type is replaced by m. Adding an
// empty style or link mark removes that type instead.
func (s MarkSet) With(m Mark) MarkSet {
	if m.empty() {
		return s.Without(m.Type)
	}
	out := make(MarkSet, 0, len(s)+1)
	for _, x := range s {
		if x.Type != m.Type {
			out = append(out, x)
		}
	}
	out = append(out, m)
	slices.SortFunc(out, func(a, b Mark) int { return markRank[a.Type] - markRank[b.Type] })
	return out
}

// Without returns the set minus any mark of type t.
func (s MarkSet) Without(t MarkType) MarkSet {
	if !s.Has(t) {
		return s
	}
	out := make(MarkSet, 0, len(s))
	for _, m := range s {
		if m.Type != t {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Equal reports whether both sets hold the same marks.
func (s MarkSet) Equal(o MarkSet) bool {
	return slices.Equal(s, o)
}

// Contains reports whether every mark of o is present in s.
func (s MarkSet) Contains(o MarkSet) bool {
	for _, m := range o {
		if !slices.Contains(s, m) {
			return false
		}
	}
	return true
}

// Formatting returns only the formatting marks of the set.
func (s MarkSet) Formatting() MarkSet {
	var out MarkSet
	for _, m := range s {
		if m.Type.Formatting() {
			out = append(out, m)
		}
	}
	return out
}

// HasFormatting reports whether any formatting mark is present.
func (s MarkSet) HasFormatting() bool {
	return len(s.Formatting()) > 0
}

// HasStyle reports whether a style mark with at least one axis is present.
func (s MarkSet) HasStyle() bool {
	m, ok := s.Get(Style)
	return ok && !m.empty()
}

// Types lists the mark types in canonical order.
func (s MarkSet) Types() []MarkType {
	out := make([]MarkType, len(s))
	for i, m := range s {
		out[i] = m.Type
	}
	return out
}
