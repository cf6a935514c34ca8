package doc

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Serialize renders the document as HTML. Parse(Serialize(d)) equals d.
func Serialize(d *Node) string {
	var b strings.Builder
	for _, n := range d.Content {
		writeBlock(&b, n)
	}
	return b.String()
}

func writeBlock(b *strings.Builder, n *Node) {
	switch n.Type {
	case TypeParagraph:
		openTag(b, "p", n.Align)
		writeRuns(b, n.Content)
		b.WriteString("</p>")
	case TypeHeading:
		tag := "h" + strconv.Itoa(n.Level)
		openTag(b, tag, n.Align)
		writeRuns(b, n.Content)
		b.WriteString("</" + tag + ">")
	case TypeBlockquote, TypeBulletList, TypeOrderedList, TypeListItem:
		tag := containerTags[n.Type]
		b.WriteString("<" + tag + ">")
		for _, c := range n.Content {
			writeBlock(b, c)
		}
		b.WriteString("</" + tag + ">")
	}
}

var containerTags = map[NodeType]string{
	TypeBlockquote:  "blockquote",
	TypeBulletList:  "ul",
	TypeOrderedList: "ol",
	TypeListItem:    "li",
}

var markTags = map[MarkType]string{
	Bold:      "strong",
	Italic:    "em",
	Underline: "u",
	Strike:    "s",
	Code:      "code",
}

func openTag(b *strings.Builder, tag string, align Align) {
	b.WriteString("<" + tag)
	if align != "" && align != AlignLeft {
		fmt.Fprintf(b, ` style="text-align: %s"`, html.EscapeString(string(align)))
	}
	b.WriteString(">")
}

func writeRuns(b *strings.Builder, runs []*Node) {
	for _, r := range runs {
		closers := make([]string, 0, len(r.Marks))
		for _, m := range r.Marks {
			switch m.Type {
			case Link:
				fmt.Fprintf(b, `<a href="%s">`, html.EscapeString(m.Href))
				closers = append(closers, "</a>")
			case Style:
				fmt.Fprintf(b, `<span style="%s">`, html.EscapeString(m.css()))
				closers = append(closers, "</span>")
			default:
				tag := markTags[m.Type]
				b.WriteString("<" + tag + ">")
				closers = append(closers, "</"+tag+">")
			}
		}
		b.WriteString(html.EscapeString(r.Text))
		for i := len(closers) - 1; i >= 0; i-- {
			b.WriteString(closers[i])
		}
	}
}

// Parse builds a document from HTML. Unknown inline elements are transparent,
// unknown containers contribute their children, stray inline content becomes
// a paragraph.
func Parse(markup string) (*Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("doc: parse markup: %w", err)
	}
	return New(parseBlocks(nodes)...), nil
}

var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "ul": true, "ol": true, "li": true, "pre": true, "hr": true,
	"div": true, "section": true, "article": true, "header": true, "footer": true, "main": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "td": true, "th": true,
}

func isBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && blockTags[n.Data]
}

func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func parseBlocks(nodes []*html.Node) []*Node {
	var out []*Node
	var pending *Node
	flush := func() {
		if pending != nil && strings.TrimSpace(pending.TextContent()) != "" {
			out = append(out, pending)
		}
		pending = nil
	}
	for _, n := range nodes {
		if isBlock(n) {
			flush()
			out = append(out, parseBlock(n)...)
			continue
		}
		if n.Type != html.TextNode && n.Type != html.ElementNode {
			continue
		}
		if pending == nil {
			pending = Paragraph()
		}
		pending.Content = append(pending.Content, parseInline(n, nil)...)
	}
	flush()
	return out
}

func parseBlock(n *html.Node) []*Node {
	switch n.Data {
	case "p":
		return []*Node{{Type: TypeParagraph, Align: alignOf(n), Content: parseInlines(n, nil)}}
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		return []*Node{{Type: TypeHeading, Level: min(level, MaxHeadingLevel), Align: alignOf(n), Content: parseInlines(n, nil)}}
	case "blockquote":
		return []*Node{Blockquote(parseBlocks(children(n))...)}
	case "ul", "ol":
		list := BulletList()
		if n.Data == "ol" {
			list = OrderedList()
		}
		for _, c := range children(n) {
			if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
				continue
			}
			if c.Type == html.ElementNode && c.Data == "li" {
				list.Content = append(list.Content, ListItem(parseBlocks(children(c))...))
				continue
			}
			list.Content = append(list.Content, ListItem(parseBlocks([]*html.Node{c})...))
		}
		return []*Node{list}
	case "li":
		return []*Node{ListItem(parseBlocks(children(n))...)}
	case "pre":
		return []*Node{Paragraph(Text(textOf(n), NewMark(Code)))}
	case "hr":
		return nil
	}
	return parseBlocks(children(n))
}

func parseInlines(n *html.Node, marks MarkSet) []*Node {
	var out []*Node
	for _, c := range children(n) {
		out = append(out, parseInline(c, marks)...)
	}
	return out
}

func parseInline(n *html.Node, marks MarkSet) []*Node {
	switch n.Type {
	case html.TextNode:
		return []*Node{{Type: TypeText, Text: CleanText(n.Data), Marks: marks}}
	case html.ElementNode:
		switch n.Data {
		case "br":
			return []*Node{{Type: TypeText, Text: "\n", Marks: marks}}
		case "script", "style", "img":
			return nil
		}
		return parseInlines(n, marksFor(n, marks))
	}
	return nil
}

func marksFor(n *html.Node, marks MarkSet) MarkSet {
	switch n.Data {
	case "strong", "b":
		return marks.With(NewMark(Bold))
	case "em", "i":
		return marks.With(NewMark(Italic))
	case "u":
		return marks.With(NewMark(Underline))
	case "s", "strike", "del":
		return marks.With(NewMark(Strike))
	case "code", "kbd":
		return marks.With(NewMark(Code))
	case "a":
		return marks.With(LinkMark(attr(n, "href")))
	case "span", "font":
		style, ok := marks.Get(Style)
		if !ok {
			style = NewMark(Style)
		}
		decl := parseStyle(attr(n, "style"))
		if c := attr(n, "color"); c != "" && n.Data == "font" {
			decl["color"] = c
		}
		if v, ok := decl["color"]; ok {
			style.Color = v
		}
		if v, ok := decl["font-family"]; ok {
			style.FontFamily = v
		}
		if v, ok := decl["font-size"]; ok {
			style.FontSize = v
		}
		return marks.With(style)
	}
	return marks
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// parseStyle splits an inline style attribute into lower-cased property names
// and trimmed values.
func parseStyle(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ";") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := strings.TrimSpace(kv[1])
		if k != "" && v != "" {
			out[k] = v
		}
	}
	return out
}

func alignOf(n *html.Node) Align {
	a := Align(strings.ToLower(parseStyle(attr(n, "style"))["text-align"]))
	if !a.Valid() {
		return ""
	}
	return a
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for _, c := range children(n) {
		b.WriteString(textOf(c))
	}
	return b.String()
}
