// Package doc implements the note document model: an immutable-per-version
// tree of blocks and marked text runs, invertible steps that produce new
// versions, position maps, transactions and the HTML wire format.
package doc

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// NodeType identifies a node in the document tree.
type NodeType string

// Node types.
const (
	TypeDoc         NodeType = "doc"
	TypeParagraph   NodeType = "paragraph"
	TypeHeading     NodeType = "heading"
	TypeBlockquote  NodeType = "blockquote"
	TypeBulletList  NodeType = "bulletList"
	TypeOrderedList NodeType = "orderedList"
	TypeListItem    NodeType = "listItem"
	TypeText        NodeType = "text"
)

// Align is the horizontal alignment of a text block. The zero value is left.
type Align string

// Alignments.
const (
	AlignLeft    Align = "left"
	AlignCenter  Align = "center"
	AlignRight   Align = "right"
	AlignJustify Align = "justify"
)

// Valid reports whether a is a known alignment.
func (a Align) Valid() bool {
	switch a {
	case "", AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return true
	}
	return false
}

// MaxHeadingLevel is the deepest supported heading.
const MaxHeadingLevel = 3

// Node is a document tree node. Level applies to headings, Align to text
// blocks, Text and Marks to text runs.
//
// A document version is never modified once published: steps clone the tree
// and return a new root.
type Node struct {
	Type    NodeType
	Level   int
	Align   Align
	Content []*Node
	Text    string
	Marks   MarkSet
}

// New returns a normalized document holding blocks.
func New(blocks ...*Node) *Node {
	d := &Node{Type: TypeDoc, Content: blocks}
	normalizeDoc(d)
	return d
}

// Paragraph returns a paragraph holding the given text runs.
func Paragraph(inlines ...*Node) *Node {
	return &Node{Type: TypeParagraph, Content: inlines}
}

// Heading returns a heading of the given level.
func Heading(level int, inlines ...*Node) *Node {
	return &Node{Type: TypeHeading, Level: level, Content: inlines}
}

// Blockquote wraps blocks in a quote.
func Blockquote(blocks ...*Node) *Node {
	return &Node{Type: TypeBlockquote, Content: blocks}
}

// BulletList returns an unordered list of items.
func BulletList(items ...*Node) *Node {
	return &Node{Type: TypeBulletList, Content: items}
}

// OrderedList returns a numbered list of items.
func OrderedList(items ...*Node) *Node {
	return &Node{Type: TypeOrderedList, Content: items}
}

// ListItem returns a list item holding blocks.
func ListItem(blocks ...*Node) *Node {
	return &Node{Type: TypeListItem, Content: blocks}
}

// Text returns a text run carrying marks. s is passed through CleanText.
func Text(s string, marks ...Mark) *Node {
	return &Node{Type: TypeText, Text: CleanText(s), Marks: Marks(marks...)}
}

// IsTextblock reports whether n directly holds text runs.
func (n *Node) IsTextblock() bool {
	return n.Type == TypeParagraph || n.Type == TypeHeading
}

// IsList reports whether n is a bullet or ordered list.
func (n *Node) IsList() bool {
	return n.Type == TypeBulletList || n.Type == TypeOrderedList
}

// Len returns the number of characters held by a text block or text run.
func (n *Node) Len() int {
	if n.Type == TypeText {
		return utf8.RuneCountInString(n.Text)
	}
	return runsLen(n.Content)
}

// TextContent returns the text of n. Text blocks inside containers are
// separated by newlines.
func (n *Node) TextContent() string {
	switch {
	case n.Type == TypeText:
		return n.Text
	case n.IsTextblock():
		var b strings.Builder
		for _, r := range n.Content {
			b.WriteString(r.Text)
		}
		return b.String()
	}
	parts := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		parts = append(parts, c.TextContent())
	}
	return strings.Join(parts, "\n")
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Marks = slices.Clone(n.Marks)
	if n.Content != nil {
		c.Content = make([]*Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = child.Clone()
		}
	}
	return &c
}

// Equal reports whether two trees are structurally identical.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Type != o.Type || n.Level != o.Level || n.Align != o.Align || n.Text != o.Text {
		return false
	}
	if !n.Marks.Equal(o.Marks) || len(n.Content) != len(o.Content) {
		return false
	}
	for i := range n.Content {
		if !n.Content[i].Equal(o.Content[i]) {
			return false
		}
	}
	return true
}

// Descendant follows path (child indexes) from n.
func (n *Node) Descendant(path []int) *Node {
	cur := n
	for _, i := range path {
		if cur == nil || i < 0 || i >= len(cur.Content) {
			return nil
		}
		cur = cur.Content[i]
	}
	return cur
}

func cloneAll(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// normalizeDoc enforces the tree invariants in place: at least one block,
// lists only hold items, containers are never empty, runs are merged.
func normalizeDoc(d *Node) {
	d.Type = TypeDoc
	d.Content = normalizeBlocks(d.Content)
	if len(d.Content) == 0 {
		d.Content = []*Node{Paragraph()}
	}
}

func normalizeBlocks(blocks []*Node) []*Node {
	out := make([]*Node, 0, len(blocks))
	for _, b := range blocks {
		if b == nil {
			continue
		}
		switch b.Type {
		case TypeParagraph, TypeHeading:
			normalizeTextblock(b)
			out = append(out, b)
		case TypeBlockquote:
			b.Content = nonEmpty(normalizeBlocks(b.Content))
			b.Level, b.Align, b.Text, b.Marks = 0, "", "", nil
			out = append(out, b)
		case TypeBulletList, TypeOrderedList:
			items := make([]*Node, 0, len(b.Content))
			for _, c := range b.Content {
				if c == nil {
					continue
				}
				if c.Type != TypeListItem {
					c = ListItem(c)
				}
				c.Content = nonEmpty(normalizeBlocks(c.Content))
				c.Level, c.Align, c.Text, c.Marks = 0, "", "", nil
				items = append(items, c)
			}
			if len(items) == 0 {
				continue
			}
			b.Content = items
			b.Level, b.Align, b.Text, b.Marks = 0, "", "", nil
			out = append(out, b)
		case TypeListItem:
			out = append(out, normalizeBlocks(b.Content)...)
		case TypeText:
			p := Paragraph(b)
			normalizeTextblock(p)
			out = append(out, p)
		}
	}
	return out
}

func nonEmpty(blocks []*Node) []*Node {
	if len(blocks) == 0 {
		return []*Node{Paragraph()}
	}
	return blocks
}

func normalizeTextblock(tb *Node) {
	if tb.Type == TypeHeading {
		tb.Level = min(max(tb.Level, 1), MaxHeadingLevel)
	} else {
		tb.Level = 0
	}
	if tb.Align == AlignLeft || !tb.Align.Valid() {
		tb.Align = ""
	}
	tb.Text, tb.Marks = "", nil
	tb.Content = mergeRuns(tb.Content)
}
