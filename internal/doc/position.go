package doc

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// TextBlock locates a paragraph or heading inside a document. Positions are
// absolute: block k spans [Start, End] and the next block starts at End+1.
type TextBlock struct {
	Node  *Node
	Path  []int
	Start int
	End   int
}

// Top returns the index of the top-level block holding the text block.
func (b TextBlock) Top() int {
	return b.Path[0]
}

// TextBlocks enumerates text blocks depth-first with their positions.
func (n *Node) TextBlocks() []TextBlock {
	var out []TextBlock
	pos := 0
	var walk func(node *Node, path []int)
	walk = func(node *Node, path []int) {
		for i, c := range node.Content {
			p := append(slices.Clone(path), i)
			if c.IsTextblock() {
				l := c.Len()
				out = append(out, TextBlock{Node: c, Path: p, Start: pos, End: pos + l})
				pos += l + 1
				continue
			}
			if c.Type != TypeText {
				walk(c, p)
			}
		}
	}
	walk(n, nil)
	return out
}

// Size returns the largest valid position in the document.
func (n *Node) Size() int {
	blocks := n.TextBlocks()
	if len(blocks) == 0 {
		return 0
	}
	return blocks[len(blocks)-1].End
}

// BlockAt returns the index of the text block containing pos.
func (n *Node) BlockAt(pos int) (int, TextBlock, error) {
	return blockAt(n.TextBlocks(), pos)
}

func blockAt(blocks []TextBlock, pos int) (int, TextBlock, error) {
	for i, b := range blocks {
		if pos >= b.Start && pos <= b.End {
			return i, b, nil
		}
	}
	return -1, TextBlock{}, fmt.Errorf("%w: %d", ErrInvalidPosition, pos)
}

// topStart returns the position where top-level block idx begins. The index
// one past the last block maps to Size()+1, past the final separator.
func (n *Node) topStart(idx int) int {
	for _, b := range n.TextBlocks() {
		if b.Top() >= idx {
			return b.Start
		}
	}
	return n.Size() + 1
}

// Run is a text run with absolute positions.
type Run struct {
	From  int
	To    int
	Text  string
	Marks MarkSet
}

// Runs lists every text run of the document in order.
func (n *Node) Runs() []Run {
	var out []Run
	for _, b := range n.TextBlocks() {
		pos := b.Start
		for _, r := range b.Node.Content {
			l := utf8.RuneCountInString(r.Text)
			out = append(out, Run{From: pos, To: pos + l, Text: r.Text, Marks: r.Marks})
			pos += l
		}
	}
	return out
}

// RunsBetween lists the runs overlapping [from, to), trimmed to the range.
func (n *Node) RunsBetween(from, to int) []Run {
	var out []Run
	for _, r := range n.Runs() {
		lo, hi := max(r.From, from), min(r.To, to)
		if lo >= hi {
			continue
		}
		rs := []rune(r.Text)
		out = append(out, Run{From: lo, To: hi, Text: string(rs[lo-r.From : hi-r.From]), Marks: r.Marks})
	}
	return out
}

// MarksAt returns the marks text typed at pos would inherit: those of the
// character before pos, or of the first character when pos starts a block.
// Links do not extend past their end.
func (n *Node) MarksAt(pos int) MarkSet {
	_, b, err := n.BlockAt(pos)
	if err != nil {
		return nil
	}
	off := pos - b.Start
	at := 0
	for i, r := range b.Node.Content {
		l := r.Len()
		switch {
		case off == 0:
			return r.Marks.Without(Link)
		case off > at && off < at+l:
			return r.Marks
		case off == at+l:
			if i+1 < len(b.Node.Content) && b.Node.Content[i+1].Marks.Has(Link) && r.Marks.Has(Link) {
				return r.Marks
			}
			return r.Marks.Without(Link)
		}
		at += l
	}
	return nil
}

// TextBetween returns the text of [from, to); block boundaries become newlines.
func (n *Node) TextBetween(from, to int) string {
	var out []rune
	for i, b := range n.TextBlocks() {
		lo, hi := max(b.Start, from), min(b.End, to)
		if i > 0 && b.Start > from && b.Start <= to {
			out = append(out, '\n')
		}
		if lo >= hi {
			continue
		}
		rs := []rune(b.Node.TextContent())
		out = append(out, rs[lo-b.Start:hi-b.Start]...)
	}
	return string(out)
}
