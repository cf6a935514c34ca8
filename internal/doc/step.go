package doc

import (
	"fmt"
	"slices"
)

// Step is one atomic, invertible mutation. Apply never modifies its input;
// it returns the next document version and the position map of the change.
type Step interface {
	Apply(d *Node) (*Node, StepMap, error)
	// Invert returns the step undoing this one. before must be the document
	// the step was successfully applied to.
	Invert(before *Node) Step
}

// ReplaceText replaces [From, To) inside a single text block with Runs.
// An empty Runs deletes; From == To inserts.
type ReplaceText struct {
	From int
	To   int
	Runs []*Node
}

// Apply implements Step.
func (s ReplaceText) Apply(d *Node) (*Node, StepMap, error) {
	if s.From > s.To {
		return nil, StepMap{}, fmt.Errorf("%w: %d > %d", ErrInvalidRange, s.From, s.To)
	}
	_, b, err := d.BlockAt(s.From)
	if err != nil {
		return nil, StepMap{}, err
	}
	if s.To > b.End {
		return nil, StepMap{}, fmt.Errorf("%w: replace crosses a block boundary", ErrInvalidRange)
	}
	out := d.Clone()
	tb := out.Descendant(b.Path)
	tb.Content = replaceRuns(tb.Content, s.From-b.Start, s.To-b.Start, s.Runs)
	normalizeDoc(out)
	return out, StepMap{Pos: s.From, OldSize: s.To - s.From, NewSize: runsLen(s.Runs)}, nil
}

// Invert implements Step.
func (s ReplaceText) Invert(before *Node) Step {
	_, b, _ := before.BlockAt(s.From)
	old := sliceRuns(b.Node.Content, s.From-b.Start, s.To-b.Start)
	return ReplaceText{From: s.From, To: s.From + runsLen(s.Runs), Runs: old}
}

// AddMark adds Mark to every run in [From, To), replacing a mark of the same
// type.
type AddMark struct {
	From int
	To   int
	Mark Mark
}

// Apply implements Step.
func (s AddMark) Apply(d *Node) (*Node, StepMap, error) {
	if !s.Mark.Type.Valid() {
		return nil, StepMap{}, fmt.Errorf("%w: unknown mark %q", ErrInvalidStep, s.Mark.Type)
	}
	out, err := updateMarks(d, s.From, s.To, func(ms MarkSet) MarkSet { return ms.With(s.Mark) })
	return out, StepMap{}, err
}

// Invert implements Step.
func (s AddMark) Invert(before *Node) Step {
	return SetMarks{Spans: snapshot(before, s.From, s.To)}
}

// RemoveMark drops marks of Type from every run in [From, To).
type RemoveMark struct {
	From int
	To   int
	Type MarkType
}

// Apply implements Step.
func (s RemoveMark) Apply(d *Node) (*Node, StepMap, error) {
	out, err := updateMarks(d, s.From, s.To, func(ms MarkSet) MarkSet { return ms.Without(s.Type) })
	return out, StepMap{}, err
}

// Invert implements Step.
func (s RemoveMark) Invert(before *Node) Step {
	return SetMarks{Spans: snapshot(before, s.From, s.To)}
}

// SetStyle replaces one axis of the style mark on every run in [From, To),
// keeping the other axes of each run. An empty Value clears the axis; a style
// mark left without axes disappears.
type SetStyle struct {
	From  int
	To    int
	Attr  StyleAttr
	Value string
}

// Apply implements Step.
func (s SetStyle) Apply(d *Node) (*Node, StepMap, error) {
	if !s.Attr.Valid() {
		return nil, StepMap{}, fmt.Errorf("%w: unknown style attribute %q", ErrInvalidStep, s.Attr)
	}
	out, err := updateMarks(d, s.From, s.To, func(ms MarkSet) MarkSet {
		style, ok := ms.Get(Style)
		if !ok {
			style = NewMark(Style)
		}
		return ms.With(style.WithAttr(s.Attr, s.Value))
	})
	return out, StepMap{}, err
}

// Invert implements Step.
func (s SetStyle) Invert(before *Node) Step {
	return SetMarks{Spans: snapshot(before, s.From, s.To)}
}

// Span assigns an exact mark set to a range.
type Span struct {
	From  int
	To    int
	Marks MarkSet
}

// SetMarks overwrites the marks of each span. It restores snapshots taken by
// the inverse of mark steps.
type SetMarks struct {
	Spans []Span
}

// Apply implements Step.
func (s SetMarks) Apply(d *Node) (*Node, StepMap, error) {
	out := d
	for _, sp := range s.Spans {
		next, err := updateMarks(out, sp.From, sp.To, func(MarkSet) MarkSet { return sp.Marks })
		if err != nil {
			return nil, StepMap{}, err
		}
		out = next
	}
	if out == d {
		out = d.Clone()
	}
	return out, StepMap{}, nil
}

// Invert implements Step.
func (s SetMarks) Invert(before *Node) Step {
	var spans []Span
	for _, sp := range s.Spans {
		spans = append(spans, snapshot(before, sp.From, sp.To)...)
	}
	return SetMarks{Spans: spans}
}

// SplitBlock splits the text block containing Pos in two. Splitting a heading
// at its end starts a paragraph.
type SplitBlock struct {
	Pos int
}

// Apply implements Step.
func (s SplitBlock) Apply(d *Node) (*Node, StepMap, error) {
	_, b, err := d.BlockAt(s.Pos)
	if err != nil {
		return nil, StepMap{}, err
	}
	out := d.Clone()
	parent := out.Descendant(b.Path[:len(b.Path)-1])
	idx := b.Path[len(b.Path)-1]
	tb := parent.Content[idx]
	left, right := splitRuns(tb.Content, s.Pos-b.Start)
	second := &Node{Type: tb.Type, Level: tb.Level, Align: tb.Align, Content: right}
	if tb.Type == TypeHeading && len(right) == 0 {
		second = &Node{Type: TypeParagraph, Align: tb.Align}
	}
	tb.Content = left
	parent.Content = slices.Insert(parent.Content, idx+1, second)
	normalizeDoc(out)
	return out, StepMap{Pos: s.Pos, OldSize: 0, NewSize: 1}, nil
}

// Invert implements Step.
func (s SplitBlock) Invert(*Node) Step {
	return JoinBlocks{Pos: s.Pos + 1}
}

// JoinBlocks merges the text block starting at Pos into the text block
// before it. Containers emptied by the move are removed.
type JoinBlocks struct {
	Pos int
}

// Apply implements Step.
func (s JoinBlocks) Apply(d *Node) (*Node, StepMap, error) {
	i, err := s.index(d)
	if err != nil {
		return nil, StepMap{}, err
	}
	out := d.Clone()
	blocks := out.TextBlocks()
	prev, cur := blocks[i-1], blocks[i]
	prev.Node.Content = append(prev.Node.Content, cur.Node.Content...)
	removeNode(out, cur.Path)
	normalizeDoc(out)
	return out, StepMap{Pos: s.Pos - 1, OldSize: 1, NewSize: 0}, nil
}

func (s JoinBlocks) index(d *Node) (int, error) {
	for i, b := range d.TextBlocks() {
		if b.Start == s.Pos && i > 0 {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no block to join at %d", ErrInvalidPosition, s.Pos)
}

// Invert implements Step.
func (s JoinBlocks) Invert(before *Node) Step {
	i, _ := s.index(before)
	blocks := before.TextBlocks()
	return restoreBlocks(s, before, blocks[i-1].Top(), blocks[i].Top()+1)
}

// ReplaceBlocks replaces the top-level blocks [Start, End) with Blocks.
// Block-level commands (alignment, block type, lists, quotes, sorting, whole
// document replacement) are expressed with it.
type ReplaceBlocks struct {
	Start  int
	End    int
	Blocks []*Node
}

// Apply implements Step.
func (s ReplaceBlocks) Apply(d *Node) (*Node, StepMap, error) {
	if s.Start < 0 || s.End < s.Start || s.End > len(d.Content) {
		return nil, StepMap{}, fmt.Errorf("%w: blocks [%d, %d) of %d", ErrInvalidRange, s.Start, s.End, len(d.Content))
	}
	content := make([]*Node, 0, len(d.Content)-(s.End-s.Start)+len(s.Blocks))
	content = append(content, cloneAll(d.Content[:s.Start])...)
	content = append(content, normalizeBlocks(cloneAll(s.Blocks))...)
	content = append(content, cloneAll(d.Content[s.End:])...)
	out := &Node{Type: TypeDoc, Content: content}
	normalizeDoc(out)

	from, to := d.topStart(s.Start), d.topStart(s.End)
	newTo := out.Size() + 1 - (d.Size() + 1 - to)
	replaced := out.Content[s.Start : len(out.Content)-(len(d.Content)-s.End)]
	opaque := !slices.Equal(blockTexts(d.Content[s.Start:s.End]), blockTexts(replaced))
	return out, StepMap{Pos: from, OldSize: to - from, NewSize: newTo - from, Opaque: opaque}, nil
}

// blockTexts lists the text of every text block under blocks in order.
func blockTexts(blocks []*Node) []string {
	var out []string
	for _, b := range (&Node{Content: blocks}).TextBlocks() {
		out = append(out, b.Node.TextContent())
	}
	return out
}

// Invert implements Step.
func (s ReplaceBlocks) Invert(before *Node) Step {
	return restoreBlocks(s, before, s.Start, s.End)
}

// restoreBlocks builds the ReplaceBlocks step that puts back the top-level
// blocks [start, end) of before after step ran.
func restoreBlocks(step Step, before *Node, start, end int) Step {
	after, _, err := step.Apply(before)
	if err != nil {
		return ReplaceBlocks{Start: 0, End: 0}
	}
	endAfter := len(after.Content) - (len(before.Content) - end)
	return ReplaceBlocks{Start: start, End: endAfter, Blocks: cloneAll(before.Content[start:end])}
}

// updateMarks applies f to the marks of every run in [from, to).
func updateMarks(d *Node, from, to int, f func(MarkSet) MarkSet) (*Node, error) {
	if from > to || from < 0 || to > d.Size() {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, from, to)
	}
	out := d.Clone()
	for _, b := range out.TextBlocks() {
		lo, hi := max(from, b.Start), min(to, b.End)
		if lo >= hi {
			continue
		}
		b.Node.Content = mapRuns(b.Node.Content, lo-b.Start, hi-b.Start, f)
	}
	normalizeDoc(out)
	return out, nil
}

// snapshot records the exact marks of every run inside [from, to).
func snapshot(d *Node, from, to int) []Span {
	var spans []Span
	for _, r := range d.RunsBetween(from, to) {
		spans = append(spans, Span{From: r.From, To: r.To, Marks: r.Marks})
	}
	return spans
}

// removeNode deletes the node at path and any ancestor left empty, stopping
// at the document root.
func removeNode(root *Node, path []int) {
	for len(path) > 0 {
		parent := root.Descendant(path[:len(path)-1])
		idx := path[len(path)-1]
		parent.Content = slices.Delete(parent.Content, idx, idx+1)
		if len(parent.Content) > 0 || parent.Type == TypeDoc {
			return
		}
		path = path[:len(path)-1]
	}
}
