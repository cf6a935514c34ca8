package editor

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/starford/noteflow/internal/doc"
)

// build starts a command transaction and applies steps, dropping the
// transaction when a step fails.
func build(d *doc.Node, origin doc.Origin, steps ...doc.Step) (*doc.Transaction, error) {
	tr := doc.NewTransaction(d, origin)
	for _, s := range steps {
		if err := tr.Step(s); err != nil {
			return nil, err
		}
	}
	return tr, nil
}

// currentMarks returns the marks the next typed character gets.
func currentMarks(s State) doc.MarkSet {
	if s.StoredMarks != nil {
		return *s.StoredMarks
	}
	return s.Doc.MarksAt(s.Selection.From)
}

func storeMarks(s State, marks doc.MarkSet) *doc.Transaction {
	return doc.NewTransaction(s.Doc, doc.OriginCommand).SetStoredMarks(marks)
}

func allHave(runs []doc.Run, t doc.MarkType) bool {
	for _, r := range runs {
		if !r.Marks.Has(t) {
			return false
		}
	}
	return true
}

func anyStyled(runs []doc.Run) bool {
	return slices.ContainsFunc(runs, func(r doc.Run) bool { return r.Marks.HasStyle() })
}

// ToggleMark adds formatting mark t to the selection, or removes it when
// every selected run already has it. Removing t from styled text is an
// intentional removal. On a caret it toggles the stored marks.
func ToggleMark(t doc.MarkType) Command {
	return func(s State) (*doc.Transaction, error) {
		if !t.Formatting() {
			return nil, fmt.Errorf("%w: %q is not a formatting mark", ErrInvalidArgument, t)
		}
		sel := s.Selection
		if sel.Collapsed() {
			marks := currentMarks(s)
			if marks.Has(t) {
				return storeMarks(s, marks.Without(t)), nil
			}
			return storeMarks(s, marks.With(doc.NewMark(t))), nil
		}
		runs := s.Doc.RunsBetween(sel.From, sel.To)
		if len(runs) == 0 {
			return nil, nil
		}
		if !allHave(runs, t) {
			return build(s.Doc, doc.OriginCommand, doc.AddMark{From: sel.From, To: sel.To, Mark: doc.NewMark(t)})
		}
		tr, err := build(s.Doc, doc.OriginCommand, doc.RemoveMark{From: sel.From, To: sel.To, Type: t})
		if err != nil {
			return nil, err
		}
		if anyStyled(runs) {
			tr.MarkIntentionalRemoval()
		}
		return tr, nil
	}
}

// ToggleBold toggles bold.
func ToggleBold() Command { return ToggleMark(doc.Bold) }

// ToggleItalic toggles italic.
func ToggleItalic() Command { return ToggleMark(doc.Italic) }

// ToggleUnderline toggles underline.
func ToggleUnderline() Command { return ToggleMark(doc.Underline) }

// ToggleStrike toggles strikethrough.
func ToggleStrike() Command { return ToggleMark(doc.Strike) }

// ToggleCode toggles inline code.
func ToggleCode() Command { return ToggleMark(doc.Code) }

func validStyle(attr doc.StyleAttr, v string) bool {
	switch attr {
	case doc.AttrColor:
		return doc.ValidColor(v)
	case doc.AttrFontFamily:
		return doc.ValidFontFamily(v)
	case doc.AttrFontSize:
		return doc.ValidFontSize(v)
	}
	return false
}

// setStyle changes one style axis and keeps the others along with every
// formatting mark. An empty value unsets the axis.
func setStyle(attr doc.StyleAttr, value string) Command {
	return func(s State) (*doc.Transaction, error) {
		value = strings.TrimSpace(value)
		if value != "" && !validStyle(attr, value) {
			return nil, fmt.Errorf("%w: %s %q", ErrInvalidArgument, attr, value)
		}
		sel := s.Selection
		if sel.Collapsed() {
			marks := currentMarks(s)
			style, ok := marks.Get(doc.Style)
			if !ok {
				style = doc.NewMark(doc.Style)
			}
			return storeMarks(s, marks.With(style.WithAttr(attr, value))), nil
		}
		runs := s.Doc.RunsBetween(sel.From, sel.To)
		if len(runs) == 0 {
			return nil, nil
		}
		tr, err := build(s.Doc, doc.OriginCommand, doc.SetStyle{From: sel.From, To: sel.To, Attr: attr, Value: value})
		if err != nil {
			return nil, err
		}
		if value == "" && anyStyled(runs) {
			tr.MarkIntentionalRemoval()
		}
		return tr, nil
	}
}

// SetColor sets the text colour.
func SetColor(color string) Command { return setStyle(doc.AttrColor, color) }

// UnsetColor clears the text colour.
func UnsetColor() Command { return setStyle(doc.AttrColor, "") }

// SetFontFamily sets the font family.
func SetFontFamily(family string) Command { return setStyle(doc.AttrFontFamily, family) }

// UnsetFontFamily clears the font family.
func UnsetFontFamily() Command { return setStyle(doc.AttrFontFamily, "") }

// SetFontSize sets the font size.
func SetFontSize(size string) Command { return setStyle(doc.AttrFontSize, size) }

// UnsetFontSize clears the font size.
func UnsetFontSize() Command { return setStyle(doc.AttrFontSize, "") }

// SetLink links the selection to href. On a caret inside a link the whole
// link is retargeted. An empty href removes the link.
func SetLink(href string) Command {
	href = strings.TrimSpace(href)
	if href == "" {
		return UnsetLink()
	}
	return func(s State) (*doc.Transaction, error) {
		u, err := url.Parse(href)
		if err != nil || strings.EqualFold(u.Scheme, "javascript") {
			return nil, fmt.Errorf("%w: link %q", ErrInvalidArgument, href)
		}
		from, to, ok := linkTarget(s)
		if !ok {
			return nil, nil
		}
		return build(s.Doc, doc.OriginCommand, doc.AddMark{From: from, To: to, Mark: doc.LinkMark(href)})
	}
}

// UnsetLink removes links from the selection or from the link around the
// caret.
func UnsetLink() Command {
	return func(s State) (*doc.Transaction, error) {
		from, to, ok := linkTarget(s)
		if !ok {
			return nil, nil
		}
		return build(s.Doc, doc.OriginCommand, doc.RemoveMark{From: from, To: to, Type: doc.Link})
	}
}

func linkTarget(s State) (int, int, bool) {
	if !s.Selection.Collapsed() {
		return s.Selection.From, s.Selection.To, true
	}
	return linkRange(s.Doc, s.Selection.From)
}

// linkRange extends pos to the contiguous runs sharing its link.
func linkRange(d *doc.Node, pos int) (int, int, bool) {
	runs := d.Runs()
	i := slices.IndexFunc(runs, func(r doc.Run) bool {
		return r.From <= pos && pos <= r.To && r.Marks.Has(doc.Link)
	})
	if i < 0 {
		return 0, 0, false
	}
	link, _ := runs[i].Marks.Get(doc.Link)
	same := func(j int) bool {
		l, ok := runs[j].Marks.Get(doc.Link)
		return ok && l.Href == link.Href
	}
	lo, hi := i, i
	for lo > 0 && runs[lo-1].To == runs[lo].From && same(lo-1) {
		lo--
	}
	for hi+1 < len(runs) && runs[hi+1].From == runs[hi].To && same(hi+1) {
		hi++
	}
	return runs[lo].From, runs[hi].To, true
}

// coveredTop returns the top-level blocks [start, end) touched by sel.
func coveredTop(d *doc.Node, sel doc.Selection) (int, int, error) {
	_, first, err := d.BlockAt(sel.From)
	if err != nil {
		return 0, 0, err
	}
	_, last, err := d.BlockAt(sel.To)
	if err != nil {
		return 0, 0, err
	}
	return first.Top(), last.Top() + 1, nil
}

// coveredTextblocks lists the text blocks overlapping sel.
func coveredTextblocks(d *doc.Node, sel doc.Selection) []doc.TextBlock {
	var out []doc.TextBlock
	for _, b := range d.TextBlocks() {
		if b.End >= sel.From && b.Start <= sel.To {
			out = append(out, b)
		}
	}
	return out
}

// updateTextblocks rewrites every text block touched by the selection with f.
func updateTextblocks(s State, f func(tb *doc.Node)) (*doc.Transaction, error) {
	start, end, err := coveredTop(s.Doc, s.Selection)
	if err != nil {
		return nil, err
	}
	out := s.Doc.Clone()
	for _, b := range coveredTextblocks(s.Doc, s.Selection) {
		f(out.Descendant(b.Path))
	}
	return build(s.Doc, doc.OriginCommand, doc.ReplaceBlocks{Start: start, End: end, Blocks: out.Content[start:end]})
}

// SetTextAlign aligns every block touched by the selection.
func SetTextAlign(a doc.Align) Command {
	return func(s State) (*doc.Transaction, error) {
		if a == "" || !a.Valid() {
			return nil, fmt.Errorf("%w: alignment %q", ErrInvalidArgument, a)
		}
		return updateTextblocks(s, func(tb *doc.Node) { tb.Align = a })
	}
}

// SetParagraph turns the covered blocks into paragraphs.
func SetParagraph() Command {
	return func(s State) (*doc.Transaction, error) {
		return updateTextblocks(s, func(tb *doc.Node) {
			tb.Type, tb.Level = doc.TypeParagraph, 0
		})
	}
}

// SetHeading turns the covered blocks into headings of level.
func SetHeading(level int) Command {
	return func(s State) (*doc.Transaction, error) {
		if level < 1 || level > doc.MaxHeadingLevel {
			return nil, fmt.Errorf("%w: heading level %d", ErrInvalidArgument, level)
		}
		return updateTextblocks(s, func(tb *doc.Node) {
			tb.Type, tb.Level = doc.TypeHeading, level
		})
	}
}

// ToggleHeading sets headings of level, or reverts to paragraphs when every
// covered block already is one.
func ToggleHeading(level int) Command {
	return func(s State) (*doc.Transaction, error) {
		blocks := coveredTextblocks(s.Doc, s.Selection)
		all := len(blocks) > 0 && !slices.ContainsFunc(blocks, func(b doc.TextBlock) bool {
			return b.Node.Type != doc.TypeHeading || b.Node.Level != level
		})
		if all {
			return SetParagraph()(s)
		}
		return SetHeading(level)(s)
	}
}

// ToggleBlockquote wraps the covered top-level blocks in a quote, or
// unwraps them when all of them are quotes.
func ToggleBlockquote() Command {
	return func(s State) (*doc.Transaction, error) {
		start, end, err := coveredTop(s.Doc, s.Selection)
		if err != nil {
			return nil, err
		}
		covered := s.Doc.Content[start:end]
		quoted := !slices.ContainsFunc(covered, func(b *doc.Node) bool { return b.Type != doc.TypeBlockquote })
		var inner []*doc.Node
		for _, b := range covered {
			if b.Type == doc.TypeBlockquote {
				inner = append(inner, b.Content...)
				continue
			}
			inner = append(inner, b)
		}
		blocks := inner
		if !quoted {
			blocks = []*doc.Node{doc.Blockquote(inner...)}
		}
		return build(s.Doc, doc.OriginCommand, doc.ReplaceBlocks{Start: start, End: end, Blocks: blocks})
	}
}

// textblocksOf flattens blocks to copies of their text blocks.
func textblocksOf(blocks []*doc.Node) []*doc.Node {
	var out []*doc.Node
	for _, b := range (&doc.Node{Type: doc.TypeDoc, Content: blocks}).TextBlocks() {
		out = append(out, b.Node.Clone())
	}
	return out
}

func toggleList(listType doc.NodeType) Command {
	return func(s State) (*doc.Transaction, error) {
		start, end, err := coveredTop(s.Doc, s.Selection)
		if err != nil {
			return nil, err
		}
		covered := s.Doc.Content[start:end]
		unwrap := !slices.ContainsFunc(covered, func(b *doc.Node) bool { return b.Type != listType })
		var blocks []*doc.Node
		if unwrap {
			for _, tb := range textblocksOf(covered) {
				tb.Type, tb.Level = doc.TypeParagraph, 0
				blocks = append(blocks, tb)
			}
		} else {
			list := &doc.Node{Type: listType}
			for _, tb := range textblocksOf(covered) {
				list.Content = append(list.Content, doc.ListItem(tb))
			}
			blocks = []*doc.Node{list}
		}
		return build(s.Doc, doc.OriginCommand, doc.ReplaceBlocks{Start: start, End: end, Blocks: blocks})
	}
}

// ToggleBulletList converts the covered blocks to a bullet list, or back to
// paragraphs when they already are one.
func ToggleBulletList() Command { return toggleList(doc.TypeBulletList) }

// ToggleOrderedList converts the covered blocks to an ordered list, or back
// to paragraphs when they already are one.
func ToggleOrderedList() Command { return toggleList(doc.TypeOrderedList) }

// SortParagraphs reorders the top-level paragraphs by their text. Other
// top-level blocks keep their index; the paragraphs are permuted among the
// paragraph slots. Comparison is case-sensitive and byte-wise, ties keep
// document order. The selection is reset.
func SortParagraphs(descending bool) Command {
	return func(s State) (*doc.Transaction, error) {
		var slots []int
		for i, b := range s.Doc.Content {
			if b.Type == doc.TypeParagraph {
				slots = append(slots, i)
			}
		}
		if len(slots) < 2 {
			return nil, nil
		}
		paras := make([]*doc.Node, len(slots))
		for i, idx := range slots {
			paras[i] = s.Doc.Content[idx]
		}
		slices.SortStableFunc(paras, func(a, b *doc.Node) int {
			c := strings.Compare(a.TextContent(), b.TextContent())
			if descending {
				return -c
			}
			return c
		})
		content := slices.Clone(s.Doc.Content)
		for i, idx := range slots {
			content[idx] = paras[i]
		}
		tr, err := build(s.Doc, doc.OriginCommand, doc.ReplaceBlocks{Start: 0, End: len(s.Doc.Content), Blocks: content})
		if err != nil {
			return nil, err
		}
		return tr.ResetSelection(), nil
	}
}

// SortAZ sorts paragraphs ascending.
func SortAZ() Command { return SortParagraphs(false) }

// SortZA sorts paragraphs descending.
func SortZA() Command { return SortParagraphs(true) }

// SelectAll selects the whole document.
func SelectAll() Command {
	return func(s State) (*doc.Transaction, error) {
		return doc.NewTransaction(s.Doc, doc.OriginCommand).SetSelection(doc.All(s.Doc)), nil
	}
}

// SetSelection moves the selection.
func SetSelection(sel doc.Selection) Command {
	return func(s State) (*doc.Transaction, error) {
		if !sel.Valid(s.Doc) {
			return nil, fmt.Errorf("%w: selection [%d, %d] outside document of size %d", ErrInvalidArgument, sel.From, sel.To, s.Doc.Size())
		}
		return doc.NewTransaction(s.Doc, doc.OriginCommand).SetSelection(sel), nil
	}
}

// SetContent replaces the whole document and resets the selection.
func SetContent(next *doc.Node) Command {
	return func(s State) (*doc.Transaction, error) {
		if next == nil {
			next = doc.New()
		}
		tr, err := build(s.Doc, doc.OriginCommand, doc.ReplaceBlocks{Start: 0, End: len(s.Doc.Content), Blocks: next.Content})
		if err != nil {
			return nil, err
		}
		return tr.ResetSelection(), nil
	}
}

// deleteRange removes [from, to), joining the blocks at both ends when the
// range spans several blocks.
func deleteRange(tr *doc.Transaction, from, to int) error {
	d := tr.Doc()
	blocks := d.TextBlocks()
	fi, first, err := d.BlockAt(from)
	if err != nil {
		return err
	}
	ti, _, err := d.BlockAt(to)
	if err != nil {
		return err
	}
	if fi == ti {
		return tr.Step(doc.ReplaceText{From: from, To: to})
	}
	for k := ti; k > fi; k-- {
		b := blocks[k]
		if err := tr.Step(doc.ReplaceText{From: b.Start, To: min(b.End, to)}); err != nil {
			return err
		}
	}
	if err := tr.Step(doc.ReplaceText{From: from, To: first.End}); err != nil {
		return err
	}
	for range ti - fi {
		if err := tr.Step(doc.JoinBlocks{Pos: from + 1}); err != nil {
			return err
		}
	}
	return nil
}

// InsertText types text at the selection, replacing any selected range.
// Newlines split blocks and other control characters except tab are
// dropped. The text carries the stored marks or the marks at the caret.
func InsertText(text string) Command {
	return func(s State) (*doc.Transaction, error) {
		if text == "" {
			return nil, nil
		}
		marks := currentMarks(s)
		tr := doc.NewTransaction(s.Doc, doc.OriginInput)
		from, to := s.Selection.From, s.Selection.To
		if from < to {
			if err := deleteRange(tr, from, to); err != nil {
				return nil, err
			}
		}
		pos := from
		for i, line := range strings.Split(doc.CleanText(text), "\n") {
			if i > 0 {
				if err := tr.Step(doc.SplitBlock{Pos: pos}); err != nil {
					return nil, err
				}
				pos++
			}
			if line == "" {
				continue
			}
			run := &doc.Node{Type: doc.TypeText, Text: line, Marks: marks}
			if err := tr.Step(doc.ReplaceText{From: pos, To: pos, Runs: []*doc.Node{run}}); err != nil {
				return nil, err
			}
			pos += utf8.RuneCountInString(line)
		}
		return tr.SetSelection(doc.Caret(pos)), nil
	}
}

// DeleteBackward deletes the selection, or the character before the caret.
// At the start of a block it joins the block into the previous one.
func DeleteBackward() Command {
	return func(s State) (*doc.Transaction, error) {
		from, to := s.Selection.From, s.Selection.To
		tr := doc.NewTransaction(s.Doc, doc.OriginInput)
		if from < to {
			if err := deleteRange(tr, from, to); err != nil {
				return nil, err
			}
			return tr.SetSelection(doc.Caret(from)), nil
		}
		i, b, err := s.Doc.BlockAt(from)
		if err != nil {
			return nil, err
		}
		switch {
		case from > b.Start:
			err = tr.Step(doc.ReplaceText{From: from - 1, To: from})
		case i > 0:
			err = tr.Step(doc.JoinBlocks{Pos: from})
		default:
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return tr.SetSelection(doc.Caret(from - 1)), nil
	}
}

// DeleteForward deletes the selection, or the character after the caret.
// At the end of a block it joins the next block into this one.
func DeleteForward() Command {
	return func(s State) (*doc.Transaction, error) {
		from, to := s.Selection.From, s.Selection.To
		tr := doc.NewTransaction(s.Doc, doc.OriginInput)
		if from < to {
			if err := deleteRange(tr, from, to); err != nil {
				return nil, err
			}
			return tr.SetSelection(doc.Caret(from)), nil
		}
		i, b, err := s.Doc.BlockAt(from)
		if err != nil {
			return nil, err
		}
		switch {
		case from < b.End:
			err = tr.Step(doc.ReplaceText{From: from, To: from + 1})
		case i+1 < len(s.Doc.TextBlocks()):
			err = tr.Step(doc.JoinBlocks{Pos: from + 1})
		default:
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return tr.SetSelection(doc.Caret(from)), nil
	}
}

// SplitBlock splits the block at the caret, replacing any selected range.
func SplitBlock() Command {
	return func(s State) (*doc.Transaction, error) {
		from, to := s.Selection.From, s.Selection.To
		tr := doc.NewTransaction(s.Doc, doc.OriginInput)
		if from < to {
			if err := deleteRange(tr, from, to); err != nil {
				return nil, err
			}
		}
		if err := tr.Step(doc.SplitBlock{Pos: from}); err != nil {
			return nil, err
		}
		return tr.SetSelection(doc.Caret(from + 1)), nil
	}
}

// Chain runs cmds one after another as a single command. The steps of all
// of them form one transaction, reconciled and undone as one unit.
func Chain(cmds ...Command) Command {
	return func(s State) (*doc.Transaction, error) {
		out := doc.NewTransaction(s.Doc, doc.OriginCommand)
		cur := s
		applied := false
		for _, cmd := range cmds {
			tr, err := cmd(cur)
			if err != nil {
				return nil, err
			}
			if tr == nil {
				continue
			}
			applied = true
			for _, st := range tr.Steps() {
				if err := out.Step(st); err != nil {
					return nil, err
				}
			}
			if tr.IntentionalRemoval() {
				out.MarkIntentionalRemoval()
			}
			sel, explicit := tr.Selection()
			switch {
			case tr.SelectionReset():
				sel = doc.Caret(0)
			case explicit:
			default:
				sel = cur.Selection.Map(tr.Mapping())
			}
			cur = State{Doc: tr.Doc(), Selection: sel, StoredMarks: cur.StoredMarks, Editable: cur.Editable}
			if marks, ok := tr.StoredMarks(); ok {
				out.SetStoredMarks(marks)
				cur.StoredMarks = &marks
			}
		}
		if !applied {
			return nil, nil
		}
		return out.SetSelection(cur.Selection), nil
	}
}
