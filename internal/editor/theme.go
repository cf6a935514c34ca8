package editor

import (
	"slices"
	"strings"

	"github.com/starford/noteflow/internal/doc"
)

var (
	blackColors = []string{"#000000", "black", "rgb(0,0,0)"}
	whiteColors = []string{"#ffffff", "white", "rgb(255,255,255)"}
)

func colorKey(c string) string {
	return strings.ToLower(strings.ReplaceAll(c, " ", ""))
}

func themeColors(dark bool) (sources []string, target string) {
	if dark {
		return blackColors, "#ffffff"
	}
	return whiteColors, "#000000"
}

// ThemeColors rewrites text coloured black to white for a dark theme, or
// white to black for a light one, so text stays readable. The rewrite is
// kept out of the undo history.
func ThemeColors(dark bool) Command {
	sources, target := themeColors(dark)
	return func(s State) (*doc.Transaction, error) {
		tr := doc.NewTransaction(s.Doc, doc.OriginTheme)
		for _, r := range s.Doc.Runs() {
			style, ok := r.Marks.Get(doc.Style)
			if !ok || !slices.Contains(sources, colorKey(style.Color)) {
				continue
			}
			if err := tr.Step(doc.SetStyle{From: r.From, To: r.To, Attr: doc.AttrColor, Value: target}); err != nil {
				return nil, err
			}
		}
		if len(tr.Steps()) == 0 {
			return nil, nil
		}
		return tr.SkipHistory(), nil
	}
}

// recolorStep returns step with every colour in sources replaced by target,
// so undoing or redoing a recorded command cannot bring back a colour the
// theme rewrote. Steps without colours are returned as is.
func recolorStep(step doc.Step, sources []string, target string) doc.Step {
	marks := func(ms doc.MarkSet) doc.MarkSet {
		style, ok := ms.Get(doc.Style)
		if !ok || !slices.Contains(sources, colorKey(style.Color)) {
			return ms
		}
		return ms.With(style.WithAttr(doc.AttrColor, target))
	}
	switch s := step.(type) {
	case doc.AddMark:
		if s.Mark.Type == doc.Style && slices.Contains(sources, colorKey(s.Mark.Color)) {
			s.Mark = s.Mark.WithAttr(doc.AttrColor, target)
		}
		return s
	case doc.SetStyle:
		if s.Attr == doc.AttrColor && slices.Contains(sources, colorKey(s.Value)) {
			s.Value = target
		}
		return s
	case doc.SetMarks:
		spans := make([]doc.Span, len(s.Spans))
		for i, sp := range s.Spans {
			sp.Marks = marks(sp.Marks)
			spans[i] = sp
		}
		return doc.SetMarks{Spans: spans}
	case doc.ReplaceText:
		s.Runs = recolorNodes(s.Runs, marks)
		return s
	case doc.ReplaceBlocks:
		s.Blocks = recolorNodes(s.Blocks, marks)
		return s
	}
	return step
}

func recolorNodes(nodes []*doc.Node, marks func(doc.MarkSet) doc.MarkSet) []*doc.Node {
	out := make([]*doc.Node, len(nodes))
	for i, n := range nodes {
		c := n.Clone()
		recolorTree(c, marks)
		out[i] = c
	}
	return out
}

func recolorTree(n *doc.Node, marks func(doc.MarkSet) doc.MarkSet) {
	if n.Type == doc.TypeText {
		n.Marks = marks(n.Marks)
	}
	for _, c := range n.Content {
		recolorTree(c, marks)
	}
}
