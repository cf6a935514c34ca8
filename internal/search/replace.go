package search

import (
	"github.com/starford/noteflow/internal/doc"
)

// ReplaceCurrent builds the transaction replacing the current match of s
// with replacement. The new text keeps the marks found at the start of the
// match. s is refreshed against d first, so stale positions are never used.
// A nil transaction means there was nothing to replace. Control characters
// in replacement are dropped as in doc.CleanText.
func ReplaceCurrent(d *doc.Node, s State, replacement string) (*doc.Transaction, error) {
	replacement = doc.CleanText(replacement)
	s = s.Refresh(d)
	m, ok := s.CurrentMatch()
	if !ok {
		return nil, nil
	}
	tr := doc.NewTransaction(d, doc.OriginCommand)
	if err := tr.Step(replaceStep(d, m, replacement)); err != nil {
		return nil, err
	}
	tr.SetSelection(doc.Caret(m.From + len([]rune(replacement))))
	return tr, nil
}

// ReplaceAll builds one transaction replacing every match of s and reports
// how many were replaced. Matches are rewritten back to front so earlier
// positions stay valid. The selection is reset afterwards.
func ReplaceAll(d *doc.Node, s State, replacement string) (*doc.Transaction, int, error) {
	matches := Find(d, s.Query, s.CaseSensitive)
	if len(matches) == 0 {
		return nil, 0, nil
	}
	replacement = doc.CleanText(replacement)
	tr := doc.NewTransaction(d, doc.OriginCommand)
	for i := len(matches) - 1; i >= 0; i-- {
		if err := tr.Step(replaceStep(tr.Doc(), matches[i], replacement)); err != nil {
			return nil, 0, err
		}
	}
	tr.ResetSelection()
	return tr, len(matches), nil
}

func replaceStep(d *doc.Node, m Match, replacement string) doc.Step {
	var runs []*doc.Node
	if replacement != "" {
		var marks doc.MarkSet
		if rs := d.RunsBetween(m.From, m.From+1); len(rs) > 0 {
			marks = rs[0].Marks
		}
		runs = []*doc.Node{{Type: doc.TypeText, Text: replacement, Marks: marks}}
	}
	return doc.ReplaceText{From: m.From, To: m.To, Runs: runs}
}
