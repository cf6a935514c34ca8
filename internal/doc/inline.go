package doc

import "unicode/utf8"

func runsLen(runs []*Node) int {
	n := 0
	for _, r := range runs {
		n += utf8.RuneCountInString(r.Text)
	}
	return n
}

// splitRuns cuts a run sequence at character offset at. Both halves are
// fresh copies.
func splitRuns(runs []*Node, at int) (left, right []*Node) {
	pos := 0
	for _, r := range runs {
		if r.Type != TypeText {
			continue
		}
		n := utf8.RuneCountInString(r.Text)
		switch {
		case pos+n <= at:
			left = append(left, r.Clone())
		case pos >= at:
			right = append(right, r.Clone())
		default:
			rs := []rune(r.Text)
			k := at - pos
			left = append(left, &Node{Type: TypeText, Text: string(rs[:k]), Marks: r.Marks})
			right = append(right, &Node{Type: TypeText, Text: string(rs[k:]), Marks: r.Marks})
		}
		pos += n
	}
	return left, right
}

// sliceRuns copies the runs covering [from, to).
func sliceRuns(runs []*Node, from, to int) []*Node {
	_, tail := splitRuns(runs, from)
	mid, _ := splitRuns(tail, to-from)
	return mid
}

// replaceRuns swaps [from, to) for insert and merges the result.
func replaceRuns(runs []*Node, from, to int, insert []*Node) []*Node {
	head, rest := splitRuns(runs, from)
	_, tail := splitRuns(rest, to-from)
	out := make([]*Node, 0, len(head)+len(insert)+len(tail))
	out = append(out, head...)
	out = append(out, cloneAll(insert)...)
	out = append(out, tail...)
	return mergeRuns(out)
}

// mapRuns rewrites the mark set of every run inside [from, to).
func mapRuns(runs []*Node, from, to int, f func(MarkSet) MarkSet) []*Node {
	head, rest := splitRuns(runs, from)
	mid, tail := splitRuns(rest, to-from)
	for _, r := range mid {
		r.Marks = f(r.Marks)
	}
	out := append(head, mid...)
	out = append(out, tail...)
	return mergeRuns(out)
}

// mergeRuns drops empty and non-text children and joins neighbours with
// identical marks.
func mergeRuns(runs []*Node) []*Node {
	var out []*Node
	for _, r := range runs {
		if r == nil || r.Type != TypeText || r.Text == "" {
			continue
		}
		r.Content, r.Level, r.Align = nil, 0, ""
		r.Marks = Marks(r.Marks...)
		if n := len(out); n > 0 && out[n-1].Marks.Equal(r.Marks) {
			out[n-1] = &Node{Type: TypeText, Text: out[n-1].Text + r.Text, Marks: r.Marks}
			continue
		}
		out = append(out, r)
	}
	return out
}
