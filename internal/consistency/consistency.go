// Package consistency enforces mark co-occurrence after document mutations.
//
// When a mutation leaves a run with formatting marks but without the style
// mark the same run carried before (or the reverse), the dropped category is
// put back by a separate corrective transaction. The check is a pure function
// of the document before and after the mutation.
package consistency

import (
	"github.com/starford/noteflow/internal/doc"
)

// Check compares every run of after with the runs that occupied the same
// logical range in before and returns the steps restoring dropped marks.
// mapping is the position map from before to after. Runs holding inserted or
// replaced text have no counterpart and are left alone. A run that merged
// several old runs gets each old run's marks back over its own piece only.
// An empty result means nothing needs fixing.
func Check(before, after *doc.Node, mapping doc.Mapping) []doc.Step {
	back := mapping.Invert()
	old := before.Runs()
	var steps []doc.Step
	for _, r := range after.Runs() {
		hasFormatting, hasStyle := r.Marks.HasFormatting(), r.Marks.HasStyle()
		if hasFormatting == hasStyle {
			continue
		}
		from, to := back.Map(r.From, 1), back.Map(r.To, -1)
		if to-from != r.To-r.From {
			continue
		}
		shift := r.From - from
		for _, prev := range overlapping(old, from, to) {
			lo, hi := max(prev.From, from)+shift, min(prev.To, to)+shift
			switch {
			case hasFormatting && prev.Marks.HasStyle():
				style, _ := prev.Marks.Get(doc.Style)
				steps = append(steps, doc.AddMark{From: lo, To: hi, Mark: style})
			case hasStyle && prev.Marks.HasFormatting():
				for _, m := range prev.Marks.Formatting() {
					steps = append(steps, doc.AddMark{From: lo, To: hi, Mark: m})
				}
			}
		}
	}
	return steps
}

// overlapping returns the runs sharing at least one position with [from, to).
func overlapping(runs []doc.Run, from, to int) []doc.Run {
	var out []doc.Run
	for _, r := range runs {
		if r.From < to && r.To > from {
			out = append(out, r)
		}
	}
	return out
}

// Reconcile builds the corrective transaction for tr, or returns nil when
// no correction applies. Transactions flagged as intentional removals,
// transactions that left the document unchanged and transactions whose
// origin is itself final are skipped. The returned transaction has the
// corrective origin and is never reconciled again.
func Reconcile(tr *doc.Transaction) (*doc.Transaction, error) {
	if !tr.DocChanged() || tr.IntentionalRemoval() || !tr.Origin().Reconciled() {
		return nil, nil
	}
	steps := Check(tr.Before(), tr.Doc(), tr.Mapping())
	if len(steps) == 0 {
		return nil, nil
	}
	fix := doc.NewTransaction(tr.Doc(), doc.OriginCorrective)
	for _, s := range steps {
		if err := fix.Step(s); err != nil {
			return nil, err
		}
	}
	return fix, nil
}
