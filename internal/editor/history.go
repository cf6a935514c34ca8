package editor

import (
	"github.com/starford/noteflow/internal/doc"
)

// entry is one undoable command: its forward steps, the steps undoing them
// and the selections around it.
type entry struct {
	steps     []doc.Step
	inverse   []doc.Step
	selBefore doc.Selection
	selAfter  doc.Selection
}

// History is a linear undo stack. Recording a new command drops the redo
// stack; the oldest entries fall off past the limit.
type History struct {
	limit  int
	done   []entry
	undone []entry
}

func (h *History) push(e entry) {
	h.undone = nil
	h.pushDone(e)
}

func (h *History) pushDone(e entry) {
	h.done = append(h.done, e)
	if h.limit > 0 && len(h.done) > h.limit {
		h.done = h.done[len(h.done)-h.limit:]
	}
}

func (h *History) pushUndone(e entry) {
	h.undone = append(h.undone, e)
}

func (h *History) popDone() (entry, bool) {
	return pop(&h.done)
}

func (h *History) popUndone() (entry, bool) {
	return pop(&h.undone)
}

func pop(stack *[]entry) (entry, bool) {
	n := len(*stack)
	if n == 0 {
		return entry{}, false
	}
	e := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return e, true
}

// rewrite replaces every recorded step, forward and inverse, with fn(step).
func (h *History) rewrite(fn func(doc.Step) doc.Step) {
	for _, stack := range [][]entry{h.done, h.undone} {
		for i := range stack {
			stack[i].steps = mapSteps(stack[i].steps, fn)
			stack[i].inverse = mapSteps(stack[i].inverse, fn)
		}
	}
}

func mapSteps(steps []doc.Step, fn func(doc.Step) doc.Step) []doc.Step {
	out := make([]doc.Step, len(steps))
	for i, s := range steps {
		out[i] = fn(s)
	}
	return out
}
