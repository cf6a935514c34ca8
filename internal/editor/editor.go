// Package editor runs commands against one document.
//
// Every command goes through the same pipeline: the command builds a
// transaction from the current state, the transaction is checked by the mark
// consistency engine, the selection is mapped through the change and the
// result is recorded in the undo history. A command either commits fully or
// leaves the editor untouched.
package editor

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/noteflow/internal/consistency"
	"github.com/starford/noteflow/internal/doc"
	"github.com/starford/noteflow/internal/search"
)

var (
	// ErrInvalidArgument is returned by commands given an unusable parameter.
	ErrInvalidArgument = errors.New("editor: invalid argument")
	// ErrUnknownCommand is returned by Build for unregistered command names.
	ErrUnknownCommand = errors.New("editor: unknown command")
)

const (
	defaultHistoryLimit = 100
	defaultFocusDelay   = 10 * time.Millisecond
)

// State is one immutable version of the editor.
type State struct {
	Doc         *doc.Node
	Selection   doc.Selection
	StoredMarks *doc.MarkSet
	Editable    bool
}

// Command builds the transaction for a state. A nil transaction means the
// command does not apply.
type Command func(s State) (*doc.Transaction, error)

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger used for command failures and corrections.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithHistoryLimit caps the number of undoable commands.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) { e.history.limit = n }
}

// WithFocusDelay sets how long focus restoration waits after a theme rewrite.
func WithFocusDelay(d time.Duration) Option {
	return func(e *Editor) { e.focus.delay = d }
}

// WithFocusHandler registers the callback receiving restored selections.
func WithFocusHandler(fn func(doc.Selection)) Option {
	return func(e *Editor) { e.onFocus = fn }
}

// Editor owns the current document version of one note.
type Editor struct {
	mu        sync.Mutex
	state     State
	history   *History
	search    search.State
	searching bool
	focus     *FocusController
	onFocus   func(doc.Selection)
	logger    *slog.Logger
}

// New creates an editable editor on d with the caret at the start.
func New(d *doc.Node, opts ...Option) *Editor {
	if d == nil {
		d = doc.New()
	}
	e := &Editor{
		state:   State{Doc: d, Selection: doc.Caret(0), Editable: true},
		history: &History{limit: defaultHistoryLimit},
		focus:   &FocusController{delay: defaultFocusDelay},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current version.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Doc returns the current document.
func (e *Editor) Doc() *doc.Node {
	return e.State().Doc
}

// SetEditable toggles whether commands apply.
func (e *Editor) SetEditable(editable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Editable = editable
}

// Exec runs cmd and reports whether it applied. A command on a read-only
// editor is a no-op. On error the editor keeps its previous state.
func (e *Editor) Exec(cmd Command) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exec(cmd)
}

func (e *Editor) exec(cmd Command) (bool, error) {
	if !e.state.Editable || e.state.Doc == nil {
		return false, nil
	}
	tr, err := cmd(e.state)
	if err != nil {
		e.logger.Debug("editor: command failed", slog.Any("error", err))
		return false, err
	}
	if tr == nil {
		return false, nil
	}
	return e.dispatch(tr)
}

// dispatch commits tr: reconcile, map the selection, record history.
func (e *Editor) dispatch(tr *doc.Transaction) (bool, error) {
	changed := tr.DocChanged()
	next := e.state
	steps, inverse := tr.Steps(), tr.Inverse()
	mapping := tr.Mapping()

	if changed {
		fix, err := consistency.Reconcile(tr)
		if err != nil {
			e.logger.Error("editor: reconcile failed", slog.Any("error", err))
			return false, err
		}
		next.Doc = tr.Doc()
		if fix != nil {
			e.logger.Debug("editor: restored dropped marks", slog.Int("steps", len(fix.Steps())))
			next.Doc = fix.Doc()
			mapping.AppendMapping(fix.Mapping())
			steps = append(slices.Clone(steps), fix.Steps()...)
			inverse = append(fix.Inverse(), inverse...)
		}
	}

	sel, explicit := tr.Selection()
	switch {
	case tr.SelectionReset():
		sel = doc.Caret(0)
	case explicit:
	default:
		sel = e.state.Selection.Map(mapping)
	}
	if !sel.Valid(next.Doc) {
		sel = doc.Caret(0)
	}
	next.Selection = sel

	if marks, ok := tr.StoredMarks(); ok {
		next.StoredMarks = &marks
	} else if changed || next.Selection != e.state.Selection {
		next.StoredMarks = nil
	}

	if changed && tr.AddToHistory() {
		e.history.push(entry{
			steps:     steps,
			inverse:   inverse,
			selBefore: e.state.Selection,
			selAfter:  next.Selection,
		})
	}
	e.state = next
	if changed && e.searching {
		e.search = e.search.Refresh(next.Doc)
	}
	return true, nil
}

// Undo reverts the last recorded command and restores its selection.
func (e *Editor) Undo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	en, ok := e.history.popDone()
	if !ok {
		return false, nil
	}
	d, err := e.replay(en.inverse)
	if err != nil {
		e.history.pushDone(en)
		return false, err
	}
	e.history.pushUndone(en)
	e.restore(d, en.selBefore)
	return true, nil
}

// Redo reapplies the last undone command.
func (e *Editor) Redo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	en, ok := e.history.popUndone()
	if !ok {
		return false, nil
	}
	d, err := e.replay(en.steps)
	if err != nil {
		e.history.pushUndone(en)
		return false, err
	}
	e.history.pushDone(en)
	e.restore(d, en.selAfter)
	return true, nil
}

// CanUndo reports whether Undo would apply.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history.done) > 0
}

// CanRedo reports whether Redo would apply.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history.undone) > 0
}

func (e *Editor) replay(steps []doc.Step) (*doc.Node, error) {
	tr := doc.NewTransaction(e.state.Doc, doc.OriginHistory)
	for _, s := range steps {
		if err := tr.Step(s); err != nil {
			e.logger.Error("editor: history replay failed", slog.Any("error", err))
			return nil, err
		}
	}
	return tr.Doc(), nil
}

func (e *Editor) restore(d *doc.Node, sel doc.Selection) {
	if !sel.Valid(d) {
		sel = doc.Caret(0)
	}
	e.state.Doc = d
	e.state.Selection = sel
	e.state.StoredMarks = nil
	if e.searching {
		e.search = e.search.Refresh(d)
	}
}

// ApplyTheme rewrites black and white text colours for the given theme and
// schedules focus restoration. The rewrite is not undoable; colours recorded
// in the history are rewritten too, so undo and redo keep the theme.
func (e *Editor) ApplyTheme(dark bool) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	changed, err := e.exec(ThemeColors(dark))
	if err != nil {
		return false, err
	}
	if e.state.Editable {
		sources, target := themeColors(dark)
		e.history.rewrite(func(s doc.Step) doc.Step { return recolorStep(s, sources, target) })
	}
	e.focus.Schedule(e.restoreFocus)
	return changed, nil
}

// restoreFocus runs on the focus timer. A selection no longer valid for the
// document collapses to the start.
func (e *Editor) restoreFocus() {
	e.mu.Lock()
	if !e.state.Selection.Valid(e.state.Doc) {
		e.state.Selection = doc.Caret(0)
	}
	sel, fn := e.state.Selection, e.onFocus
	e.mu.Unlock()
	if fn != nil {
		fn(sel)
	}
}

// Close stops any pending focus timer.
func (e *Editor) Close() {
	e.focus.Stop()
}
