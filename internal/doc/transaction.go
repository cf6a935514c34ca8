package doc

// Origin records what produced a transaction.
type Origin int

// Transaction origins. Corrective and history transactions are final: they
// are never reconciled again.
const (
	OriginCommand Origin = iota
	OriginInput
	OriginCorrective
	OriginHistory
	OriginTheme
)

var originNames = map[Origin]string{
	OriginCommand:    "command",
	OriginInput:      "input",
	OriginCorrective: "corrective",
	OriginHistory:    "history",
	OriginTheme:      "theme",
}

func (o Origin) String() string {
	return originNames[o]
}

// Reconciled reports whether the mark consistency pass runs after
// transactions of this origin.
func (o Origin) Reconciled() bool {
	return o != OriginCorrective && o != OriginHistory
}

// Transaction accumulates steps on top of a document version. Each call to
// Step either applies fully or leaves the transaction as it was.
type Transaction struct {
	before   *Node
	doc      *Node
	steps    []Step
	inverses []Step
	mapping  Mapping
	origin   Origin

	intentional    bool
	resetSelection bool
	skipHistory    bool
	selection      *Selection
	storedMarks    *MarkSet
}

// NewTransaction starts a transaction on d.
func NewTransaction(d *Node, origin Origin) *Transaction {
	return &Transaction{before: d, doc: d, origin: origin}
}

// Step applies s to the current document of the transaction.
func (tr *Transaction) Step(s Step) error {
	next, m, err := s.Apply(tr.doc)
	if err != nil {
		return err
	}
	tr.inverses = append(tr.inverses, s.Invert(tr.doc))
	tr.steps = append(tr.steps, s)
	tr.mapping.Append(m)
	tr.doc = next
	return nil
}

// Before returns the document the transaction started from.
func (tr *Transaction) Before() *Node { return tr.before }

// Doc returns the current document.
func (tr *Transaction) Doc() *Node { return tr.doc }

// Steps returns the applied steps in order.
func (tr *Transaction) Steps() []Step { return tr.steps }

// Mapping returns the combined position map of all steps.
func (tr *Transaction) Mapping() Mapping { return tr.mapping }

// Origin returns what produced the transaction.
func (tr *Transaction) Origin() Origin { return tr.origin }

// Inverse returns the steps that undo the transaction, in application order.
func (tr *Transaction) Inverse() []Step {
	out := make([]Step, len(tr.inverses))
	for i, s := range tr.inverses {
		out[len(tr.inverses)-1-i] = s
	}
	return out
}

// DocChanged reports whether the steps changed the document.
func (tr *Transaction) DocChanged() bool {
	return len(tr.steps) > 0 && !tr.before.Equal(tr.doc)
}

// MarkIntentionalRemoval flags the transaction as an explicit user removal
// of formatting so reconciliation leaves it alone.
func (tr *Transaction) MarkIntentionalRemoval() *Transaction {
	tr.intentional = true
	return tr
}

// IntentionalRemoval reports whether MarkIntentionalRemoval was called.
func (tr *Transaction) IntentionalRemoval() bool { return tr.intentional }

// ResetSelection asks for the selection to collapse at the document start
// instead of being mapped.
func (tr *Transaction) ResetSelection() *Transaction {
	tr.resetSelection = true
	return tr
}

// SelectionReset reports whether ResetSelection was called.
func (tr *Transaction) SelectionReset() bool { return tr.resetSelection }

// SetSelection sets an explicit selection for after the transaction.
func (tr *Transaction) SetSelection(sel Selection) *Transaction {
	tr.selection = &sel
	return tr
}

// Selection returns the explicit selection, if any.
func (tr *Transaction) Selection() (Selection, bool) {
	if tr.selection == nil {
		return Selection{}, false
	}
	return *tr.selection, true
}

// SetStoredMarks records the marks the next typed text should carry.
func (tr *Transaction) SetStoredMarks(ms MarkSet) *Transaction {
	tr.storedMarks = &ms
	return tr
}

// StoredMarks returns the stored marks set by the transaction, if any.
func (tr *Transaction) StoredMarks() (MarkSet, bool) {
	if tr.storedMarks == nil {
		return nil, false
	}
	return *tr.storedMarks, true
}

// SkipHistory keeps the transaction out of the undo stack.
func (tr *Transaction) SkipHistory() *Transaction {
	tr.skipHistory = true
	return tr
}

// AddToHistory reports whether the transaction is undoable.
func (tr *Transaction) AddToHistory() bool {
	return !tr.skipHistory && tr.origin != OriginHistory
}
