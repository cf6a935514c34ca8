package editor

import (
	"github.com/starford/noteflow/internal/doc"
	"github.com/starford/noteflow/internal/search"
)

// Search starts a search session and selects the first match.
func (e *Editor) Search(query string, caseSensitive bool) search.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search = search.New(e.state.Doc, query, caseSensitive)
	e.searching = query != ""
	e.selectMatch()
	return e.search
}

// SearchState returns the current search session.
func (e *Editor) SearchState() search.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.search
}

// SearchNext moves to the next match, wrapping around.
func (e *Editor) SearchNext() search.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search = e.search.Next()
	e.selectMatch()
	return e.search
}

// SearchPrevious moves to the previous match, wrapping around.
func (e *Editor) SearchPrevious() search.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search = e.search.Previous()
	e.selectMatch()
	return e.search
}

// ClearSearch ends the search session.
func (e *Editor) ClearSearch() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.search = search.State{}
	e.searching = false
}

func (e *Editor) selectMatch() {
	if m, ok := e.search.CurrentMatch(); ok {
		e.state.Selection = doc.Range(m.From, m.To)
		e.state.StoredMarks = nil
	}
}

// ReplaceCurrent replaces the current match and refreshes the session.
func (e *Editor) ReplaceCurrent(replacement string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.searching {
		return false, nil
	}
	return e.exec(func(s State) (*doc.Transaction, error) {
		return search.ReplaceCurrent(s.Doc, e.search, replacement)
	})
}

// ReplaceAll replaces every match in one step, reports how many were
// replaced and ends the search session.
func (e *Editor) ReplaceAll(replacement string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.searching {
		return 0, nil
	}
	n := 0
	applied, err := e.exec(func(s State) (*doc.Transaction, error) {
		tr, count, err := search.ReplaceAll(s.Doc, e.search, replacement)
		n = count
		return tr, err
	})
	if err != nil {
		return 0, err
	}
	if !applied {
		n = 0
	}
	e.search = search.State{}
	e.searching = false
	return n, nil
}
