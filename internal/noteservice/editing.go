package noteservice

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/starford/noteflow/internal/apperr"
	"github.com/starford/noteflow/internal/doc"
	"github.com/starford/noteflow/internal/editor"
	"github.com/starford/noteflow/internal/models"
	"github.com/starford/noteflow/internal/search"
	"github.com/starford/noteflow/internal/transfer"
)

// EditorView is the state of a note's editor after an operation.
type EditorView struct {
	Note      models.Note   `json:"note"`
	Applied   bool          `json:"applied"`
	Selection doc.Selection `json:"selection"`
	CanUndo   bool          `json:"canUndo"`
	CanRedo   bool          `json:"canRedo"`
	Stats     doc.Stats     `json:"stats"`
	Search    *search.State `json:"search,omitempty"`
	Replaced  int           `json:"replaced,omitempty"`
}

// editFunc runs against an open editor and reports whether it changed
// anything.
type editFunc func(ed *editor.Editor) (bool, error)

// edit opens the note's editor, runs fn and saves the collection when the
// document changed. A failed save closes the session so it reopens from the
// restored content.
func (s *Service) edit(id string, fn editFunc) (EditorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return EditorView{}, apperr.ErrNotFound
	}
	ed, err := s.session(i)
	if err != nil {
		return EditorView{}, err
	}
	applied, err := fn(ed)
	if err != nil {
		return EditorView{}, classify(err)
	}

	prev := slices.Clone(s.notes)
	if s.sync(id, ed) {
		if err := s.commit(prev); err != nil {
			s.dropSession(id)
			return EditorView{}, err
		}
		s.notify.PublishNoteEvent("updated", id)
	}
	return s.view(s.notes[i], ed, applied), nil
}

func (s *Service) view(n models.Note, ed *editor.Editor, applied bool) EditorView {
	st := ed.State()
	v := EditorView{
		Note:      n,
		Applied:   applied,
		Selection: st.Selection,
		CanUndo:   ed.CanUndo(),
		CanRedo:   ed.CanRedo(),
		Stats:     st.Doc.Stats(),
	}
	if ss := ed.SearchState(); ss.Query != "" {
		v.Search = &ss
	}
	return v
}

// Open returns the editor state of a note, opening a session if needed.
func (s *Service) Open(_ context.Context, id string) (EditorView, error) {
	return s.edit(id, func(*editor.Editor) (bool, error) { return false, nil })
}

// Exec runs the named command on a note.
func (s *Service) Exec(_ context.Context, id, name string, args editor.Args) (EditorView, error) {
	cmd, err := editor.Build(name, args)
	if err != nil {
		return EditorView{}, classify(err)
	}
	return s.edit(id, func(ed *editor.Editor) (bool, error) { return ed.Exec(cmd) })
}

// SetEditable toggles whether commands apply to a note.
func (s *Service) SetEditable(_ context.Context, id string, editable bool) (EditorView, error) {
	return s.edit(id, func(ed *editor.Editor) (bool, error) {
		ed.SetEditable(editable)
		return false, nil
	})
}

// Undo reverts the last command on a note.
func (s *Service) Undo(_ context.Context, id string) (EditorView, error) {
	return s.edit(id, (*editor.Editor).Undo)
}

// Redo reapplies the last undone command on a note.
func (s *Service) Redo(_ context.Context, id string) (EditorView, error) {
	return s.edit(id, (*editor.Editor).Redo)
}

// Find starts a search session in a note and selects the first match.
func (s *Service) Find(_ context.Context, id, query string, caseSensitive bool) (EditorView, error) {
	return s.edit(id, func(ed *editor.Editor) (bool, error) {
		ed.Search(query, caseSensitive)
		return false, nil
	})
}

// FindNext moves to the next match, wrapping around.
func (s *Service) FindNext(_ context.Context, id string) (EditorView, error) {
	return s.edit(id, func(ed *editor.Editor) (bool, error) {
		ed.SearchNext()
		return false, nil
	})
}

// FindPrevious moves to the previous match, wrapping around.
func (s *Service) FindPrevious(_ context.Context, id string) (EditorView, error) {
	return s.edit(id, func(ed *editor.Editor) (bool, error) {
		ed.SearchPrevious()
		return false, nil
	})
}

// ClearSearch ends the search session of a note.
func (s *Service) ClearSearch(_ context.Context, id string) (EditorView, error) {
	return s.edit(id, func(ed *editor.Editor) (bool, error) {
		ed.ClearSearch()
		return false, nil
	})
}

// ReplaceCurrent replaces the current match.
func (s *Service) ReplaceCurrent(_ context.Context, id, replacement string) (EditorView, error) {
	return s.edit(id, func(ed *editor.Editor) (bool, error) { return ed.ReplaceCurrent(replacement) })
}

// ReplaceAll replaces every match and ends the search session.
func (s *Service) ReplaceAll(_ context.Context, id, replacement string) (EditorView, error) {
	var n int
	v, err := s.edit(id, func(ed *editor.Editor) (bool, error) {
		count, err := ed.ReplaceAll(replacement)
		n = count
		return count > 0, err
	})
	v.Replaced = n
	return v, err
}

// ExportFile is an exported note ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export renders a note in format f.
func (s *Service) Export(ctx context.Context, id string, f transfer.Format) (*ExportFile, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.exporter.Export(&buf, n, f); err != nil {
		return nil, fmt.Errorf("noteservice: export %s: %w", id, err)
	}
	return &ExportFile{Filename: transfer.Filename(n, f), ContentType: f.ContentType(), Data: buf.Bytes()}, nil
}

// Import adds or replaces a note from a file. A .note file whose id is
// already in the collection replaces that note in place.
func (s *Service) Import(_ context.Context, name string, data []byte) (models.ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	im := transfer.Importer{
		Exists: func(id string) bool { return s.index(id) >= 0 },
		NewID:  s.newID,
		Now:    s.now,
	}
	res, err := im.Import(name, data)
	if err != nil {
		return models.ImportResult{}, err
	}

	prev := slices.Clone(s.notes)
	if i := s.index(res.Note.ID); i >= 0 {
		s.notes[i] = res.Note
	} else {
		s.notes = append(s.notes, res.Note)
	}
	if err := s.commit(prev); err != nil {
		return models.ImportResult{}, err
	}
	s.dropSession(res.Note.ID)
	s.notify.PublishNoteEvent("imported", res.Note.ID)
	return res, nil
}
