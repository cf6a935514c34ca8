// Package noteservice manages the note collection and the editor session of
// every open note.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/noteflow/internal/apperr"
	"github.com/starford/noteflow/internal/doc"
	"github.com/starford/noteflow/internal/editor"
	"github.com/starford/noteflow/internal/models"
	"github.com/starford/noteflow/internal/storage"
	"github.com/starford/noteflow/internal/transfer"
)

// Notifier receives collection events. *sse.Broker implements it.
type Notifier interface {
	PublishNoteEvent(kind, id string)
	PublishStorageWarning(message string)
	PublishFocus(id string, sel doc.Selection)
}

type nopNotifier struct{}

func (nopNotifier) PublishNoteEvent(string, string) {}
func (nopNotifier) PublishStorageWarning(string) {}
func (nopNotifier) PublishFocus(string, doc.Selection) {}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the event sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithExporter sets the exporter used by Export.
func WithExporter(e *transfer.Exporter) Option {
	return func(s *Service) { s.exporter = e }
}

// WithEditorOptions adds options applied to every editor session.
func WithEditorOptions(opts ...editor.Option) Option {
	return func(s *Service) { s.editorOpts = append(s.editorOpts, opts...) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDs overrides the note id generator.
func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// Service owns the in-memory collection. Every mutation is saved through the
// storage provider; a failed save restores the previous collection.
type Service struct {
	mu       sync.Mutex
	store    storage.Provider
	notes    []models.Note
	sessions map[string]*editor.Editor
	dark     bool

	notify     Notifier
	exporter   *transfer.Exporter
	editorOpts []editor.Option
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

// New loads the collection from store.
func New(store storage.Provider, opts ...Option) (*Service, error) {
	s := &Service{
		store:    store,
		sessions: make(map[string]*editor.Editor),
		notify:   nopNotifier{},
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.exporter == nil {
		s.exporter = transfer.NewExporter()
	}
	notes, err := store.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("noteservice: load: %w", err)
	}
	s.notes = notes
	s.logger.Info("noteservice: collection loaded", slog.Int("notes", len(notes)))
	return s, nil
}

// Close stops every editor session.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ed := range s.sessions {
		ed.Close()
		delete(s.sessions, id)
	}
}

// List returns the notes whose title or text contains query, ignoring case.
// An empty query lists every note.
func (s *Service) List(_ context.Context, query string) []models.NoteSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.NoteSummary{}
	for _, n := range s.notes {
		if q == "" || matchesFilter(n, q) {
			out = append(out, n.Summary())
		}
	}
	return out
}

func matchesFilter(n models.Note, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(n.Title), lowerQuery) ||
		strings.Contains(strings.ToLower(transfer.PlainText(n.Content)), lowerQuery)
}

// Search runs a full-text query. Providers implementing storage.Searcher
// answer it; otherwise the in-memory filter is used.
func (s *Service) Search(_ context.Context, query string, limit int) ([]storage.SearchResult, error) {
	if searcher, ok := s.store.(storage.Searcher); ok {
		res, err := searcher.Search(query, limit)
		if err != nil {
			return nil, fmt.Errorf("noteservice: search: %w", err)
		}
		return res, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	out := []storage.SearchResult{}
	if q == "" {
		return out, nil
	}
	for _, n := range s.notes {
		if limit > 0 && len(out) >= limit {
			break
		}
		if matchesFilter(n, q) {
			text := []rune(transfer.PlainText(n.Content))
			out = append(out, storage.SearchResult{ID: n.ID, Title: n.Title, Snippet: string(text[:min(len(text), 200)])})
		}
	}
	return out, nil
}

// Get returns the note with id.
func (s *Service) Get(_ context.Context, id string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return models.Note{}, apperr.ErrNotFound
	}
	return s.notes[i], nil
}

// Create appends a note. An empty title becomes "Note N" where N is the
// collection size after the insert.
func (s *Service) Create(_ context.Context, title, content string) (models.Note, error) {
	d, err := doc.ParseUntrusted(content)
	if err != nil {
		return models.Note{}, fmt.Errorf("noteservice: content: %w: %w", apperr.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	title = doc.StripTags(title)
	if title == "" {
		title = fmt.Sprintf("Note %d", len(s.notes)+1)
	}
	now := s.now().UTC()
	n := models.Note{
		ID:        s.newID(),
		Title:     title,
		Content:   doc.Serialize(d),
		CreatedAt: now,
		UpdatedAt: now,
	}

	prev := slices.Clone(s.notes)
	s.notes = append(s.notes, n)
	if err := s.commit(prev); err != nil {
		return models.Note{}, err
	}
	s.notify.PublishNoteEvent("created", n.ID)
	return n, nil
}

// Update holds the fields of a note update. Nil fields are kept.
type Update struct {
	Title   *string
	Content *string
}

// Update changes the title or content of a note. A non-empty ifMatch must
// equal the note's current checksum. New content replaces the document in the
// note's editor session, opening one if needed, and is rejected with
// apperr.ErrReadOnly while the note is read-only.
func (s *Service) Update(_ context.Context, id string, u Update, ifMatch string) (models.Note, error) {
	var next *doc.Node
	if u.Content != nil {
		d, err := doc.ParseUntrusted(*u.Content)
		if err != nil {
			return models.Note{}, fmt.Errorf("noteservice: content: %w: %w", apperr.ErrInvalidInput, err)
		}
		next = d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return models.Note{}, apperr.ErrNotFound
	}
	if ifMatch != "" && ifMatch != s.notes[i].Checksum() {
		return models.Note{}, apperr.ErrConflict
	}

	prev := slices.Clone(s.notes)
	n := s.notes[i]
	if u.Title != nil {
		n.Title = doc.StripTags(*u.Title)
	}
	if next != nil {
		// Content always goes through an editor session so the replacement
		// is reconciled the same way and can be undone.
		ed, err := s.session(i)
		if err != nil {
			return models.Note{}, err
		}
		if !ed.State().Editable {
			return models.Note{}, fmt.Errorf("noteservice: update %s: %w", id, apperr.ErrReadOnly)
		}
		if _, err := ed.Exec(editor.SetContent(next)); err != nil {
			return models.Note{}, classify(err)
		}
		n.Content = doc.Serialize(ed.Doc())
	}
	n.UpdatedAt = s.now().UTC()
	s.notes[i] = n
	if err := s.commit(prev); err != nil {
		s.dropSession(id)
		return models.Note{}, err
	}
	s.notify.PublishNoteEvent("updated", id)
	return n, nil
}

// Delete removes a note and its editor session.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return apperr.ErrNotFound
	}
	prev := slices.Clone(s.notes)
	s.notes = slices.Delete(s.notes, i, i+1)
	if err := s.commit(prev); err != nil {
		return err
	}
	s.dropSession(id)
	s.notify.PublishNoteEvent("deleted", id)
	return nil
}

// Dark reports whether the dark theme is active.
func (s *Service) Dark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// SetTheme switches the theme and rewrites black or white text in every open
// note. Clients receive an editor.focus event per rewritten note.
func (s *Service) SetTheme(_ context.Context, dark bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dark = dark
	prev := slices.Clone(s.notes)
	var changed []string
	for id, ed := range s.sessions {
		applied, err := ed.ApplyTheme(dark)
		if err != nil {
			s.notes = prev
			return err
		}
		if applied && s.sync(id, ed) {
			changed = append(changed, id)
		}
	}
	if len(changed) == 0 {
		return nil
	}
	if err := s.commit(prev); err != nil {
		for _, id := range changed {
			s.dropSession(id)
		}
		return err
	}
	for _, id := range changed {
		s.notify.PublishNoteEvent("updated", id)
	}
	return nil
}

func (s *Service) index(id string) int {
	return slices.IndexFunc(s.notes, func(n models.Note) bool { return n.ID == id })
}

// commit saves the collection. On failure the collection is reset to prev
// and a storage warning is published.
func (s *Service) commit(prev []models.Note) error {
	if err := s.store.SaveAll(s.notes); err != nil {
		s.notes = prev
		s.logger.Error("storage: save failed", slog.Any("error", err))
		s.notify.PublishStorageWarning("changes could not be saved")
		return fmt.Errorf("noteservice: save: %w: %w", apperr.ErrStorage, err)
	}
	return nil
}

// session returns the editor of note i, opening it from the stored content.
func (s *Service) session(i int) (*editor.Editor, error) {
	n := s.notes[i]
	if ed, ok := s.sessions[n.ID]; ok {
		return ed, nil
	}
	d, err := doc.Parse(n.Content)
	if err != nil {
		return nil, fmt.Errorf("noteservice: open %s: %w", n.ID, err)
	}
	id := n.ID
	opts := append([]editor.Option{
		editor.WithLogger(s.logger.With(slog.String("note", id))),
		editor.WithFocusHandler(func(sel doc.Selection) { s.notify.PublishFocus(id, sel) }),
	}, s.editorOpts...)
	ed := editor.New(d, opts...)
	s.sessions[id] = ed
	return ed, nil
}

func (s *Service) dropSession(id string) {
	if ed, ok := s.sessions[id]; ok {
		ed.Close()
		delete(s.sessions, id)
	}
}

// sync copies the editor document into the note and reports whether the
// serialized content changed.
func (s *Service) sync(id string, ed *editor.Editor) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	content := doc.Serialize(ed.Doc())
	if content == s.notes[i].Content {
		return false
	}
	s.notes[i].Content = content
	s.notes[i].UpdatedAt = s.now().UTC()
	return true
}

// classify maps editor errors to service errors.
func classify(err error) error {
	if errors.Is(err, editor.ErrInvalidArgument) || errors.Is(err, editor.ErrUnknownCommand) ||
		errors.Is(err, doc.ErrInvalidPosition) || errors.Is(err, doc.ErrInvalidRange) {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err)
	}
	return err
}
