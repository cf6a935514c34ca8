// Package storage persists the note collection.
package storage

import "github.com/starford/noteflow/internal/models"

// DefaultNamespace is the key the collection is stored under.
const DefaultNamespace = "noteflow-notes"

// Provider loads and saves the whole note collection under one namespace.
// Saving replaces the stored collection; the last writer wins.
type Provider interface {
	// LoadAll returns every stored note in saved order. An empty store
	// yields an empty slice.
	LoadAll() ([]models.Note, error)
	// SaveAll atomically replaces the stored collection with notes.
	SaveAll(notes []models.Note) error
	// Close releases the underlying resources.
	Close() error
}

// SearchResult is one full-text hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Searcher is implemented by providers that index note text.
type Searcher interface {
	Search(query string, limit int) ([]SearchResult, error)
}

// Verify the providers at compile time.
var (
	_ Provider = (*FS)(nil)
	_ Provider = (*SQLite)(nil)
	_ Searcher = (*SQLite)(nil)
)
