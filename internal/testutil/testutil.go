// Package testutil provides shared test helpers for setting up note stores.
package testutil

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/starford/noteflow/internal/models"
	"github.com/starford/noteflow/internal/storage"
)

// TestDB creates a temporary SQLite store that is automatically cleaned up.
func TestDB(t *testing.T) *storage.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "noteflow-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := storage.OpenSQLite(dbFile.Name(), storage.DefaultNamespace)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a JSON file store in a temporary directory.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, storage.DefaultNamespace)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// ErrSaveFailed is returned by FlakyStore while failing.
var ErrSaveFailed = errors.New("testutil: save failed")

// FlakyStore is an in-memory provider whose saves can be made to fail.
type FlakyStore struct {
	mu    sync.Mutex
	notes []models.Note
	fail  bool
	saves int
}

// NewFlakyStore returns a store holding notes.
func NewFlakyStore(notes ...models.Note) *FlakyStore {
	return &FlakyStore{notes: notes}
}

// SetFail makes later saves fail or succeed.
func (f *FlakyStore) SetFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

// Saves reports the number of successful saves.
func (f *FlakyStore) Saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *FlakyStore) LoadAll() ([]models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Note{}, f.notes...), nil
}

func (f *FlakyStore) SaveAll(notes []models.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrSaveFailed
	}
	f.notes = append([]models.Note{}, notes...)
	f.saves++
	return nil
}

func (f *FlakyStore) Close() error { return nil }

// SampleNote returns a note with fixed timestamps.
func SampleNote(id, title, content string) models.Note {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return models.Note{ID: id, Title: title, Content: content, CreatedAt: at, UpdatedAt: at}
}
