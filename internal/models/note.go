// Package models defines the domain types for noteflow.
package models

import (
	"time"

	"github.com/starford/noteflow/internal/checksum"
)

// Note is one rich-text note. Content holds the serialized document markup.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Checksum returns the digest of the note's title and content, used as an
// entity tag.
func (n Note) Checksum() string {
	return checksum.Sum([]byte(n.Title + "\x00" + n.Content))
}

// NoteSummary is a lightweight representation returned by list operations.
type NoteSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary returns the list view of n.
func (n Note) Summary() NoteSummary {
	return NoteSummary{ID: n.ID, Title: n.Title, Checksum: n.Checksum(), UpdatedAt: n.UpdatedAt}
}

// ImportAction tells whether an import added a note or replaced one.
type ImportAction string

const (
	ImportAdd    ImportAction = "add"
	ImportUpdate ImportAction = "update"
)

// ImportResult is the outcome of importing one file.
type ImportResult struct {
	Action ImportAction `json:"action"`
	Note   Note         `json:"note"`
}
