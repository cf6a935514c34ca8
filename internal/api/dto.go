package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/noteflow/internal/editor"
	"github.com/starford/noteflow/internal/models"
	"github.com/starford/noteflow/internal/storage"
	"github.com/starford/noteflow/internal/transfer"
)

const maxTitleLen = 200

// CreateNoteRequest is the request body for creating a note. An empty title
// gets a numbered default.
type CreateNoteRequest struct {
	Title   string `json:"title" example:"Groceries"`
	Content string `json:"content" example:"<p>milk</p>"`
}

// Validate validates the request.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.RuneLength(0, maxTitleLen)),
	)
}

// UpdateNoteRequest is the request body for updating a note. Omitted fields
// are kept.
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty" example:"Groceries"`
	Content *string `json:"content,omitempty" example:"<p>milk and eggs</p>"`
}

// Validate validates the request.
func (r UpdateNoteRequest) Validate() error {
	if r.Title == nil && r.Content == nil {
		return validation.NewError("validation_empty_update", "title or content is required")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.RuneLength(1, maxTitleLen)),
	)
}

// CommandRequest runs a named editor command.
type CommandRequest struct {
	Name string      `json:"name" example:"bold" validate:"required"`
	Args editor.Args `json:"args"`
}

// Validate validates the request.
func (r CommandRequest) Validate() error {
	names := editor.Names()
	in := make([]any, len(names))
	for i, n := range names {
		in[i] = n
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.In(in...)),
	)
}

// FindRequest starts a search session in a note.
type FindRequest struct {
	Query         string `json:"query" example:"cat" validate:"required"`
	CaseSensitive bool   `json:"caseSensitive"`
}

// Validate validates the request.
func (r FindRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required),
	)
}

// ReplaceRequest replaces the current match, or every match when All is set.
// An empty replacement deletes.
type ReplaceRequest struct {
	Replacement string `json:"replacement" example:"dog"`
	All         bool   `json:"all"`
}

// EditableRequest toggles read-only mode.
type EditableRequest struct {
	Editable bool `json:"editable"`
}

// ThemeRequest switches the theme.
type ThemeRequest struct {
	Dark bool `json:"dark"`
}

// NoteResponse is a note with its checksum.
type NoteResponse struct {
	models.Note
	Checksum string `json:"checksum" validate:"required"`
}

func noteResponse(n models.Note) NoteResponse {
	return NoteResponse{Note: n, Checksum: n.Checksum()}
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.NoteSummary `json:"notes" validate:"required"`
	Total int                  `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []storage.SearchResult `json:"results" validate:"required"`
}

// PresetsResponse lists the toolbar choices for the active theme.
type PresetsResponse struct {
	Commands      []string          `json:"commands"`
	FontSizes     []string          `json:"fontSizes"`
	FontFamilies  []string          `json:"fontFamilies"`
	Palette       []string          `json:"palette"`
	ExportFormats []transfer.Format `json:"exportFormats"`
	ImportTypes   []string          `json:"importTypes"`
	Dark          bool              `json:"dark"`
}
