package api

import (
	"log/slog"
	"net/http"

	"github.com/starford/noteflow/internal/editor"
	"github.com/starford/noteflow/internal/noteservice"
	"github.com/starford/noteflow/internal/transfer"
)

func (h *Handler) writeView(w http.ResponseWriter, v noteservice.EditorView, err error, op, id string) {
	if err != nil {
		writeError(w, err, op, slog.String("id", id))
		return
	}
	setETag(w, v.Note.Checksum())
	writeJSON(w, http.StatusOK, v)
}

// OpenEditor handles GET /api/notes/{id}/editor.
func (h *Handler) OpenEditor(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	v, err := h.svc.Open(r.Context(), id)
	h.writeView(w, v, err, "open editor", id)
}

// SetEditable handles PUT /api/notes/{id}/editable.
func (h *Handler) SetEditable(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	var req EditableRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.SetEditable(r.Context(), id, req.Editable)
	h.writeView(w, v, err, "set editable", id)
}

// ExecCommand handles POST /api/notes/{id}/commands.
//
//	@Summary		Run an editor command on a note
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		CommandRequest	true	"Command"
//	@Success		200		{object}	noteservice.EditorView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/commands [post]
func (h *Handler) ExecCommand(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	var req CommandRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.Exec(r.Context(), id, req.Name, req.Args)
	h.writeView(w, v, err, "exec command", id)
}

// Undo handles POST /api/notes/{id}/undo.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	v, err := h.svc.Undo(r.Context(), id)
	h.writeView(w, v, err, "undo", id)
}

// Redo handles POST /api/notes/{id}/redo.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	v, err := h.svc.Redo(r.Context(), id)
	h.writeView(w, v, err, "redo", id)
}

// Find handles POST /api/notes/{id}/search.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	var req FindRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.svc.Find(r.Context(), id, req.Query, req.CaseSensitive)
	h.writeView(w, v, err, "find", id)
}

// FindNext handles POST /api/notes/{id}/search/next.
func (h *Handler) FindNext(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	v, err := h.svc.FindNext(r.Context(), id)
	h.writeView(w, v, err, "find next", id)
}

// FindPrevious handles POST /api/notes/{id}/search/previous.
func (h *Handler) FindPrevious(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	v, err := h.svc.FindPrevious(r.Context(), id)
	h.writeView(w, v, err, "find previous", id)
}

// ClearSearch handles DELETE /api/notes/{id}/search.
func (h *Handler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	v, err := h.svc.ClearSearch(r.Context(), id)
	h.writeView(w, v, err, "clear search", id)
}

// Replace handles POST /api/notes/{id}/replace.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	var req ReplaceRequest
	if !decode(w, r, &req) {
		return
	}
	var (
		v   noteservice.EditorView
		err error
	)
	if req.All {
		v, err = h.svc.ReplaceAll(r.Context(), id, req.Replacement)
	} else {
		v, err = h.svc.ReplaceCurrent(r.Context(), id, req.Replacement)
	}
	h.writeView(w, v, err, "replace", id)
}

// SetTheme handles PUT /api/theme.
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.SetTheme(r.Context(), req.Dark); err != nil {
		writeError(w, err, "set theme")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Presets handles GET /api/presets.
func (h *Handler) Presets(w http.ResponseWriter, _ *http.Request) {
	dark := h.svc.Dark()
	writeJSON(w, http.StatusOK, PresetsResponse{
		Commands:      editor.Names(),
		FontSizes:     editor.FontSizes,
		FontFamilies:  editor.FontFamilies,
		Palette:       editor.PaletteFor(dark),
		ExportFormats: transfer.Formats,
		ImportTypes:   transfer.ImportExtensions,
		Dark:          dark,
	})
}
