package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/starford/noteflow/internal/models"
	"github.com/starford/noteflow/internal/transfer"
)

const maxImportBytes = 10 << 20 // 10 MB

// ExportNote handles GET /api/notes/{id}/export?format=txt|pdf|note|md.
//
//	@Summary		Download a note in another format
//	@Tags			transfer
//	@Param			id		path	string	true	"Note id"
//	@Param			format	query	string	true	"Export format"	Enums(txt, pdf, note, md)
//	@Success		200		"File download"
//	@Failure		404		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/export [get]
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	f, err := transfer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err, "export note")
		return
	}
	file, err := h.svc.Export(r.Context(), id, f)
	if err != nil {
		writeError(w, err, "export note", slog.String("id", id))
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(file.Filename)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// ImportNote handles POST /api/import (multipart/form-data, field "file").
//
//	@Summary		Import a .txt, .note or .md file
//	@Tags			transfer
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"File to import"
//	@Success		201		{object}	models.ImportResult
//	@Failure		400		{object}	errResponse
//	@Failure		415		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) ImportNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	res, err := h.svc.Import(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, err, "import note", slog.String("file", header.Filename))
		return
	}
	status := http.StatusCreated
	if res.Action == models.ImportUpdate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}
