package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/noteflow/internal/apperr"
	"github.com/starford/noteflow/internal/models"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func sampleNote() models.Note {
	at := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	return models.Note{
		ID:        "n1",
		Title:     "Shopping",
		Content:   `<h1>List</h1><p><strong>milk</strong> and eggs</p>`,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func testImporter(existing ...string) Importer {
	return Importer{
		Exists: func(id string) bool {
			for _, e := range existing {
				if e == id {
					return true
				}
			}
			return false
		},
		NewID: func() string { return "generated" },
		Now:   func() time.Time { return fixedNow },
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"txt", ".pdf", "NOTE", "md"} {
		if _, err := ParseFormat(in); err != nil {
			t.Errorf("ParseFormat(%q): %v", in, err)
		}
	}
	if _, err := ParseFormat("docx"); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFilename(t *testing.T) {
	n := sampleNote()
	if got := Filename(n, FormatNote); got != "Shopping.note" {
		t.Errorf("Filename = %q", got)
	}
	n.Title = "a/b: c"
	if got := Filename(n, FormatText); got != "a-b- c.txt" {
		t.Errorf("Filename = %q", got)
	}
	n.Title = "  "
	if got := Filename(n, FormatPDF); got != "untitled.pdf" {
		t.Errorf("Filename = %q", got)
	}
	if FormatNote.ContentType() != NoteMIME {
		t.Errorf("note content type = %q", FormatNote.ContentType())
	}
}

func TestExportText(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExporter().Export(&buf, sampleNote(), FormatText); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if got := buf.String(); got != "List\nmilk and eggs" {
		t.Errorf("text = %q", got)
	}
}

func TestExportNoteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	n := sampleNote()
	if err := NewExporter().Export(&buf, n, FormatNote); err != nil {
		t.Fatalf("Export: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("exported note is not JSON: %v", err)
	}
	for _, key := range []string{"id", "title", "content", "createdAt", "updatedAt"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}

	res, err := testImporter("n1").Import("Shopping.note", buf.Bytes())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Action != models.ImportUpdate {
		t.Errorf("action = %q, want update", res.Action)
	}
	if res.Note.ID != "n1" || res.Note.Content != n.Content {
		t.Errorf("note = %+v", res.Note)
	}
	if !res.Note.UpdatedAt.Equal(fixedNow) || !res.Note.CreatedAt.Equal(n.CreatedAt) {
		t.Errorf("timestamps = %v / %v", res.Note.CreatedAt, res.Note.UpdatedAt)
	}
}

func TestExportPDF(t *testing.T) {
	var buf bytes.Buffer
	n := sampleNote()
	n.Title = "Café notes"
	if err := NewExporter().Export(&buf, n, FormatPDF); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestExportPDFWithMissingFontFails(t *testing.T) {
	o := DefaultPDFOptions
	o.FontFile = filepath.Join(t.TempDir(), "missing.ttf")
	var buf bytes.Buffer
	if err := NewExporter(WithPDFOptions(o)).Export(&buf, sampleNote(), FormatPDF); err == nil {
		t.Error("expected an error for a missing font file")
	}
}

func TestExportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := NewExporter().Export(&buf, sampleNote(), FormatMarkdown); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "---\nid: n1\ntitle: Shopping\n") {
		t.Errorf("frontmatter missing:\n%s", out)
	}
	if !strings.Contains(out, "**milk** and eggs") {
		t.Errorf("body not converted:\n%s", out)
	}

	res, err := testImporter().Import("copy.md", buf.Bytes())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Note.ID != "n1" || res.Note.Title != "Shopping" || res.Action != models.ImportAdd {
		t.Errorf("result = %+v", res)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	err := NewExporter().Export(&bytes.Buffer{}, sampleNote(), Format("rtf"))
	if !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("err = %v", err)
	}
}

func TestImportText(t *testing.T) {
	res, err := testImporter().Import("/tmp/My list.txt", []byte("one\r\ntwo <b>"))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Action != models.ImportAdd || res.Note.ID != "generated" {
		t.Errorf("result = %+v", res)
	}
	if res.Note.Title != "My list" {
		t.Errorf("title = %q", res.Note.Title)
	}
	if res.Note.Content != "<p>one</p><p>two &lt;b&gt;</p>" {
		t.Errorf("content = %q", res.Note.Content)
	}
	if !res.Note.CreatedAt.Equal(fixedNow) {
		t.Errorf("createdAt = %v", res.Note.CreatedAt)
	}
}

func TestImportNoteNewID(t *testing.T) {
	data := []byte(`{"id":"abc","title":"T","content":"<p>x<script>bad()</script></p>"}`)
	res, err := testImporter("other").Import("t.note", data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Action != models.ImportAdd || res.Note.ID != "abc" {
		t.Errorf("result = %+v", res)
	}
	if res.Note.Content != "<p>x</p>" {
		t.Errorf("content = %q", res.Note.Content)
	}
}

func TestImportCorruptNote(t *testing.T) {
	for _, data := range []string{"{broken", "{}", "[1,2]"} {
		_, err := testImporter().Import("bad.note", []byte(data))
		if !errors.Is(err, apperr.ErrImportFormat) {
			t.Errorf("Import(%q) err = %v, want ErrImportFormat", data, err)
		}
	}
}

func TestImportUnsupported(t *testing.T) {
	_, err := testImporter().Import("photo.png", []byte{0x89})
	if !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("err = %v", err)
	}
	if Supported("photo.png") || !Supported("A.TXT") {
		t.Error("Supported mismatch")
	}
}

func TestImportMarkdownBlocks(t *testing.T) {
	input := "# Plan\n\nintro line\n- one\n- two\n1. first\n> quoted\n### deep\n"
	res, err := testImporter().Import("plan.md", []byte(input))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Note.Title != "Plan" {
		t.Errorf("title = %q", res.Note.Title)
	}
	want := "<h1>Plan</h1><p>intro line</p><ul><li><p>one</p></li><li><p>two</p></li></ul>" +
		"<ol><li><p>first</p></li></ol><blockquote><p>quoted</p></blockquote><h3>deep</h3>"
	if res.Note.Content != want {
		t.Errorf("content =\n%s\nwant\n%s", res.Note.Content, want)
	}
}

func TestImportMarkdownInvalidFrontmatter(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	res, err := testImporter().Import("raw.md", []byte(input))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Note.Title != "raw" || res.Note.ID != "generated" {
		t.Errorf("result = %+v", res)
	}
}
