// Package transfer converts notes to and from files.
package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"
	md "github.com/JohannesKaufmann/html-to-markdown"
	"gopkg.in/yaml.v3"

	"github.com/starford/noteflow/internal/apperr"
	"github.com/starford/noteflow/internal/doc"
	"github.com/starford/noteflow/internal/models"
)

// Format is an export file type.
type Format string

// Export formats, named by file extension.
const (
	FormatText     Format = "txt"
	FormatPDF      Format = "pdf"
	FormatNote     Format = "note"
	FormatMarkdown Format = "md"
)

// NoteMIME is the media type of .note files.
const NoteMIME = "application/noteflow"

// Formats lists the export formats in menu order.
var Formats = []Format{FormatText, FormatPDF, FormatNote, FormatMarkdown}

// ParseFormat validates an export format name. A leading dot is accepted.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("transfer: %q: %w", s, apperr.ErrUnsupportedFormat)
}

// ContentType returns the media type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	case FormatNote:
		return NoteMIME
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	}
	return "application/octet-stream"
}

var filenameReplacer = strings.NewReplacer(
	"/", "-", `\`, "-", ":", "-", "*", "-", "?", "-",
	`"`, "-", "<", "-", ">", "-", "|", "-",
)

// Filename returns the download name of n exported as f.
func Filename(n models.Note, f Format) string {
	name := strings.TrimSpace(filenameReplacer.Replace(n.Title))
	if name == "" {
		name = "untitled"
	}
	return name + "." + string(f)
}

// PDFOptions controls the PDF page layout, in millimetres and points.
//
// Without FontFile the PDF uses the core Helvetica font, which only covers
// cp1252: other characters are written as '.'. FontFile names a TrueType
// font loaded with UTF-8 support instead.
type PDFOptions struct {
	TitleSize float64
	BodySize  float64
	Margin    float64
	Width     float64
	FontFile  string
}

// DefaultPDFOptions places a 16pt title and 12pt body text wrapped at
// 170mm, 20mm from the page edge.
var DefaultPDFOptions = PDFOptions{TitleSize: 16, BodySize: 12, Margin: 20, Width: 170}

// Exporter renders notes in every export format.
type Exporter struct {
	pdf PDFOptions
	md  *md.Converter
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithPDFOptions overrides the PDF layout.
func WithPDFOptions(o PDFOptions) ExporterOption {
	return func(e *Exporter) { e.pdf = o }
}

// NewExporter creates an Exporter.
func NewExporter(opts ...ExporterOption) *Exporter {
	e := &Exporter{
		pdf: DefaultPDFOptions,
		md:  md.NewConverter("", true, nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes n to w in format f.
func (e *Exporter) Export(w io.Writer, n models.Note, f Format) error {
	switch f {
	case FormatText:
		_, err := io.WriteString(w, PlainText(n.Content))
		return err
	case FormatPDF:
		return e.exportPDF(w, n)
	case FormatNote:
		return json.NewEncoder(w).Encode(n)
	case FormatMarkdown:
		return e.exportMarkdown(w, n)
	}
	return fmt.Errorf("transfer: export %q: %w", f, apperr.ErrUnsupportedFormat)
}

// PlainText returns the text of note markup, one line per text block.
func PlainText(content string) string {
	d, err := doc.Parse(content)
	if err != nil {
		return doc.StripTags(content)
	}
	return d.PlainText()
}

func (e *Exporter) exportPDF(w io.Writer, n models.Note) error {
	o := e.pdf
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(o.Margin, o.Margin, o.Margin)
	pdf.SetAutoPageBreak(true, o.Margin)
	family, tr := "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
	if o.FontFile != "" {
		family, tr = "body", func(s string) string { return s }
		pdf.AddUTF8Font(family, "", o.FontFile)
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("transfer: pdf font %s: %w", o.FontFile, err)
		}
	}
	pdf.AddPage()

	pdf.SetFont(family, "", o.TitleSize)
	pdf.Text(o.Margin, o.Margin, tr(n.Title))

	pdf.SetFont(family, "", o.BodySize)
	_, lineHt := pdf.GetFontSize()
	pdf.SetXY(o.Margin, o.Margin+10-lineHt)
	pdf.MultiCell(o.Width, lineHt*1.15, tr(PlainText(n.Content)), "", "L", false)

	return pdf.Output(w)
}

type frontmatter struct {
	ID      string    `yaml:"id"`
	Title   string    `yaml:"title"`
	Created time.Time `yaml:"created"`
	Updated time.Time `yaml:"updated"`
}

func (e *Exporter) exportMarkdown(w io.Writer, n models.Note) error {
	fm, err := yaml.Marshal(frontmatter{ID: n.ID, Title: n.Title, Created: n.CreatedAt, Updated: n.UpdatedAt})
	if err != nil {
		return fmt.Errorf("transfer: frontmatter: %w", err)
	}
	body, err := e.md.ConvertString(doc.Sanitize(n.Content))
	if err != nil {
		return fmt.Errorf("transfer: convert markdown: %w", err)
	}
	_, err = fmt.Fprintf(w, "---\n%s---\n\n%s\n", fm, body)
	return err
}
