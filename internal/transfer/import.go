package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/starford/noteflow/internal/apperr"
	"github.com/starford/noteflow/internal/doc"
	"github.com/starford/noteflow/internal/models"
)

// ImportExtensions lists the file extensions Import accepts.
var ImportExtensions = []string{".txt", ".note", ".md"}

// Importer decodes note files. Exists reports whether a note id is already
// in the collection. NewID defaults to random UUIDs and Now to time.Now.
type Importer struct {
	Exists func(id string) bool
	NewID  func() string
	Now    func() time.Time
}

// Supported reports whether name has an importable extension.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImportExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Import decodes the file name with contents data into a note and whether
// it adds to or replaces the collection.
func (im Importer) Import(name string, data []byte) (models.ImportResult, error) {
	base := filepath.Base(name)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".txt":
		return im.importText(base, data)
	case ".note":
		return im.importNote(data)
	case ".md":
		return im.importMarkdown(base, data)
	}
	return models.ImportResult{}, fmt.Errorf("transfer: import %s: %w", base, apperr.ErrUnsupportedFormat)
}

func (im Importer) now() time.Time {
	if im.Now != nil {
		return im.Now().UTC()
	}
	return time.Now().UTC()
}

func (im Importer) exists(id string) bool {
	return im.Exists != nil && im.Exists(id)
}

func (im Importer) added(n models.Note) models.ImportResult {
	now := im.now()
	if n.ID == "" {
		if im.NewID != nil {
			n.ID = im.NewID()
		} else {
			n.ID = uuid.NewString()
		}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	action := models.ImportAdd
	if im.exists(n.ID) {
		action = models.ImportUpdate
	}
	return models.ImportResult{Action: action, Note: n}
}

func (im Importer) importText(base string, data []byte) (models.ImportResult, error) {
	if !utf8.Valid(data) {
		return models.ImportResult{}, fmt.Errorf("transfer: %s: not utf-8 text: %w", base, apperr.ErrImportFormat)
	}
	title := strings.TrimSuffix(base, filepath.Ext(base))
	content := doc.Serialize(doc.FromPlainText(string(data)))
	return im.added(models.Note{Title: title, Content: content}), nil
}

func (im Importer) importNote(data []byte) (models.ImportResult, error) {
	var n models.Note
	if err := json.Unmarshal(data, &n); err != nil {
		return models.ImportResult{}, fmt.Errorf("transfer: decode note: %w", apperr.ErrImportFormat)
	}
	if n.ID == "" && n.Title == "" && n.Content == "" {
		return models.ImportResult{}, fmt.Errorf("transfer: empty note: %w", apperr.ErrImportFormat)
	}
	d, err := doc.ParseUntrusted(n.Content)
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("transfer: note content: %w", apperr.ErrImportFormat)
	}
	n.Title = doc.StripTags(n.Title)
	n.Content = doc.Serialize(d)
	return im.added(n), nil
}

func (im Importer) importMarkdown(base string, data []byte) (models.ImportResult, error) {
	if !utf8.Valid(data) {
		return models.ImportResult{}, fmt.Errorf("transfer: %s: not utf-8 text: %w", base, apperr.ErrImportFormat)
	}
	fm, body := splitFrontmatter(data)
	d := markdownDoc(body)

	n := models.Note{Content: doc.Serialize(d)}
	if fm != nil {
		n.ID = fm.ID
		n.Title = fm.Title
		n.CreatedAt = fm.Created
	}
	if n.Title == "" {
		n.Title = firstHeading(body)
	}
	if n.Title == "" {
		n.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	n.Title = doc.StripTags(n.Title)
	return im.added(n), nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. Missing or invalid frontmatter leaves the whole
// content as body.
func splitFrontmatter(data []byte) (*frontmatter, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")

	var fm frontmatter
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	return &fm, body
}

// firstHeading returns the text of the first H1 line, or "".
func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// markdownDoc reads the block structure of Markdown: headings, quotes,
// list items and paragraphs. Inline syntax is kept as literal text.
func markdownDoc(body string) *doc.Node {
	var blocks []*doc.Node
	var list *doc.Node
	flush := func() {
		if list != nil {
			blocks = append(blocks, list)
			list = nil
		}
	}
	addItem := func(ordered bool, text string) {
		if list != nil && (list.Type == doc.TypeOrderedList) != ordered {
			flush()
		}
		if list == nil {
			if ordered {
				list = doc.OrderedList()
			} else {
				list = doc.BulletList()
			}
		}
		list.Content = append(list.Content, doc.ListItem(doc.Paragraph(doc.Text(text))))
	}

	for _, line := range strings.Split(doc.NormalizeNewlines(body), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "#"):
			flush()
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			text := strings.TrimSpace(trimmed[level:])
			blocks = append(blocks, doc.Heading(min(level, 3), doc.Text(text)))
		case strings.HasPrefix(trimmed, "> ") || trimmed == ">":
			flush()
			text := strings.TrimSpace(strings.TrimPrefix(trimmed, ">"))
			blocks = append(blocks, doc.Blockquote(doc.Paragraph(doc.Text(text))))
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			addItem(false, strings.TrimSpace(trimmed[2:]))
		case orderedItem(trimmed) > 0:
			addItem(true, strings.TrimSpace(trimmed[orderedItem(trimmed):]))
		default:
			flush()
			blocks = append(blocks, doc.Paragraph(doc.Text(trimmed)))
		}
	}
	flush()
	return doc.New(blocks...)
}

// orderedItem returns the length of a "12. " prefix, or 0.
func orderedItem(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || !strings.HasPrefix(s[i:], ". ") {
		return 0
	}
	return i + 2
}
