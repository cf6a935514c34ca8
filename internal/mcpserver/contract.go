package mcpserver

// MarkupContract describes the rich-text markup accepted by the note tools.
const MarkupContract = `# Noteflow Markup Contract

Note content is a small HTML subset. Anything outside it is dropped on save.

## Blocks

- ` + "`<p>`" + ` paragraph, ` + "`<h1>`" + ` to ` + "`<h6>`" + ` headings.
- ` + "`<blockquote>`" + ` wrapping paragraphs.
- ` + "`<ul>`" + ` and ` + "`<ol>`" + ` with ` + "`<li>`" + ` items.
- Paragraphs and headings may carry ` + "`style=\"text-align: center\"`" + `
  (left, center, right, justify).

## Inline formatting

- ` + "`<strong>`" + `, ` + "`<em>`" + `, ` + "`<u>`" + `, ` + "`<s>`" + `, ` + "`<code>`" + `.
- ` + "`<a href=\"https://...\">`" + ` links. Only http, https and mailto are kept.
- ` + "`<span style=\"...\">`" + ` with any of ` + "`color`" + `, ` + "`font-family`" + `
  and ` + "`font-size`" + `. Other properties are removed.

## Rules

1. Formatting marks stack: colouring bold text keeps it bold.
2. Plain text passed where markup is expected is wrapped in paragraphs.
3. Use the format_note tool rather than rewriting markup by hand when only
   formatting changes; it is undoable in the editor.

## Example

` + "```" + `html
<h1>Weekly standup</h1>
<p>Attendees: <strong>Alice</strong>, <span style="color: #f87171">Bob</span>.</p>
<ul><li><p>ship the <a href="https://example.com/doc">design doc</a></p></li></ul>
` + "```" + `
`
