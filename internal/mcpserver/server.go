// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes noteflow tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/noteflow/internal/apperr"
	"github.com/starford/noteflow/internal/doc"
	"github.com/starford/noteflow/internal/editor"
	"github.com/starford/noteflow/internal/noteservice"
	"github.com/starford/noteflow/internal/search"
	"github.com/starford/noteflow/internal/transfer"
)

const contractURI = "noteflow://markup-format"

// Server wraps the MCP server with noteflow tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all noteflow tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Noteflow",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes in collection order, optionally filtered by title or content."),
		mcp.WithString("query", mcp.Description("Optional case-insensitive filter")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note as markup or plain text."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("format", mcp.Description("html (default) or text"), mcp.Enum("html", "text")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Content MUST follow the markup contract; "+
			"read it via get_markup_contract or the "+contractURI+" resource."),
		mcp.WithString("title", mcp.Description("Title; empty for a numbered default")),
		mcp.WithString("content", mcp.Description("Note markup")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("find_in_note",
		mcp.WithDescription("Find every occurrence of a string in one note. "+
			"Returns the note text with matches wrapped in [[ and ]]."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to find")),
		mcp.WithBoolean("case_sensitive", mcp.Description("Match case exactly")),
	), s.findInNote)

	s.mcp.AddTool(mcp.NewTool("replace_in_note",
		mcp.WithDescription("Replace every occurrence of a string in one note as a single undoable edit."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to find")),
		mcp.WithString("replacement", mcp.Description("Replacement text; empty deletes")),
		mcp.WithBoolean("case_sensitive", mcp.Description("Match case exactly")),
	), s.replaceInNote)

	s.mcp.AddTool(mcp.NewTool("format_note",
		mcp.WithDescription("Apply an editor command to a range of a note. "+
			"Positions count characters inside text blocks; omit from/to for the whole note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("command", mcp.Required(), mcp.Description("Command name"), mcp.Enum(editor.Names()...)),
		mcp.WithString("value", mcp.Description("Colour, font, size, link or alignment value")),
		mcp.WithNumber("level", mcp.Description("Heading level 1-6")),
		mcp.WithNumber("from", mcp.Description("Selection start")),
		mcp.WithNumber("to", mcp.Description("Selection end")),
	), s.formatNote)

	s.mcp.AddTool(mcp.NewTool("export_note",
		mcp.WithDescription("Export a note as plain text, Markdown or the native .note format."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("format", mcp.Required(), mcp.Enum("txt", "md", "note")),
	), s.exportNote)

	s.mcp.AddTool(mcp.NewTool("get_markup_contract",
		mcp.WithDescription("Returns the markup accepted in note content. "+
			"Call this before creating or updating notes."),
	), s.getMarkupContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Markup Contract",
			mcp.WithResourceDescription("Rich-text markup that note content must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError turns a service error into a tool result the model can read.
func toolError(err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("note not found"), nil
	}
	return mcp.NewToolResultError(err.Error()), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes := s.svc.List(ctx, req.GetString("query", ""))
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, n.ID+"\t"+n.Title)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Get(ctx, id)
	if err != nil {
		return toolError(err)
	}
	if req.GetString("format", "html") == "text" {
		return mcp.NewToolResultText(transfer.PlainText(n.Content)), nil
	}
	return mcp.NewToolResultText(n.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.svc.Create(ctx, req.GetString("title", ""), req.GetString("content", ""))
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%s)", n.ID, n.Title)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(results)
}

func (s *Server) findInNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Get(ctx, id)
	if err != nil {
		return toolError(err)
	}
	d, err := doc.Parse(n.Content)
	if err != nil {
		return toolError(err)
	}
	st := search.New(d, query, req.GetBool("case_sensitive", false))
	if st.Count() == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d matches\n\n%s", st.Count(), search.Highlight(d, st, "[[", "]]"))), nil
}

func (s *Server) replaceInNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.Find(ctx, id, query, req.GetBool("case_sensitive", false)); err != nil {
		return toolError(err)
	}
	v, err := s.svc.ReplaceAll(ctx, id, req.GetString("replacement", ""))
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("replaced %d\n\n%s", v.Replaced, v.Note.Content)), nil
}

func (s *Server) formatNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sel := editor.Args{}
	args := req.GetArguments()
	if _, ok := args["from"]; ok {
		from, to := req.GetInt("from", 0), req.GetInt("to", 0)
		if _, ok := args["to"]; !ok {
			to = from
		}
		sel.From, sel.To = &from, &to
	}
	if sel.From != nil {
		_, err = s.svc.Exec(ctx, id, "setSelection", sel)
	} else {
		_, err = s.svc.Exec(ctx, id, "selectAll", editor.Args{})
	}
	if err != nil {
		return toolError(err)
	}

	v, err := s.svc.Exec(ctx, id, name, editor.Args{
		Value: req.GetString("value", ""),
		Level: req.GetInt("level", 0),
	})
	if err != nil {
		return toolError(err)
	}
	if !v.Applied {
		return mcp.NewToolResultText("no change\n\n" + v.Note.Content), nil
	}
	return mcp.NewToolResultText(v.Note.Content), nil
}

func (s *Server) exportNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := transfer.ParseFormat(name)
	if err != nil || f == transfer.FormatPDF {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format: %s (allowed: txt, md, note)", name)), nil
	}
	file, err := s.svc.Export(ctx, id, f)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(string(file.Data)), nil
}

func (s *Server) getMarkupContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkupContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     MarkupContract,
		},
	}, nil
}
