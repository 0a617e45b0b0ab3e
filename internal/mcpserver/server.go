// Package mcpserver exposes NoteNest entries as MCP (Model Context Protocol)
// tools for LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notenest/internal/apperr"
	"github.com/starford/notenest/internal/entryservice"
	"github.com/starford/notenest/internal/models"
)

// EntryService is the subset of the entry service the tools call.
type EntryService interface {
	List(ctx context.Context, q entryservice.Query) ([]models.Entry, error)
	Get(ctx context.Context, id uuid.UUID) (models.Entry, error)
	Create(ctx context.Context, d entryservice.Draft) (models.Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Server wraps the MCP server with the entry tools.
type Server struct {
	mcp *server.MCPServer
	svc EntryService
}

// New creates an MCP server with every entry tool registered.
func New(svc EntryService) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"NoteNest",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List entries, optionally filtered by tag or text."),
		mcp.WithString("tag", mcp.Description("Only entries with this exact tag")),
		mcp.WithString("query", mcp.Description("Case-insensitive text to find in title or note")),
		mcp.WithString("sort", mcp.Description("Sort order: title, created or modified. "+
			"Ignored (insertion order) unless the server enables sort order")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read one entry in full."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry UUID")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("add_entry",
		mcp.WithDescription("Add a new entry. Read the format first via get_entry_format "+
			"or the "+EntryFormatURI+" resource: empty title and tags are derived from the note."),
		mcp.WithString("title", mcp.Description("Entry title")),
		mcp.WithString("url", mcp.Description("Absolute URL the entry refers to")),
		mcp.WithString("note", mcp.Description("Markdown note text")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	), s.addEntry)

	s.mcp.AddTool(mcp.NewTool("delete_entry",
		mcp.WithDescription("Delete an entry."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry UUID")),
	), s.deleteEntry)

	s.mcp.AddTool(mcp.NewTool("get_entry_format",
		mcp.WithDescription("Returns the entry format and the rules for derived fields."),
	), s.getEntryFormat)

	s.mcp.AddResource(
		mcp.NewResource(EntryFormatURI, "Entry Format",
			mcp.WithResourceDescription("What an entry holds and how missing fields are derived."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
	)

	return s
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type entryView struct {
	ID               string   `json:"id"`
	CreationDate     string   `json:"creationDate"`
	ModificationDate string   `json:"modificationDate"`
	Title            string   `json:"title"`
	URL              string   `json:"url,omitempty"`
	Note             string   `json:"note,omitempty"`
	Tags             []string `json:"tags"`
}

func view(e models.Entry, withNote bool) entryView {
	v := entryView{
		ID:               e.ID.String(),
		CreationDate:     e.CreationDate.Format(time.RFC3339),
		ModificationDate: e.ModificationDate.Format(time.RFC3339),
		Title:            e.Title,
		Tags:             e.Tags,
	}
	if e.URL != nil {
		v.URL = e.URL.String()
	}
	if withNote {
		v.Note = e.Note
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	return v
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// optionalString returns the argument or "" when it is absent.
func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

func requireID(req mcp.CallToolRequest) (uuid.UUID, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("entry not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.List(ctx, entryservice.Query{
		Tag:  optionalString(req, "tag"),
		Text: optionalString(req, "query"),
		Sort: optionalString(req, "sort"),
	})
	if err != nil {
		return toolError(err), nil
	}
	views := make([]entryView, len(entries))
	for i, e := range entries {
		views[i] = view(e, false)
	}
	return jsonResult(views), nil
}

func (s *Server) readEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.Get(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(view(e, true)), nil
}

func (s *Server) addEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var tags []string
	for _, t := range strings.Split(optionalString(req, "tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	e, err := s.svc.Create(ctx, entryservice.Draft{
		Title: optionalString(req, "title"),
		URL:   optionalString(req, "url"),
		Note:  optionalString(req, "note"),
		Tags:  tags,
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", e.ID)), nil
}

func (s *Server) deleteEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Delete(ctx, id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) getEntryFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EntryFormatContract), nil
}

func (s *Server) readEntryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      EntryFormatURI,
			MIMEType: "text/markdown",
			Text:     EntryFormatContract,
		},
	}, nil
}
