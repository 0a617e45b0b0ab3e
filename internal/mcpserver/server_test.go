package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/notenest/internal/entryservice"
	"github.com/starford/notenest/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	svc := entryservice.New(testutil.TestEntryStore(t), entryservice.WithOrdering(true))
	t.Cleanup(svc.Close)
	return New(svc)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so dispatch to the
	// handlers directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_entries":
		result, err = srv.listEntries(ctx, req)
	case "read_entry":
		result, err = srv.readEntry(ctx, req)
	case "add_entry":
		result, err = srv.addEntry(ctx, req)
	case "delete_entry":
		result, err = srv.deleteEntry(ctx, req)
	case "get_entry_format":
		result, err = srv.getEntryFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func addEntry(t *testing.T, srv *Server, args map[string]interface{}) string {
	t.Helper()
	r := callTool(t, srv, "add_entry", args)
	text := resultText(r)
	id, ok := strings.CutPrefix(text, "created: ")
	if r.IsError || !ok {
		t.Fatalf("add_entry = %q", text)
	}
	return id
}

func TestAddAndReadEntry(t *testing.T) {
	srv := testServer(t)
	id := addEntry(t, srv, map[string]interface{}{
		"url":  "https://go.dev",
		"note": "# Go\nHello #lang",
		"tags": "a, b,,",
	})

	r := callTool(t, srv, "read_entry", map[string]interface{}{"id": id})
	if r.IsError {
		t.Fatalf("read_entry error: %s", resultText(r))
	}
	var got entryView
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "Go" || got.URL != "https://go.dev" || got.Note != "# Go\nHello #lang" {
		t.Errorf("got %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "a" || got.Tags[1] != "b" {
		t.Errorf("tags = %v, want [a b]", got.Tags)
	}
}

func TestAddEntryInvalid(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "add_entry", map[string]interface{}{"url": "not a url"})
	if !r.IsError {
		t.Error("expected error for empty entry with bad url")
	}
}

func TestListEntries(t *testing.T) {
	srv := testServer(t)
	addEntry(t, srv, map[string]interface{}{"title": "beta", "tags": "x"})
	addEntry(t, srv, map[string]interface{}{"title": "alpha", "tags": "x"})
	addEntry(t, srv, map[string]interface{}{"title": "other"})

	r := callTool(t, srv, "list_entries", map[string]interface{}{"tag": "x", "sort": "title"})
	var got []entryView
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	if len(got) != 2 || got[0].Title != "alpha" || got[1].Title != "beta" {
		t.Errorf("got %+v", got)
	}
	if got[0].Note != "" {
		t.Error("list should omit note text")
	}
}

func TestReadEntryMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_entry", map[string]interface{}{"id": uuid.NewString()})
	if !r.IsError || resultText(r) != "entry not found" {
		t.Errorf("got %q, IsError=%v", resultText(r), r.IsError)
	}

	r = callTool(t, srv, "read_entry", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for malformed id")
	}
}

func TestDeleteEntry(t *testing.T) {
	srv := testServer(t)
	id := addEntry(t, srv, map[string]interface{}{"title": "gone"})

	if r := callTool(t, srv, "delete_entry", map[string]interface{}{"id": id}); r.IsError {
		t.Fatalf("delete_entry: %s", resultText(r))
	}
	if r := callTool(t, srv, "delete_entry", map[string]interface{}{"id": id}); !r.IsError {
		t.Error("second delete should fail")
	}
}

func TestEntryFormat(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_entry_format", nil)
	if resultText(r) != EntryFormatContract {
		t.Error("get_entry_format should return the contract")
	}

	contents, err := srv.readEntryFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != EntryFormatURI || tc.Text != EntryFormatContract {
		t.Errorf("resource = %+v", contents[0])
	}
}
