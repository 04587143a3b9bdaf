package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/explode/internal/commands"
	"github.com/starford/explode/internal/datetoken"
	"github.com/starford/explode/internal/docservice"
	"github.com/starford/explode/internal/session"
	"github.com/starford/explode/internal/storage"
	"github.com/starford/explode/internal/testutil"
)

func testServer(t *testing.T) (*Server, *storage.FS) {
	t.Helper()

	_, store := testutil.TestVault(t, map[string]string{
		"plan.md":      "## Goals\n\nShip it. Then rest.",
		"notes/one.md": "- @ One\n\t- ~ First.",
	})
	docs := docservice.NewService(store, testutil.Registry())
	sessions := session.NewManager(store, datetoken.NewDecorator(datetoken.Strict))
	return New(docs, sessions, "test"), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "explode_text":
		result, err = srv.textCommand(commands.Explode)(ctx, req)
	case "implode_text":
		result, err = srv.textCommand(commands.Implode)(ctx, req)
	case "decorate_dates":
		result, err = srv.decorateDates(ctx, req)
	case "apply_command":
		result, err = srv.applyCommand(ctx, req)
	case "read_document":
		result, err = srv.readDocument(ctx, req)
	case "list_documents":
		result, err = srv.listDocuments(ctx, req)
	case "get_outline_contract":
		result, err = srv.getOutlineContract(ctx, req)
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

func TestExplodeAndImplodeText(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "explode_text", map[string]any{"text": "## A\n\nPara one. Two."})
	if r.IsError {
		t.Fatalf("explode error: %s", resultText(r))
	}
	exploded := resultText(r)
	if exploded != "- @ A\n\t- ~ Para one.\n\t\t- Two." {
		t.Errorf("explode = %q", exploded)
	}

	r = callTool(t, srv, "implode_text", map[string]any{"text": exploded})
	if got := resultText(r); got != "## A\n\nPara one. Two.\n\n" {
		t.Errorf("implode = %q", got)
	}
}

func TestTextCommandMissingText(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "explode_text", map[string]any{})
	if !r.IsError {
		t.Error("expected error without text")
	}
}

func TestApplyCommand(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "apply_command", map[string]any{"path": "plan.md", "command": commands.Explode})
	if r.IsError {
		t.Fatalf("apply error: %s", resultText(r))
	}
	if !strings.HasPrefix(resultText(r), "explode: plan.md") {
		t.Errorf("apply result = %q", resultText(r))
	}
	data, err := store.Read("plan.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "- @ Goals\n\t- ~ Ship it.\n\t\t- Then rest." {
		t.Errorf("written = %q", data)
	}

	r = callTool(t, srv, "apply_command", map[string]any{"path": "plan.md", "command": commands.Explode})
	if got := resultText(r); got != "unchanged: plan.md" {
		t.Errorf("second apply = %q", got)
	}
}

func TestApplyCommandErrors(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing document", map[string]any{"path": "nope.md", "command": commands.Explode}, "not found"},
		{"stale checksum", map[string]any{"path": "plan.md", "command": commands.Explode, "if_match": "stale"}, "checksum mismatch"},
		{"unknown command", map[string]any{"path": "plan.md", "command": "shuffle"}, "shuffle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := callTool(t, srv, "apply_command", tt.args)
			if !r.IsError {
				t.Fatalf("expected error, got %q", resultText(r))
			}
			if !strings.Contains(resultText(r), tt.want) {
				t.Errorf("error = %q, want it to contain %q", resultText(r), tt.want)
			}
		})
	}
}

func TestReadDocument(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "read_document", map[string]any{"path": "notes/one.md"})
	if got := resultText(r); got != "- @ One\n\t- ~ First." {
		t.Errorf("read = %q", got)
	}

	r = callTool(t, srv, "read_document", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestListDocuments(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_documents", map[string]any{})
	text := resultText(r)
	if !strings.Contains(text, "plan.md") || !strings.Contains(text, "notes/one.md") {
		t.Errorf("list = %q", text)
	}

	r = callTool(t, srv, "list_documents", map[string]any{"folder": "notes"})
	if got := resultText(r); got != "notes/one.md" {
		t.Errorf("list notes = %q", got)
	}
}

func TestDecorateDates(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "decorate_dates", map[string]any{"text": "due +{2024-03-01T09:30:00+00:00}"})
	if r.IsError {
		t.Fatalf("decorate error: %s", resultText(r))
	}
	var got []session.Annotation
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Kind != datetoken.Replace || got[0].Display == nil {
		t.Fatalf("annotations = %+v", got)
	}
	if got[0].Display.Time != "9:30am" {
		t.Errorf("time = %q", got[0].Display.Time)
	}

	// A cursor inside the token shows its source.
	r = callTool(t, srv, "decorate_dates", map[string]any{
		"text":   "due +{2024-03-01T09:30:00+00:00}",
		"cursor": float64(8),
	})
	got = nil
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no annotations with cursor")
	}
	for _, a := range got {
		if a.Kind != datetoken.Mark {
			t.Errorf("annotation %+v, want marks only", a)
		}
	}
}

func TestGetOutlineContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_outline_contract", map[string]any{})
	if resultText(r) != OutlineFormatContract {
		t.Error("contract text mismatch")
	}
}
