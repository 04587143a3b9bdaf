// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the outline commands for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/explode/internal/apperr"
	"github.com/starford/explode/internal/commands"
	"github.com/starford/explode/internal/datetoken"
	"github.com/starford/explode/internal/docservice"
	"github.com/starford/explode/internal/session"
)

const outlineFormatURI = "explode://outline-format"

// Server wraps the MCP server with the document tools.
type Server struct {
	mcp      *server.MCPServer
	docs     *docservice.Service
	sessions *session.Manager
}

// New creates a new MCP server with all tools registered.
func New(docs *docservice.Service, sessions *session.Manager, version string) *Server {
	s := &Server{docs: docs, sessions: sessions}

	s.mcp = server.NewMCPServer(
		"explode",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	for _, t := range []struct {
		name, command, desc string
	}{
		{"explode_text", commands.Explode, "Convert prose (headings and paragraphs) into a nested outline, one sentence per item."},
		{"implode_text", commands.Implode, "Convert a nested outline back into headings and paragraphs."},
		{"toggle_text", commands.Toggle, "Implode text in outline form, explode anything else."},
		{"join_lines", commands.ImplodeLines, "Join hard-wrapped lines of each paragraph into one line."},
		{"split_lines", commands.ExplodeLines, "Put each sentence of a paragraph on its own line."},
	} {
		s.mcp.AddTool(mcp.NewTool(t.name,
			mcp.WithDescription(t.desc+" Read the outline contract first via get_outline_contract."),
			mcp.WithString("text", mcp.Required(), mcp.Description("Markdown document text")),
		), s.textCommand(t.command))
	}

	s.mcp.AddTool(mcp.NewTool("decorate_dates",
		mcp.WithDescription("Find +{label: date} tokens and return their annotations as JSON."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to scan")),
		mcp.WithBoolean("live_preview", mcp.Description("Replace tokens by rendered widgets (default true)")),
		mcp.WithNumber("cursor", mcp.Description("Optional cursor offset; a token under the cursor is shown as source")),
	), s.decorateDates)

	s.mcp.AddTool(mcp.NewTool("apply_command",
		mcp.WithDescription("Run a command on a vault document and write the result back."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. folder/note.md)")),
		mcp.WithString("command", mcp.Required(), mcp.Description("Command id"),
			mcp.Enum(commands.ImplodeLines, commands.ExplodeLines, commands.Implode, commands.Explode, commands.Toggle)),
		mcp.WithString("if_match", mcp.Description("Optional checksum the document must still have")),
	), s.applyCommand)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a vault document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. folder/note.md)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all documents or the documents of one folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_outline_contract",
		mcp.WithDescription("Returns the outline format contract: role markers, sentence rules and date tokens."),
	), s.getOutlineContract)

	s.mcp.AddResource(
		mcp.NewResource(outlineFormatURI, "Outline Format Contract",
			mcp.WithResourceDescription("Prose and list forms of a document and the markers that link them."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readOutlineFormatResource,
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

func (s *Server) textCommand(command string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := s.docs.Commands().Run(ctx, command, commands.Input{Text: text})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

func (s *Server) decorateDates(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	vs := datetoken.ViewState{LivePreview: req.GetBool("live_preview", true)}
	if cursor := req.GetInt("cursor", -1); cursor >= 0 {
		vs.Selection = []datetoken.Span{{From: cursor, To: cursor}}
	}
	out, err := json.MarshalIndent(s.sessions.Decorate(text, vs), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) applyCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	command, err := req.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	t, err := s.docs.Apply(ctx, path, command, req.GetString("if_match", ""))
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError(fmt.Sprintf("checksum mismatch: %s changed", path)), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !t.Written {
		return mcp.NewToolResultText(fmt.Sprintf("unchanged: %s", path)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s (checksum %s)", command, path, t.Checksum)), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.docs.Get(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(doc.Content)), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.docs.List(ctx, req.GetString("folder", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.Path
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getOutlineContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(OutlineFormatContract), nil
}

func (s *Server) readOutlineFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      outlineFormatURI,
			MIMEType: "text/markdown",
			Text:     OutlineFormatContract,
		},
	}, nil
}
