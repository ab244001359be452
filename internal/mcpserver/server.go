// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes Raido's vault operations for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/mover"
	"github.com/starford/raido/internal/validator"
	"github.com/starford/raido/internal/vaultservice"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp *server.MCPServer
	svc *vaultservice.Service
}

// New creates a new MCP server with all Raido tools registered.
func New(svc *vaultservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes or notes in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("search_vault",
		mcp.WithDescription("Full-text search through note content, titles, and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchVault)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("move_notes",
		mcp.WithDescription("Move or rename notes and folders, rewriting every wiki and markdown "+
			"link that referenced them. The whole batch is validated before any file is touched."),
		mcp.WithString("moves", mcp.Required(),
			mcp.Description(`JSON array of {"from": "...", "to": "..."} pairs (vault-relative paths)`)),
		mcp.WithBoolean("dry_run", mcp.Description("Plan only; report what would change without writing")),
		mcp.WithBoolean("force", mcp.Description("Overwrite existing destination files")),
	), s.moveNotes)

	s.mcp.AddTool(mcp.NewTool("check_links",
		mcp.WithDescription("Scan the vault for broken links and suggest repairs. "+
			"With fix enabled, unambiguous wiki links are rewritten in place."),
		mcp.WithBoolean("fix", mcp.Description("Apply unambiguous repairs")),
		mcp.WithString("type", mcp.Description("Restrict to one link type: wiki or markdown")),
	), s.checkLinks)

	s.mcp.AddTool(mcp.NewTool("vault_stats",
		mcp.WithDescription("Vault analytics: orphan notes, tag hierarchy, and link graph density."),
	), s.vaultStats)

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

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.svc.ReadNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}
	metas, err := s.svc.ListNotes(ctx, folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) searchVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) moveNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("moves")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var moves []models.Move
	if err := json.Unmarshal([]byte(raw), &moves); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid moves payload: %v", err)), nil
	}
	opts := mover.Options{
		DryRun: req.GetBool("dry_run", false),
		Force:  req.GetBool("force", false),
	}
	report, err := s.svc.ApplyMoves(ctx, moves, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) checkLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := validator.Options{Fix: req.GetBool("fix", false)}
	switch req.GetString("type", "") {
	case "":
	case "wiki":
		opts.Types = []models.LinkType{models.LinkTypeWiki}
	case "markdown":
		opts.Types = []models.LinkType{models.LinkTypeMarkdown}
	default:
		return mcp.NewToolResultError("type must be wiki or markdown"), nil
	}
	report, err := s.svc.ValidateLinks(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) vaultStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.AnalyzeVault(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
