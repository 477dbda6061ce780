package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/offense-sql/internal/config"
	"github.com/a3tai/offense-sql/internal/logging"
	"github.com/a3tai/offense-sql/internal/offense"
	"github.com/a3tai/offense-sql/internal/pdf"
	"github.com/a3tai/offense-sql/internal/pdf/layout"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	processor *offense.Processor
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance. A nil logger discards logs.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = logging.Discard()
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		processor: offense.NewProcessor(cfg.Settings(), logger),
		logger:    logger,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	highlightsTool := mcp.NewTool(
		"offense_highlights",
		mcp.WithDescription("List the highlighted text of every page of a criminal record PDF"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("format",
			mcp.Description("Response format: 'text' (default) or 'json'"),
		),
	)
	s.mcpServer.AddTool(highlightsTool, s.handleOffenseHighlights)

	updatesTool := mcp.NewTool(
		"offense_updates",
		mcp.WithDescription("Generate the SQL UPDATE statements for the highlighted offense changes of a "+
			"criminal record PDF. Nothing is written to disk."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("format",
			mcp.Description("Response format: 'text' (default) or 'json'"),
		),
	)
	s.mcpServer.AddTool(updatesTool, s.handleOffenseUpdates)
}

func (s *Server) openDocument(path string) (*pdf.Document, error) {
	return pdf.Open(path, pdf.Options{
		MaxFileSize: s.config.MaxFileSize,
		Layout:      layout.DefaultOptions(),
	})
}

func requestFormat(request mcp.CallToolRequest) (string, error) {
	args := request.GetArguments()

	format := formatText // default
	if f, ok := args["format"].(string); ok && f != "" {
		format = strings.ToLower(f)
	}
	if format != formatText && format != formatJSON {
		return "", fmt.Errorf("unsupported format %q (must be 'text' or 'json')", format)
	}
	return format, nil
}

// Handler functions
func (s *Server) handleOffenseHighlights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := requestFormat(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.openDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer doc.Close()

	pages, err := s.processor.Highlights(ctx, doc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if format == formatJSON {
		return jsonResult(pages)
	}
	return mcp.NewToolResultText(s.formatHighlights(path, doc.PageCount(), pages)), nil
}

func (s *Server) handleOffenseUpdates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := requestFormat(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.openDocument(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer doc.Close()

	log := logging.ForRun(s.logger, path)
	result, err := offense.NewProcessor(s.config.Settings(), log).Process(ctx, doc, &offense.MemorySink{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v (%d statements generated before the failure)",
			err, len(result.Statements))), nil
	}

	if format == formatJSON {
		return jsonResult(result)
	}
	return mcp.NewToolResultText(s.formatUpdates(path, result)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) formatHighlights(path string, pageCount int, pages []offense.PageHighlights) string {
	total := 0
	for _, p := range pages {
		total += len(p.Highlights)
	}

	text := fmt.Sprintf("Highlights in %s\n", path)
	text += fmt.Sprintf("Pages: %d, highlighted pages: %d, highlights: %d\n", pageCount, len(pages), total)

	for _, p := range pages {
		text += fmt.Sprintf("\nPage %d:\n", p.Page)
		for _, h := range p.Highlights {
			text += fmt.Sprintf("  - %s\n", h)
		}
	}
	return text
}

func (s *Server) formatUpdates(path string, result *offense.Result) string {
	text := fmt.Sprintf("Generated %d statements from %d pages of %s\n",
		len(result.Statements), result.Pages, path)

	if len(result.Statements) == 0 {
		text += "\nNo highlighted changes were found inside an offense.\n"
		return text
	}

	for _, stmt := range result.Statements {
		text += fmt.Sprintf("\n-- %s (page %d, offense %d)\n",
			offense.FileName(s.config.Prefix, stmt.Seq), stmt.Page, stmt.Offense)
		text += stmt.SQL
	}
	return text
}

// Run serves MCP over stdio until the client disconnects or ctx is done
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsDebug() {
		s.logger.Debug("starting offense MCP server in stdio mode",
			"name", s.config.ServerName, "version", s.config.Version)
	}

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
