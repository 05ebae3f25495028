package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/cache"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Analyzer analyzes a single file.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Server wraps an MCP server that exposes file analysis and mind map tools.
type Server struct {
	analyzer Analyzer
	store    *cache.Store
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server. analyzer may be nil, in which case
// analyze_file reports that no model is configured.
func NewServer(analyzer Analyzer, store *cache.Store) *Server {
	s := &Server{
		analyzer: analyzer,
		store:    store,
	}

	s.mcp = server.NewMCPServer(
		"graphix",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(classifyFileTool, s.handleClassifyFile)
	s.mcp.AddTool(analyzeFileTool, s.handleAnalyzeFile)
	s.mcp.AddTool(getMindmapTool, s.handleGetMindmap)
	s.mcp.AddTool(listAnalysesTool, s.handleListAnalyses)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
