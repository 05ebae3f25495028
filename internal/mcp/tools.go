package mcp

import "github.com/mark3labs/mcp-go/mcp"

// classifyFileTool defines the classify_file MCP tool.
var classifyFileTool = mcp.NewTool("classify_file",
	mcp.WithDescription("Classify a source file as API, Frontend, Database, Service, Utility or General and list the aspects an analysis focuses on."),
	mcp.WithString("file_name",
		mcp.Required(),
		mcp.Description("File name or path, e.g. src/api/routes.js"),
	),
	mcp.WithString("content",
		mcp.Description("File content"),
	),
)

// analyzeFileTool defines the analyze_file MCP tool.
var analyzeFileTool = mcp.NewTool("analyze_file",
	mcp.WithDescription("Analyze a source file with the configured model and return its overview and branches as JSON."),
	mcp.WithString("file_name",
		mcp.Required(),
		mcp.Description("File name or path"),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("File content"),
	),
	mcp.WithString("file_extension",
		mcp.Description("Extension without the dot; derived from file_name when omitted"),
	),
	mcp.WithString("cache_key",
		mcp.Description("When set, the analysis is stored under this key, e.g. owner/repo#42"),
	),
)

// getMindmapTool defines the get_mindmap MCP tool.
var getMindmapTool = mcp.NewTool("get_mindmap",
	mcp.WithDescription("Render the cached analysis of a file as a mind map."),
	mcp.WithString("file_name",
		mcp.Required(),
		mcp.Description("File path as listed in the analysis"),
	),
	mcp.WithString("cache_key",
		mcp.Description("Cache key of the issue; the most recent analysis of the file is used when omitted"),
	),
	mcp.WithString("format",
		mcp.Description("Output format (default tree)"),
		mcp.Enum("tree", "mermaid", "svg", "json"),
	),
)

// listAnalysesTool defines the list_analyses MCP tool.
var listAnalysesTool = mcp.NewTool("list_analyses",
	mcp.WithDescription("List the cache keys holding analyses, most recent first."),
)
