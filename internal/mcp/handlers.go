package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/issuewiz/graphix/internal/analysis"
	"github.com/issuewiz/graphix/internal/cache"
	"github.com/issuewiz/graphix/internal/mindmap"
)

// handleClassifyFile reports the category of a file and its focus hints.
func (s *Server) handleClassifyFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileName, err := request.RequireString("file_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: file_name"), nil
	}
	content := request.GetString("content", "")

	category := analysis.Classify(fileName, content)
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n\nFocus on:\n", category)
	for _, h := range analysis.FocusHints(category) {
		fmt.Fprintf(&b, "- %s (%s)\n", h.Name, h.Hint)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleAnalyzeFile runs the model over one file.
func (s *Server) handleAnalyzeFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileName, err := request.RequireString("file_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: file_name"), nil
	}
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}
	if s.analyzer == nil {
		return mcp.NewToolResultError("No model configured. Run `graphix init` to configure a provider."), nil
	}

	res, err := s.analyzer.Analyze(ctx, analysis.Request{
		FileName:      fileName,
		FileExtension: request.GetString("file_extension", ""),
		Content:       content,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	if key := request.GetString("cache_key", ""); key != "" && s.store != nil {
		entry := cache.Entry{Analysis: res.Analysis, ContentHash: analysis.ContentHash(content)}
		if err := s.store.Set(ctx, key, fileName, entry); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("storing analysis failed: %v", err)), nil
		}
	}

	data, err := json.MarshalIndent(res.Analysis, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding analysis: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleGetMindmap renders a cached analysis.
func (s *Server) handleGetMindmap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileName, err := request.RequireString("file_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: file_name"), nil
	}

	var entry cache.Entry
	if key := request.GetString("cache_key", ""); key != "" {
		entry, err = s.store.Lookup(ctx, key, fileName)
	} else {
		_, entry, err = s.store.FindLatest(ctx, fileName)
	}
	if errors.Is(err, cache.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"No analysis found for %q. Run `graphix analyze <issue-url>` first.", fileName,
		)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading analysis failed: %v", err)), nil
	}

	a := &entry.Analysis
	switch format := request.GetString("format", "tree"); format {
	case "tree":
		return mcp.NewToolResultText(a.Overview + "\n\n" + mindmap.RenderTree(fileName, a)), nil
	case "mermaid":
		return mcp.NewToolResultText(mindmap.RenderMermaid(fileName, a)), nil
	case "svg":
		return mcp.NewToolResultText(mindmap.RenderSVG(mindmap.NewLayout(fileName, a, mindmap.DefaultWidth), "")), nil
	case "json":
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding analysis: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
}

// handleListAnalyses lists the cache keys.
func (s *Server) handleListAnalyses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing analyses failed: %v", err)), nil
	}
	if len(keys) == 0 {
		return mcp.NewToolResultText("No analyses cached yet. Run `graphix analyze <issue-url>` to create some."), nil
	}

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s\t%d files\t%s\n", k.Key, k.Files, k.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(b.String()), nil
}
