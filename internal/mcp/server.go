// Package mcp exposes document search to MCP clients over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"scadarag/internal/domain"
	"scadarag/internal/service"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Searcher is the part of a retrieval session the tools need.
type Searcher interface {
	Query(ctx context.Context, text string, k int) (service.Answer, error)
	Documents() ([]domain.Document, error)
}

var searchDocumentsTool = mcp.NewTool("search_documents",
	mcp.WithDescription("Search the loaded SCADA documents. Returns one JSON object per matching passage, best first."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Free text search query"),
	),
	mcp.WithNumber("k",
		mcp.Description("Maximum number of passages to return (default 5)"),
	),
)

var listDocumentsTool = mcp.NewTool("list_documents",
	mcp.WithDescription("List the documents currently loaded for search."),
)

type Server struct {
	searcher Searcher
	mcp      *server.MCPServer
}

func NewServer(searcher Searcher) *Server {
	s := &Server{
		searcher: searcher,
		mcp:      server.NewMCPServer("scadarag", Version, server.WithToolCapabilities(false)),
	}
	s.mcp.AddTool(searchDocumentsTool, s.handleSearchDocuments)
	s.mcp.AddTool(listDocumentsTool, s.handleListDocuments)
	return s
}

// Serve starts the MCP server on stdio. Stdout carries protocol messages, so
// all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

type passage struct {
	Score float64 `json:"score"`
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Page  int     `json:"page,omitempty"`
	Text  string  `json:"text"`
}

func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	k := request.GetInt("k", 0)

	ans, err := s.searcher.Query(ctx, q, k)
	if errors.Is(err, service.ErrNoIndex) {
		return mcp.NewToolResultText("No documents are loaded yet."), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(ans.Hits) == 0 {
		return mcp.NewToolResultText(ans.Text), nil
	}

	var b strings.Builder
	for _, h := range ans.Hits {
		raw, err := json.Marshal(passage{
			Score: h.Score,
			ID:    h.Chunk.ID,
			Title: h.Chunk.Title,
			Page:  h.Chunk.Page,
			Text:  h.Chunk.Text,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		b.Write(raw)
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleListDocuments(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.searcher.Documents()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(docs) == 0 {
		return mcp.NewToolResultText("No documents are loaded yet."), nil
	}
	var b strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&b, "%s\t%s\t%d words\n", d.ID, d.Title, len(strings.Fields(d.Text)))
	}
	return mcp.NewToolResultText(b.String()), nil
}
