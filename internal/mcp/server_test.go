package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scadarag/internal/chunker"
	"scadarag/internal/domain"
	"scadarag/internal/service"
)

func newSession(t *testing.T, docs ...domain.Document) *service.Session {
	t.Helper()
	s := service.New(service.DefaultOptions(), chunker.NewWordChunker(1000, 150), nil, nil, logr.Discard())
	if docs != nil {
		require.NoError(t, s.Ingest(context.Background(), docs))
	}
	return s
}

func extractText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func Test_SearchDocuments(t *testing.T) {
	srv := NewServer(newSession(t,
		domain.Document{ID: "A", Title: "A", Text: "redundancia redundancia seguridad"},
		domain.Document{ID: "B", Title: "B", Text: "protocolo modbus redundancia"},
	))
	ctx := context.Background()

	t.Run("json lines", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "redundancia", "k": 1}

		result, err := srv.handleSearchDocuments(ctx, req)
		require.NoError(t, err)
		require.False(t, result.IsError)

		lines := strings.Split(strings.TrimSpace(extractText(result)), "\n")
		require.Len(t, lines, 1)
		var p passage
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &p))
		assert.Equal(t, "A", p.Title)
		assert.Equal(t, "A:0", p.ID)
		assert.Positive(t, p.Score)
	})

	t.Run("missing query", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleSearchDocuments(ctx, req)
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})

	t.Run("no match", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"query": "dnp3"}

		result, err := srv.handleSearchDocuments(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, service.NoMatchAnswer, extractText(result))
	})
}

func Test_SearchDocuments_NothingLoaded(t *testing.T) {
	srv := NewServer(newSession(t))
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"query": "redundancia"}

	result, err := srv.handleSearchDocuments(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, extractText(result), "No documents")
}

func Test_ListDocuments(t *testing.T) {
	srv := NewServer(newSession(t, domain.Document{ID: "A", Title: "manual.pdf", Text: "uno dos tres"}))
	result, err := srv.handleListDocuments(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Equal(t, "A\tmanual.pdf\t3 words\n", extractText(result))
}
