package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex-io/docdex/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	req := &mcp.ReadResourceRequest{}
	req.Params = &mcp.ReadResourceParams{URI: uri}
	return req
}

func TestServer_handleSourcesResource(t *testing.T) {
	mockSource := &mockSourceService{
		sources: []domain.Source{
			{ID: "python-docs", Name: "python-docs", Title: "Python Documentation", Version: "3.13.1"},
		},
	}
	server := newTestServer(t, nil, mockSource)

	result, err := server.handleSourcesResource(context.Background(), readRequest(uriScheme+"sources"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var infos []SourceOutput
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "python-docs", infos[0].ID)
	assert.Equal(t, "Python Documentation", infos[0].Title)
}

func TestServer_handleDocumentsResource(t *testing.T) {
	t.Run("lists documents without content", func(t *testing.T) {
		mockSource := &mockSourceService{
			documents: []domain.Document{
				{ID: "doc-1", SourceID: "python-docs", Path: "tutorial/classes.md", Title: "Classes"},
			},
		}
		server := newTestServer(t, nil, mockSource)

		result, err := server.handleDocumentsResource(context.Background(),
			readRequest(uriScheme+"sources/python-docs/documents"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "tutorial/classes.md")
		assert.NotContains(t, result.Contents[0].Text, "content")
	})

	t.Run("malformed URI is not found", func(t *testing.T) {
		server := newTestServer(t, nil, nil)

		_, err := server.handleDocumentsResource(context.Background(),
			readRequest(uriScheme+"nonsense"))
		require.Error(t, err)
	})

	t.Run("unknown source is not found", func(t *testing.T) {
		mockSource := &mockSourceService{err: domain.ErrNotFound}
		server := newTestServer(t, nil, mockSource)

		_, err := server.handleDocumentsResource(context.Background(),
			readRequest(uriScheme+"sources/nope/documents"))
		require.Error(t, err)
	})
}

func TestServer_handleDocumentContentResource(t *testing.T) {
	t.Run("returns full text", func(t *testing.T) {
		mockSource := &mockSourceService{content: "A class definition names a new class."}
		server := newTestServer(t, nil, mockSource)

		result, err := server.handleDocumentContentResource(context.Background(),
			readRequest(uriScheme+"documents/doc-1"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
		assert.Equal(t, "A class definition names a new class.", result.Contents[0].Text)
	})

	t.Run("unknown document is not found", func(t *testing.T) {
		mockSource := &mockSourceService{err: domain.ErrNotFound}
		server := newTestServer(t, nil, mockSource)

		_, err := server.handleDocumentContentResource(context.Background(),
			readRequest(uriScheme+"documents/nope"))
		require.Error(t, err)
	})
}

func TestExtractIDs(t *testing.T) {
	assert.Equal(t, "python-docs", extractSourceID(uriScheme+"sources/python-docs/documents"))
	assert.Empty(t, extractSourceID(uriScheme+"sources/python-docs"))
	assert.Empty(t, extractSourceID("other://sources/x/documents"))

	assert.Equal(t, "doc-1", extractDocumentID(uriScheme+"documents/doc-1"))
	assert.Empty(t, extractDocumentID(uriScheme+"sources"))
}
