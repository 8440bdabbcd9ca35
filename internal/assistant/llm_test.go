package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailsync/pkg/errors"
)

func geminiResponse(text string) string {
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				},
			},
		},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestGenerateSQL(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(geminiResponse("```sql\nSELECT region FROM region LIMIT 100;\n```")))
	}))
	defer server.Close()

	client, err := NewGeminiClient("test-key", "gemini-2.5-flash", server.URL)
	require.NoError(t, err)

	sql, err := client.GenerateSQL(context.Background(), "List the regions.")
	require.NoError(t, err)
	assert.Equal(t, "SELECT region FROM region LIMIT 100;", sql)

	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "User Question: List the regions.")
	assert.Contains(t, gotBody.Contents[0].Parts[0].Text, "PostgreSQL expert")
}

func TestGenerateSQLAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": 403, "message": "API key not valid", "status": "PERMISSION_DENIED"}}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient("bad-key", "gemini-2.5-flash", server.URL)
	require.NoError(t, err)

	_, err = client.GenerateSQL(context.Background(), "List the regions.")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLLMResponse, errors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGenerateSQLNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient("test-key", "gemini-2.5-flash", server.URL)
	require.NoError(t, err)

	_, err = client.GenerateSQL(context.Background(), "List the regions.")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLLMResponse, errors.GetErrorCode(err))
}

func TestGenerateSQLEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiResponse("```sql\n```")))
	}))
	defer server.Close()

	client, err := NewGeminiClient("test-key", "gemini-2.5-flash", server.URL)
	require.NoError(t, err)

	_, err = client.GenerateSQL(context.Background(), "List the regions.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SQL")
}

func TestNewGeminiClientMissingKey(t *testing.T) {
	_, err := NewGeminiClient("", "gemini-2.5-flash", "https://example.com")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigMissing, errors.GetErrorCode(err))
}
