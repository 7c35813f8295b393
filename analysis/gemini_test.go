package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_Generate(t *testing.T) {
	var gotKey string
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello"}]}}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewGeminiClient(server.URL, "secret", server.Client())
	text, err := client.Generate(context.Background(),
		Part{Text: "describe"},
		Part{InlineData: &InlineData{MimeType: "image/png", Data: "AAAA"}},
	)

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "secret", gotKey)
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 2)
	assert.Equal(t, "describe", gotBody.Contents[0].Parts[0].Text)
	assert.Equal(t, "image/png", gotBody.Contents[0].Parts[1].InlineData.MimeType)
}

func TestGeminiClient_Analyze(t *testing.T) {
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewGeminiClient(server.URL, "k", server.Client())
	_, err := client.Analyze(context.Background(), "MODEL-UNDER-TEST")

	require.NoError(t, err)
	prompt := gotBody.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "MODEL-UNDER-TEST")
	assert.Contains(t, prompt, `"suggestion"`)
}

func TestGeminiClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "http error", status: http.StatusTooManyRequests, body: `quota`, wantMsg: "gemini returned 429: quota"},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, wantErr: ErrEmptyCompletion},
		{name: "no parts", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[]}}]}`, wantErr: ErrEmptyCompletion},
		{name: "bad json", status: http.StatusOK, body: `<html>`, wantMsg: "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(server.Close)

			_, err := NewGeminiClient(server.URL, "k", server.Client()).Generate(context.Background(), Part{Text: "x"})

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}
