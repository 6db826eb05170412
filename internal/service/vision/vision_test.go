package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandevgo/chorus/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			ImageURL struct {
				URL    string `json:"url"`
				Detail string `json:"detail"`
			} `json:"image_url"`
		} `json:"content"`
	} `json:"messages"`
}

func newAnalyzer(t *testing.T, status int, body string) (*Analyzer, *chatRequest) {
	t.Helper()
	got := &chatRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewAnalyzer(&config.VisionConfig{
		Model:     "gpt-4o",
		MiniModel: "gpt-4o-mini",
		BaseURL:   srv.URL + "/v1",
		APIKey:    "sk-test",
	}), got
}

const okResponse = `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"A red fox in snow."},"finish_reason":"stop"}]}`

func TestAnalyzeURL(t *testing.T) {
	a, got := newAnalyzer(t, http.StatusOK, okResponse)

	answer, err := a.AnalyzeURL(context.Background(), "https://cdn.example.com/fox.jpg", "")

	require.NoError(t, err)
	assert.Equal(t, "A red fox in snow.", answer)
	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 1)
	content := got.Messages[0].Content
	require.Len(t, content, 2)
	assert.Equal(t, DefaultURLQuery, content[0].Text)
	assert.Equal(t, "https://cdn.example.com/fox.jpg", content[1].ImageURL.URL)
	assert.Equal(t, "auto", content[1].ImageURL.Detail)
}

func TestAnalyzeFile(t *testing.T) {
	a, got := newAnalyzer(t, http.StatusOK, okResponse)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	path := filepath.Join(t.TempDir(), "fox.png")
	require.NoError(t, os.WriteFile(path, png, 0644))

	_, err := a.AnalyzeFile(context.Background(), path, "")

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	content := got.Messages[0].Content
	assert.Equal(t, DefaultFileQuery, content[0].Text)
	assert.True(t, strings.HasPrefix(content[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestAnalyzeMany(t *testing.T) {
	a, got := newAnalyzer(t, http.StatusOK, okResponse)

	_, err := a.AnalyzeMany(context.Background(), []string{"https://a/1.png", "https://a/2.png"}, "which is bigger?")

	require.NoError(t, err)
	content := got.Messages[0].Content
	require.Len(t, content, 3)
	assert.Equal(t, "which is bigger?", content[0].Text)
	assert.Equal(t, "https://a/2.png", content[2].ImageURL.URL)
}

func TestAnalyze_Failures(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		a, _ := newAnalyzer(t, http.StatusInternalServerError, `{"error":{"message":"boom"}}`)
		_, err := a.AnalyzeURL(context.Background(), "https://a/1.png", "")
		assert.ErrorIs(t, err, ErrAnalysisFailed)
	})

	t.Run("missing file", func(t *testing.T) {
		a, _ := newAnalyzer(t, http.StatusOK, okResponse)
		_, err := a.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "none.png"), "")
		assert.ErrorIs(t, err, ErrAnalysisFailed)
	})

	t.Run("no images", func(t *testing.T) {
		a, _ := newAnalyzer(t, http.StatusOK, okResponse)
		_, err := a.AnalyzeMany(context.Background(), nil, "")
		assert.ErrorIs(t, err, ErrAnalysisFailed)
	})

	t.Run("empty choices", func(t *testing.T) {
		a, _ := newAnalyzer(t, http.StatusOK, `{"id":"1","choices":[]}`)
		_, err := a.AnalyzeURL(context.Background(), "https://a/1.png", "")
		assert.ErrorIs(t, err, ErrAnalysisFailed)
	})
}

func TestDataURL(t *testing.T) {
	assert.True(t, strings.HasPrefix(DataURL([]byte("\xff\xd8\xff\xe0")), "data:image/jpeg;base64,"))
	assert.True(t, strings.HasPrefix(DataURL([]byte("plain text")), "data:image/jpeg;base64,"))
}
