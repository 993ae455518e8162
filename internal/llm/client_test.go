package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatClient_Call(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "you are a medical assistant", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, 0.4, req.Temperature)
		assert.Equal(t, 600, req.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "  trimmed answer  "}},
			},
		})
	}))
	defer server.Close()

	client := NewChatClient("test", server.URL, "test-key", "test-model", logrus.New())

	text, err := client.Call(context.Background(), "you are a medical assistant", "what is fever", 0.4, 600)

	require.NoError(t, err)
	assert.Equal(t, "trimmed answer", text)
}

func TestChatClient_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limit exceeded"}`))
	}))
	defer server.Close()

	client := NewChatClient("test", server.URL, "test-key", "test-model", logrus.New())

	_, err := client.Call(context.Background(), "system", "prompt", 0.4, 600)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestChatClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewChatClient("test", server.URL, "test-key", "test-model", logrus.New())

	_, err := client.Call(context.Background(), "system", "prompt", 0.4, 600)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestChatClient_Configured(t *testing.T) {
	logger := logrus.New()

	assert.True(t, NewGroq("some-key", "llama-3.3-70b-versatile", logger).Configured())
	assert.False(t, NewGroq("", "llama-3.3-70b-versatile", logger).Configured())
	assert.False(t, NewHuggingFace("", "google/medgemma-4b-it", logger).Configured())
	assert.False(t, NewDeepSeek("", "deepseek-chat", logger).Configured())
}
