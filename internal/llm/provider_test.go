package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/stretchr/testify/require"
)

func TestOllamaCompleteSendsChatRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "llama3", body.Model)
		require.Len(t, body.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaChatMessage{Role: "assistant", Content: `{"ok":true}`},
		})
	}))
	defer srv.Close()

	client := NewOllama(config.AIConfig{Provider: "ollama", Model: "llama3", BaseURL: srv.URL, TimeoutSeconds: 5})
	resp, err := client.Complete(context.Background(), Request{System: "sys", User: "user", JSONMode: true})
	require.NoError(t, err)
	require.Equal(t, `{"ok":true}`, resp.Text)
	require.Equal(t, "llama3", resp.ModelUsed)
}

func TestOpenAICompleteRequiresAPIKey(t *testing.T) {
	client := NewOpenAI(config.AIConfig{Provider: "openai", Model: "gpt-4o"})
	_, err := client.Complete(context.Background(), Request{System: "s", User: "u"})
	require.Error(t, err)
}

func TestOpenAICompleteParsesChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAI(config.AIConfig{Provider: "openai", APIKey: "test-key", Model: "gpt-4o", BaseURL: srv.URL, TimeoutSeconds: 5})
	resp, err := client.Complete(context.Background(), Request{System: "s", User: "u"})
	require.NoError(t, err)
	require.Equal(t, "hello", resp.Text)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(config.AIConfig{Provider: "carrier-pigeon"})
	require.Error(t, err)
}
