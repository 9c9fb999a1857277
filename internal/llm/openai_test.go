package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sozercan/idea-mapper/internal/config"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "llama-3.1-70b-versatile",
  "choices": [
    {
      "index": 0,
      "finish_reason": "stop",
      "logprobs": null,
      "message": {"role": "assistant", "content": "{\"CoreIdeas\":{}}", "refusal": null}
    }
  ],
  "usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

func testConfig(endpoint string) *config.LLMConfig {
	return &config.LLMConfig{
		Provider:    "openai",
		APIKey:      "test-key",
		APIEndpoint: endpoint,
		Model:       "llama-3.1-70b-versatile",
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   4000,
	}
}

func TestOpenAIComplete(t *testing.T) {
	var captured map[string]interface{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), "unexpected path %s", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer ts.Close()

	provider, err := NewOpenAI(testConfig(ts.URL + "/v1"))
	require.NoError(t, err)

	resp, err := provider.Complete(context.Background(), "system prompt", "user text")
	require.NoError(t, err)
	assert.Equal(t, `{"CoreIdeas":{}}`, resp.Content)
	assert.Equal(t, "llama-3.1-70b-versatile", resp.Model)
	assert.Equal(t, int64(17), resp.Usage.TotalTokens)

	assert.Equal(t, "llama-3.1-70b-versatile", captured["model"])
	assert.Equal(t, 0.7, captured["temperature"])
	assert.Equal(t, 0.9, captured["top_p"])
	assert.Equal(t, float64(4000), captured["max_tokens"])

	messages, ok := captured["messages"].([]interface{})
	require.True(t, ok, "messages should be a list")
	require.Len(t, messages, 2)
	assertMessage(t, messages[0], "system", "system prompt")
	assertMessage(t, messages[1], "user", "user text")
}

// assertMessage checks a message whose content is sent as text parts.
func assertMessage(t *testing.T, message interface{}, role, text string) {
	t.Helper()
	msg, ok := message.(map[string]interface{})
	require.True(t, ok, "message should be an object")
	assert.Equal(t, role, msg["role"])

	parts, ok := msg["content"].([]interface{})
	require.True(t, ok, "content should be a list of parts, got %T", msg["content"])
	require.Len(t, parts, 1)
	part, ok := parts[0].(map[string]interface{})
	require.True(t, ok, "content part should be an object")
	assert.Equal(t, "text", part["type"])
	assert.Equal(t, text, part["text"])
}

func TestOpenAIRateLimitIsDetectedAndNotRetried(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Too many requests","type":"tokens","code":"rate_limit_exceeded"}}`))
	}))
	defer ts.Close()

	provider, err := NewOpenAI(testConfig(ts.URL))
	require.NoError(t, err)

	_, err = provider.Complete(context.Background(), "sys", "text")
	require.Error(t, err)
	assert.True(t, IsRateLimit(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestOpenAIWithRequesterExhausts(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer ts.Close()

	provider, err := NewOpenAI(testConfig(ts.URL))
	require.NoError(t, err)

	r := NewRequester(provider, "sys", WithMaxAttempts(3), WithInitialWait(time.Millisecond))
	_, err = r.Complete(context.Background(), "text")
	assert.ErrorIs(t, err, ErrRateLimitExhausted)
	assert.Equal(t, int32(3), hits.Load())
}

func TestOpenAIUnauthorizedIsUpstreamFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	}))
	defer ts.Close()

	provider, err := NewOpenAI(testConfig(ts.URL))
	require.NoError(t, err)

	r := NewRequester(provider, "sys", WithInitialWait(time.Millisecond))
	_, err = r.Complete(context.Background(), "text")

	var upstream *UpstreamError
	assert.True(t, errors.As(err, &upstream))
	assert.False(t, errors.Is(err, ErrRateLimitExhausted))
}

func TestOpenAINoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer ts.Close()

	provider, err := NewOpenAI(testConfig(ts.URL))
	require.NoError(t, err)

	_, err = provider.Complete(context.Background(), "sys", "text")
	assert.ErrorContains(t, err, "no choices")
}

func TestOpenAIModel(t *testing.T) {
	cfg := testConfig("https://example.com/v1")
	provider, err := NewOpenAI(cfg)
	require.NoError(t, err)
	assert.Equal(t, "llama-3.1-70b-versatile", provider.Model())

	azureCfg := testConfig("https://example.openai.azure.com")
	azureCfg.Provider = "azure"
	azureCfg.APIVersion = "2024-06-01"
	azureCfg.DeploymentName = "analysis-deployment"
	provider, err = NewOpenAI(azureCfg)
	require.NoError(t, err)
	assert.Equal(t, "analysis-deployment", provider.Model())
}

func TestIsRateLimit(t *testing.T) {
	assert.False(t, IsRateLimit(nil))
	assert.True(t, IsRateLimit(errors.New("RATE LIMIT")))
	assert.False(t, IsRateLimit(errors.New("rate-limited")))
	assert.False(t, IsRateLimit(errors.New("connection reset by peer")))
}

func TestNewOpenAIRequiresConfig(t *testing.T) {
	_, err := NewOpenAI(nil)
	assert.Error(t, err)
}
