package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func newTestService(baseURL string) *CompletionService {
	return NewCompletionService("test-key", baseURL, CompletionConfig{
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   64,
	}, zap.NewNop())
}

func completionServer(t *testing.T, captured *capturedRequest, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCompleteReturnsAssistantTurn(t *testing.T) {
	var captured capturedRequest
	srv := completionServer(t, &captured, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Hi there"}}]}`))
	})

	svc := newTestService(srv.URL + "/v1")
	history := []models.Message{
		{Role: models.RoleUser, Content: "Hello"},
		{Role: models.RoleAssistant, Content: "Hi"},
		{Role: models.RoleUser, Content: "Again"},
	}

	reply, err := svc.Complete(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAssistant, reply.Role)
	assert.Equal(t, "Hi there", reply.Content)

	// The wire request carries the whole ordered history and the fixed
	// deployment constants, nothing else about the conversation.
	assert.Equal(t, "test-model", captured.Model)
	assert.InDelta(t, 0.7, captured.Temperature, 0.001)
	assert.Equal(t, 64, captured.MaxTokens)
	require.Len(t, captured.Messages, 3)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "Hello", captured.Messages[0].Content)
	assert.Equal(t, "Again", captured.Messages[2].Content)
}

func TestCompleteEmptyContentIsTagged(t *testing.T) {
	srv := completionServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":""}}]}`))
	})

	svc := newTestService(srv.URL + "/v1")
	_, err := svc.Complete(context.Background(), []models.Message{{Role: models.RoleUser, Content: "Hello"}})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestCompleteNoChoicesIsTagged(t *testing.T) {
	srv := completionServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	svc := newTestService(srv.URL + "/v1")
	_, err := svc.Complete(context.Background(), []models.Message{{Role: models.RoleUser, Content: "Hello"}})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestCompleteUpstreamErrorCarriesStatusAndMessage(t *testing.T) {
	srv := completionServer(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
	})

	svc := newTestService(srv.URL + "/v1")
	_, err := svc.Complete(context.Background(), []models.Message{{Role: models.RoleUser, Content: "Hello"}})
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
	assert.Equal(t, "rate limited", upstream.Message)
}

func TestCompleteTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL + "/v1"
	srv.Close()

	svc := newTestService(baseURL)
	_, err := svc.Complete(context.Background(), []models.Message{{Role: models.RoleUser, Content: "Hello"}})
	require.Error(t, err)

	var network *NetworkError
	assert.ErrorAs(t, err, &network)
}
