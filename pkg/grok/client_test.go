package grok

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sdr-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(apiURL string) *Client {
	return NewClient(&config.GrokConfig{
		APIURL:      apiURL,
		APIKey:      "test-key",
		Model:       "grok-3",
		MaxTokens:   512,
		Temperature: 0.2,
		Timeout:     5 * time.Second,
	}, zap.NewNop())
}

func completionsBody(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestCompleteReturnsFirstChoiceContent(t *testing.T) {
	var gotAuth string
	var gotPayload chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionsBody(`{"score": 85}`)))
	}))
	defer server.Close()

	client := testClient(server.URL)
	text, err := client.Complete(context.Background(), "evaluate this lead")
	require.NoError(t, err)
	assert.Equal(t, `{"score": 85}`, text)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "grok-3", gotPayload.Model)
	require.Len(t, gotPayload.Messages, 1)
	assert.Equal(t, "user", gotPayload.Messages[0].Role)
	assert.Equal(t, "evaluate this lead", gotPayload.Messages[0].Content)
}

func TestCompleteMissingAPIKey(t *testing.T) {
	client := testClient("http://localhost:1")
	client.APIKey = ""

	_, err := client.Complete(context.Background(), "prompt")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Contains(t, svcErr.Message, "GROK_API_KEY")
}

func TestCompleteUpstreamStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.Complete(context.Background(), "prompt")

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusTooManyRequests, svcErr.StatusCode)
}

func TestCompleteNetworkError(t *testing.T) {
	// Nothing listens here
	client := testClient("http://127.0.0.1:1")

	_, err := client.Complete(context.Background(), "prompt")
	var svcErr *ServiceError
	assert.ErrorAs(t, err, &svcErr)
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)

	// response-shape failures are not service errors, they are not retryable
	var svcErr *ServiceError
	assert.False(t, errors.As(err, &svcErr))
	assert.Contains(t, err.Error(), "no choices")
}
