package grok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"sdr-service/pkg/config"

	"go.uber.org/zap"
)

// Client calls the xAI chat-completions API. The upstream is treated as an
// untrusted black box: a single attempt per call, no retries.
type Client struct {
	APIURL      string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// ServiceError indicates the model API could not be reached or replied with a
// non-success status. The caller may retry; the server does not.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("grok API returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("error contacting grok API: %s", e.Message)
}

// chatRequest is the OpenAI-compatible chat completions payload
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the subset of the completions response we read
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

var defaultClient *Client

// Initialize sets up the package-level client from configuration
func Initialize(cfg *config.GrokConfig, logger *zap.Logger) {
	defaultClient = NewClient(cfg, logger)
}

// GetClient returns the package-level client instance
func GetClient() *Client {
	return defaultClient
}

// NewClient creates a new Grok API client
func NewClient(cfg *config.GrokConfig, logger *zap.Logger) *Client {
	return &Client{
		APIURL:      cfg.APIURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		Logger:      logger,
	}
}

// Complete sends a single-user-message chat completion request and returns
// the text content of the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", &ServiceError{Message: "GROK_API_KEY is not configured"}
	}

	c.Logger.Info("Calling grok API",
		zap.Int("prompt_length", len(prompt)),
		zap.String("model", c.Model),
		zap.Int("max_tokens", c.MaxTokens))

	payload := chatRequest{
		Model:       c.Model,
		Messages:    []message{{Role: "user", Content: prompt}},
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("Grok API request failed", zap.Error(err))
		return "", &ServiceError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Logger.Error("Failed to read grok API response", zap.Error(err))
		return "", &ServiceError{Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		c.Logger.Error("Grok API error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(respBody)))
		return "", &ServiceError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		c.Logger.Error("Unexpected grok response format", zap.Error(err))
		return "", fmt.Errorf("unexpected grok response format: %w", err)
	}

	if len(parsed.Choices) == 0 {
		c.Logger.Error("Grok response contains no choices")
		return "", fmt.Errorf("unexpected grok response format: no choices")
	}

	text := parsed.Choices[0].Message.Content
	c.Logger.Info("Grok API response received",
		zap.Int("status", resp.StatusCode),
		zap.Int("text_length", len(text)))

	return text, nil
}
