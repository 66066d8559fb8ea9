package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"redraft/engine/internal/egress"
	"redraft/engine/internal/llm"
)

const defaultBaseURL = "https://api.openai.com"

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1024
	maxErrorBodyBytes  = 2048
)

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Client calls the OpenAI chat completions API and normalizes replies into
// canonical turns.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient() *Client {
	transport := egress.NewAllowlistRoundTripper(http.DefaultTransport, []string{"api.openai.com"})
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout:   120 * time.Second,
			Transport: transport,
		},
	}
}

func (c *Client) ValidateKey(ctx context.Context, apiKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, llm.ErrEgressBlocked) {
			return llm.ErrEgressBlocked
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return unauthorizedError(resp, "")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return llm.ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return llm.ErrUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("validation failed: %s", resp.Status)
	}
	return nil
}

// Complete issues one chat completion call. No retries happen here; every
// failure propagates to the orchestrator, which owns the fallback.
func (c *Client) Complete(ctx context.Context, apiKey, model string, bundle llm.PromptBundle) (llm.Turn, error) {
	payload := chatCompletionRequest{
		Model:       model,
		Messages:    toChatMessages(bundle.Messages()),
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return llm.Turn{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return llm.Turn{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, llm.ErrEgressBlocked) {
			return llm.Turn{}, llm.ErrEgressBlocked
		}
		return llm.Turn{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return llm.Turn{}, unauthorizedError(resp, model)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return llm.Turn{}, llm.ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return llm.Turn{}, llm.ErrUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return llm.Turn{}, fmt.Errorf("openai error: %s - %s", resp.Status, readErrorBody(resp))
	}
	var response chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return llm.Turn{}, fmt.Errorf("%w: openai: %v", llm.ErrMalformed, err)
	}
	if len(response.Choices) == 0 {
		return llm.Turn{}, fmt.Errorf("%w: openai", llm.ErrEmptyResponse)
	}
	content := response.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return llm.Turn{}, fmt.Errorf("%w: openai", llm.ErrEmptyResponse)
	}
	return llm.ParseTurn(content), nil
}

func toChatMessages(messages []llm.Message) []chatMessage {
	result := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		result = append(result, chatMessage{Role: msg.Role, Content: msg.Content})
	}
	return result
}

func readErrorBody(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return strings.TrimSpace(string(body))
}

func unauthorizedError(resp *http.Response, model string) error {
	if resp == nil {
		return llm.ErrUnauthorized
	}
	requestID := strings.TrimSpace(resp.Header.Get("x-request-id"))
	return fmt.Errorf(
		"%w: status=%s model=%s request_id=%s body=%q",
		llm.ErrUnauthorized,
		resp.Status,
		strings.TrimSpace(model),
		requestID,
		readErrorBody(resp),
	)
}
