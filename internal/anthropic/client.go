package anthropic

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

const defaultBaseURL = "https://api.anthropic.com"
const defaultVersion = "2023-06-01"
const defaultMaxTokens = 1024

// Client implements the Anthropic Messages API (minimal v1 support) and
// normalizes replies into canonical turns.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient() *Client {
	transport := egress.NewAllowlistRoundTripper(http.DefaultTransport, []string{"api.anthropic.com"})
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
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", defaultVersion)
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, llm.ErrEgressBlocked) {
			return llm.ErrEgressBlocked
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return llm.ErrUnauthorized
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

// Complete issues one messages call. The system instruction travels in the
// top-level system field, not the message list.
func (c *Client) Complete(ctx context.Context, apiKey, model string, bundle llm.PromptBundle) (llm.Turn, error) {
	anthropicMessages, systemPrompt := toAnthropicMessages(bundle.Messages())
	payload := map[string]any{
		"model":      model,
		"max_tokens": defaultMaxTokens,
		"messages":   anthropicMessages,
	}
	if systemPrompt != "" {
		payload["system"] = systemPrompt
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return llm.Turn{}, err
	}
	respBody, err := c.post(ctx, apiKey, body)
	if err != nil {
		return llm.Turn{}, err
	}
	var response anthropicResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return llm.Turn{}, fmt.Errorf("%w: anthropic: %v", llm.ErrMalformed, err)
	}
	content := extractText(response.Content)
	if strings.TrimSpace(content) == "" {
		return llm.Turn{}, fmt.Errorf("%w: anthropic", llm.ErrEmptyResponse)
	}
	return llm.ParseTurn(content), nil
}

func (c *Client) post(ctx context.Context, apiKey string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", defaultVersion)
	req.Header.Set("content-type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, llm.ErrEgressBlocked) {
			return nil, llm.ErrEgressBlocked
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, llm.ErrUnauthorized
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, llm.ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return nil, llm.ErrUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic error: %s - %s", resp.Status, string(errorBody))
	}
	return io.ReadAll(resp.Body)
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
}

func toAnthropicMessages(messages []llm.Message) ([]anthropicMessage, string) {
	var result []anthropicMessage
	systemParts := make([]string, 0)
	for _, msg := range messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		if role == "system" {
			text := strings.TrimSpace(msg.Content)
			if text != "" {
				systemParts = append(systemParts, text)
			}
			continue
		}
		result = append(result, anthropicMessage{
			Role:    role,
			Content: []anthropicContent{{Type: "text", Text: msg.Content}},
		})
	}
	return result, strings.Join(systemParts, "\n\n")
}

func extractText(contents []anthropicContent) string {
	var buf bytes.Buffer
	for _, item := range contents {
		if item.Type == "text" {
			buf.WriteString(item.Text)
		}
	}
	return buf.String()
}
