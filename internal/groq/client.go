package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"redraft/engine/internal/egress"
	"redraft/engine/internal/llm"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"
const defaultTemperature = 0.7
const defaultMaxTokens = 1024

// Client talks to Groq through its OpenAI-compatible endpoint. The SDK
// handles the wire format; we keep the base URL and transport under our
// control so the egress allowlist still applies.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient() *Client {
	transport := egress.NewAllowlistRoundTripper(http.DefaultTransport, []string{"api.groq.com"})
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout:   120 * time.Second,
			Transport: transport,
		},
	}
}

func (c *Client) sdk(apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL
	cfg.HTTPClient = c.httpClient
	return openai.NewClientWithConfig(cfg)
}

func (c *Client) ValidateKey(ctx context.Context, apiKey string) error {
	if _, err := c.sdk(apiKey).ListModels(ctx); err != nil {
		return mapSDKError(err)
	}
	return nil
}

func (c *Client) Complete(ctx context.Context, apiKey, model string, bundle llm.PromptBundle) (llm.Turn, error) {
	resp, err := c.sdk(apiKey).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toChatMessages(bundle.Messages()),
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	})
	if err != nil {
		return llm.Turn{}, mapSDKError(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Turn{}, fmt.Errorf("%w: groq", llm.ErrEmptyResponse)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return llm.Turn{}, fmt.Errorf("%w: groq", llm.ErrEmptyResponse)
	}
	return llm.ParseTurn(content), nil
}

func toChatMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := strings.ToLower(strings.TrimSpace(msg.Role))
		switch role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		default:
			role = openai.ChatMessageRoleUser
		}
		result = append(result, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return result
}

// mapSDKError folds go-openai error types onto the canonical sentinels so
// callers see the same taxonomy as the hand-rolled clients.
func mapSDKError(err error) error {
	if errors.Is(err, llm.ErrEgressBlocked) {
		return llm.ErrEgressBlocked
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			return llm.ErrUnauthorized
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return llm.ErrRateLimited
		case apiErr.HTTPStatusCode >= 500:
			return llm.ErrUnavailable
		}
		return fmt.Errorf("groq error: %d - %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden:
			return llm.ErrUnauthorized
		case reqErr.HTTPStatusCode == http.StatusTooManyRequests:
			return llm.ErrRateLimited
		case reqErr.HTTPStatusCode >= 500:
			return llm.ErrUnavailable
		}
		return fmt.Errorf("groq error: %d", reqErr.HTTPStatusCode)
	}
	return err
}
