package hf

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

const defaultBaseURL = "https://api-inference.huggingface.co"
const whoamiURL = "https://huggingface.co/api/whoami-v2"
const defaultMaxNewTokens = 1024

// Client implements a minimal Hugging Face Inference API wrapper. Text
// generation takes a single flattened prompt, not a message list.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient() *Client {
	transport := egress.NewAllowlistRoundTripper(http.DefaultTransport, []string{"api-inference.huggingface.co", "huggingface.co"})
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout:   120 * time.Second,
			Transport: transport,
		},
	}
}

func (c *Client) ValidateKey(ctx context.Context, apiKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, whoamiURL, nil)
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

func (c *Client) Complete(ctx context.Context, apiKey, model string, bundle llm.PromptBundle) (llm.Turn, error) {
	payload := hfRequest{
		Inputs: bundle.Flatten(),
		Parameters: hfParameters{
			MaxNewTokens:   defaultMaxNewTokens,
			ReturnFullText: false,
		},
		Options: hfOptions{WaitForModel: true},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return llm.Turn{}, err
	}
	endpoint := fmt.Sprintf("%s/models/%s", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return llm.Turn{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("content-type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, llm.ErrEgressBlocked) {
			return llm.Turn{}, llm.ErrEgressBlocked
		}
		return llm.Turn{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return llm.Turn{}, llm.ErrUnauthorized
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return llm.Turn{}, llm.ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return llm.Turn{}, llm.ErrUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(resp.Body)
		return llm.Turn{}, fmt.Errorf("huggingface error: %s - %s", resp.Status, string(errorBody))
	}
	var generations []hfGeneration
	if err := json.NewDecoder(resp.Body).Decode(&generations); err != nil {
		return llm.Turn{}, fmt.Errorf("%w: huggingface: %v", llm.ErrMalformed, err)
	}
	if len(generations) == 0 || strings.TrimSpace(generations[0].GeneratedText) == "" {
		return llm.Turn{}, fmt.Errorf("%w: huggingface", llm.ErrEmptyResponse)
	}
	return llm.ParseTurn(generations[0].GeneratedText), nil
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxNewTokens   int  `json:"max_new_tokens"`
	ReturnFullText bool `json:"return_full_text"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}
