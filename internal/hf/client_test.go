package hf

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"redraft/engine/internal/egress"
	"redraft/engine/internal/llm"
)

type mockRT struct {
	roundTrip func(req *http.Request) (*http.Response, error)
}

func (m *mockRT) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.roundTrip(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestAllowlistRoundTripper(t *testing.T) {
	called := false
	rt := egress.NewAllowlistRoundTripper(&mockRT{
		roundTrip: func(req *http.Request) (*http.Response, error) {
			called = true
			return response(http.StatusOK, "{}"), nil
		},
	}, []string{"api-inference.huggingface.co"})

	req, _ := http.NewRequest(http.MethodPost, "https://api-inference.huggingface.co/models/gpt2", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if !called {
		t.Fatalf("expected allowlisted request to reach base transport")
	}

	blockedReq, _ := http.NewRequest(http.MethodGet, "https://example.com/models/gpt2", nil)
	if _, err := rt.RoundTrip(blockedReq); !errors.Is(err, llm.ErrEgressBlocked) {
		t.Fatalf("expected egress blocked error, got %v", err)
	}
}

func TestValidateKey(t *testing.T) {
	client := &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{Transport: &mockRT{
			roundTrip: func(req *http.Request) (*http.Response, error) {
				if req.URL.Host != "huggingface.co" {
					t.Fatalf("expected whoami host, got %s", req.URL.Host)
				}
				if got := req.Header.Get("Authorization"); got != "Bearer hf-test" {
					t.Fatalf("unexpected authorization header: %q", got)
				}
				return response(http.StatusOK, `{"name":"tester"}`), nil
			},
		}},
	}
	if err := client.ValidateKey(context.Background(), "hf-test"); err != nil {
		t.Fatalf("validate key failed: %v", err)
	}
}

func TestValidateKeyUnauthorized(t *testing.T) {
	client := &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{Transport: &mockRT{
			roundTrip: func(req *http.Request) (*http.Response, error) {
				return response(http.StatusUnauthorized, `{"error":"invalid token"}`), nil
			},
		}},
	}
	if err := client.ValidateKey(context.Background(), "bad"); !errors.Is(err, llm.ErrUnauthorized) {
		t.Fatalf("expected llm.ErrUnauthorized, got %v", err)
	}
}

func TestCompleteSendsFlattenedPrompt(t *testing.T) {
	var payload hfRequest
	client := &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{Transport: &mockRT{
			roundTrip: func(req *http.Request) (*http.Response, error) {
				if req.URL.Path != "/models/mistralai/Mistral-7B-Instruct-v0.3" {
					t.Fatalf("expected model path, got %s", req.URL.Path)
				}
				body, err := io.ReadAll(req.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				if err := json.Unmarshal(body, &payload); err != nil {
					t.Fatalf("unmarshal payload: %v", err)
				}
				return response(http.StatusOK, `[{"generated_text":"Hello there"}]`), nil
			},
		}},
	}
	turn, err := client.Complete(context.Background(), "hf-test", "mistralai/Mistral-7B-Instruct-v0.3", llm.PromptBundle{
		System:  "You are a text assistant.",
		User:    "Say hello",
		Context: "Draft body",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if turn.Message != "Hello there" {
		t.Fatalf("expected message %q, got %q", "Hello there", turn.Message)
	}
	if !strings.Contains(payload.Inputs, "You are a text assistant.") {
		t.Fatalf("expected system prompt in inputs, got %q", payload.Inputs)
	}
	if !strings.Contains(payload.Inputs, "Draft body") {
		t.Fatalf("expected document context in inputs, got %q", payload.Inputs)
	}
	if payload.Parameters.ReturnFullText {
		t.Fatalf("expected return_full_text=false")
	}
}

func TestCompleteParsesModifyTurn(t *testing.T) {
	client := &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{Transport: &mockRT{
			roundTrip: func(req *http.Request) (*http.Response, error) {
				return response(http.StatusOK, `[{"generated_text":"{\"action\":\"modify\",\"message\":\"Done.\",\"newContent\":\"Better text\"}"}]`), nil
			},
		}},
	}
	turn, err := client.Complete(context.Background(), "hf-test", "gpt2", llm.PromptBundle{User: "Fix it"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if turn.Action != llm.ActionModify || turn.NewContent != "Better text" {
		t.Fatalf("unexpected turn: %+v", turn)
	}
}

func TestCompleteEmptyGeneration(t *testing.T) {
	client := &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{Transport: &mockRT{
			roundTrip: func(req *http.Request) (*http.Response, error) {
				return response(http.StatusOK, `[]`), nil
			},
		}},
	}
	_, err := client.Complete(context.Background(), "hf-test", "gpt2", llm.PromptBundle{User: "Hi"})
	if !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestCompleteMalformedEnvelope(t *testing.T) {
	client := &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{Transport: &mockRT{
			roundTrip: func(req *http.Request) (*http.Response, error) {
				return response(http.StatusOK, `{"generated_text":"not an array"}`), nil
			},
		}},
	}
	_, err := client.Complete(context.Background(), "hf-test", "gpt2", llm.PromptBundle{User: "Hi"})
	if !errors.Is(err, llm.ErrMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if llm.Classify(err) != llm.KindDecode {
		t.Fatalf("expected decode kind, got %v", llm.Classify(err))
	}
}

func TestCompleteStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, llm.ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, llm.ErrRateLimited},
		{"model loading", http.StatusServiceUnavailable, llm.ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &Client{
				baseURL: defaultBaseURL,
				client: &http.Client{Transport: &mockRT{
					roundTrip: func(req *http.Request) (*http.Response, error) {
						return response(tc.status, `{"error":"nope"}`), nil
					},
				}},
			}
			_, err := client.Complete(context.Background(), "hf-test", "gpt2", llm.PromptBundle{User: "Hi"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
