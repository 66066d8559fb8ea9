package engine

import (
	"context"
	"fmt"
	"net"
	"strings"

	"redraft/engine/internal/llm"
)

const (
	fakeNetworkMarker   = "[network-error]"
	fakeRateLimitMarker = "[rate-limit]"
	fakeGarbageMarker   = "[garbage]"
)

type fakeNetErr struct{}

func (fakeNetErr) Error() string   { return "network unavailable" }
func (fakeNetErr) Timeout() bool   { return true }
func (fakeNetErr) Temporary() bool { return true }

var _ net.Error = fakeNetErr{}

func newFakeClient(providerID string) LLMClient {
	return &fakeClient{providerID: providerID}
}

// fakeClient stands in for a network provider during development
// (REDRAFT_FAKE_<PROVIDER>). Markers in the user message script failure
// modes.
type fakeClient struct {
	providerID string
}

func (f *fakeClient) ValidateKey(_ context.Context, apiKey string) error {
	if isInvalidKey(apiKey) {
		return llm.ErrUnauthorized
	}
	return nil
}

func (f *fakeClient) Complete(_ context.Context, apiKey, model string, bundle llm.PromptBundle) (llm.Turn, error) {
	if isInvalidKey(apiKey) {
		return llm.Turn{}, llm.ErrUnauthorized
	}
	switch {
	case strings.Contains(bundle.User, fakeNetworkMarker):
		return llm.Turn{}, fakeNetErr{}
	case strings.Contains(bundle.User, fakeRateLimitMarker):
		return llm.Turn{}, fmt.Errorf("%w: scripted", llm.ErrRateLimited)
	case strings.Contains(bundle.User, fakeGarbageMarker):
		return llm.Turn{}, fmt.Errorf("%w: scripted", llm.ErrMalformed)
	}
	if text, ok := editText(bundle.User); ok {
		return llm.Turn{
			Action:     llm.ActionModify,
			Message:    fmt.Sprintf("Fake %s edit.", f.providerID),
			NewContent: strings.ToUpper(text),
		}, nil
	}
	return llm.Turn{
		Action:  llm.ActionChat,
		Message: fmt.Sprintf("Fake %s response: %s", f.providerID, bundle.User),
	}, nil
}

// editText recognizes an edit prompt and extracts its selection, so the fake
// can answer with a visibly transformed modify turn.
func editText(user string) (string, bool) {
	if !strings.HasPrefix(user, "Instruction:") {
		return "", false
	}
	idx := strings.Index(user, "Text:\n")
	if idx < 0 {
		return "", false
	}
	return user[idx+len("Text:\n"):], true
}

func isInvalidKey(key string) bool {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return true
	}
	lower := strings.ToLower(trimmed)
	return strings.Contains(lower, "invalid") || strings.Contains(lower, "bad")
}
