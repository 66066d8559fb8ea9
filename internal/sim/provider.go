package sim

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"redraft/engine/internal/llm"
	"redraft/engine/internal/transform"
)

const minDelay = 1 * time.Second
const maxDelay = 3 * time.Second

const introductionParagraph = "This document explores the ideas that follow, laying out the context a reader needs before diving in."
const conclusionParagraph = "In conclusion, the points above outline a clear path forward, and the next steps follow naturally from them."
const genericParagraph = "Building on the ideas above, there is more to explore here. Expanding each point with concrete examples would strengthen the whole piece."

var cannedResponses = []string{
	"I can help with that. Try selecting a passage and asking me to improve, shorten, or rewrite it.",
	"That's an interesting thought. Would you like me to work it into the document?",
	"I'm here to help you write. Ask me to fix grammar, add a conclusion, or summarize what you have.",
	"Could you tell me a bit more about what you'd like to change?",
	"The draft is taking shape. A clear introduction might help orient the reader.",
	"Consider breaking long sentences into shorter ones for readability.",
	"I can rephrase any part of the document. Just point me at it.",
	"A strong closing sentence can make the whole piece land better.",
	"If you want a different tone, ask me to make the text more formal or more casual.",
	"Happy to help. Describe the edit you have in mind and I'll take a pass.",
}

// Provider is the offline provider. It needs no credentials, emulates
// network latency, and answers chat messages by sniffing intent from the
// message text in fixed priority order.
type Provider struct {
	mu    sync.Mutex
	rng   *rand.Rand
	delay func(ctx context.Context) error
}

type Option func(*Provider)

// WithDelay replaces the artificial latency strategy. Tests pass a no-op.
func WithDelay(delay func(ctx context.Context) error) Option {
	return func(p *Provider) {
		p.delay = delay
	}
}

// WithSeed makes the canned-response sampling deterministic.
func WithSeed(seed int64) Option {
	return func(p *Provider) {
		p.rng = rand.New(rand.NewSource(seed))
	}
}

func New(opts ...Option) *Provider {
	p := &Provider{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	p.delay = p.uniformDelay
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// uniformDelay sleeps between one and three seconds so the caller's
// loading states behave as they would against a real provider.
func (p *Provider) uniformDelay(ctx context.Context) error {
	p.mu.Lock()
	jitter := time.Duration(p.rng.Int63n(int64(maxDelay - minDelay)))
	p.mu.Unlock()
	timer := time.NewTimer(minDelay + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ValidateKey always succeeds: the simulation needs no credential.
func (p *Provider) ValidateKey(ctx context.Context, apiKey string) error {
	return nil
}

// Complete satisfies the provider contract so the simulation can sit at
// the end of the selection chain like any other provider.
func (p *Provider) Complete(ctx context.Context, apiKey, model string, bundle llm.PromptBundle) (llm.Turn, error) {
	return p.Chat(ctx, bundle.User, bundle.Context)
}

// Chat sniffs the message for editing intent. Branches that mutate the
// document return a modify turn carrying the full mutated document;
// everything else is a plain chat turn.
func (p *Provider) Chat(ctx context.Context, message, document string) (llm.Turn, error) {
	if err := p.delay(ctx); err != nil {
		return llm.Turn{}, err
	}
	lower := strings.ToLower(message)
	docEmpty := strings.TrimSpace(document) == ""

	switch {
	case containsAny(lower, "grammar", "spelling", "typo", "improve"):
		if docEmpty {
			return chatTurn("The document is empty. Write something first and I can clean it up."), nil
		}
		edited := transform.Apply(transform.IntentImprove, document, "")
		return modifyTurn("I cleaned up the grammar and spelling.", edited), nil

	case strings.Contains(lower, "add"):
		if docEmpty && !containsAny(lower, "introduction", "intro") {
			return chatTurn("The document is empty. Write something first and I can build on it."), nil
		}
		switch {
		case containsAny(lower, "introduction", "intro"):
			return modifyTurn("I added an introduction.", joinParagraphs(introductionParagraph, document)), nil
		case strings.Contains(lower, "conclusion"):
			return modifyTurn("I added a conclusion.", joinParagraphs(document, conclusionParagraph)), nil
		default:
			return modifyTurn("I added a paragraph to build on your ideas.", joinParagraphs(document, genericParagraph)), nil
		}

	case strings.Contains(lower, "summar"):
		if docEmpty {
			return chatTurn("There's nothing to summarize yet."), nil
		}
		summary := transform.Apply(transform.IntentSummarize, document, "")
		return chatTurn("Here's a summary: " + summary), nil

	case containsAny(lower, "format", "organize", "structure"):
		if docEmpty {
			return chatTurn("The document is empty, so there's nothing to organize yet."), nil
		}
		edited := transform.Apply(transform.IntentList, document, "")
		return modifyTurn("I organized the document into a list.", edited), nil
	}

	p.mu.Lock()
	reply := cannedResponses[p.rng.Intn(len(cannedResponses))]
	p.mu.Unlock()
	return chatTurn(reply), nil
}

// Edit applies the requested transform locally.
func (p *Provider) Edit(ctx context.Context, intent transform.Intent, text, instruction string) (llm.Turn, error) {
	if err := p.delay(ctx); err != nil {
		return llm.Turn{}, err
	}
	edited := transform.Apply(intent, text, instruction)
	return modifyTurn(transform.Describe(intent), edited), nil
}

func chatTurn(message string) llm.Turn {
	return llm.Turn{Action: llm.ActionChat, Message: message}
}

func modifyTurn(message, content string) llm.Turn {
	return llm.Turn{Action: llm.ActionModify, Message: message, NewContent: content}
}

func joinParagraphs(parts ...string) string {
	kept := parts[:0]
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n\n")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
