package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseTurnStructuredModify(t *testing.T) {
	turn := ParseTurn(`{"action":"modify","message":"Rewrote the intro","newContent":"New intro text"}`)
	if turn.Action != ActionModify {
		t.Fatalf("expected modify action, got %q", turn.Action)
	}
	if turn.Message != "Rewrote the intro" {
		t.Fatalf("expected message, got %q", turn.Message)
	}
	if turn.NewContent != "New intro text" {
		t.Fatalf("expected new content, got %q", turn.NewContent)
	}
}

func TestParseTurnSnakeCaseKeys(t *testing.T) {
	turn := ParseTurn(`{"action":"modify","message":"done","new_content":"rewritten"}`)
	if turn.Action != ActionModify {
		t.Fatalf("expected modify action, got %q", turn.Action)
	}
	if turn.NewContent != "rewritten" {
		t.Fatalf("expected snake_case content, got %q", turn.NewContent)
	}
}

func TestParseTurnFencedJSON(t *testing.T) {
	raw := "```json\n{\"action\":\"chat\",\"message\":\"Hello there\"}\n```"
	turn := ParseTurn(raw)
	if turn.Action != ActionChat {
		t.Fatalf("expected chat action, got %q", turn.Action)
	}
	if turn.Message != "Hello there" {
		t.Fatalf("expected fenced message parsed, got %q", turn.Message)
	}
}

func TestParseTurnPlainProse(t *testing.T) {
	raw := "Sure, here is a better phrasing of that sentence."
	turn := ParseTurn(raw)
	if turn.Action != ActionChat {
		t.Fatalf("expected chat action, got %q", turn.Action)
	}
	if turn.Message != raw {
		t.Fatalf("expected raw text preserved, got %q", turn.Message)
	}
}

func TestParseTurnInvalidJSONFallsBack(t *testing.T) {
	raw := `{"action": "modify", "newContent": truncated`
	turn := ParseTurn(raw)
	if turn.Action != ActionChat {
		t.Fatalf("expected chat fallback, got %q", turn.Action)
	}
	if turn.Message != raw {
		t.Fatalf("expected raw text preserved, got %q", turn.Message)
	}
}

func TestParseTurnContentWithoutAction(t *testing.T) {
	turn := ParseTurn(`{"message":"rewrote it","edited_text":"Better text."}`)
	if turn.Action != ActionModify {
		t.Fatalf("expected modify inferred from content, got %q", turn.Action)
	}
	if turn.NewContent != "Better text." {
		t.Fatalf("expected edited_text content, got %q", turn.NewContent)
	}
}

func TestBundleMessagesIncludesContext(t *testing.T) {
	bundle := PromptBundle{System: "You edit documents.", User: "Fix this.", Context: "The doc."}
	msgs := bundle.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != "You edit documents." {
		t.Fatalf("unexpected system message: %+v", msgs[0])
	}
	if msgs[1].Role != "user" {
		t.Fatalf("expected user role, got %q", msgs[1].Role)
	}
	if want := "Document:\nThe doc.\n\nRequest: Fix this."; msgs[1].Content != want {
		t.Fatalf("expected %q, got %q", want, msgs[1].Content)
	}
}

func TestBundleMessagesWithoutSystemOrContext(t *testing.T) {
	msgs := PromptBundle{User: "Hello"}.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "Hello" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
}

func TestFlattenOrdersSections(t *testing.T) {
	bundle := PromptBundle{System: "sys", User: "user", Context: "ctx"}
	got := bundle.Flatten()
	want := "sys\n\nDocument:\nctx\n\nuser"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestClassifyKinds(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{fmt.Errorf("decode response: %w", ErrMalformed), KindDecode},
		{ErrEmptyResponse, KindDecode},
		{fmt.Errorf("edit call: %w", ErrUnusableTurn), KindLogic},
		{ErrUnauthorized, KindNetwork},
		{ErrRateLimited, KindNetwork},
		{ErrEgressBlocked, KindNetwork},
		{errors.New("connection reset"), KindNetwork},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v): expected %s, got %s", tc.err, tc.want, got)
		}
	}
}
