package tokens

import (
	"strings"
	"testing"
)

func TestCountNonEmpty(t *testing.T) {
	if got := Count("gpt-4o-mini", "hello world"); got <= 0 {
		t.Fatalf("expected positive count, got %d", got)
	}
	if got := Count("gpt-4o-mini", ""); got != 0 {
		t.Fatalf("expected zero count for empty string, got %d", got)
	}
}

func TestClipContextWithinBudgetUnchanged(t *testing.T) {
	text := "A short document."
	if got := ClipContext("gpt-4o-mini", text, 100); got != text {
		t.Fatalf("expected unchanged text, got %q", got)
	}
}

func TestClipContextKeepsHeadAndTail(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	got := ClipContext("gpt-4o-mini", text, 40)
	if got == text {
		t.Fatalf("expected clipped text")
	}
	if len(got) >= len(text) {
		t.Fatalf("expected clipped text to be shorter: %d vs %d", len(got), len(text))
	}
	if !strings.Contains(got, elisionMarker) {
		t.Fatalf("expected elision marker in clipped text")
	}
	if !strings.HasPrefix(text, got[:10]) {
		t.Fatalf("expected clipped head to come from the document head")
	}
	if !strings.HasSuffix(text, got[len(got)-10:]) {
		t.Fatalf("expected clipped tail to come from the document tail")
	}
}

func TestClipContextZeroBudget(t *testing.T) {
	if got := ClipContext("gpt-4o-mini", "anything", 0); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func TestRoughClip(t *testing.T) {
	text := strings.Repeat("abcd", 100)
	got := roughClip(text, 10)
	if !strings.Contains(got, elisionMarker) {
		t.Fatalf("expected elision marker, got %q", got)
	}
	if got == text {
		t.Fatalf("expected clipped text")
	}
}
