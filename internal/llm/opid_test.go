package llm

import (
	"context"
	"testing"
)

func TestOperationIDRoundTrip(t *testing.T) {
	ctx := WithOperationID(context.Background(), "op-123")
	id, ok := OperationIDFromContext(ctx)
	if !ok || id != "op-123" {
		t.Fatalf("expected op-123, got %q ok=%v", id, ok)
	}
}

func TestOperationIDAbsent(t *testing.T) {
	if _, ok := OperationIDFromContext(context.Background()); ok {
		t.Fatalf("expected no operation id on a bare context")
	}
	if _, ok := OperationIDFromContext(nil); ok {
		t.Fatalf("expected no operation id on a nil context")
	}
	if _, ok := OperationIDFromContext(WithOperationID(context.Background(), "")); ok {
		t.Fatalf("expected empty id to read as absent")
	}
}
