package llm

import "context"

type operationIDContextKey struct{}

// WithOperationID tags the context with the id that correlates every log
// line of one chat or edit operation, across the engine and any provider
// call it makes.
func WithOperationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, operationIDContextKey{}, id)
}

// OperationIDFromContext retrieves the operation id, if one was set.
func OperationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(operationIDContextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
