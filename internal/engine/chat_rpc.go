package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"redraft/engine/internal/errinfo"
	"redraft/engine/internal/llm"
	"redraft/engine/internal/transform"
)

func (e *Engine) ChatRespond(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		Message  string `json:"message"`
		Document string `json:"document"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseChat, "invalid params")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, errinfo.ValidationFailed(errinfo.PhaseChat, "message is required")
	}
	opID := uuid.NewString()
	ctx = llm.WithOperationID(ctx, opID)
	e.logger.Info("chat.respond", "op_id", opID, "message_chars", len(req.Message), "document_chars", len(req.Document))
	turn, err := e.respondToChat(ctx, req.Message, req.Document)
	if err != nil {
		return nil, errinfo.NetworkUnavailable(errinfo.PhaseChat, err.Error())
	}
	return turn, nil
}

func (e *Engine) EditSelection(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		Intent            string `json:"intent"`
		Text              string `json:"text"`
		CustomInstruction string `json:"custom_instruction"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseEdit, "invalid params")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, errinfo.ValidationFailed(errinfo.PhaseEdit, "text is required")
	}
	intent, ok := transform.ParseIntent(req.Intent)
	if !ok {
		return nil, errinfo.ValidationFailed(errinfo.PhaseEdit, "unknown intent")
	}
	opID := uuid.NewString()
	ctx = llm.WithOperationID(ctx, opID)
	e.logger.Info("edit.selection", "op_id", opID, "intent", string(intent), "text_chars", len(req.Text))
	result, err := e.applyEdit(ctx, intent, req.Text, req.CustomInstruction)
	if err != nil {
		return nil, errinfo.NetworkUnavailable(errinfo.PhaseEdit, err.Error())
	}
	return result, nil
}

// TransformApply runs an offline transform with no provider round trip. The
// UI uses it for previews and as an explicit "no AI" editing path.
func (e *Engine) TransformApply(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var req struct {
		Intent            string `json:"intent"`
		Text              string `json:"text"`
		CustomInstruction string `json:"custom_instruction"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, errinfo.ValidationFailed(errinfo.PhaseTransform, "invalid params")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, errinfo.ValidationFailed(errinfo.PhaseTransform, "text is required")
	}
	intent, ok := transform.ParseIntent(req.Intent)
	if !ok {
		return nil, errinfo.ValidationFailed(errinfo.PhaseTransform, "unknown intent")
	}
	e.logger.Debug("transform.apply", "intent", string(intent), "text_chars", len(req.Text))
	return e.applyTransform(intent, req.Text, req.CustomInstruction), nil
}
