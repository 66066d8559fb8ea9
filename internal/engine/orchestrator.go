package engine

import (
	"context"
	"fmt"
	"strings"

	"redraft/engine/internal/diff"
	"redraft/engine/internal/llm"
	"redraft/engine/internal/transform"
)

// TransformResult is the caller-facing outcome of an edit. EditedText is
// always usable, whatever happened upstream.
type TransformResult struct {
	OriginalText string `json:"original_text"`
	EditedText   string `json:"edited_text"`
	Intent       string `json:"intent"`
	Message      string `json:"message"`
}

// respondToChat delegates the turn to the active provider and falls back to
// the simulated assistant when the call fails. Provider errors never reach
// the caller; the returned error is context cancellation only.
func (e *Engine) respondToChat(ctx context.Context, message, document string) (llm.Turn, error) {
	sel := e.selectProvider()
	if sel.providerID != ProviderSimulation {
		turn, err := sel.client.Complete(ctx, sel.apiKey, sel.model, chatBundle(sel.model, message, document))
		if err == nil {
			e.recordSuccess(sel.providerID)
			e.logger.Debug("chat.responded", "op_id", operationID(ctx), "provider_id", sel.providerID, "action", string(turn.Action))
			return turn, nil
		}
		e.recordFailure(sel.providerID)
		e.logger.Warn("providers.call_failed",
			"op_id", operationID(ctx),
			"provider_id", sel.providerID,
			"kind", llm.Classify(err).String(),
			"error", err.Error())
	}
	turn, err := e.sim.Chat(ctx, message, document)
	if err != nil {
		return llm.Turn{}, err
	}
	e.recordSuccess(ProviderSimulation)
	return turn, nil
}

// applyEdit rewrites the selection through the active provider, falling back
// to the offline transform rules when the provider fails or returns a turn
// without replacement text.
func (e *Engine) applyEdit(ctx context.Context, intent transform.Intent, text, instruction string) (TransformResult, error) {
	if intent == transform.IntentCustom && strings.TrimSpace(instruction) == "" {
		return TransformResult{
			OriginalText: text,
			EditedText:   text,
			Intent:       string(intent),
			Message:      "No instruction given, so the text was left unchanged.",
		}, nil
	}
	sel := e.selectProvider()
	if sel.providerID == ProviderSimulation {
		turn, err := e.sim.Edit(ctx, intent, text, instruction)
		if err != nil {
			return TransformResult{}, err
		}
		e.recordSuccess(ProviderSimulation)
		return e.editResult(intent, text, turn.NewContent, turn.Message), nil
	}
	turn, err := sel.client.Complete(ctx, sel.apiKey, sel.model, editBundle(intent, text, instruction))
	if err == nil && (turn.Action != llm.ActionModify || strings.TrimSpace(turn.NewContent) == "") {
		err = fmt.Errorf("%w: edit turn carried no replacement text", llm.ErrUnusableTurn)
	}
	if err == nil {
		e.recordSuccess(sel.providerID)
		return e.editResult(intent, text, turn.NewContent, turn.Message), nil
	}
	e.recordFailure(sel.providerID)
	e.logger.Warn("providers.call_failed",
		"op_id", operationID(ctx),
		"provider_id", sel.providerID,
		"kind", llm.Classify(err).String(),
		"error", err.Error())
	edited := transform.Apply(intent, text, instruction)
	return e.editResult(intent, text, edited, transform.Describe(intent)), nil
}

// operationID reads the correlation id minted by the RPC entry point; log
// lines from deeper layers carry it so one operation can be followed through
// the log.
func operationID(ctx context.Context) string {
	id, _ := llm.OperationIDFromContext(ctx)
	return id
}

// applyTransform runs the offline rules directly; no provider is consulted
// and no artificial delay applies.
func (e *Engine) applyTransform(intent transform.Intent, text, instruction string) TransformResult {
	edited := transform.Apply(intent, text, instruction)
	return e.editResult(intent, text, edited, transform.Describe(intent))
}

func (e *Engine) editResult(intent transform.Intent, original, edited, message string) TransformResult {
	if strings.TrimSpace(message) == "" {
		message = transform.Describe(intent)
	}
	return TransformResult{
		OriginalText: original,
		EditedText:   edited,
		Intent:       string(intent),
		Message:      editMessage(message, original, edited),
	}
}

// editMessage appends a line-delta summary when an edit spans multiple lines.
func editMessage(message, before, after string) string {
	if !strings.Contains(before, "\n") && !strings.Contains(after, "\n") {
		return message
	}
	added, removed := diff.Stats(before, after)
	if added == 0 && removed == 0 {
		return message
	}
	return fmt.Sprintf("%s (+%d/-%d lines)", message, added, removed)
}
