package engine

import (
	"fmt"

	"redraft/engine/internal/llm"
	"redraft/engine/internal/tokens"
	"redraft/engine/internal/transform"
)

// contextTokenBudget bounds how much of the document travels with a chat
// prompt. Oversized documents are clipped around an elision marker rather
// than breaking the provider call.
const contextTokenBudget = 2000

const chatSystemPrompt = `You are a writing assistant embedded in a document editor.
The user's current document is provided as context. Answer with a single JSON object and nothing else:
{"action": "chat", "message": "<your reply>"} for conversation, or
{"action": "modify", "message": "<one line describing the change>", "new_content": "<the full updated document>"} when the user asks you to change the document.
Do not wrap the JSON in markdown fences.`

const editSystemPrompt = `You are a text editing assistant. Rewrite the user's text according to the instruction.
Answer with a single JSON object and nothing else:
{"action": "modify", "message": "<one line describing the change>", "new_content": "<the rewritten text>"}.
Do not wrap the JSON in markdown fences.`

func chatBundle(model, message, document string) llm.PromptBundle {
	return llm.PromptBundle{
		System:  chatSystemPrompt,
		User:    message,
		Context: tokens.ClipContext(model, document, contextTokenBudget),
	}
}

func editBundle(intent transform.Intent, text, instruction string) llm.PromptBundle {
	return llm.PromptBundle{
		System: editSystemPrompt,
		User:   fmt.Sprintf("Instruction: %s\n\nText:\n%s", intentInstruction(intent, instruction), text),
	}
}

// intentInstruction renders an intent as the imperative sentence the provider
// is prompted with.
func intentInstruction(intent transform.Intent, custom string) string {
	switch intent {
	case transform.IntentShorten:
		return "Make the text shorter and more concise while keeping the key points."
	case transform.IntentLengthen:
		return "Expand the text with more detail and elaboration."
	case transform.IntentImprove:
		return "Improve the writing, fixing grammar, spelling, and word choice."
	case transform.IntentFormal:
		return "Rewrite the text in a formal, professional tone."
	case transform.IntentCasual:
		return "Rewrite the text in a casual, conversational tone."
	case transform.IntentTable:
		return "Reformat the text as a two-column markdown table."
	case transform.IntentList:
		return "Reformat the text as a bulleted list."
	case transform.IntentSummarize:
		return "Summarize the text in a few sentences."
	case transform.IntentCustom:
		return custom
	default:
		return "Improve the text."
	}
}
