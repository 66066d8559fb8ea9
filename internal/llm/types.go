package llm

import (
	"encoding/json"
	"strings"
)

// Message is a single conversational message in canonical form. Provider
// clients translate these into their native wire shapes.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptBundle is the canonical input to every provider call: a system
// instruction, the user's request, and optional document context.
type PromptBundle struct {
	System  string
	User    string
	Context string
}

// Messages renders the bundle as a canonical message list. The document
// context travels inside the user message so providers that lack a separate
// context slot still see it.
func (b PromptBundle) Messages() []Message {
	var msgs []Message
	if strings.TrimSpace(b.System) != "" {
		msgs = append(msgs, Message{Role: "system", Content: b.System})
	}
	user := b.User
	if strings.TrimSpace(b.Context) != "" {
		user = "Document:\n" + b.Context + "\n\nRequest: " + b.User
	}
	msgs = append(msgs, Message{Role: "user", Content: user})
	return msgs
}

// Flatten renders the bundle as one prompt string for providers whose API
// accepts a single input field instead of a message list.
func (b PromptBundle) Flatten() string {
	var sb strings.Builder
	if strings.TrimSpace(b.System) != "" {
		sb.WriteString(b.System)
		sb.WriteString("\n\n")
	}
	if strings.TrimSpace(b.Context) != "" {
		sb.WriteString("Document:\n")
		sb.WriteString(b.Context)
		sb.WriteString("\n\n")
	}
	sb.WriteString(b.User)
	return sb.String()
}

type Action string

const (
	ActionChat   Action = "chat"
	ActionModify Action = "modify"
)

// Turn is the canonical provider result: either a conversational reply or a
// full-document modification.
type Turn struct {
	Action     Action `json:"action"`
	Message    string `json:"message"`
	NewContent string `json:"new_content,omitempty"`
}

type turnEnvelope struct {
	Action      string `json:"action"`
	Message     string `json:"message"`
	Response    string `json:"response"`
	NewContent  string `json:"newContent"`
	NewContent2 string `json:"new_content"`
	EditedText  string `json:"editedText"`
	EditedText2 string `json:"edited_text"`
}

// ParseTurn interprets a provider's primary text field as a structured turn.
// Providers are prompted to answer with a JSON object carrying action,
// message, and newContent; many answer with fenced JSON or plain prose
// instead. Anything that does not decode into a usable turn is wrapped as a
// chat action carrying the raw text. ParseTurn never fails.
func ParseTurn(raw string) Turn {
	trimmed := StripFences(raw)
	if strings.HasPrefix(trimmed, "{") {
		var env turnEnvelope
		if err := json.Unmarshal([]byte(trimmed), &env); err == nil {
			turn := Turn{
				Message:    firstNonEmpty(env.Message, env.Response),
				NewContent: firstNonEmpty(env.NewContent, env.NewContent2, env.EditedText, env.EditedText2),
			}
			switch strings.ToLower(strings.TrimSpace(env.Action)) {
			case string(ActionModify):
				turn.Action = ActionModify
				return turn
			case string(ActionChat):
				turn.Action = ActionChat
				if turn.Message == "" {
					turn.Message = raw
				}
				return turn
			default:
				// Decoded JSON without a recognized action still counts as a
				// modification when it carries replacement content.
				if turn.NewContent != "" {
					turn.Action = ActionModify
					return turn
				}
			}
		}
	}
	return Turn{Action: ActionChat, Message: raw}
}

// StripFences removes a single markdown code fence wrapping the payload,
// tolerating a language tag on the opening fence.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		head := strings.TrimSpace(trimmed[:idx])
		if head == "" || isFenceTag(head) {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func isFenceTag(tag string) bool {
	switch strings.ToLower(tag) {
	case "json", "javascript", "js", "text", "markdown", "md":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
