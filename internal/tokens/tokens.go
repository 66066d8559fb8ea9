package tokens

import (
	"unicode/utf8"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const elisionMarker = "\n\n[... document trimmed ...]\n\n"

// Count returns the token count of s under the model's encoding. Unknown
// models fall back to cl100k_base; if no encoding data is available at
// all, a rough four-characters-per-token estimate is used.
func Count(model, s string) int {
	enc := encodingFor(model)
	if enc == nil {
		return (len(s) + 3) / 4
	}
	return len(enc.Encode(s, nil, nil))
}

// ClipContext fits text into a token budget by keeping the head and tail
// of the document around an elision marker. Text already within budget is
// returned unchanged.
func ClipContext(model, text string, budget int) string {
	if budget <= 0 || text == "" {
		return ""
	}
	enc := encodingFor(model)
	if enc == nil {
		return roughClip(text, budget)
	}
	ids := enc.Encode(text, nil, nil)
	if len(ids) <= budget {
		return text
	}
	markerTokens := len(enc.Encode(elisionMarker, nil, nil))
	usable := budget - markerTokens
	if usable < 2 {
		out := enc.Decode(ids[:budget])
		if !utf8.ValidString(out) {
			return roughClip(text, budget)
		}
		return out
	}
	headTokens := (usable + 1) / 2
	tailTokens := usable - headTokens
	head := enc.Decode(ids[:headTokens])
	tail := enc.Decode(ids[len(ids)-tailTokens:])
	if !utf8.ValidString(head) || !utf8.ValidString(tail) {
		return roughClip(text, budget)
	}
	return head + elisionMarker + tail
}

func encodingFor(model string) *tiktoken.Tiktoken {
	enc, err := tiktoken.EncodingForModel(model)
	if err == nil {
		return enc
	}
	enc, err = tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil
	}
	return enc
}

// roughClip approximates the budget at four characters per token when no
// encoding data can be loaded.
func roughClip(text string, budget int) string {
	runes := []rune(text)
	max := budget * 4
	if len(runes) <= max {
		return text
	}
	headRunes := (max + 1) / 2
	tailRunes := max - headRunes
	return string(runes[:headRunes]) + elisionMarker + string(runes[len(runes)-tailRunes:])
}
