package transform

import (
	"fmt"
	"math"
	"strings"
)

// Intent identifies one of the supported text rewrites. Intents are chosen
// by the caller and never inferred here, except inside Custom which sniffs
// its free-text instruction.
type Intent string

const (
	IntentShorten   Intent = "shorten"
	IntentLengthen  Intent = "lengthen"
	IntentImprove   Intent = "improve"
	IntentFormal    Intent = "formal"
	IntentCasual    Intent = "casual"
	IntentTable     Intent = "table"
	IntentList      Intent = "list"
	IntentSummarize Intent = "summarize"
	IntentCustom    Intent = "custom"
)

// ParseIntent validates a wire-level intent tag.
func ParseIntent(raw string) (Intent, bool) {
	intent := Intent(strings.ToLower(strings.TrimSpace(raw)))
	switch intent {
	case IntentShorten, IntentLengthen, IntentImprove, IntentFormal,
		IntentCasual, IntentTable, IntentList, IntentSummarize, IntentCustom:
		return intent, true
	}
	return "", false
}

// Apply rewrites text for the given intent. It is total: unknown intents
// and inputs that cannot be sensibly transformed come back unchanged.
func Apply(intent Intent, text, instruction string) string {
	switch intent {
	case IntentShorten:
		return Shorten(text)
	case IntentLengthen:
		return Lengthen(text)
	case IntentImprove:
		return Improve(text)
	case IntentFormal:
		return Formal(text)
	case IntentCasual:
		return Casual(text)
	case IntentTable:
		return Table(text)
	case IntentList:
		return List(text)
	case IntentSummarize:
		return Summarize(text)
	case IntentCustom:
		return Custom(text, instruction)
	default:
		return text
	}
}

// Describe returns the human-readable change description reported alongside
// a transform result.
func Describe(intent Intent) string {
	switch intent {
	case IntentShorten:
		return "Made the text more concise."
	case IntentLengthen:
		return "Expanded the text with additional detail."
	case IntentImprove:
		return "Improved clarity and word choice."
	case IntentFormal:
		return "Adjusted the tone to be more formal."
	case IntentCasual:
		return "Adjusted the tone to be more casual."
	case IntentTable:
		return "Reformatted the text as a table."
	case IntentList:
		return "Reformatted the text as a bulleted list."
	case IntentSummarize:
		return "Summarized the text."
	default:
		return "Applied the requested changes."
	}
}

// Sentences splits text on runs of sentence terminators and drops empty
// fragments. Terminator characters are not retained.
func Sentences(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// Shorten keeps the leading ceil(0.7*N) sentences. One sentence or fewer is
// already as short as it gets.
func Shorten(text string) string {
	sentences := Sentences(text)
	if len(sentences) <= 1 {
		return text
	}
	keep := int(math.Ceil(0.7 * float64(len(sentences))))
	return strings.Join(sentences[:keep], ". ") + "."
}

// Table renders each sentence as a numbered row of a two-column pipe table.
func Table(text string) string {
	sentences := Sentences(text)
	if len(sentences) < 2 {
		return text
	}
	var sb strings.Builder
	sb.WriteString("| Item | Description |\n")
	sb.WriteString("| --- | --- |")
	for i, s := range sentences {
		fmt.Fprintf(&sb, "\n| %d | %s |", i+1, s)
	}
	return sb.String()
}

// List renders each sentence as a bullet line.
func List(text string) string {
	sentences := Sentences(text)
	if len(sentences) < 2 {
		return text
	}
	lines := make([]string, 0, len(sentences))
	for _, s := range sentences {
		lines = append(lines, "- "+s)
	}
	return strings.Join(lines, "\n")
}

const summaryKeyTerms = 5

// Summarize reduces long text to its first sentence plus up to five
// distinctive terms. Text of twenty words or fewer is left alone.
func Summarize(text string) string {
	words := strings.Fields(text)
	if len(words) <= 20 {
		return text
	}
	first := text
	if sentences := Sentences(text); len(sentences) > 0 {
		first = sentences[0]
	}
	var terms []string
	seen := make(map[string]bool)
	for _, word := range words {
		cleaned := strings.Trim(word, ".,!?;:\"'()[]")
		if len(cleaned) <= 5 {
			continue
		}
		key := strings.ToLower(cleaned)
		if seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, cleaned)
		if len(terms) == summaryKeyTerms {
			break
		}
	}
	return fmt.Sprintf("Summary: %s. Key terms: %s.", first, strings.Join(terms, ", "))
}

// Custom sniffs the instruction for tone and length cues and routes to the
// matching rewrite; anything unrecognized gets the general improvement pass.
func Custom(text, instruction string) string {
	lower := strings.ToLower(instruction)
	switch {
	case strings.Contains(lower, "professional"), strings.Contains(lower, "formal"):
		return Formal(text)
	case strings.Contains(lower, "casual"), strings.Contains(lower, "friendly"):
		return Casual(text)
	case strings.Contains(lower, "shorter"), strings.Contains(lower, "concise"):
		return Shorten(text)
	case strings.Contains(lower, "longer"), strings.Contains(lower, "detail"):
		return Lengthen(text)
	default:
		return Improve(text)
	}
}
