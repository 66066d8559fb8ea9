package transform

import (
	"regexp"
	"strings"
	"unicode"
)

// rule is one compiled word-boundary substitution. Matching is
// case-insensitive; the replacement inherits the capitalization of the
// matched word's first letter.
type rule struct {
	re   *regexp.Regexp
	repl string
}

func compileRules(pairs [][2]string) []rule {
	rules := make([]rule, 0, len(pairs))
	for _, p := range pairs {
		rules = append(rules, rule{
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p[0]) + `\b`),
			repl: p[1],
		})
	}
	return rules
}

func applyRules(text string, rules []rule) string {
	for _, r := range rules {
		text = r.re.ReplaceAllStringFunc(text, func(match string) string {
			return matchCase(match, r.repl)
		})
	}
	return text
}

func matchCase(match, repl string) string {
	if match == "" || repl == "" {
		return repl
	}
	if unicode.IsUpper([]rune(match)[0]) {
		runes := []rune(repl)
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	}
	return repl
}

var intensifierRules = compileRules([][2]string{
	{"good", "excellent and well-executed"},
	{"bad", "problematic and concerning"},
	{"big", "substantial and significant"},
	{"small", "modest and contained"},
	{"important", "critically important"},
	{"interesting", "genuinely compelling"},
	{"this", "this particular aspect"},
})

const lengthenClosing = "In conclusion, these considerations reflect the broader significance of the matter at hand."

// Lengthen pads the text out: intensified vocabulary, connective tissue
// between sentences, and a closing sentence.
func Lengthen(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	result := applyRules(text, intensifierRules)
	result = strings.ReplaceAll(result, ". ", ". Furthermore, ")
	result = strings.TrimRight(result, " ")
	if result != "" && !strings.HasSuffix(result, ".") && !strings.HasSuffix(result, "!") && !strings.HasSuffix(result, "?") {
		result += "."
	}
	return result + " " + lengthenClosing
}

var improveRules = compileRules([][2]string{
	{"teh", "the"},
	{"recieve", "receive"},
	{"definately", "definitely"},
	{"seperate", "separate"},
	{"very good", "excellent"},
	{"very bad", "terrible"},
	{"very big", "enormous"},
	{"very small", "tiny"},
	{"very happy", "delighted"},
	{"very sad", "dejected"},
	{"very important", "crucial"},
	{"very tired", "exhausted"},
	{"a lot of", "numerous"},
	{"things", "aspects"},
	{"thing", "aspect"},
	{"stuff", "material"},
	{"got", "obtained"},
	{"i", "I"},
})

// Improve applies light copyediting: common typo fixes, stronger phrasing
// for weak intensifiers, precise nouns, and sentence capitalization.
func Improve(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	result := applyRules(text, improveRules)
	result = capitalizeSentences(result)
	return normalizeEnding(result)
}

func capitalizeSentences(text string) string {
	runes := []rune(text)
	atStart := true
	for i, r := range runes {
		if atStart && unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			atStart = false
			continue
		}
		switch r {
		case '.', '!', '?':
			atStart = true
		default:
			if atStart && !unicode.IsSpace(r) {
				atStart = false
			}
		}
	}
	return string(runes)
}

func normalizeEnding(text string) string {
	trimmed := strings.TrimRight(text, " \t")
	if trimmed == "" {
		return text
	}
	for strings.HasSuffix(trimmed, "..") {
		trimmed = strings.TrimSuffix(trimmed, ".")
	}
	last := []rune(trimmed)[len([]rune(trimmed))-1]
	if unicode.IsLetter(last) || unicode.IsDigit(last) {
		trimmed += "."
	}
	return trimmed
}

var formalRules = compileRules([][2]string{
	{"can't", "cannot"},
	{"won't", "will not"},
	{"don't", "do not"},
	{"doesn't", "does not"},
	{"didn't", "did not"},
	{"isn't", "is not"},
	{"aren't", "are not"},
	{"wasn't", "was not"},
	{"haven't", "have not"},
	{"couldn't", "could not"},
	{"shouldn't", "should not"},
	{"wouldn't", "would not"},
	{"it's", "it is"},
	{"that's", "that is"},
	{"there's", "there is"},
	{"i'm", "I am"},
	{"you're", "you are"},
	{"we're", "we are"},
	{"they're", "they are"},
	{"gonna", "going to"},
	{"wanna", "want to"},
	{"kinda", "somewhat"},
	{"maybe", "perhaps"},
	{"guys", "individuals"},
	{"kids", "children"},
	{"yeah", "yes"},
	{"thanks", "thank you"},
})

var casualRules = compileRules([][2]string{
	{"cannot", "can't"},
	{"will not", "won't"},
	{"do not", "don't"},
	{"does not", "doesn't"},
	{"did not", "didn't"},
	{"is not", "isn't"},
	{"are not", "aren't"},
	{"was not", "wasn't"},
	{"have not", "haven't"},
	{"could not", "couldn't"},
	{"should not", "shouldn't"},
	{"would not", "wouldn't"},
	{"it is", "it's"},
	{"that is", "that's"},
	{"there is", "there's"},
	{"I am", "I'm"},
	{"you are", "you're"},
	{"we are", "we're"},
	{"they are", "they're"},
	{"going to", "gonna"},
	{"want to", "wanna"},
	{"perhaps", "maybe"},
	{"individuals", "guys"},
	{"children", "kids"},
	{"thank you", "thanks"},
})

// Formal expands contractions and swaps conversational vocabulary for its
// formal counterpart. Applying it to already-formal text changes nothing.
func Formal(text string) string {
	return applyRules(text, formalRules)
}

// Casual is the inverse table: contractions back in, conversational
// vocabulary restored. Idempotent after one application, like Formal.
func Casual(text string) string {
	return applyRules(text, casualRules)
}
