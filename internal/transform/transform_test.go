package transform

import (
	"strings"
	"testing"
)

func TestApplyIsTotal(t *testing.T) {
	intents := []Intent{
		IntentShorten, IntentLengthen, IntentImprove, IntentFormal,
		IntentCasual, IntentTable, IntentList, IntentSummarize,
		IntentCustom, Intent("unknown"),
	}
	inputs := []string{"", "   ", "one.", "no terminator", "a. b! c? d."}
	for _, intent := range intents {
		for _, input := range inputs {
			got := Apply(intent, input, "")
			_ = got
		}
	}
	if got := Apply(Intent("bogus"), "keep me", ""); got != "keep me" {
		t.Fatalf("expected unknown intent to return input, got %q", got)
	}
}

func TestShortenSingleSentenceUnchanged(t *testing.T) {
	input := "Just the one sentence here."
	if got := Shorten(input); got != input {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestShortenKeepsSeventyPercent(t *testing.T) {
	input := "The meeting went well. We discussed the budget. Everyone agreed to the plan. Next steps were assigned."
	got := Shorten(input)
	sentences := Sentences(got)
	if len(sentences) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %q", len(sentences), got)
	}
	want := "The meeting went well. We discussed the budget. Everyone agreed to the plan."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestShortenTwoSentences(t *testing.T) {
	got := Shorten("First point. Second point.")
	if sentences := Sentences(got); len(sentences) != 2 {
		t.Fatalf("expected ceil(0.7*2)=2 sentences, got %d: %q", len(sentences), got)
	}
}

func TestTableFewSentencesUnchanged(t *testing.T) {
	input := "Only one sentence."
	if got := Table(input); got != input {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestTableRowCount(t *testing.T) {
	got := Table("First item here. Second item there. Third item everywhere.")
	lines := strings.Split(got, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 2 header rows + 3 data rows, got %d lines: %q", len(lines), got)
	}
	if lines[0] != "| Item | Description |" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "| --- | --- |" {
		t.Fatalf("unexpected separator: %q", lines[1])
	}
	if lines[2] != "| 1 | First item here |" {
		t.Fatalf("unexpected first row: %q", lines[2])
	}
	if lines[4] != "| 3 | Third item everywhere |" {
		t.Fatalf("unexpected last row: %q", lines[4])
	}
}

func TestListBulletsPerSentence(t *testing.T) {
	got := List("Alpha first. Beta second. Gamma third.")
	want := "- Alpha first\n- Beta second\n- Gamma third"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestListSingleSentenceUnchanged(t *testing.T) {
	input := "Nothing to enumerate here."
	if got := List(input); got != input {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestSummarizeShortTextUnchanged(t *testing.T) {
	input := "Short enough to keep as is."
	if got := Summarize(input); got != input {
		t.Fatalf("expected unchanged, got %q", got)
	}
}

func TestSummarizeLongText(t *testing.T) {
	input := "The quarterly engineering review covered infrastructure spending and reliability targets. " +
		"Several teams presented migration proposals for the storage platform. " +
		"Leadership requested consolidated estimates before approving additional headcount."
	got := Summarize(input)
	if !strings.HasPrefix(got, "Summary: The quarterly engineering review covered infrastructure spending and reliability targets.") {
		t.Fatalf("expected first sentence as summary, got %q", got)
	}
	if !strings.Contains(got, "Key terms: ") {
		t.Fatalf("expected key terms section, got %q", got)
	}
	terms := got[strings.Index(got, "Key terms: ")+len("Key terms: "):]
	terms = strings.TrimSuffix(terms, ".")
	parts := strings.Split(terms, ", ")
	if len(parts) == 0 || len(parts) > 5 {
		t.Fatalf("expected between 1 and 5 key terms, got %d: %q", len(parts), terms)
	}
	for _, term := range parts {
		if len(term) <= 5 {
			t.Fatalf("key term %q not longer than 5 chars", term)
		}
	}
}

func TestFormalExpandsContractions(t *testing.T) {
	got := Formal("We can't ship this, maybe the guys don't agree.")
	want := "We cannot ship this, perhaps the individuals do not agree."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormalIdempotent(t *testing.T) {
	input := "I can't believe it's done, maybe thanks to you guys."
	once := Formal(input)
	twice := Formal(once)
	if once != twice {
		t.Fatalf("expected fixed point after one application, got %q then %q", once, twice)
	}
}

func TestCasualIdempotent(t *testing.T) {
	input := "We cannot proceed and it is perhaps unwise, thank you."
	once := Casual(input)
	twice := Casual(once)
	if once != twice {
		t.Fatalf("expected fixed point after one application, got %q then %q", once, twice)
	}
}

func TestCasualInvertsFormal(t *testing.T) {
	got := Casual("We cannot accept that it is late, perhaps the individuals disagree.")
	want := "We can't accept that it's late, maybe the guys disagree."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormalPreservesCapitalization(t *testing.T) {
	got := Formal("Maybe we should wait. Can't hurt.")
	want := "Perhaps we should wait. Cannot hurt."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestImproveFixesGrammarAndTypos(t *testing.T) {
	got := Improve("i think teh cat is nice.")
	if !strings.Contains(got, "I think the cat is nice.") {
		t.Fatalf("expected grammar fixes, got %q", got)
	}
}

func TestImproveStrengthensIntensifiers(t *testing.T) {
	got := Improve("The launch was very good and we got a lot of things done.")
	if !strings.Contains(got, "excellent") {
		t.Fatalf("expected very good replaced, got %q", got)
	}
	if strings.Contains(got, "a lot of") || strings.Contains(got, "got ") {
		t.Fatalf("expected generic phrasing replaced, got %q", got)
	}
	if !strings.Contains(got, "numerous aspects") {
		t.Fatalf("expected precise nouns, got %q", got)
	}
}

func TestImproveCapitalizesSentences(t *testing.T) {
	got := Improve("first point here. second point there.")
	want := "First point here. Second point there."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLengthenAddsConnectivesAndClosing(t *testing.T) {
	got := Lengthen("The plan is good. We start this week.")
	if !strings.Contains(got, "excellent and well-executed") {
		t.Fatalf("expected intensified vocabulary, got %q", got)
	}
	if !strings.Contains(got, ". Furthermore, ") {
		t.Fatalf("expected connective insertion, got %q", got)
	}
	if !strings.HasSuffix(got, lengthenClosing) {
		t.Fatalf("expected closing sentence, got %q", got)
	}
}

func TestLengthenReplacesStandaloneThis(t *testing.T) {
	got := Lengthen("We should review this before launch.")
	if !strings.Contains(got, "this particular aspect") {
		t.Fatalf("expected standalone this replaced, got %q", got)
	}
}

func TestCustomRoutesOnKeywords(t *testing.T) {
	text := "We can't delay. The team is ready. Launch is close. Everyone knows the plan."
	cases := []struct {
		instruction string
		probe       func(string) bool
	}{
		{"make it more professional", func(s string) bool { return strings.Contains(s, "cannot") }},
		{"keep it casual and light", func(s string) bool { return strings.Contains(s, "can't") }},
		{"make this shorter please", func(s string) bool { return len(Sentences(s)) == 3 }},
		{"add more detail", func(s string) bool { return strings.Contains(s, "Furthermore") }},
		{"", func(s string) bool { return s == Improve(text) }},
	}
	for _, tc := range cases {
		got := Custom(text, tc.instruction)
		if !tc.probe(got) {
			t.Fatalf("instruction %q produced unexpected result %q", tc.instruction, got)
		}
	}
}

func TestParseIntent(t *testing.T) {
	if intent, ok := ParseIntent(" Shorten "); !ok || intent != IntentShorten {
		t.Fatalf("expected shorten, got %q ok=%v", intent, ok)
	}
	if _, ok := ParseIntent("translate"); ok {
		t.Fatalf("expected unknown intent to be rejected")
	}
}

func TestDescribeCoversAllIntents(t *testing.T) {
	for _, intent := range []Intent{
		IntentShorten, IntentLengthen, IntentImprove, IntentFormal,
		IntentCasual, IntentTable, IntentList, IntentSummarize, IntentCustom,
	} {
		if Describe(intent) == "" {
			t.Fatalf("expected description for %q", intent)
		}
	}
}
