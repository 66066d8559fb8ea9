// Package diff computes line-level change statistics between two versions of
// a document.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Stats reports how many lines a change adds and removes, for the compact
// (+n/-m lines) summaries in edit messages and store logs.
func Stats(before, after string) (added, removed int) {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	for _, d := range dmp.DiffCharsToLines(diffs, lineArray) {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += countLines(d.Text)
		}
	}
	return added, removed
}

func countLines(chunk string) int {
	lines := strings.Split(chunk, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return len(lines)
}
