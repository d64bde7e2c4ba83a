// Package patch applies the search/replace diffs the agent emits for
// edit_file tool calls.
package patch

import "strings"

// Hunk is a single search/replace instruction.
type Hunk struct {
	Search  string `json:"search"`
	Replace string `json:"replace"`
}

// Diff is an ordered list of hunks. Order matters: each hunk runs against
// the content as left by the hunks before it, so hunks do not commute.
type Diff struct {
	Hunks []Hunk `json:"hunks"`
}

// Apply runs each hunk in order, replacing the first occurrence of its
// search text. A hunk whose search text is absent is skipped; this is
// purely textual, with no conflict detection.
func Apply(content string, d Diff) string {
	for _, hunk := range d.Hunks {
		content = strings.Replace(content, hunk.Search, hunk.Replace, 1)
	}
	return content
}
