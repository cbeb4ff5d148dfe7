package app

import (
	"fmt"
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var (
	traceWhitespace = regexp.MustCompile(`\s+`)
	// Matches two or more adjacent placeholder tuples, as written by bulk upserts.
	traceValueTuples = regexp.MustCompile(`\([^()]*\)(?: ?, ?\([^()]*\))+`)
)

// formatDBQueryForTrace keeps settlement bulk statements readable in spans:
// multi-row VALUES lists collapse to their first tuple plus a row count.
func formatDBQueryForTrace(query string) string {
	query = traceWhitespace.ReplaceAllString(strings.TrimSpace(query), " ")
	query = traceValueTuples.ReplaceAllStringFunc(query, func(tuples string) string {
		first, _, _ := strings.Cut(tuples, ")")
		rows := strings.Count(tuples, ")")
		return fmt.Sprintf("%s), ... /* %d rows */", first, rows)
	})

	if len(query) > maxTracedQueryLength {
		return query[:maxTracedQueryLength] + "..."
	}
	return query
}
