package service

import (
	"fmt"
	"strings"

	"b3-stock-qa/internal/knowledge/kb"
)

// NoResultsAnswer is the successful answer for a query that matched nothing.
const NoResultsAnswer = "No results found."

// listAnswerCap bounds how many values a list answer prints.
const listAnswerCap = 20

// FormatAnswer renders the target column of a result as answer text.
// Duplicate values collapse while keeping first-seen order.
func FormatAnswer(result *kb.Result, target int, desired string) string {
	var values []string
	seen := make(map[string]struct{})
	for _, row := range result.Rows {
		if target >= len(row) {
			continue
		}
		v := row[target]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}

	switch {
	case len(values) == 0:
		return NoResultsAnswer
	case len(values) == 1:
		return values[0]
	}

	// Ticker answers read naturally on one line; everything else lists.
	column := ""
	if target < len(result.Columns) {
		column = strings.ToLower(result.Columns[target])
	}
	if strings.Contains(desired, "codigo") || strings.Contains(column, "ticker") {
		return strings.Join(values, ", ")
	}

	var b strings.Builder
	shown := values
	if len(shown) > listAnswerCap {
		shown = shown[:listAnswerCap]
	}
	for _, v := range shown {
		b.WriteString("- ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	if rest := len(values) - len(shown); rest > 0 {
		b.WriteString(fmt.Sprintf("... and %d more.", rest))
	}
	return strings.TrimRight(b.String(), "\n")
}
