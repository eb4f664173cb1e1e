package service

import (
	"errors"
	"strings"

	"b3-stock-qa/internal/entity"
	"b3-stock-qa/pkg/logger"
)

// ErrNoAnswerColumn is returned for result shapes with no find variables to
// read an answer from, such as pure aggregates.
var ErrNoAnswerColumn = errors.New("query result has no answer column")

// SelectTarget picks the result column to read the answer from. The
// desired-value key of the interpretation drives a rule chain; when no rule
// matches, the first column is used and the fallback is logged.
func SelectTarget(columns []string, intent *entity.Intent, log *logger.Logger) (int, error) {
	if len(columns) == 0 {
		return 0, ErrNoAnswerColumn
	}

	desired := desiredValue(intent)
	if desired == "" {
		return 0, nil
	}

	lowered := make([]string, len(columns))
	for i, c := range columns {
		lowered[i] = strings.ToLower(strings.TrimPrefix(c, "?"))
	}

	// Exact name match.
	for i, c := range lowered {
		if c == desired {
			return i, nil
		}
	}

	// The code and name of an entity live in dedicated variables.
	if strings.Contains(desired, "codigo") {
		if i := firstContaining(lowered, "ticker"); i >= 0 {
			return i, nil
		}
	}
	if strings.Contains(desired, "nome") {
		if i := firstContaining(lowered, "nome"); i >= 0 {
			return i, nil
		}
		if i := firstContaining(lowered, "label"); i >= 0 {
			return i, nil
		}
	}

	// Price keys drop their prefix: preco_fechamento matches ?precoFechamento
	// as well as a plain ?fechamento.
	needle := strings.ReplaceAll(strings.TrimPrefix(desired, "preco_"), "_", "")
	if needle != "" {
		if i := firstContaining(lowered, needle); i >= 0 {
			return i, nil
		}
	}
	if i := firstContaining(lowered, strings.ReplaceAll(desired, "_", "")); i >= 0 {
		return i, nil
	}

	log.Warn("no result column matches desired value, answering from the first column",
		logger.Field("desired", desired), logger.Field("columns", columns))
	return 0, nil
}

func firstContaining(columns []string, needle string) int {
	for i, c := range columns {
		if strings.Contains(c, needle) {
			return i
		}
	}
	return -1
}

func desiredValue(intent *entity.Intent) string {
	if intent == nil {
		return ""
	}
	if v, ok := intent.Placeholders[DesiredValueKey]; ok && v != nil {
		return strings.ToLower(strings.TrimSpace(*v))
	}
	return ""
}
