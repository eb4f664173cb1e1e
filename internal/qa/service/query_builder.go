package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"b3-stock-qa/internal/entity"
	"b3-stock-qa/internal/knowledge/resolver"
	"b3-stock-qa/internal/knowledge/schema"
	"b3-stock-qa/internal/knowledge/vocab"
	"b3-stock-qa/pkg/logger"
	"b3-stock-qa/pkg/utils"
)

// DesiredValueKey is the placeholder key that names the quantity the user
// asked for. It selects both the value predicate in the template and the
// answer column of the result.
const DesiredValueKey = "#VALOR_DESEJADO"

// PlaceholderKind decides how a placeholder value is rendered into query
// text. The set is closed; interpretations carrying a key outside the
// registry are rejected rather than guessed at.
type PlaceholderKind int

const (
	KindDate PlaceholderKind = iota
	KindEntityRef
	KindEntityLabel
	KindSector
	KindShareClass
	KindDesiredValue
)

var placeholderKinds = map[string]PlaceholderKind{
	"#DATA#":          KindDate,
	"#ENTIDADE#":      KindEntityRef,
	"#ENTIDADE_NOME#": KindEntityLabel,
	"#SETOR#":         KindSector,
	"#TIPO_ACAO#":     KindShareClass,
	DesiredValueKey:   KindDesiredValue,
}

var (
	ErrUnknownPlaceholder  = errors.New("unknown placeholder key")
	ErrMissingPlaceholder  = errors.New("placeholder has no value")
	ErrUnresolvedEntity    = errors.New("entity could not be resolved")
	ErrUnknownDesiredValue = errors.New("desired value has no predicate")
	// ErrCodePredicate rejects interpretations that ask for the ticker code
	// through a value predicate; codes are entities, not literal values, and
	// have their own template.
	ErrCodePredicate = errors.New("ticker code is not a value predicate")
	ErrUnsubstituted = errors.New("template placeholder left unsubstituted")
)

var leftoverPattern = regexp.MustCompile(`#\w+#`)

// QueryBuilder renders a query template into executable query text by
// substituting the interpretation's placeholder values.
type QueryBuilder struct {
	res *resolver.Resolver
	sch *schema.Schema
	log *logger.Logger
}

// NewQueryBuilder creates a QueryBuilder over the given resolver and schema.
func NewQueryBuilder(res *resolver.Resolver, sch *schema.Schema, log *logger.Logger) *QueryBuilder {
	return &QueryBuilder{res: res, sch: sch, log: log}
}

// Build substitutes every placeholder of the interpretation into the
// template. Keys whose token does not occur in the template are validated
// but otherwise ignored; the desired-value key in particular often only
// steers answer-column selection. After substitution any surviving
// placeholder token fails the build, so a half-rendered query never reaches
// the engine.
func (b *QueryBuilder) Build(template string, intent *entity.Intent) (string, error) {
	queryText := template

	for key, valPtr := range intent.Placeholders {
		kind, ok := placeholderKinds[key]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownPlaceholder, key)
		}

		token := key
		if !strings.HasSuffix(token, "#") {
			token += "#"
		}
		if !strings.Contains(queryText, token) {
			continue
		}

		if valPtr == nil || strings.TrimSpace(*valPtr) == "" {
			return "", fmt.Errorf("%w: %q", ErrMissingPlaceholder, key)
		}

		rendered, err := b.render(kind, *valPtr)
		if err != nil {
			return "", fmt.Errorf("placeholder %q: %w", key, err)
		}
		queryText = strings.ReplaceAll(queryText, token, rendered)
	}

	if leftover := leftoverPattern.FindString(queryText); leftover != "" {
		return "", fmt.Errorf("%w: %q", ErrUnsubstituted, leftover)
	}
	return queryText, nil
}

func (b *QueryBuilder) render(kind PlaceholderKind, value string) (string, error) {
	switch kind {
	case KindDate:
		date, err := b.res.ResolveDate(value)
		if err != nil {
			return "", err
		}
		return quote(utils.ISODate(date)), nil

	case KindEntityRef:
		upper := strings.ToUpper(strings.TrimSpace(value))
		if b.res.ValidTicker(upper) {
			return quote(b.res.SanitizeID(upper)), nil
		}
		// Unknown aliases degrade to the sanitized identifier; the
		// resolver logs the miss as a data-quality event.
		id, _ := b.res.ResolveCompany(value)
		return quote(id), nil

	case KindEntityLabel:
		return quote(strings.TrimSpace(value)), nil

	case KindSector:
		return quote(b.res.SanitizeID(value)), nil

	case KindShareClass:
		return shareClassKeyword(value)

	case KindDesiredValue:
		key := strings.ToLower(strings.TrimSpace(value))
		if strings.Contains(key, "codigo") || strings.Contains(key, "ticker") {
			return "", ErrCodePredicate
		}
		pred, ok := b.sch.ValuePredicate(key)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownDesiredValue, value)
		}
		return pred.String(), nil
	}
	return "", fmt.Errorf("unhandled placeholder kind %d", kind)
}

func shareClassKeyword(value string) (string, error) {
	switch v := strings.ToUpper(strings.TrimSpace(value)); {
	case v == "ON" || strings.HasPrefix(v, "ORD"):
		return vocab.ClassOrdinaria.String(), nil
	case strings.HasPrefix(v, "PN") || strings.HasPrefix(v, "PREF"):
		return vocab.ClassPreferencial.String(), nil
	default:
		return "", fmt.Errorf("%w: share class %q", ErrUnresolvedEntity, value)
	}
}

// quote renders a string literal for query text.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
