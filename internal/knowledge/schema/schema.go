// Package schema loads the knowledge-graph schema: the class hierarchy, the
// entailment rules applied by the derivation pass, the mapping from
// desired-value keys to predicates, and the static base facts. The ruleset
// and predicate naming are configuration, not code.
package schema

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/wbrown/janus-datalog/datalog"
)

// EntailmentPair declares a parent/child relation used by the derivation
// pass: every fact about the child entails the same fact about the parent.
type EntailmentPair struct {
	Child  string `mapstructure:"child"`
	Parent string `mapstructure:"parent"`
}

// FactSpec is one static base fact. Value is interpreted as a keyword when it
// starts with ':', as an entity reference when Ref is set, and as a plain
// string literal otherwise.
type FactSpec struct {
	Entity    string `mapstructure:"entity"`
	Attribute string `mapstructure:"attribute"`
	Value     string `mapstructure:"value"`
	Ref       bool   `mapstructure:"ref"`
}

// Schema is the parsed schema document.
type Schema struct {
	Classes         []string          `mapstructure:"classes"`
	SubclassOf      []EntailmentPair  `mapstructure:"subclass_of"`
	SubpropertyOf   []EntailmentPair  `mapstructure:"subproperty_of"`
	ValueProperties map[string]string `mapstructure:"value_properties"`
	Facts           []FactSpec        `mapstructure:"facts"`
}

// Load reads a schema document from path. A missing or unreadable schema is
// a fatal initialization error for the knowledge base; an empty facts section
// is reported as an error as well, because the base graph must never start
// from nothing.
func Load(path string) (*Schema, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}

	var s Schema
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}

	if len(s.Classes) == 0 {
		return nil, fmt.Errorf("schema %s declares no classes", path)
	}
	if len(s.Facts) == 0 {
		return nil, fmt.Errorf("schema %s declares no base facts", path)
	}
	for key, pred := range s.ValueProperties {
		if !strings.HasPrefix(pred, ":") {
			return nil, fmt.Errorf("schema %s: value property %q must map to a keyword, got %q", path, key, pred)
		}
	}
	return &s, nil
}

// ValuePredicate resolves a desired-value key to its predicate keyword.
// The second return is false when the key has no predicate mapping.
func (s *Schema) ValuePredicate(key string) (datalog.Keyword, bool) {
	pred, ok := s.ValueProperties[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return datalog.Keyword{}, false
	}
	return datalog.NewKeyword(pred), true
}
