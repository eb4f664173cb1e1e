// Package kb holds the in-memory knowledge base: the base fact graph built
// from the schema and the tabular sources, the inferred view derived from it,
// and the datalog query surface over the union of both.
package kb

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wbrown/janus-datalog/datalog"
	"github.com/wbrown/janus-datalog/datalog/executor"
	"github.com/wbrown/janus-datalog/datalog/parser"
	"github.com/wbrown/janus-datalog/datalog/planner"

	"b3-stock-qa/internal/entity"
	"b3-stock-qa/internal/knowledge/graph"
	"b3-stock-qa/internal/knowledge/inference"
	"b3-stock-qa/internal/knowledge/ingest"
	"b3-stock-qa/internal/knowledge/resolver"
	"b3-stock-qa/internal/knowledge/schema"
	"b3-stock-qa/internal/knowledge/vocab"
	"b3-stock-qa/pkg/logger"
	"b3-stock-qa/pkg/utils"
)

const (
	baseTx    uint64 = 1
	derivedTx uint64 = 2
)

// Result is one executed query: its find variables in declaration order and
// the stringified rows. An empty Rows slice is a successful answer.
// HasPlainVariable is false for aggregate-only find clauses, which have no
// column an answer value can be read from directly.
type Result struct {
	Columns          []string
	Rows             [][]string
	HasPlainVariable bool
}

// KnowledgeBase is safe for concurrent queries once Initialize returns.
// Queries before that fail fast with ErrNotReady.
type KnowledgeBase struct {
	log *logger.Logger
	res *resolver.Resolver
	sch *schema.Schema

	mu     sync.RWMutex
	ready  atomic.Bool
	base   *graph.Graph
	datoms []datalog.Datom
	exec   *executor.Executor
	report entity.IngestReport
}

// New creates an empty, not-yet-ready knowledge base.
func New(sch *schema.Schema, res *resolver.Resolver, log *logger.Logger) *KnowledgeBase {
	return &KnowledgeBase{log: log, res: res, sch: sch}
}

// Schema exposes the schema the base was built from.
func (kb *KnowledgeBase) Schema() *schema.Schema { return kb.sch }

// Ready reports whether Initialize has completed successfully.
func (kb *KnowledgeBase) Ready() bool { return kb.ready.Load() }

// Initialize builds the base graph and the inferred view. Schema facts are
// fatal when broken; tabular sources degrade per-source and per-row, so a
// bad file or a bad line never prevents startup.
func (kb *KnowledgeBase) Initialize(companySources []ingest.CompanySource, tradingSources []ingest.TradingSource) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()

	base := graph.New(baseTx)
	if err := kb.addStaticFacts(base); err != nil {
		return fmt.Errorf("static facts: %w", err)
	}

	ing := ingest.New(kb.res, base, kb.log)
	var report entity.IngestReport
	for _, src := range companySources {
		r, err := ing.IngestCompanies(src)
		report.Merge(r)
		if err != nil {
			kb.log.Error("company source unavailable, continuing without it",
				logger.Field("source", src.Name()), logger.ErrorField(err))
			report.Errors++
		}
	}
	for _, src := range tradingSources {
		r, err := ing.IngestTrading(src)
		report.Merge(r)
		if err != nil {
			kb.log.Error("trading source unavailable, continuing without it",
				logger.Field("source", src.Name()), logger.ErrorField(err))
			report.Errors++
		}
	}

	if base.CountAttribute(vocab.Negociado) == 0 {
		kb.log.Warn("knowledge base has no trade facts, price questions will return empty answers")
	}

	datoms := base.Datoms()
	derived := inference.Derive(datoms, kb.sch, derivedTx)
	if len(derived) == 0 && len(kb.sch.SubclassOf)+len(kb.sch.SubpropertyOf) > 0 {
		kb.log.Warn("schema declares entailment rules but derivation produced no facts",
			logger.Field("base", base.Size()))
	}
	all := make([]datalog.Datom, 0, len(datoms)+len(derived))
	all = append(all, datoms...)
	all = append(all, derived...)

	kb.base = base
	kb.datoms = all
	// Templates anchor several patterns on distinct constants; without
	// dynamic reordering the planner splits them into disjoint groups and
	// refuses the cross-product.
	kb.exec = executor.NewExecutorWithOptions(
		executor.NewMemoryPatternMatcher(all),
		planner.PlannerOptions{EnableDynamicReordering: true},
	)
	kb.report = report
	kb.ready.Store(true)

	kb.log.Info("knowledge base ready",
		logger.Field("base_facts", base.Size()),
		logger.Field("derived_facts", len(derived)),
		logger.Field("rows_processed", report.Processed),
		logger.Field("rows_skipped", report.Skipped),
		logger.Field("row_errors", report.Errors))
	return nil
}

func (kb *KnowledgeBase) addStaticFacts(g *graph.Graph) error {
	for i, f := range kb.sch.Facts {
		if !strings.HasPrefix(f.Attribute, ":") {
			return fmt.Errorf("fact %d: attribute %q is not a keyword", i, f.Attribute)
		}
		if strings.TrimSpace(f.Entity) == "" {
			return fmt.Errorf("fact %d: empty entity", i)
		}
		e := vocab.Node(f.Entity)
		g.Add(e, vocab.EntityID, f.Entity)

		a := datalog.NewKeyword(f.Attribute)
		var v datalog.Value
		switch {
		case f.Ref:
			ref := vocab.Node(f.Value)
			g.Add(ref, vocab.EntityID, f.Value)
			v = ref
		case strings.HasPrefix(f.Value, ":"):
			v = datalog.NewKeyword(f.Value)
		default:
			v = f.Value
		}
		g.Add(e, a, v)
	}
	return nil
}

// Query parses and executes one datalog query over the inferred view.
func (kb *KnowledgeBase) Query(queryText string) (*Result, error) {
	if !kb.ready.Load() {
		return nil, ErrNotReady
	}

	q, err := parser.ParseQuery(queryText)
	if err != nil {
		return nil, &QueryError{Kind: KindSyntax, Query: queryText, Err: err}
	}

	kb.mu.RLock()
	exec := kb.exec
	kb.mu.RUnlock()

	rel, err := exec.Execute(q)
	if err != nil {
		return nil, &QueryError{Kind: KindExecution, Query: queryText, Err: err}
	}

	cols := rel.Columns()
	res := &Result{Columns: make([]string, len(cols))}
	for _, fe := range q.Find {
		if !fe.IsAggregate() {
			res.HasPlainVariable = true
			break
		}
	}
	for i, c := range cols {
		res.Columns[i] = string(c)
	}
	for i := 0; i < rel.Size(); i++ {
		tuple := rel.Get(i)
		row := make([]string, len(tuple))
		for j, v := range tuple {
			row[j] = FormatValue(v)
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// Stats summarizes the built graph for operational surfaces.
type Stats struct {
	BaseFacts    int
	TotalFacts   int
	ClassCounts  map[string]int
	IngestReport entity.IngestReport
}

// Stats returns graph statistics, or zero values when the base is not ready.
func (kb *KnowledgeBase) Stats() Stats {
	if !kb.ready.Load() {
		return Stats{}
	}
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return Stats{
		BaseFacts:    kb.base.Size(),
		TotalFacts:   len(kb.datoms),
		ClassCounts:  kb.base.ClassCounts(),
		IngestReport: kb.report,
	}
}

// FormatValue renders one bound value for an answer. Prices and other
// decimal quantities are monetary figures in the source data, so floats keep
// two decimal places.
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return utils.ISODate(t)
	case datalog.Identity:
		return t.String()
	case datalog.Keyword:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
