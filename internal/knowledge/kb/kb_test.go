package kb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"b3-stock-qa/internal/entity"
	"b3-stock-qa/internal/knowledge/ingest"
	"b3-stock-qa/internal/knowledge/resolver"
	"b3-stock-qa/internal/knowledge/schema"
	"b3-stock-qa/pkg/logger"
)

type stubTradingSource struct {
	records []entity.TradingRecord
}

func (s *stubTradingSource) Name() string                             { return "stub-trading" }
func (s *stubTradingSource) Records() ([]entity.TradingRecord, error) { return s.records, nil }

type stubCompanySource struct {
	companies []entity.CompanyRecord
}

func (s *stubCompanySource) Name() string                               { return "stub-companies" }
func (s *stubCompanySource) Companies() ([]entity.CompanyRecord, error) { return s.companies, nil }

func f(v float64) *float64 { return &v }
func i(v int64) *int64     { return &v }

func testSchema() *schema.Schema {
	return &schema.Schema{
		Classes: []string{"Empresa", "Empresa_Capital_Aberto", "Valor_Mobiliario", "Valor_Mobiliario_Negociado"},
		SubclassOf: []schema.EntailmentPair{
			{Child: "Empresa_Capital_Aberto", Parent: "Empresa"},
			{Child: "Valor_Mobiliario_Negociado", Parent: "Valor_Mobiliario"},
		},
		SubpropertyOf: []schema.EntailmentPair{
			{Child: ":stock/temValorMobiliarioNegociado", Parent: ":stock/temValorMobiliario"},
		},
		ValueProperties: map[string]string{
			"preco_fechamento": ":stock/precoFechamento",
			"volume":           ":stock/volumeNegociacao",
		},
		Facts: []schema.FactSpec{
			{Entity: "Ordinaria", Attribute: ":rdfs/label", Value: "Ação Ordinária"},
		},
	}
}

func readyKB(t *testing.T) *KnowledgeBase {
	t.Helper()
	res, err := resolver.New(resolver.Options{StrictTickers: true}, logger.NewNop())
	require.NoError(t, err)

	base := New(testSchema(), res, logger.NewNop())
	err = base.Initialize(
		[]ingest.CompanySource{&stubCompanySource{companies: []entity.CompanyRecord{
			{Line: 2, Name: "Petróleo Brasileiro S.A.", Ticker: "PETR4", Sector: "Petróleo, Gás e Biocombustíveis"},
		}}},
		[]ingest.TradingSource{&stubTradingSource{records: []entity.TradingRecord{
			{
				Line: 2, Ticker: "PETR4", Date: "2010-01-04",
				Open: f(37.15), High: f(38.60), Low: f(37.02),
				Average: f(37.91), Close: f(38.50),
				Trades: i(21544), Volume: f(913688012.00),
				ShareClass: "PN",
			},
		}}},
	)
	require.NoError(t, err)
	return base
}

func TestQueryBeforeInitializeFailsFast(t *testing.T) {
	res, err := resolver.New(resolver.Options{}, logger.NewNop())
	require.NoError(t, err)
	base := New(testSchema(), res, logger.NewNop())

	_, err = base.Query(`[:find ?x :where [?x :rdf/type :stock/Empresa]]`)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestClosingPriceRoundTrip(t *testing.T) {
	base := readyKB(t)

	result, err := base.Query(`
	[:find ?preco
	 :where [?empresa :entity/id "PETR4"]
	        [?empresa :stock/temValorMobiliarioNegociado ?vm]
	        [?vm :stock/negociado ?neg]
	        [?neg :stock/negociadoDurante ?pregao]
	        [?pregao :stock/ocorreEmData "2010-01-04"]
	        [?neg :stock/precoFechamento ?preco]]`)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "38.50", result.Rows[0][0])
}

func TestDerivedPropertyIsQueryable(t *testing.T) {
	base := readyKB(t)

	// temValorMobiliario is never asserted directly; only its subproperty is.
	result, err := base.Query(`
	[:find ?id
	 :where [?empresa :entity/id "PETR4"]
	        [?empresa :stock/temValorMobiliario ?vm]
	        [?vm :entity/id ?id]]`)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "PETR4_Preferencial", result.Rows[0][0])
}

func TestEmptyResultIsSuccess(t *testing.T) {
	base := readyKB(t)

	result, err := base.Query(`
	[:find ?preco
	 :where [?empresa :entity/id "VALE3"]
	        [?empresa :stock/temValorMobiliarioNegociado ?vm]
	        [?vm :stock/negociado ?neg]
	        [?neg :stock/precoFechamento ?preco]]`)
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
}

func TestAggregateOnlyFindHasNoPlainVariable(t *testing.T) {
	base := readyKB(t)

	result, err := base.Query(`
	[:find (count ?e)
	 :where [?e :rdf/type :stock/Empresa_Capital_Aberto]]`)
	require.NoError(t, err)
	assert.False(t, result.HasPlainVariable)

	plain, err := base.Query(`[:find ?e :where [?e :rdf/type :stock/Empresa_Capital_Aberto]]`)
	require.NoError(t, err)
	assert.True(t, plain.HasPlainVariable)
}

func TestSyntaxErrorIsClassified(t *testing.T) {
	base := readyKB(t)

	_, err := base.Query(`[:find ?x :where [?x`)
	require.Error(t, err)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, KindSyntax, qerr.Kind)
	assert.Contains(t, qerr.Query, ":find ?x")
}

func TestInitializeSurvivesBrokenSource(t *testing.T) {
	res, err := resolver.New(resolver.Options{StrictTickers: true}, logger.NewNop())
	require.NoError(t, err)
	base := New(testSchema(), res, logger.NewNop())

	err = base.Initialize(
		[]ingest.CompanySource{&ingest.CSVCompanySource{Path: "/nonexistent/companies.csv"}},
		nil,
	)
	require.NoError(t, err, "a missing tabular source must not prevent startup")
	assert.True(t, base.Ready())
}

func TestStats(t *testing.T) {
	base := readyKB(t)

	stats := base.Stats()
	assert.Greater(t, stats.BaseFacts, 0)
	assert.Greater(t, stats.TotalFacts, stats.BaseFacts, "derivation must add facts")
	assert.Equal(t, 2, stats.IngestReport.Processed)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "38.50", FormatValue(38.5))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "hello", FormatValue("hello"))
	assert.Equal(t, "2010-01-04", FormatValue(time.Date(2010, 1, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatValue(nil))
}
