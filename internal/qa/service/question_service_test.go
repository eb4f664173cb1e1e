package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"b3-stock-qa/internal/entity"
	"b3-stock-qa/internal/knowledge/ingest"
	"b3-stock-qa/internal/knowledge/kb"
	"b3-stock-qa/internal/knowledge/resolver"
	"b3-stock-qa/internal/knowledge/schema"
	"b3-stock-qa/internal/qa/repository"
	"b3-stock-qa/pkg/logger"
)

type stubIntents struct {
	intent *entity.Intent
	err    error
}

func (s *stubIntents) Interpret(ctx context.Context, question string) (*entity.Intent, error) {
	return s.intent, s.err
}

type stubTemplates struct {
	templates map[string]string
}

func (s *stubTemplates) Get(id string) (string, error) {
	if text, ok := s.templates[id]; ok {
		return text, nil
	}
	return "", repository.ErrTemplateNotFound
}

type tradingRows []entity.TradingRecord

func (r tradingRows) Name() string                             { return "rows" }
func (r tradingRows) Records() ([]entity.TradingRecord, error) { return r, nil }

func questionKB(t *testing.T) (*kb.KnowledgeBase, *resolver.Resolver) {
	t.Helper()
	res, err := resolver.New(resolver.Options{StrictTickers: true}, logger.NewNop())
	require.NoError(t, err)

	sch := &schema.Schema{
		Classes: []string{"Empresa_Capital_Aberto"},
		ValueProperties: map[string]string{
			"preco_fechamento": ":stock/precoFechamento",
		},
		Facts: []schema.FactSpec{
			{Entity: "Ordinaria", Attribute: ":rdfs/label", Value: "Ação Ordinária"},
		},
	}

	closeVal := 38.50
	base := kb.New(sch, res, logger.NewNop())
	require.NoError(t, base.Initialize(nil, []ingest.TradingSource{tradingRows{
		{Line: 2, Ticker: "PETR4", Date: "2010-01-04", Close: &closeVal, ShareClass: "PN"},
	}}))
	return base, res
}

const closingTemplate = `
[:find ?precoFechamento
 :where [?empresa :entity/id #ENTIDADE#]
        [?empresa :stock/temValorMobiliarioNegociado ?vm]
        [?vm :stock/negociado ?neg]
        [?neg :stock/negociadoDurante ?pregao]
        [?pregao :stock/ocorreEmData #DATA#]
        [?neg :stock/precoFechamento ?precoFechamento]]`

func newService(t *testing.T, intents repository.IntentRepository) QuestionService {
	t.Helper()
	base, res := questionKB(t)
	builder := NewQueryBuilder(res, base.Schema(), logger.NewNop())
	templates := &stubTemplates{templates: map[string]string{
		"closing price by date": closingTemplate,
	}}
	return NewQuestionService(intents, templates, builder, base, logger.NewNop())
}

func closingIntent() *entity.Intent {
	return &entity.Intent{
		TemplateID: "closing price by date",
		Placeholders: map[string]*string{
			"#ENTIDADE#":    strPtr("PETR4"),
			"#DATA#":        strPtr("2010-01-04"),
			DesiredValueKey: strPtr("preco_fechamento"),
		},
	}
}

func TestAnswerEndToEnd(t *testing.T) {
	svc := newService(t, &stubIntents{intent: closingIntent()})

	answer, err := svc.Answer(context.Background(), "Qual o preço de fechamento da PETR4 em 2010-01-04?")
	require.NoError(t, err)
	assert.Equal(t, "38.50", answer)
}

func TestAnswerEmptyQuestion(t *testing.T) {
	svc := newService(t, &stubIntents{intent: closingIntent()})

	_, err := svc.Answer(context.Background(), "   ")
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ClassUnderstanding, perr.Class)
}

func TestAnswerUnrecognizedQuestion(t *testing.T) {
	svc := newService(t, &stubIntents{err: repository.ErrIntentUnrecognized})

	_, err := svc.Answer(context.Background(), "what is love?")
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ClassUnderstanding, perr.Class)
}

func TestAnswerIntentInfrastructureFailure(t *testing.T) {
	svc := newService(t, &stubIntents{err: repository.ErrIntentTimeout})

	_, err := svc.Answer(context.Background(), "slow")
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ClassSearch, perr.Class)
}

func TestAnswerUnknownTemplate(t *testing.T) {
	intent := closingIntent()
	intent.TemplateID = "no such template"
	svc := newService(t, &stubIntents{intent: intent})

	_, err := svc.Answer(context.Background(), "q")
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ClassUnsupported, perr.Class)
}

func TestAnswerIncompleteIntent(t *testing.T) {
	intent := closingIntent()
	intent.Placeholders["#DATA#"] = nil
	svc := newService(t, &stubIntents{intent: intent})

	_, err := svc.Answer(context.Background(), "q")
	var perr *PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ClassBuild, perr.Class)
}

func TestAnswerNoMatchesIsStillAnAnswer(t *testing.T) {
	intent := closingIntent()
	intent.Placeholders["#DATA#"] = strPtr("2011-12-25")
	svc := newService(t, &stubIntents{intent: intent})

	answer, err := svc.Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, NoResultsAnswer, answer)
}
