package service

import (
	"context"
	"errors"
	"strings"

	"b3-stock-qa/internal/knowledge/kb"
	"b3-stock-qa/internal/qa/repository"
	"b3-stock-qa/pkg/logger"
)

// QuestionService answers natural-language questions about the knowledge
// base.
type QuestionService interface {
	Answer(ctx context.Context, question string) (string, error)
}

type questionService struct {
	intents   repository.IntentRepository
	templates repository.TemplateRepository
	builder   *QueryBuilder
	kb        *kb.KnowledgeBase
	log       *logger.Logger
}

// NewQuestionService wires the question-answering pipeline: interpret, load
// template, build query, execute, select answer column, format.
func NewQuestionService(
	intents repository.IntentRepository,
	templates repository.TemplateRepository,
	builder *QueryBuilder,
	base *kb.KnowledgeBase,
	log *logger.Logger,
) QuestionService {
	return &questionService{
		intents:   intents,
		templates: templates,
		builder:   builder,
		kb:        base,
		log:       log,
	}
}

func (s *questionService) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", pipelineErr(ClassUnderstanding, "empty question", nil)
	}

	intent, err := s.intents.Interpret(ctx, question)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrIntentUnrecognized),
			errors.Is(err, repository.ErrIntentMalformed):
			return "", pipelineErr(ClassUnderstanding, "could not interpret the question", err)
		default:
			return "", pipelineErr(ClassSearch, "interpretation unavailable", err)
		}
	}
	s.log.Debug("question interpreted",
		logger.Field("template_id", intent.TemplateID),
		logger.Field("placeholders", len(intent.Placeholders)))

	template, err := s.templates.Get(intent.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrTemplateNotFound) {
			return "", pipelineErr(ClassUnsupported, "no answer template for this question", err)
		}
		return "", pipelineErr(ClassSearch, "template unavailable", err)
	}

	queryText, err := s.builder.Build(template, intent)
	if err != nil {
		if errors.Is(err, ErrCodePredicate) {
			return "", pipelineErr(ClassUnsupported, "ticker codes are answered by the ticker question", err)
		}
		return "", pipelineErr(ClassBuild, "could not build a query for the question", err)
	}

	result, err := s.kb.Query(queryText)
	if err != nil {
		var qerr *kb.QueryError
		if errors.As(err, &qerr) && qerr.Kind == kb.KindSyntax {
			// A syntax error here means a broken template, not a bad
			// question; the rendered query goes to the log for repair.
			s.log.Error("rendered query is unreadable",
				logger.Field("template_id", intent.TemplateID),
				logger.Field("query", queryText),
				logger.ErrorField(err))
		}
		return "", pipelineErr(ClassSearch, "knowledge base query failed", err)
	}

	if !result.HasPlainVariable {
		return "", pipelineErr(ClassUnsupported, "question has no answer column", ErrNoAnswerColumn)
	}
	target, err := SelectTarget(result.Columns, intent, s.log)
	if err != nil {
		return "", pipelineErr(ClassUnsupported, "question has no answer column", err)
	}

	answer := FormatAnswer(result, target, desiredValue(intent))
	s.log.Info("question answered",
		logger.Field("template_id", intent.TemplateID),
		logger.Field("rows", len(result.Rows)))
	return answer, nil
}
