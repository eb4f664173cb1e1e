package http

import (
	"errors"
	"net/http"

	"b3-stock-qa/internal/knowledge/kb"
	"b3-stock-qa/internal/qa/dto"
	"b3-stock-qa/internal/qa/service"
	"b3-stock-qa/pkg/logger"

	"github.com/labstack/echo/v4"
)

// QuestionHandler handles HTTP requests for questions.
type QuestionHandler struct {
	questionService service.QuestionService
	kb              *kb.KnowledgeBase
	logger          *logger.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService service.QuestionService, base *kb.KnowledgeBase, logger *logger.Logger) *QuestionHandler {
	return &QuestionHandler{questionService: questionService, kb: base, logger: logger}
}

// RegisterRoutes registers the question routes to the Echo group.
func (h *QuestionHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/questions", h.AskQuestion)
}

// RegisterHealth registers the readiness probe on the root Echo instance.
func (h *QuestionHandler) RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

// AskQuestion godoc
// @Summary Answer a natural-language question
// @Description Interpret a question about trading data and answer it from the knowledge base
// @Tags questions
// @Accept  json
// @Produce  json
// @Param   question  body    dto.QuestionRequest   true    "Question to answer"
// @Success 200 {object} dto.AnswerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /questions [post]
func (h *QuestionHandler) AskQuestion(c echo.Context) error {
	var req dto.QuestionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	answer, err := h.questionService.Answer(c.Request().Context(), req.Question)
	if err != nil {
		status, message := classify(err)
		h.logger.Error("question failed", logger.Field("status", status), logger.ErrorField(err))
		return c.JSON(status, dto.ErrorResponse{Error: message})
	}

	return c.JSON(http.StatusOK, dto.AnswerResponse{Answer: answer})
}

// Health godoc
// @Summary Readiness probe
// @Produce  json
// @Success 200 {object} echo.Map
// @Failure 503 {object} dto.ErrorResponse
// @Router /healthz [get]
func (h *QuestionHandler) Health(c echo.Context) error {
	if !h.kb.Ready() {
		return c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "knowledge base is not ready"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func classify(err error) (int, string) {
	var perr *service.PipelineError
	if !errors.As(err, &perr) {
		return http.StatusInternalServerError, "internal error"
	}
	switch perr.Class {
	case service.ClassUnderstanding:
		return http.StatusUnprocessableEntity, "Sorry, I could not understand the question."
	case service.ClassBuild:
		return http.StatusBadRequest, perr.Message
	case service.ClassUnsupported:
		return http.StatusUnprocessableEntity, perr.Message
	default:
		return http.StatusInternalServerError, "The question could not be answered right now."
	}
}
