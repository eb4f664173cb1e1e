package dto

// QuestionRequest is the body of POST /api/v1/questions.
type QuestionRequest struct {
	Question string `json:"question"`
}

// AnswerResponse carries the rendered answer text.
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}
