package model

// StatusResponse is returned by the liveness endpoint.
type StatusResponse struct {
	Status string `json:"status"`
}

// SummaryResponse is returned after a document upload.
type SummaryResponse struct {
	Summary      string `json:"summary"`
	DocumentText string `json:"documentText"`
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question     string `json:"question"`
	DocumentText string `json:"documentText"`
}

// AskResponse is the body returned by POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// ChallengeRequest is the body of POST /challenge. Answers absent (or empty)
// means "generate questions"; otherwise the questions are evaluated.
type ChallengeRequest struct {
	DocumentText string          `json:"documentText"`
	Answers      Answers         `json:"answers,omitempty"`
	Questions    []QuestionInput `json:"questions,omitempty"`
}

// QuestionsResponse carries freshly generated questions.
type QuestionsResponse struct {
	Questions []string `json:"questions"`
}

// EvaluationResponse carries the score and per-question feedback.
type EvaluationResponse struct {
	Score    int                 `json:"score"`
	Feedback map[string]Feedback `json:"feedback"`
}

// ErrorResponse is the body of every 4xx/5xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
