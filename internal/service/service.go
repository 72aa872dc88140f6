// Package service composes extraction, prompt building, completion and
// challenge parsing into the three user-facing operations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/pavelanni/docent/internal/challenge"
	"github.com/pavelanni/docent/internal/llm"
	"github.com/pavelanni/docent/internal/llm/prompts"
	"github.com/pavelanni/docent/internal/logtext"
	"github.com/pavelanni/docent/internal/model"
	"github.com/pavelanni/docent/internal/ocr"
)

// Extractor turns an uploaded file into document text.
type Extractor interface {
	Extract(ctx context.Context, path string) (ocr.Result, error)
}

// Service is stateless across calls and safe for concurrent use.
type Service struct {
	extractor Extractor
	llm       llm.Completer
	logger    *slog.Logger
}

// New creates a Service.
func New(x Extractor, c llm.Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{extractor: x, llm: c, logger: logger}
}

// SummaryResult is the outcome of Summarize.
type SummaryResult struct {
	Summary      string
	DocumentText string
}

// ChallengeResponse holds either freshly generated questions or an evaluation.
type ChallengeResponse struct {
	Questions  []model.Question
	Evaluation *model.ChallengeResult
}

// Summarize extracts the text of the file at path and summarizes it.
func (s *Service) Summarize(ctx context.Context, path string) (SummaryResult, error) {
	res, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return SummaryResult{}, err
	}
	for _, w := range res.Warnings {
		s.logger.Warn("extraction warning", "path", path, "warning", w)
	}

	prompt, err := prompts.BuildSummaryPrompt(res.Text)
	if err != nil {
		return SummaryResult{}, err
	}
	summary := s.llm.Complete(ctx, prompt)
	return SummaryResult{Summary: summary, DocumentText: res.Text}, nil
}

// Ask answers question from the document. Both inputs are required; nothing
// is sent to the completion provider when either is missing.
func (s *Service) Ask(ctx context.Context, question, documentText string) (string, error) {
	prompt, err := prompts.BuildAnswerPrompt(question, documentText)
	if err != nil {
		return "", err
	}
	return s.llm.Complete(ctx, prompt), nil
}

// Challenge generates questions when no answers are supplied, and evaluates
// the answers against the supplied questions otherwise.
func (s *Service) Challenge(ctx context.Context, req model.ChallengeRequest) (ChallengeResponse, error) {
	if strings.TrimSpace(req.DocumentText) == "" {
		return ChallengeResponse{}, model.NewMissingInput("documentText", model.MsgMissingDocument, "Missing documentText")
	}

	if len(req.Answers) == 0 {
		qs, err := s.generateQuestions(ctx, req.DocumentText)
		if err != nil {
			return ChallengeResponse{}, err
		}
		return ChallengeResponse{Questions: qs}, nil
	}

	if len(req.Questions) == 0 {
		return ChallengeResponse{}, model.NewMissingInput("questions", model.MsgMissingQuestions, "Missing questions for evaluation")
	}
	result, err := s.evaluate(ctx, req.DocumentText, model.QuestionsFromInput(req.Questions), req.Answers)
	if err != nil {
		return ChallengeResponse{}, err
	}
	return ChallengeResponse{Evaluation: &result}, nil
}

func (s *Service) generateQuestions(ctx context.Context, doc string) ([]model.Question, error) {
	prompt, err := prompts.BuildQuestionGenPrompt(doc)
	if err != nil {
		return nil, err
	}
	qs := challenge.ParseQuestions(s.llm.Complete(ctx, prompt))
	s.logger.Info("generated questions", "count", len(qs))
	return qs, nil
}

func (s *Service) evaluate(ctx context.Context, doc string, qs []model.Question, answers model.Answers) (model.ChallengeResult, error) {
	prompt, err := prompts.BuildEvaluationPrompt(doc, qs, answers)
	if err != nil {
		return model.ChallengeResult{}, err
	}
	raw := s.llm.Complete(ctx, prompt)
	s.logger.Debug("evaluation response", "raw", logtext.Truncate(raw, logtext.ResponseLimit))

	result, err := challenge.ParseEvaluation(raw, len(qs))
	if errors.Is(err, challenge.ErrNoQuestions) {
		return model.ChallengeResult{}, model.NewMissingInput("questions", model.MsgMissingQuestions, "Missing questions for evaluation")
	}
	if err != nil {
		return model.ChallengeResult{}, err
	}
	s.logger.Info("evaluated answers", "questions", len(qs), "blocks", len(result.Feedback), "score", result.Score)
	return result, nil
}
