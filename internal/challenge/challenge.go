// Package challenge turns free-text completions into challenge questions and
// scored per-question feedback.
//
// Evaluator output is model-generated text with no enforced schema, so parsing
// is liberal: every missing field degrades to a fixed default and a missing
// block is skipped. Nothing in this package rejects malformed model output.
package challenge

import (
	"errors"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/pavelanni/docent/internal/llm/prompts"
	"github.com/pavelanni/docent/internal/model"
)

// Defaults used when an evaluator block lacks a field.
const (
	NoExplanation   = "No explanation found."
	NoCorrectAnswer = "Not provided."
)

// CorrectMarker is the exact, case-sensitive text that marks an answer correct.
const CorrectMarker = "Correct?: Yes"

// ErrNoQuestions is returned when a score is requested for zero questions.
var ErrNoQuestions = errors.New("no questions to score")

var (
	reBlockDelim    = regexp.MustCompile(`\nQ\d+:`)
	reExplanation   = regexp.MustCompile(`(?s)Explanation:\s*(.*)`)
	reCorrectAnswer = regexp.MustCompile(`(?s)Correct Answer:\s*(.*)`)
)

// ParseQuestions splits a question-generation completion into questions, one
// per non-empty line. Lines are kept verbatim after trimming, label included.
func ParseQuestions(raw string) []model.Question {
	var out []model.Question
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, model.Question{Index: len(out) + 1, Text: line})
	}
	if len(out) != prompts.QuestionTarget {
		slog.Debug("question count differs from target", "got", len(out), "target", prompts.QuestionTarget)
	}
	return out
}

// ParseEvaluation parses the evaluator's reply for n questions.
//
// The reply is split on "\nQ<digits>:"; the fragment before the first
// delimiter is preamble and is dropped, fragment i belongs to question i.
// Fragments beyond n are ignored. When the evaluator returned fewer than n
// blocks the missing questions get no feedback entry, but they still count
// in the score denominator.
func ParseEvaluation(raw string, n int) (model.ChallengeResult, error) {
	if n <= 0 {
		return model.ChallengeResult{Feedback: []model.Feedback{}}, ErrNoQuestions
	}

	// A reply that opens directly with "Q1:" has no newline before it.
	fragments := reBlockDelim.Split("\n"+raw, -1)[1:]
	if len(fragments) > n {
		slog.Debug("evaluator returned extra blocks", "blocks", len(fragments), "questions", n)
		fragments = fragments[:n]
	}
	if len(fragments) < n {
		slog.Warn("evaluator returned fewer blocks than questions", "blocks", len(fragments), "questions", n)
	}

	feedback := make([]model.Feedback, 0, len(fragments))
	correct := 0
	for i, frag := range fragments {
		fb := parseBlock(i+1, frag)
		if fb.Correct {
			correct++
		}
		feedback = append(feedback, fb)
	}

	score, err := Score(correct, n)
	if err != nil {
		return model.ChallengeResult{Feedback: feedback}, err
	}
	return model.ChallengeResult{Score: score, Feedback: feedback}, nil
}

func parseBlock(index int, frag string) model.Feedback {
	fb := model.Feedback{
		QuestionIndex: index,
		Correct:       strings.Contains(frag, CorrectMarker),
		Explanation:   firstCapture(reExplanation, frag, NoExplanation),
		CorrectAnswer: firstCapture(reCorrectAnswer, frag, NoCorrectAnswer),
	}
	if fb.Explanation == NoExplanation || fb.CorrectAnswer == NoCorrectAnswer {
		slog.Debug("evaluator block missing fields", "question", index,
			"has_explanation", fb.Explanation != NoExplanation,
			"has_correct_answer", fb.CorrectAnswer != NoCorrectAnswer)
	}
	return fb
}

func firstCapture(re *regexp.Regexp, s, fallback string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return fallback
	}
	return strings.TrimSpace(m[1])
}

// Score returns round(100 * correct / n) with halves rounded to even.
// n <= 0 yields 0 and ErrNoQuestions.
func Score(correct, n int) (int, error) {
	if n <= 0 {
		return 0, ErrNoQuestions
	}
	return int(math.RoundToEven(100 * float64(correct) / float64(n))), nil
}
