package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Question is one generated comprehension question. Index is 1-based.
type Question struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Answers maps answer keys of the form "q<index>" to the user's answer text.
type Answers map[string]string

// AnswerKey returns the mapping key for the question at index.
func AnswerKey(index int) string {
	return "q" + strconv.Itoa(index)
}

// For returns the trimmed answer for the question at index, or "" when absent.
func (a Answers) For(index int) string {
	return strings.TrimSpace(a[AnswerKey(index)])
}

// Feedback is the evaluator's verdict on a single answer.
type Feedback struct {
	QuestionIndex int    `json:"-"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation"`
	CorrectAnswer string `json:"correctAnswer"`
}

// ChallengeResult is the scored outcome of a challenge evaluation.
// Feedback is ordered by QuestionIndex.
type ChallengeResult struct {
	Score    int
	Feedback []Feedback
}

// FeedbackByKey returns the feedback keyed by "q<index>".
func (r ChallengeResult) FeedbackByKey() map[string]Feedback {
	out := make(map[string]Feedback, len(r.Feedback))
	for _, f := range r.Feedback {
		out[AnswerKey(f.QuestionIndex)] = f
	}
	return out
}

// QuestionInput is a previously generated question as sent back by a client.
// It accepts either a bare JSON string or an object {"id": "q1", "text": "..."}.
type QuestionInput struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *QuestionInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = QuestionInput{Text: strings.TrimSpace(s)}
		return nil
	}
	type plain QuestionInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*q = QuestionInput(p)
	q.Text = strings.TrimSpace(q.Text)
	return nil
}

// QuestionsFromInput assigns 1-based indices to client questions by position.
func QuestionsFromInput(in []QuestionInput) []Question {
	out := make([]Question, 0, len(in))
	for i, qi := range in {
		out = append(out, Question{Index: i + 1, Text: qi.Text})
	}
	return out
}

// QuestionTexts returns the display text of each question in order.
func QuestionTexts(qs []Question) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Text)
	}
	return out
}
