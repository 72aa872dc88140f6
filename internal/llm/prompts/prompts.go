// Package prompts builds the prompts sent to the completion gateway for each
// interaction mode. All builders are pure: they read their inputs and return
// a new string.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/docent/internal/model"
)

const (
	// MaxDocumentChars is the number of leading characters of the document
	// embedded in every prompt.
	MaxDocumentChars = 8000
	// QuestionTarget is how many questions the generator is asked for.
	QuestionTarget = 3
	// SummaryMaxWords caps the requested summary length.
	SummaryMaxWords = 150
)

// EvaluationGrammar is the per-question response format the evaluator must follow.
const EvaluationGrammar = `Q<n>: <question>
User Answer: <user's answer>
Correct?: Yes|No
Correct Answer: <correct answer if any>
Explanation: <why correct or incorrect>`

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	loadOnce  sync.Once
	loadErr   error
	templates *template.Template
)

func load() error {
	loadOnce.Do(func() {
		templates, loadErr = template.ParseFS(templateFS, "templates/*.tmpl")
		if loadErr != nil {
			loadErr = fmt.Errorf("parse prompt templates: %w", loadErr)
		}
	})
	return loadErr
}

func render(name string, data any) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Truncate returns the first MaxDocumentChars characters of doc.
func Truncate(doc string) string {
	if utf8.RuneCountInString(doc) <= MaxDocumentChars {
		return doc
	}
	return string([]rune(doc)[:MaxDocumentChars])
}

// BuildSummaryPrompt asks for a short factual summary of the document.
func BuildSummaryPrompt(doc string) (string, error) {
	return render("summary.tmpl", struct {
		MaxWords int
		Document string
	}{SummaryMaxWords, Truncate(doc)})
}

// BuildAnswerPrompt asks for an answer grounded in the document, with a
// quoted source. Both inputs are required.
func BuildAnswerPrompt(question, doc string) (string, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(doc) == "" {
		return "", model.NewMissingInput("question", model.MsgMissingQuestionOrDocument, "Missing question or documentText")
	}
	return render("answer.tmpl", struct {
		Question string
		Document string
	}{question, Truncate(doc)})
}

// BuildQuestionGenPrompt asks for QuestionTarget labeled questions, one per line.
func BuildQuestionGenPrompt(doc string) (string, error) {
	labels := make([]string, QuestionTarget)
	for i := range labels {
		labels[i] = fmt.Sprintf("Q%d", i+1)
	}
	return render("questions.tmpl", struct {
		Count    int
		Labels   string
		Document string
	}{QuestionTarget, strings.Join(labels, ", "), Truncate(doc)})
}

type evalBlock struct {
	Index    int
	Question string
	Answer   string
}

// BuildEvaluationPrompt asks the evaluator to grade each answer using
// EvaluationGrammar. Questions are emitted in index order; a question with no
// entry in answers gets an empty "User Answer:" line.
func BuildEvaluationPrompt(doc string, questions []model.Question, answers model.Answers) (string, error) {
	ordered := make([]model.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	blocks := make([]evalBlock, 0, len(ordered))
	for _, q := range ordered {
		blocks = append(blocks, evalBlock{
			Index:    q.Index,
			Question: strings.TrimSpace(q.Text),
			Answer:   answers.For(q.Index),
		})
	}
	return render("evaluate.tmpl", struct {
		Document string
		Grammar  string
		Blocks   []evalBlock
	}{Truncate(doc), EvaluationGrammar, blocks})
}
