package prompts

import (
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/docent/internal/model"
)

func longDoc(n int) string {
	return strings.Repeat("a", n-1) + "Z"
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantLen int
	}{
		{"short", "hello", 5},
		{"exact", strings.Repeat("x", MaxDocumentChars), MaxDocumentChars},
		{"long", strings.Repeat("x", MaxDocumentChars+500), MaxDocumentChars},
		{"multibyte", strings.Repeat("é", MaxDocumentChars+1), MaxDocumentChars},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in)
			if n := len([]rune(got)); n != tt.wantLen {
				t.Errorf("Truncate() rune length = %d, want %d", n, tt.wantLen)
			}
			if !strings.HasPrefix(tt.in, got) {
				t.Error("Truncate() must return a prefix of its input")
			}
		})
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	doc := longDoc(MaxDocumentChars + 100)
	prompt, err := BuildSummaryPrompt(doc)
	if err != nil {
		t.Fatalf("BuildSummaryPrompt: %v", err)
	}
	if !strings.Contains(prompt, "no more than 150 words") {
		t.Error("prompt should cap the summary at 150 words")
	}
	if !strings.Contains(prompt, doc[:MaxDocumentChars]) {
		t.Error("prompt should embed the first 8000 characters")
	}
	if strings.Contains(prompt, "aZ") {
		t.Error("prompt should not embed characters past the budget")
	}
}

func TestBuildAnswerPrompt(t *testing.T) {
	doc := "Paris is the capital of France."
	question := "What is the capital of France?"

	prompt, err := BuildAnswerPrompt(question, doc)
	if err != nil {
		t.Fatalf("BuildAnswerPrompt: %v", err)
	}
	if !strings.Contains(prompt, "QUESTION: "+question) {
		t.Error("prompt should contain the full question")
	}
	if !strings.Contains(prompt, "DOCUMENT:\n"+doc) {
		t.Error("prompt should contain the document verbatim")
	}
	if !strings.Contains(prompt, "based only on the document") {
		t.Error("prompt should restrict the answer to the document")
	}
	if !strings.Contains(prompt, "quoting the passage") {
		t.Error("prompt should ask for a cited source")
	}
}

func TestBuildAnswerPromptTruncatesDocumentOnly(t *testing.T) {
	doc := longDoc(MaxDocumentChars * 2)
	question := strings.Repeat("why ", 3000)

	prompt, err := BuildAnswerPrompt(question, doc)
	if err != nil {
		t.Fatalf("BuildAnswerPrompt: %v", err)
	}
	if !strings.Contains(prompt, question) {
		t.Error("question must never be truncated")
	}
	if !strings.Contains(prompt, doc[:MaxDocumentChars]) {
		t.Error("prompt should embed the first 8000 characters")
	}
	if strings.Contains(prompt, doc[:MaxDocumentChars+1]) {
		t.Error("prompt should embed at most 8000 characters of the document")
	}
}

func TestBuildAnswerPromptMissingInput(t *testing.T) {
	tests := []struct {
		name     string
		question string
		doc      string
	}{
		{"empty question", "", "doc"},
		{"blank question", "   ", "doc"},
		{"empty document", "q?", ""},
		{"both empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildAnswerPrompt(tt.question, tt.doc)
			var mi *model.MissingInputError
			if !errors.As(err, &mi) {
				t.Fatalf("expected MissingInputError, got %v", err)
			}
		})
	}
}

func TestBuildQuestionGenPrompt(t *testing.T) {
	prompt, err := BuildQuestionGenPrompt("Some document.")
	if err != nil {
		t.Fatalf("BuildQuestionGenPrompt: %v", err)
	}
	for _, want := range []string{"exactly 3", "Label them Q1, Q2, Q3.", "one question per line", "no extra commentary", "DOCUMENT:\nSome document."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

func TestBuildEvaluationPrompt(t *testing.T) {
	questions := []model.Question{
		{Index: 2, Text: "Q2: Second?"},
		{Index: 1, Text: "Q1: First?"},
		{Index: 3, Text: "Q3: Third?"},
	}
	answers := model.Answers{"q1": " one ", "q2": "two"}

	prompt, err := BuildEvaluationPrompt("The doc.", questions, answers)
	if err != nil {
		t.Fatalf("BuildEvaluationPrompt: %v", err)
	}

	if !strings.Contains(prompt, "Use this format:\n"+EvaluationGrammar+"\n\n") {
		t.Error("prompt should contain the literal response grammar")
	}
	wantBlocks := "\nQ1: Q1: First?\nUser Answer: one\n" +
		"\nQ2: Q2: Second?\nUser Answer: two\n" +
		"\nQ3: Q3: Third?\nUser Answer: \n"
	if !strings.HasSuffix(prompt, wantBlocks) {
		t.Errorf("prompt should end with ordered blocks %q, got tail %q", wantBlocks, prompt[len(prompt)-len(wantBlocks)-20:])
	}
	if questions[0].Index != 2 {
		t.Error("input questions must not be reordered")
	}
}

func TestBuildEvaluationPromptNoQuestions(t *testing.T) {
	prompt, err := BuildEvaluationPrompt("doc", nil, nil)
	if err != nil {
		t.Fatalf("BuildEvaluationPrompt: %v", err)
	}
	if !strings.HasSuffix(prompt, EvaluationGrammar+"\n\n") {
		t.Errorf("prompt without questions should end after the grammar, got %q", prompt)
	}
}

func TestAllBuildersTruncateIdentically(t *testing.T) {
	doc := longDoc(MaxDocumentChars + 1)
	head := doc[:MaxDocumentChars]

	builders := map[string]func() (string, error){
		"summary":  func() (string, error) { return BuildSummaryPrompt(doc) },
		"answer":   func() (string, error) { return BuildAnswerPrompt("q?", doc) },
		"question": func() (string, error) { return BuildQuestionGenPrompt(doc) },
		"evaluate": func() (string, error) {
			return BuildEvaluationPrompt(doc, []model.Question{{Index: 1, Text: "q"}}, nil)
		},
	}
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			prompt, err := build()
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if !strings.Contains(prompt, head) {
				t.Error("prompt should embed the first 8000 characters")
			}
			if strings.Contains(prompt, "aZ") {
				t.Error("prompt should not embed the character past the budget")
			}
		})
	}
}
