package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/pavelanni/docent/internal/llm"
	"github.com/pavelanni/docent/internal/model"
	"github.com/pavelanni/docent/internal/ocr"
)

// fakeCompleter replies with a canned response and records every prompt.
type fakeCompleter struct {
	mu      sync.Mutex
	reply   func(prompt string) string
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) string {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.reply == nil {
		return ""
	}
	return f.reply(prompt)
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func replyWith(s string) *fakeCompleter {
	return &fakeCompleter{reply: func(string) string { return s }}
}

type fakeExtractor struct {
	result ocr.Result
	err    error
}

func (f fakeExtractor) Extract(context.Context, string) (ocr.Result, error) {
	return f.result, f.err
}

func TestSummarize(t *testing.T) {
	fc := replyWith("A short summary.")
	svc := New(fakeExtractor{result: ocr.Result{Text: "Paris is the capital of France.", Warnings: []string{"page 2: blank"}}}, fc, nil)

	res, err := svc.Summarize(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if res.Summary != "A short summary." {
		t.Errorf("Summary = %q", res.Summary)
	}
	if res.DocumentText != "Paris is the capital of France." {
		t.Errorf("DocumentText = %q", res.DocumentText)
	}
	if fc.calls() != 1 || !strings.Contains(fc.prompts[0], "Paris is the capital of France.") {
		t.Errorf("expected one summary prompt embedding the document, got %v", fc.prompts)
	}
}

func TestSummarizeExtractionFailure(t *testing.T) {
	extErr := &model.ExtractionError{Path: "x.pdf", Stage: "render", Err: errors.New("boom")}
	fc := replyWith("unused")
	svc := New(fakeExtractor{err: extErr}, fc, nil)

	_, err := svc.Summarize(context.Background(), "x.pdf")
	var ee *model.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if fc.calls() != 0 {
		t.Errorf("no completion expected after extraction failure, got %d", fc.calls())
	}
}

func TestSummarizeEmptyDocumentStillSummarizes(t *testing.T) {
	fc := replyWith("Nothing to summarize.")
	svc := New(fakeExtractor{result: ocr.Result{Text: ""}}, fc, nil)

	res, err := svc.Summarize(context.Background(), "blank.png")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if res.DocumentText != "" || res.Summary != "Nothing to summarize." {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestAsk(t *testing.T) {
	fc := replyWith("Paris. Source: \"Paris is the capital of France.\"")
	svc := New(nil, fc, nil)

	answer, err := svc.Ask(context.Background(), "What is the capital of France?", "Paris is the capital of France.")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.HasPrefix(answer, "Paris.") {
		t.Errorf("answer = %q", answer)
	}
}

func TestAskMissingInputSkipsCompletion(t *testing.T) {
	tests := []struct {
		name     string
		question string
		doc      string
	}{
		{"empty question", "", "doc"},
		{"empty document", "q?", ""},
		{"whitespace", "  ", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := replyWith("unused")
			svc := New(nil, fc, nil)

			_, err := svc.Ask(context.Background(), tt.question, tt.doc)
			var mi *model.MissingInputError
			if !errors.As(err, &mi) {
				t.Fatalf("expected MissingInputError, got %v", err)
			}
			if mi.MessageID != model.MsgMissingQuestionOrDocument {
				t.Errorf("MessageID = %q", mi.MessageID)
			}
			if fc.calls() != 0 {
				t.Errorf("completion must not be called, got %d calls", fc.calls())
			}
		})
	}
}

func TestAskProviderFailurePassesThrough(t *testing.T) {
	svc := New(nil, replyWith(llm.FailureText), nil)

	answer, err := svc.Ask(context.Background(), "q?", "doc")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != llm.FailureText {
		t.Errorf("answer = %q, want %q", answer, llm.FailureText)
	}
}

func TestChallengeGenerate(t *testing.T) {
	fc := replyWith("Q1: What is the capital?\n\nQ2: Which river?\nQ3: Which country?\n")
	svc := New(nil, fc, nil)

	resp, err := svc.Challenge(context.Background(), model.ChallengeRequest{DocumentText: "Paris is the capital of France."})
	if err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	if resp.Evaluation != nil {
		t.Fatal("generation must not produce an evaluation")
	}
	want := []string{"Q1: What is the capital?", "Q2: Which river?", "Q3: Which country?"}
	got := model.QuestionTexts(resp.Questions)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("questions = %q, want %q", got, want)
	}
	if !strings.Contains(fc.prompts[0], "exactly 3") {
		t.Error("expected a question-generation prompt")
	}
}

func TestChallengeEvaluate(t *testing.T) {
	reply := "\nQ1: What is the capital?\nUser Answer: Paris\nCorrect?: Yes\nCorrect Answer: Paris\nExplanation: Stated directly.\n" +
		"\nQ2: Which river?\nUser Answer: Danube\nCorrect?: No\nCorrect Answer: Seine\nExplanation: The Seine.\n"
	fc := replyWith(reply)
	svc := New(nil, fc, nil)

	req := model.ChallengeRequest{
		DocumentText: "Paris is on the Seine.",
		Questions:    []model.QuestionInput{{Text: "Q1: What is the capital?"}, {ID: "q2", Text: "Q2: Which river?"}},
		Answers:      model.Answers{"q1": "Paris", "q2": "Danube"},
	}
	resp, err := svc.Challenge(context.Background(), req)
	if err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	if resp.Evaluation == nil {
		t.Fatal("expected an evaluation")
	}
	if resp.Evaluation.Score != 50 {
		t.Errorf("Score = %d, want 50", resp.Evaluation.Score)
	}
	fb := resp.Evaluation.FeedbackByKey()
	if !fb["q1"].Correct || fb["q2"].Correct {
		t.Errorf("unexpected feedback %+v", fb)
	}
	if !strings.Contains(fc.prompts[0], "User Answer: Danube") {
		t.Error("evaluation prompt should embed the answers")
	}
}

func TestChallengeMissingInput(t *testing.T) {
	tests := []struct {
		name   string
		req    model.ChallengeRequest
		wantID string
	}{
		{"no document", model.ChallengeRequest{}, model.MsgMissingDocument},
		{"blank document with answers", model.ChallengeRequest{DocumentText: " ", Answers: model.Answers{"q1": "a"}}, model.MsgMissingDocument},
		{"answers without questions", model.ChallengeRequest{DocumentText: "doc", Answers: model.Answers{"q1": "a"}}, model.MsgMissingQuestions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := replyWith("unused")
			svc := New(nil, fc, nil)

			_, err := svc.Challenge(context.Background(), tt.req)
			var mi *model.MissingInputError
			if !errors.As(err, &mi) {
				t.Fatalf("expected MissingInputError, got %v", err)
			}
			if mi.MessageID != tt.wantID {
				t.Errorf("MessageID = %q, want %q", mi.MessageID, tt.wantID)
			}
			if fc.calls() != 0 {
				t.Errorf("completion must not be called, got %d calls", fc.calls())
			}
		})
	}
}

func TestChallengeEvaluateProviderFailure(t *testing.T) {
	svc := New(nil, replyWith(llm.FailureText), nil)

	resp, err := svc.Challenge(context.Background(), model.ChallengeRequest{
		DocumentText: "doc",
		Questions:    []model.QuestionInput{{Text: "Q1: a?"}, {Text: "Q2: b?"}},
		Answers:      model.Answers{"q1": "x"},
	})
	if err != nil {
		t.Fatalf("Challenge: %v", err)
	}
	if resp.Evaluation.Score != 0 || len(resp.Evaluation.Feedback) != 0 {
		t.Errorf("failure text should parse to an empty zero-score result, got %+v", resp.Evaluation)
	}
}
