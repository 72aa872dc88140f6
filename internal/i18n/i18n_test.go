package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "MissingQuestionOrDocument")
	if got != "Missing question or documentText" {
		t.Errorf("T(MissingQuestionOrDocument) = %q, want 'Missing question or documentText'", got)
	}

	got = T(ctx, "MissingQuestions")
	if got != "Missing questions for evaluation" {
		t.Errorf("T(MissingQuestions) = %q, want 'Missing questions for evaluation'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "MissingDocument")
	if got != "Не указан documentText" {
		t.Errorf("T(MissingDocument) = %q, want 'Не указан documentText'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "UploadTooLarge", map[string]any{"Limit": 1024})
	if got != "File exceeds the upload limit of 1024 bytes" {
		t.Errorf("Td(UploadTooLarge, Limit=1024) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}

	got = TOr(ctx, "NonExistentKey", "fallback")
	if got != "fallback" {
		t.Errorf("TOr(NonExistentKey) = %q, want 'fallback'", got)
	}
}

func TestContextWithoutLocalizerUsesDefault(t *testing.T) {
	initLang(t, "en")

	got := T(context.Background(), "MissingFile")
	if got != "Missing file" {
		t.Errorf("T(MissingFile) = %q, want 'Missing file'", got)
	}
}

func TestMiddlewareAcceptLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", "Missing file"},
		{"russian", "ru-RU,ru;q=0.9", "Файл не загружен"},
		{"unknown", "fr", "Missing file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = T(r.Context(), "MissingFile")
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Accept-Language", tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("T(MissingFile) = %q, want %q", got, tt.want)
			}
		})
	}
}
