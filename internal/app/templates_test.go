package app

import (
	"bytes"
	"html/template"
	"net/url"
	"path/filepath"
	"regexp"
	"testing"

	"quizweb/internal/question"
	"quizweb/internal/quiz"
)

func TestOptionLabel(t *testing.T) {
	if got := optionLabel(0); got != "A" {
		t.Fatalf("expected A, got %s", got)
	}
	if got := optionLabel(3); got != "D" {
		t.Fatalf("expected D, got %s", got)
	}
	if got := optionLabel(-1); got != "?" {
		t.Fatalf("expected ?, got %s", got)
	}
}

func TestStatementChoice(t *testing.T) {
	yes, no := true, false
	details := []quiz.StatementResult{
		{Index: 0, UserAnswer: &yes},
		{Index: 1, UserAnswer: &no},
		{Index: 2},
	}
	tests := []struct {
		index int
		want  string
	}{
		{index: 0, want: "yes"},
		{index: 1, want: "no"},
		{index: 2, want: ""},
		{index: 3, want: ""},
	}
	for _, tc := range tests {
		if got := statementChoice(details, tc.index); got != tc.want {
			t.Fatalf("statementChoice(%d) = %q, want %q", tc.index, got, tc.want)
		}
	}
}

func TestVerdict(t *testing.T) {
	yes, no := true, false
	if verdict(nil) != "unanswered" || verdict(&yes) != "correct" || verdict(&no) != "incorrect" {
		t.Fatalf("unexpected verdict labels")
	}
}

// TestQuizPageHotspotFieldsRoundTrip renders a hotspot page and posts the
// field names it contains back through quiz.ParseForm.
func TestQuizPageHotspotFieldsRoundTrip(t *testing.T) {
	restore := chdirToRepoRoot(t)
	defer restore()

	tmpl := template.Must(template.New("quizweb").Funcs(templateFuncs()).ParseGlob(filepath.Join("web", "templates", "layout", "*.html")))
	template.Must(tmpl.ParseGlob(filepath.Join("web", "templates", "pages", "*.html")))

	q := question.Question{ID: 9, Text: "Judge", Type: question.TypeHotspotYesNo, Statements: []question.Statement{
		{Text: "one", Answer: true}, {Text: "two", Answer: false}, {Text: "three", Answer: true},
	}}
	page := &quiz.Page{Index: 1, Total: 1, View: quiz.ApplyShuffle(q, quiz.Permutation{2, 0, 1}), IsLast: true}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "quiz", map[string]any{"Title": "Question 1", "Page": page}); err != nil {
		t.Fatalf("render quiz: %v", err)
	}

	names := regexp.MustCompile(`name="([^"]+)" value="yes"`).FindAllStringSubmatch(buf.String(), -1)
	if len(names) != 3 {
		t.Fatalf("expected 3 statement rows, got %d:\n%s", len(names), buf.String())
	}
	form := url.Values{}
	for i, m := range names {
		if m[1] != quiz.StatementField(i) {
			t.Fatalf("row %d: expected field %s, got %s", i, quiz.StatementField(i), m[1])
		}
		form.Set(m[1], "yes")
	}
	sub, ok := quiz.ParseForm(question.KindHotspot, form).(quiz.Hotspot)
	if !ok || len(sub.Choices) != 3 {
		t.Fatalf("expected 3 parsed choices, got %#v", sub)
	}
}
