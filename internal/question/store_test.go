package question

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func intPtr(v int) *int { return &v }

func writeFile(t *testing.T, name, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write question file: %v", err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "questions.json", `{
  "questions": [
    {"id": 1, "text": " Capital of France? ", "category": "Geo", "options": ["Berlin", "Paris", "Rome"], "answer": 1, "explanation": "Paris."},
    {"id": 2, "text": "Pick primes", "category": "Math", "options": ["2", "3", "4"], "answers": [0, 1], "is_multi": true},
    {"id": 3, "text": "Statements", "category": "Geo", "type": "hotspot_yes_no",
     "statements": [{"text": "Rome is in Italy", "answer": true}, {"text": "Oslo is in Spain", "answer": false}]}
  ]
}`)

	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 questions, got %d", store.Len())
	}
	q, ok := store.ByID(1)
	if !ok {
		t.Fatalf("expected question 1")
	}
	if q.Text != "Capital of France?" {
		t.Fatalf("expected trimmed text, got %q", q.Text)
	}
	if q.Kind() != KindSingle || q.Answer == nil || *q.Answer != 1 {
		t.Fatalf("unexpected single question: %+v", q)
	}
	if q2, _ := store.ByID(2); q2.Kind() != KindMulti {
		t.Fatalf("expected multi kind, got %s", q2.Kind())
	}
	if q3, _ := store.ByID(3); q3.Kind() != KindHotspot || q3.ItemCount() != 2 {
		t.Fatalf("unexpected hotspot question: %+v", q3)
	}
	if got := store.Categories(); len(got) != 2 || got[0] != "Geo" || got[1] != "Math" {
		t.Fatalf("unexpected categories: %v", got)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "questions.yml", `questions:
  - id: 7
    text: "2 + 2?"
    category: Math
    options: ["3", "4"]
    answer: 1
`)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	q, ok := store.ByID(7)
	if !ok || q.Options[1] != "4" {
		t.Fatalf("unexpected question: %+v", q)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "questions.json", `{"questions": [{"id": 1, "text": "x", "options": ["a"], "answer": 0, "colour": "red"}]}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeFile(t, "questions.json", `{"questions": []}`)
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestNormalizeValidation(t *testing.T) {
	tests := []struct {
		name      string
		question  Question
		wantField string
	}{
		{name: "missing id", question: Question{Text: "x", Options: []string{"a"}, Answer: intPtr(0)}, wantField: ".id"},
		{name: "missing text", question: Question{ID: 1, Options: []string{"a"}, Answer: intPtr(0)}, wantField: ".text"},
		{name: "no options", question: Question{ID: 1, Text: "x", Answer: intPtr(0)}, wantField: ".options"},
		{name: "answer out of range", question: Question{ID: 1, Text: "x", Options: []string{"a"}, Answer: intPtr(3)}, wantField: ".answer"},
		{name: "answers without is_multi", question: Question{ID: 1, Text: "x", Options: []string{"a", "b"}, Answers: []int{0, 1}}, wantField: ".answers"},
		{name: "answer with is_multi", question: Question{ID: 1, Text: "x", Options: []string{"a", "b"}, Answer: intPtr(0), IsMulti: true}, wantField: ".answer"},
		{name: "duplicate multi index", question: Question{ID: 1, Text: "x", Options: []string{"a", "b"}, Answers: []int{1, 1}, IsMulti: true}, wantField: ".answers[1]"},
		{name: "hotspot without statements", question: Question{ID: 1, Text: "x", Type: TypeHotspotYesNo}, wantField: ".statements"},
		{name: "hotspot with options", question: Question{ID: 1, Text: "x", Type: TypeHotspotYesNo, Options: []string{"a"}, Statements: []Statement{{Text: "s"}}}, wantField: ".options"},
		{name: "unsupported type", question: Question{ID: 1, Text: "x", Type: "essay"}, wantField: ".type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Normalize([]Question{tc.question})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			found := false
			for _, issue := range verr.Issues {
				if strings.HasSuffix(issue.Field, tc.wantField) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected issue on %s, got %v", tc.wantField, verr.Issues)
			}
		})
	}
}

func TestNormalizeDuplicateIDs(t *testing.T) {
	_, _, err := Normalize([]Question{
		{ID: 1, Text: "a", Options: []string{"x"}, Answer: intPtr(0)},
		{ID: 1, Text: "b", Options: []string{"x"}, Answer: intPtr(0)},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate id 1") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestNormalizeMissingAnswerKeyIsWarning(t *testing.T) {
	out, warnings, err := Normalize([]Question{{ID: 4, Text: "a", Options: []string{"x", "y"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].HasAnswerKey() {
		t.Fatalf("expected one question without answer key, got %+v", out)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := []Question{{ID: 1, Text: "a", Options: []string{"  x  "}, Answer: intPtr(0)}}
	if _, _, err := Normalize(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in[0].Options[0] != "  x  " {
		t.Fatalf("input options were modified: %q", in[0].Options[0])
	}
}

func TestFilter(t *testing.T) {
	store, err := NewStore([]Question{
		{ID: 1, Text: "a", Category: "Geo", Options: []string{"x"}, Answer: intPtr(0)},
		{ID: 2, Text: "b", Category: "Math", Options: []string{"x"}, Answer: intPtr(0)},
		{ID: 3, Text: "c", Category: "geo", Options: []string{"x"}, Answer: intPtr(0)},
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	tests := []struct {
		category string
		want     []int
	}{
		{category: "all", want: []int{1, 2, 3}},
		{category: "Todas", want: []int{1, 2, 3}},
		{category: "", want: []int{1, 2, 3}},
		{category: "Geo", want: []int{1, 3}},
		{category: "Math", want: []int{2}},
		{category: "History", want: []int{}},
	}
	for _, tc := range tests {
		t.Run(tc.category, func(t *testing.T) {
			got := store.Filter(tc.category)
			if len(got) != len(tc.want) {
				t.Fatalf("filter %q: got %v want %v", tc.category, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("filter %q: got %v want %v", tc.category, got, tc.want)
				}
			}
		})
	}
}
