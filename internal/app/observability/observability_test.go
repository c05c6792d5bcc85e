package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizweb/internal/quiz"
)

func TestNormalizedPath(t *testing.T) {
	got := normalizedPath("/api/v1/sessions/current/questions/12/answer")
	want := "/api/v1/sessions/current/questions/{index}/answer"
	if got != want {
		t.Fatalf("normalizedPath mismatch got=%s want=%s", got, want)
	}
}

func TestExtractQuestionIndex(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{path: "/quiz/7", want: 7},
		{path: "/api/v1/sessions/current/questions/3/answer", want: 3},
		{path: "/results", want: 0},
		{path: "/quiz/abc", want: 0},
	}
	for _, tc := range tests {
		if got := extractQuestionIndex(tc.path); got != tc.want {
			t.Fatalf("extractQuestionIndex(%q) = %d, want %d", tc.path, got, tc.want)
		}
	}
}

func TestSessionFingerprintHidesToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/quiz/1", nil)
	if got := sessionFingerprint(req); got != "" {
		t.Fatalf("expected empty fingerprint, got %q", got)
	}
	req.AddCookie(&http.Cookie{Name: quiz.SessionCookieName, Value: "secret-token"})
	got := sessionFingerprint(req)
	if len(got) != 12 || strings.Contains(got, "secret") {
		t.Fatalf("unexpected fingerprint %q", got)
	}
}

func TestMetricsHandlerReportsRequestsAndOutcomes(t *testing.T) {
	c := NewCollector(nil)
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/quiz/2", nil))
	c.RecordOutcome(quiz.FeedbackCorrect)
	c.RecordOutcome(quiz.FeedbackCorrect)
	c.RecordOutcome(quiz.FeedbackNoAnswer)
	c.RecordOutcome("")

	w := httptest.NewRecorder()
	c.MetricsHandler(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	for _, want := range []string{
		`quizweb_http_requests_total{method="POST",path="/quiz/{index}",status="303"} 1`,
		`quizweb_answer_outcomes_total{kind="correct"} 2`,
		`quizweb_answer_outcomes_total{kind="no_answer"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "quizweb_db_open_connections") {
		t.Fatalf("db metrics must be omitted without a db")
	}
}
