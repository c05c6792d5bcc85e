package report

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"quizweb/internal/quiz"
)

func sampleReport() *quiz.Report {
	yes, no := true, false
	return &quiz.Report{
		Items: []quiz.ResultItem{
			{Position: 1, QuestionID: 7, Category: "Geo", Text: "Capital of France?", Options: []string{"Rome", "Paris"}, Selected: []int{1}, Correct: []int{1}, IsCorrect: &yes, Explanation: "Paris."},
			{Position: 2, QuestionID: 3, Category: "Geo", Text: "Statements", Kind: "hotspot",
				Statements: []quiz.StatementView{{Index: 0, Text: "a", Answer: true}, {Index: 1, Text: "b", Answer: false}},
				Details:    []quiz.StatementResult{{Index: 0, UserAnswer: &yes, CorrectAnswer: true, IsCorrect: true}, {Index: 1, CorrectAnswer: false}},
				IsCorrect:  &no},
			{Position: 3, QuestionID: 9, Category: "Math", Text: "Pick primes", Options: []string{"2", "4", "5"}, Correct: []int{0, 2}},
		},
		Score: 1, Total: 3, ScoreOutOf10: 3.33, Percentage: 33.33, Answered: 2, Wrong: 1, Unanswered: 1,
	}
}

func TestExportExcel(t *testing.T) {
	data, err := NewService().ExportExcel(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(resultsSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)

	assert.Equal(t, []string{"no", "question_id", "category", "question", "selected", "correct", "result", "explanation"}, rows[0])
	assert.Equal(t, []string{"1", "7", "Geo", "Capital of France?", "Paris", "Paris", "correct", "Paris."}, rows[1])
	assert.Equal(t, "1:yes; 2:-", rows[2][4])
	assert.Equal(t, "1:yes; 2:no", rows[2][5])
	assert.Equal(t, "incorrect", rows[2][6])
	assert.Equal(t, "2; 5", rows[3][5])
	assert.Equal(t, "unanswered", rows[3][6])

	score, err := f.GetCellValue(resultsSheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "1", score)
	pct, err := f.GetCellValue(resultsSheet, "B9")
	require.NoError(t, err)
	assert.Equal(t, "33.33", pct)
}

func TestExportExcelEmptyReport(t *testing.T) {
	data, err := NewService().ExportExcel(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

type stubResults struct {
	rep *quiz.Report
	err error
}

func (s stubResults) CurrentResults(*http.Request) (*quiz.Report, error) { return s.rep, s.err }

func TestExportResultsHandler(t *testing.T) {
	h := NewHandler(NewService(), stubResults{rep: sampleReport()})
	rr := httptest.NewRecorder()
	h.ExportResults(rr, httptest.NewRequest(http.MethodGet, "/results.xlsx", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "quiz-results-")
	assert.NotZero(t, rr.Body.Len())
}

func TestExportResultsHandlerWithoutSession(t *testing.T) {
	h := NewHandler(NewService(), stubResults{err: quiz.ErrSessionNotFound})
	rr := httptest.NewRecorder()
	h.ExportResults(rr, httptest.NewRequest(http.MethodGet, "/results.xlsx", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	h = NewHandler(NewService(), stubResults{err: errors.New("boom")})
	rr = httptest.NewRecorder()
	h.ExportResults(rr, httptest.NewRequest(http.MethodGet, "/results.xlsx", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
