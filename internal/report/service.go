package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"quizweb/internal/quiz"
)

const resultsSheet = "Results"

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// ExportExcel writes one row per question followed by the score summary.
func (s *Service) ExportExcel(rep *quiz.Report) ([]byte, error) {
	if rep == nil {
		rep = &quiz.Report{}
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"no", "question_id", "category", "question", "selected", "correct", "result", "explanation"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(resultsSheet, cell, h)
	}
	for i, it := range rep.Items {
		row := i + 2
		values := []any{
			it.Position,
			it.QuestionID,
			it.Category,
			it.Text,
			selectedText(it),
			correctText(it),
			resultText(it.IsCorrect),
			it.Explanation,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(resultsSheet, cell, v)
		}
	}

	row := len(rep.Items) + 3
	summary := [][2]any{
		{"score", rep.Score},
		{"total", rep.Total},
		{"score_out_of_10", rep.ScoreOutOf10},
		{"percentage", rep.Percentage},
		{"answered", rep.Answered},
		{"wrong", rep.Wrong},
		{"unanswered", rep.Unanswered},
	}
	for i, kv := range summary {
		_ = f.SetCellValue(resultsSheet, "A"+strconv.Itoa(row+i), kv[0])
		_ = f.SetCellValue(resultsSheet, "B"+strconv.Itoa(row+i), kv[1])
	}
	_ = f.SetColWidth(resultsSheet, "A", "C", 14)
	_ = f.SetColWidth(resultsSheet, "D", "H", 40)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func selectedText(it quiz.ResultItem) string {
	if len(it.Details) > 0 {
		parts := make([]string, 0, len(it.Details))
		for _, d := range it.Details {
			answer := "-"
			if d.UserAnswer != nil {
				answer = yesNo(*d.UserAnswer)
			}
			parts = append(parts, fmt.Sprintf("%d:%s", d.Index+1, answer))
		}
		return strings.Join(parts, "; ")
	}
	return optionsText(it.Options, it.Selected)
}

func correctText(it quiz.ResultItem) string {
	if len(it.Statements) > 0 {
		parts := make([]string, 0, len(it.Statements))
		for _, st := range it.Statements {
			parts = append(parts, fmt.Sprintf("%d:%s", st.Index+1, yesNo(st.Answer)))
		}
		return strings.Join(parts, "; ")
	}
	return optionsText(it.Options, it.Correct)
}

func optionsText(options []string, indices []int) string {
	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(options) {
			parts = append(parts, options[i])
		}
	}
	return strings.Join(parts, "; ")
}

func resultText(isCorrect *bool) string {
	switch {
	case isCorrect == nil:
		return "unanswered"
	case *isCorrect:
		return "correct"
	default:
		return "incorrect"
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
