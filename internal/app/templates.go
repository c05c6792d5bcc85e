package app

import (
	"html/template"

	"quizweb/internal/quiz"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"add":             func(a, b int) int { return a + b },
		"optionLabel":     optionLabel,
		"hasIndex":        hasIndex,
		"statementChoice": statementChoice,
		"statementField":  quiz.StatementField,
		"verdict":         verdict,
	}
}

// optionLabel turns 0, 1, 2 into A, B, C.
func optionLabel(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}

func hasIndex(indices []int, i int) bool {
	for _, v := range indices {
		if v == i {
			return true
		}
	}
	return false
}

// statementChoice returns "yes", "no" or "" for the stored answer to the
// statement at view position i.
func statementChoice(details []quiz.StatementResult, i int) string {
	for _, d := range details {
		if d.Index != i || d.UserAnswer == nil {
			continue
		}
		if *d.UserAnswer {
			return "yes"
		}
		return "no"
	}
	return ""
}

func verdict(isCorrect *bool) string {
	switch {
	case isCorrect == nil:
		return "unanswered"
	case *isCorrect:
		return "correct"
	default:
		return "incorrect"
	}
}
