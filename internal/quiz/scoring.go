package quiz

import (
	"sort"

	"quizweb/internal/question"
)

const (
	ReasonCorrect      = "correct"
	ReasonWrong        = "wrong"
	ReasonPartial      = "partial"
	ReasonUnanswered   = "unanswered"
	ReasonMalformedKey = "malformed_answer_key"
	ReasonMalformed    = "malformed_payload"
)

type StatementResult struct {
	Index         int   `json:"index"`
	UserAnswer    *bool `json:"user_answer,omitempty"`
	CorrectAnswer bool  `json:"correct_answer"`
	IsCorrect     bool  `json:"is_correct"`
}

// Outcome is the result of evaluating one submission. IsCorrect is nil for
// the two indeterminate reasons: unanswered and malformed answer key.
type Outcome struct {
	Answered     bool              `json:"answered"`
	IsCorrect    *bool             `json:"is_correct,omitempty"`
	Reason       string            `json:"reason"`
	Selected     []int             `json:"selected,omitempty"`
	Correct      []int             `json:"correct,omitempty"`
	Breakdown    []StatementResult `json:"breakdown,omitempty"`
	CorrectCount int               `json:"correct_count"`
}

// Determinate reports whether the outcome carries a correctness verdict that
// may change the session score.
func (o Outcome) Determinate() bool {
	return o.IsCorrect != nil
}

// Passed reports a determinate correct verdict.
func (o Outcome) Passed() bool {
	return o.IsCorrect != nil && *o.IsCorrect
}

// CorrectSpec is the answer key of a standard question in view coordinates.
type CorrectSpec struct {
	Index   *int
	Indices []int
}

type HotspotResult struct {
	Details      []StatementResult `json:"details"`
	AllCorrect   bool              `json:"all_correct"`
	CorrectCount int               `json:"correct_count"`
}

// Evaluate checks sub against the answer key of v.
func Evaluate(v View, sub Submission) Outcome {
	switch v.Kind {
	case question.KindHotspot:
		if sub == nil {
			return Outcome{Reason: ReasonUnanswered}
		}
		hs, ok := sub.(Hotspot)
		if !ok {
			return Outcome{Answered: true, IsCorrect: boolPtr(false), Reason: ReasonMalformed}
		}
		if len(v.Statements) == 0 {
			return Outcome{Answered: true, Reason: ReasonMalformedKey}
		}
		if len(hs.Choices) == 0 {
			return Outcome{Reason: ReasonUnanswered}
		}
		res := EvaluateHotspot(hs.Choices, v.statementKeys())
		reason := ReasonPartial
		if res.AllCorrect {
			reason = ReasonCorrect
		} else if res.CorrectCount == 0 {
			reason = ReasonWrong
		}
		return Outcome{
			Answered:     true,
			IsCorrect:    boolPtr(res.AllCorrect),
			Reason:       reason,
			Breakdown:    res.Details,
			CorrectCount: res.CorrectCount,
		}
	case question.KindSingle, question.KindMulti:
		return EvaluateStandard(sub, CorrectSpec{Index: v.Answer, Indices: v.Answers}, v.Kind == question.KindMulti)
	default:
		return Outcome{Reason: ReasonMalformedKey}
	}
}

// EvaluateStandard checks a single or multi choice submission. A nil
// submission is unanswered and is reported before a missing key.
func EvaluateStandard(sub Submission, correct CorrectSpec, isMulti bool) Outcome {
	if isMulti {
		return scoreMulti(sub, correct.Indices)
	}
	return scoreSingle(sub, correct.Index)
}

func scoreSingle(sub Submission, correct *int) Outcome {
	selected, status := singleSelection(sub)
	if status == ReasonUnanswered {
		return Outcome{Reason: ReasonUnanswered}
	}
	if correct == nil {
		return Outcome{Answered: true, Reason: ReasonMalformedKey}
	}
	want := []int{*correct}
	if status == ReasonMalformed {
		return Outcome{Answered: true, IsCorrect: boolPtr(false), Reason: ReasonMalformed, Correct: want}
	}
	if selected == *correct {
		return Outcome{Answered: true, IsCorrect: boolPtr(true), Reason: ReasonCorrect, Selected: []int{selected}, Correct: want, CorrectCount: 1}
	}
	return Outcome{Answered: true, IsCorrect: boolPtr(false), Reason: ReasonWrong, Selected: []int{selected}, Correct: want}
}

func scoreMulti(sub Submission, correct []int) Outcome {
	selected, status := multiSelection(sub)
	if status == ReasonUnanswered {
		return Outcome{Reason: ReasonUnanswered}
	}
	correctSet := normalizeIntSet(correct)
	if len(correctSet) == 0 {
		return Outcome{Answered: true, Reason: ReasonMalformedKey}
	}
	if status == ReasonMalformed {
		return Outcome{Answered: true, IsCorrect: boolPtr(false), Reason: ReasonMalformed, Correct: correctSet}
	}
	if equalSet(selected, correctSet) {
		return Outcome{Answered: true, IsCorrect: boolPtr(true), Reason: ReasonCorrect, Selected: selected, Correct: correctSet, CorrectCount: len(correctSet)}
	}
	return Outcome{Answered: true, IsCorrect: boolPtr(false), Reason: ReasonWrong, Selected: selected, Correct: correctSet, CorrectCount: countIn(selected, correctSet)}
}

// EvaluateHotspot checks every statement. A statement without a submitted
// choice is incorrect.
func EvaluateHotspot(choices map[int]bool, statements []question.Statement) HotspotResult {
	res := HotspotResult{Details: make([]StatementResult, 0, len(statements))}
	for i, st := range statements {
		d := StatementResult{Index: i, CorrectAnswer: st.Answer}
		if v, ok := choices[i]; ok {
			answer := v
			d.UserAnswer = &answer
			d.IsCorrect = answer == st.Answer
		}
		if d.IsCorrect {
			res.CorrectCount++
		}
		res.Details = append(res.Details, d)
	}
	res.AllCorrect = len(statements) > 0 && res.CorrectCount == len(statements)
	return res
}

func singleSelection(sub Submission) (int, string) {
	switch s := sub.(type) {
	case nil:
		return 0, ReasonUnanswered
	case Single:
		return s.Index, ""
	case Multiple:
		set := normalizeIntSet(s.Indices)
		if len(set) == 0 {
			return 0, ReasonUnanswered
		}
		if len(set) > 1 {
			return 0, ReasonMalformed
		}
		return set[0], ""
	default:
		return 0, ReasonMalformed
	}
}

func multiSelection(sub Submission) ([]int, string) {
	switch s := sub.(type) {
	case nil:
		return nil, ReasonUnanswered
	case Single:
		return []int{s.Index}, ""
	case Multiple:
		set := normalizeIntSet(s.Indices)
		if len(set) == 0 {
			return nil, ReasonUnanswered
		}
		return set, ""
	default:
		return nil, ReasonMalformed
	}
}

func normalizeIntSet(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	out := append([]int(nil), in...)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

func equalSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func countIn(selected, correct []int) int {
	want := make(map[int]struct{}, len(correct))
	for _, c := range correct {
		want[c] = struct{}{}
	}
	n := 0
	for _, s := range selected {
		if _, ok := want[s]; ok {
			n++
		}
	}
	return n
}

func boolPtr(v bool) *bool {
	return &v
}
