package quiz

import "log"

// ResultItem is one question as the user saw it, joined with their answer.
type ResultItem struct {
	Position       int               `json:"position"`
	QuestionID     int               `json:"question_id"`
	Kind           string            `json:"kind"`
	Category       string            `json:"category"`
	Text           string            `json:"text"`
	Options        []string          `json:"options,omitempty"`
	Statements     []StatementView   `json:"statements,omitempty"`
	Selected       []int             `json:"selected,omitempty"`
	Correct        []int             `json:"correct,omitempty"`
	// CorrectAnswers is the hotspot key in statement order.
	CorrectAnswers []bool            `json:"correct_answers,omitempty"`
	Details        []StatementResult `json:"details,omitempty"`
	IsCorrect      *bool             `json:"is_correct"`
	Explanation    string            `json:"explanation,omitempty"`
}

type Report struct {
	Items        []ResultItem `json:"items"`
	Score        int          `json:"score"`
	Total        int          `json:"total"`
	ScoreOutOf10 float64      `json:"score_out_of_10"`
	Percentage   float64      `json:"percentage"`
	Answered     int          `json:"answered"`
	Wrong        int          `json:"wrong"`
	Unanswered   int          `json:"unanswered"`
}

// BuildResults reduces st to a report. Every entry is rebuilt through
// ApplyShuffle so options and answer keys are in the order the user saw.
// Ids no longer in the question store are skipped.
func (s *Service) BuildResults(st *State) *Report {
	total := st.Total()
	score := 0
	if st != nil {
		score = st.Score
	}
	answered := st.AnsweredCount()
	rep := &Report{
		Items:        make([]ResultItem, 0, total),
		Score:        score,
		Total:        total,
		ScoreOutOf10: ratio(score, total, 10),
		Percentage:   ratio(score, total, 100),
		Answered:     answered,
		Wrong:        answered - st.CorrectCount(),
		Unanswered:   total - answered,
	}

	for i := 0; i < total; i++ {
		id := st.QuestionOrder[i]
		rec := st.Record(id)
		q, ok := s.questions.ByID(id)
		if !ok {
			log.Printf("quiz results skip unknown question session=%s question_id=%d", st.ID, id)
			continue
		}
		view := ApplyShuffle(q, st.Permutations[id])
		item := ResultItem{
			Position:    i + 1,
			QuestionID:  id,
			Kind:        view.Kind.String(),
			Category:    view.Category,
			Text:        view.Text,
			Options:     view.Options,
			Statements:  view.Statements,
			Selected:    rec.Selected,
			Details:     rec.Details,
			IsCorrect:   rec.IsCorrect,
			Explanation: view.Explanation,
		}
		switch {
		case view.Answer != nil:
			item.Correct = []int{*view.Answer}
		case len(view.Answers) > 0:
			item.Correct = view.Answers
		}
		if len(view.Statements) > 0 {
			item.CorrectAnswers = make([]bool, len(view.Statements))
			for j, sv := range view.Statements {
				item.CorrectAnswers[j] = sv.Answer
			}
		}
		rep.Items = append(rep.Items, item)
	}
	return rep
}
