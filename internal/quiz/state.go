package quiz

import "time"

// AnswerRecord is the last determinate answer to one question. IsCorrect is
// nil until the question has been answered.
type AnswerRecord struct {
	Selected     []int             `json:"selected,omitempty"`
	Details      []StatementResult `json:"details,omitempty"`
	CorrectCount int               `json:"correct_count,omitempty"`
	IsCorrect    *bool             `json:"is_correct"`
}

func (r AnswerRecord) Answered() bool {
	return r.IsCorrect != nil
}

func (r AnswerRecord) Correct() bool {
	return r.IsCorrect != nil && *r.IsCorrect
}

// State is one browser session's progress through a quiz. It is owned by a
// single request at a time and carries no lock.
type State struct {
	ID               string               `json:"id"`
	Category         string               `json:"category"`
	Seed             uint64               `json:"seed"`
	QuestionOrder    []int                `json:"question_order"`
	Permutations     map[int]Permutation  `json:"permutations"`
	Answers          map[int]AnswerRecord `json:"answers"`
	Score            int                  `json:"score"`
	StartedAt        time.Time            `json:"started_at"`
	CategoryFallback bool                 `json:"category_fallback,omitempty"`
}

func (s *State) Total() int {
	if s == nil {
		return 0
	}
	return len(s.QuestionOrder)
}

// QuestionIDAt returns the question id at a 1-based position.
func (s *State) QuestionIDAt(index int) (int, bool) {
	if s == nil || index < 1 || index > len(s.QuestionOrder) {
		return 0, false
	}
	return s.QuestionOrder[index-1], true
}

func (s *State) Record(id int) AnswerRecord {
	if s == nil || s.Answers == nil {
		return AnswerRecord{}
	}
	return s.Answers[id]
}

// Apply records a determinate outcome for question id and adjusts the score
// so that it keeps matching the number of correct records. Indeterminate
// outcomes leave the state untouched. It returns the score delta.
func (s *State) Apply(id int, o Outcome) (int, bool) {
	if s == nil || !o.Determinate() {
		return 0, false
	}
	if s.Answers == nil {
		s.Answers = map[int]AnswerRecord{}
	}

	wasCorrect := s.Answers[id].Correct()
	nowCorrect := *o.IsCorrect
	delta := 0
	switch {
	case wasCorrect && !nowCorrect:
		delta = -1
	case !wasCorrect && nowCorrect:
		delta = 1
	}
	s.Score += delta

	s.Answers[id] = AnswerRecord{
		Selected:     append([]int(nil), o.Selected...),
		Details:      append([]StatementResult(nil), o.Breakdown...),
		CorrectCount: o.CorrectCount,
		IsCorrect:    boolPtr(nowCorrect),
	}
	return delta, true
}

// CorrectCount counts the records currently marked correct.
func (s *State) CorrectCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, id := range s.QuestionOrder {
		if s.Answers[id].Correct() {
			n++
		}
	}
	return n
}

// AnsweredCount counts the records with a determinate answer.
func (s *State) AnsweredCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, id := range s.QuestionOrder {
		if s.Answers[id].Answered() {
			n++
		}
	}
	return n
}
