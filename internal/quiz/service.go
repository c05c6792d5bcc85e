package quiz

import (
	"log"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"quizweb/internal/question"
)

// Feedback kinds rendered after a submission.
const (
	FeedbackCorrect     = "correct"
	FeedbackIncorrect   = "incorrect"
	FeedbackNoAnswer    = "no_answer"
	FeedbackConfigError = "config_error"
)

type Service struct {
	questions *question.Store
	newRand   func() *rand.Rand
	now       func() time.Time
}

type Option func(*Service)

// WithRand replaces the per-session random source factory.
func WithRand(fn func() *rand.Rand) Option {
	return func(s *Service) {
		if fn != nil {
			s.newRand = fn
		}
	}
}

func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(questions *question.Store, opts ...Option) *Service {
	s := &Service{
		questions: questions,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Page is everything the question page needs for one index.
type Page struct {
	Index           int          `json:"index"`
	Total           int          `json:"total"`
	View            View         `json:"question"`
	Record          AnswerRecord `json:"record"`
	ProgressPercent float64      `json:"progress_percent"`
	Score           int          `json:"score"`
	ScoreOutOf10    float64      `json:"score_out_of_10"`
	IsLast          bool         `json:"is_last"`
}

type Feedback struct {
	Kind        string  `json:"kind"`
	Message     string  `json:"message"`
	Explanation string  `json:"explanation,omitempty"`
	Outcome     Outcome `json:"outcome"`
	ScoreDelta  int     `json:"score_delta"`
	Score       int     `json:"score"`
}

func (s *Service) TotalQuestions() int {
	return s.questions.Len()
}

func (s *Service) Categories() []string {
	return s.questions.Categories()
}

// StartSession builds a fresh session for category. The all-categories
// sentinel bypasses filtering; a category with no questions falls back to
// the full set.
func (s *Service) StartSession(category string) *State {
	ids := s.questions.Filter(category)
	fallback := false
	if len(ids) == 0 && !question.IsAllCategories(category) {
		ids = s.questions.Filter(question.AllCategories)
		fallback = true
		log.Printf("quiz category fallback category=%q total=%d", category, len(ids))
	}

	rng := s.newRand()
	seed := rng.Uint64()
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	st := &State{
		ID:               uuid.NewString(),
		Category:         category,
		Seed:             seed,
		QuestionOrder:    ids,
		Permutations:     make(map[int]Permutation, len(ids)),
		Answers:          make(map[int]AnswerRecord, len(ids)),
		StartedAt:        s.now().UTC(),
		CategoryFallback: fallback,
	}
	for _, id := range ids {
		q, _ := s.questions.ByID(id)
		st.Permutations[id] = seededPermutation(seed, id, q.ItemCount())
		st.Answers[id] = AnswerRecord{}
	}
	return st
}

// seededPermutation derives the permutation of one question from the session
// seed, so it can be rebuilt without being stored.
func seededPermutation(seed uint64, id, n int) Permutation {
	return GeneratePermutation(rand.New(rand.NewPCG(seed, uint64(id))), n)
}

// Restore fills in what a compact session encoding leaves out: permutations
// are rebuilt from the seed and hotspot breakdowns and correct counts are
// recomputed from the recorded choices. Verdicts and the score are kept.
func (s *Service) Restore(st *State) {
	if st == nil {
		return
	}
	if st.Permutations == nil {
		st.Permutations = make(map[int]Permutation, len(st.QuestionOrder))
	}
	if st.Answers == nil {
		st.Answers = make(map[int]AnswerRecord, len(st.QuestionOrder))
	}
	for _, id := range st.QuestionOrder {
		q, ok := s.questions.ByID(id)
		if !ok {
			continue
		}
		if _, ok := st.Permutations[id]; !ok {
			st.Permutations[id] = seededPermutation(st.Seed, id, q.ItemCount())
		}
		rec, ok := st.Answers[id]
		if !ok {
			st.Answers[id] = AnswerRecord{}
			continue
		}
		if !rec.Answered() {
			continue
		}
		view := ApplyShuffle(q, st.Permutations[id])
		switch view.Kind {
		case question.KindHotspot:
			if len(rec.Details) == 0 {
				continue
			}
			choices := make(map[int]bool, len(rec.Details))
			for _, d := range rec.Details {
				if d.UserAnswer != nil {
					choices[d.Index] = *d.UserAnswer
				}
			}
			res := EvaluateHotspot(choices, view.statementKeys())
			rec.Details, rec.CorrectCount = res.Details, res.CorrectCount
		default:
			key := normalizeIntSet(view.Answers)
			if view.Kind == question.KindSingle {
				key = nil
				if view.Answer != nil {
					key = []int{*view.Answer}
				}
			}
			rec.CorrectCount = countIn(rec.Selected, key)
		}
		st.Answers[id] = rec
	}
}

// QuestionPage resolves the question at a 1-based index. It returns an
// *IndexError when index is outside [1, total].
func (s *Service) QuestionPage(st *State, index int) (*Page, error) {
	total := st.Total()
	id, ok := st.QuestionIDAt(index)
	if !ok {
		return nil, &IndexError{Index: index, Total: total}
	}
	q, ok := s.questions.ByID(id)
	if !ok {
		return nil, &IndexError{Index: index, Total: total}
	}

	view := ApplyShuffle(q, st.Permutations[id])
	if view.Fallback {
		log.Printf("quiz missing permutation session=%s question_id=%d", st.ID, id)
	}
	return &Page{
		Index:           index,
		Total:           total,
		View:            view,
		Record:          st.Record(id),
		ProgressPercent: ratio(index, total, 100),
		Score:           st.Score,
		ScoreOutOf10:    ratio(st.Score, total, 10),
		IsLast:          index == total,
	}, nil
}

// SubmitAnswer evaluates sub against the question at index as the session
// sees it and records a determinate outcome. sub is in view coordinates.
func (s *Service) SubmitAnswer(st *State, index int, sub Submission) (*Feedback, error) {
	page, err := s.QuestionPage(st, index)
	if err != nil {
		return nil, err
	}

	outcome := Evaluate(page.View, sub)
	fb := &Feedback{Outcome: outcome}
	switch {
	case outcome.Reason == ReasonUnanswered:
		fb.Kind = FeedbackNoAnswer
		fb.Message = "Please select an answer."
	case outcome.Reason == ReasonMalformedKey:
		fb.Kind = FeedbackConfigError
		fb.Message = "This question has no correct answer configured."
		log.Printf("quiz configuration error session=%s question_id=%d", st.ID, page.View.QuestionID)
	default:
		delta, _ := st.Apply(page.View.QuestionID, outcome)
		fb.ScoreDelta = delta
		fb.Explanation = page.View.Explanation
		if outcome.Passed() {
			fb.Kind = FeedbackCorrect
			fb.Message = "Correct."
		} else {
			fb.Kind = FeedbackIncorrect
			fb.Message = "Incorrect."
		}
	}
	fb.Score = st.Score
	return fb, nil
}

func ratio(n, total int, scale float64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*scale*100) / 100
}
