package quiz

import (
	"math/rand/v2"
	"sort"

	"quizweb/internal/question"
)

// Permutation maps a new position to the original item index.
type Permutation []int

// GeneratePermutation returns a uniformly random permutation of 0..n-1.
func GeneratePermutation(rng *rand.Rand, n int) Permutation {
	if n <= 0 {
		return Permutation{}
	}
	return Permutation(rng.Perm(n))
}

// IdentityPermutation returns 0..n-1 in order.
func IdentityPermutation(n int) Permutation {
	if n < 0 {
		n = 0
	}
	p := make(Permutation, n)
	for i := range p {
		p[i] = i
	}
	return p
}

// Valid reports whether p is a bijection over 0..n-1.
func (p Permutation) Valid(n int) bool {
	if len(p) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range p {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Inverse maps an original index to its new position. p must be valid.
func (p Permutation) Inverse() []int {
	inv := make([]int, len(p))
	for newPos, orig := range p {
		inv[orig] = newPos
	}
	return inv
}

// StatementView is a hotspot statement at its shuffled position.
type StatementView struct {
	Index    int    `json:"index"`
	Original int    `json:"original"`
	Text     string `json:"text"`
	Answer   bool   `json:"-"`
}

// View is a question as one session sees it: items reordered by the session's
// permutation and the answer key rewritten into the new positions.
type View struct {
	QuestionID  int             `json:"question_id"`
	Kind        question.Kind   `json:"kind"`
	Text        string          `json:"text"`
	Category    string          `json:"category"`
	Options     []string        `json:"options,omitempty"`
	Statements  []StatementView `json:"statements,omitempty"`
	Answer      *int            `json:"-"`
	Answers     []int           `json:"-"`
	Explanation string          `json:"-"`
	Permutation Permutation     `json:"-"`
	// Fallback is set when the stored permutation was missing or invalid and
	// the identity order was used instead.
	Fallback bool `json:"-"`
}

// ApplyShuffle builds the view of q under p. It never modifies q. A nil or
// invalid permutation yields the identity view with Fallback set.
func ApplyShuffle(q question.Question, p Permutation) View {
	n := q.ItemCount()
	v := View{
		QuestionID:  q.ID,
		Kind:        q.Kind(),
		Text:        q.Text,
		Category:    q.Category,
		Explanation: q.Explanation,
	}
	if !p.Valid(n) {
		p = IdentityPermutation(n)
		v.Fallback = true
	} else {
		p = append(Permutation(nil), p...)
	}
	v.Permutation = p
	inv := p.Inverse()

	switch v.Kind {
	case question.KindHotspot:
		v.Statements = make([]StatementView, n)
		for newPos, orig := range p {
			st := q.Statements[orig]
			v.Statements[newPos] = StatementView{Index: newPos, Original: orig, Text: st.Text, Answer: st.Answer}
		}
	case question.KindSingle, question.KindMulti:
		v.Options = make([]string, n)
		for newPos, orig := range p {
			v.Options[newPos] = q.Options[orig]
		}
		if q.Answer != nil && *q.Answer >= 0 && *q.Answer < n {
			a := inv[*q.Answer]
			v.Answer = &a
		}
		if len(q.Answers) > 0 {
			v.Answers = make([]int, 0, len(q.Answers))
			for _, a := range q.Answers {
				if a >= 0 && a < n {
					v.Answers = append(v.Answers, inv[a])
				}
			}
			sort.Ints(v.Answers)
		}
	}
	return v
}

func (v View) statementKeys() []question.Statement {
	out := make([]question.Statement, len(v.Statements))
	for i, st := range v.Statements {
		out[i] = question.Statement{Text: st.Text, Answer: st.Answer}
	}
	return out
}

// ToOriginal maps a position in the view back to the original item index.
func (v View) ToOriginal(pos int) (int, bool) {
	if pos < 0 || pos >= len(v.Permutation) {
		return 0, false
	}
	return v.Permutation[pos], true
}

// FromOriginal maps an original item index to its position in the view.
func (v View) FromOriginal(orig int) (int, bool) {
	for pos, o := range v.Permutation {
		if o == orig {
			return pos, true
		}
	}
	return 0, false
}
