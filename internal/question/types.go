package question

import "strings"

// Type is the question type as written in the question file.
type Type string

const (
	TypeStandard     Type = "standard"
	TypeHotspotYesNo Type = "hotspot_yes_no"
)

// Kind is the single discriminant every consumer switches on.
type Kind int

const (
	KindSingle Kind = iota
	KindMulti
	KindHotspot
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMulti:
		return "multi"
	case KindHotspot:
		return "hotspot"
	default:
		return "unknown"
	}
}

// AllCategories is the category sentinel that bypasses filtering.
const AllCategories = "all"

type Statement struct {
	Text   string `json:"text" yaml:"text"`
	Answer bool   `json:"answer" yaml:"answer"`
}

// Question is an immutable record shared by all sessions. Callers must not
// modify the slices of a Question obtained from a Store.
type Question struct {
	ID          int         `json:"id" yaml:"id"`
	Text        string      `json:"text" yaml:"text"`
	Category    string      `json:"category" yaml:"category"`
	Options     []string    `json:"options,omitempty" yaml:"options,omitempty"`
	Statements  []Statement `json:"statements,omitempty" yaml:"statements,omitempty"`
	Answer      *int        `json:"answer,omitempty" yaml:"answer,omitempty"`
	Answers     []int       `json:"answers,omitempty" yaml:"answers,omitempty"`
	IsMulti     bool        `json:"is_multi,omitempty" yaml:"is_multi,omitempty"`
	Type        Type        `json:"type,omitempty" yaml:"type,omitempty"`
	Explanation string      `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Kind derives the discriminant from Type and IsMulti. IsMulti is authoritative
// for standard questions.
func (q Question) Kind() Kind {
	if q.Type == TypeHotspotYesNo {
		return KindHotspot
	}
	if q.IsMulti {
		return KindMulti
	}
	return KindSingle
}

// ItemCount is the number of shuffleable items: statements for hotspot
// questions, options otherwise.
func (q Question) ItemCount() int {
	if q.Kind() == KindHotspot {
		return len(q.Statements)
	}
	return len(q.Options)
}

// HasAnswerKey reports whether the question carries an answer key for its kind.
func (q Question) HasAnswerKey() bool {
	switch q.Kind() {
	case KindSingle:
		return q.Answer != nil
	case KindMulti:
		return len(q.Answers) > 0
	case KindHotspot:
		return len(q.Statements) > 0
	default:
		return false
	}
}

// IsAllCategories reports whether category is a "show all" sentinel.
func IsAllCategories(category string) bool {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "", AllCategories, "todas", "todos":
		return true
	default:
		return false
	}
}

// File is the top-level shape of a question file.
type File struct {
	Questions []Question `json:"questions" yaml:"questions"`
}
