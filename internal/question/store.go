package question

import (
	"sort"
	"strings"
)

// Store is the read-only question collection built once at startup and shared
// by every session without synchronization.
type Store struct {
	questions  []Question
	byID       map[int]int
	categories []string
	warnings   []Issue
}

// NewStore validates questions and builds an immutable Store, keeping file order.
func NewStore(questions []Question) (*Store, error) {
	normalized, warnings, err := Normalize(questions)
	if err != nil {
		return nil, err
	}

	s := &Store{
		questions: normalized,
		byID:      make(map[int]int, len(normalized)),
		warnings:  warnings,
	}
	seen := map[string]struct{}{}
	for i, q := range normalized {
		s.byID[q.ID] = i
		if q.Category == "" {
			continue
		}
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		s.categories = append(s.categories, q.Category)
	}
	sort.Strings(s.categories)
	return s, nil
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.questions)
}

// ByID returns the question with the given id.
func (s *Store) ByID(id int) (Question, bool) {
	if s == nil {
		return Question{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return Question{}, false
	}
	return s.questions[i], true
}

// Categories returns the distinct non-empty categories, sorted.
func (s *Store) Categories() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.categories...)
}

// Warnings returns non-fatal issues found while loading.
func (s *Store) Warnings() []Issue {
	if s == nil {
		return nil
	}
	return append([]Issue(nil), s.warnings...)
}

// Filter returns the ids of the questions in category, in file order. The
// all-categories sentinel returns every id. Matching ignores case.
func (s *Store) Filter(category string) []int {
	if s == nil {
		return nil
	}
	all := IsAllCategories(category)
	want := strings.TrimSpace(category)
	ids := make([]int, 0, len(s.questions))
	for _, q := range s.questions {
		if all || strings.EqualFold(q.Category, want) {
			ids = append(ids, q.ID)
		}
	}
	return ids
}
