package quiz

import (
	"errors"
	"fmt"
	"strings"
)

var ErrIndexOutOfRange = errors.New("question index out of range")

type Action string

const (
	ActionCheck  Action = "check"
	ActionNext   Action = "next"
	ActionFinish Action = "finish"
)

// ParseAction maps a form value to an Action. Unknown and empty values are
// treated as check.
func ParseAction(raw string) Action {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionNext:
		return ActionNext
	case ActionFinish:
		return ActionFinish
	default:
		return ActionCheck
	}
}

// Target is where a request goes next: a 1-based question index, or the
// results page.
type Target struct {
	Index   int
	Results bool
}

// Navigate returns the target of action taken at index.
func Navigate(action Action, index, total int) Target {
	switch action {
	case ActionFinish:
		return Target{Results: true}
	case ActionNext:
		if index >= total {
			return Target{Results: true}
		}
		return Target{Index: index + 1}
	default:
		return Target{Index: index}
	}
}

// IndexError reports a navigation index outside [1, total].
type IndexError struct {
	Index int
	Total int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: %d not in [1, %d]", ErrIndexOutOfRange, e.Index, e.Total)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// Redirect is the nearest valid view: index 1 below the range, results above.
func (e *IndexError) Redirect() Target {
	if e.Index < 1 && e.Total > 0 {
		return Target{Index: 1}
	}
	return Target{Results: true}
}
