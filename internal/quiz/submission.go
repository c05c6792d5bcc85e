package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"quizweb/internal/question"
)

var ErrMalformedSubmission = errors.New("malformed submission")

// Submission is a raw answer resolved at the boundary. It is one of Single,
// Multiple or Hotspot; a nil Submission means nothing was selected.
type Submission interface {
	isSubmission()
}

type Single struct {
	Index int
}

type Multiple struct {
	Indices []int
}

// Hotspot maps a statement position to the submitted yes (true) or no (false).
type Hotspot struct {
	Choices map[int]bool
}

func (Single) isSubmission()   {}
func (Multiple) isSubmission() {}
func (Hotspot) isSubmission()  {}

const statementFieldPrefix = "statement_"

// StatementField is the form field name carrying the answer to statement i.
func StatementField(i int) string {
	return statementFieldPrefix + strconv.Itoa(i)
}

// ParseForm resolves an HTML form post into a Submission for a question of
// the given kind. Values that are not integers, or yes/no for statements, are
// ignored. It returns nil when nothing usable was submitted.
func ParseForm(kind question.Kind, form url.Values) Submission {
	switch kind {
	case question.KindSingle:
		raw := strings.TrimSpace(form.Get("answer"))
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil
		}
		return Single{Index: n}
	case question.KindMulti:
		indices := make([]int, 0, len(form["answer"]))
		for _, raw := range form["answer"] {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				continue
			}
			indices = append(indices, n)
		}
		if len(indices) == 0 {
			return nil
		}
		return Multiple{Indices: indices}
	case question.KindHotspot:
		choices := map[int]bool{}
		for key, values := range form {
			if !strings.HasPrefix(key, statementFieldPrefix) || len(values) == 0 {
				continue
			}
			i, err := strconv.Atoi(strings.TrimPrefix(key, statementFieldPrefix))
			if err != nil || i < 0 {
				continue
			}
			if v, ok := parseYesNo(values[0]); ok {
				choices[i] = v
			}
		}
		if len(choices) == 0 {
			return nil
		}
		return Hotspot{Choices: choices}
	default:
		return nil
	}
}

// DecodeJSON resolves an API payload. Standard questions take
// {"selected": 2} or {"selected": [0, 3]}; hotspot questions take
// {"statements": {"0": "yes", "1": false}}. An empty or absent selection is
// nil; a payload of the wrong shape is ErrMalformedSubmission.
func DecodeJSON(kind question.Kind, raw []byte) (Submission, error) {
	req, err := DecodeAnswer(kind, raw)
	if err != nil {
		return nil, err
	}
	return req.Submission, nil
}

// AnswerRequest is a decoded API answer body.
type AnswerRequest struct {
	Submission Submission
	Action     Action
}

// DecodeAnswer decodes the submission and the optional "action" of an API
// answer body in one pass. An action that is not a string is malformed.
func DecodeAnswer(kind question.Kind, raw []byte) (AnswerRequest, error) {
	req := AnswerRequest{Action: ActionCheck}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return req, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return req, fmt.Errorf("%w: %v", ErrMalformedSubmission, err)
	}
	if a, ok := obj["action"]; ok && string(a) != "null" {
		var action string
		if err := json.Unmarshal(a, &action); err != nil {
			return req, fmt.Errorf("%w: action must be a string", ErrMalformedSubmission)
		}
		req.Action = ParseAction(action)
	}
	sub, err := decodeSubmission(kind, obj)
	if err != nil {
		return req, err
	}
	req.Submission = sub
	return req, nil
}

func decodeSubmission(kind question.Kind, obj map[string]json.RawMessage) (Submission, error) {
	switch kind {
	case question.KindSingle, question.KindMulti:
		sel, ok := obj["selected"]
		if !ok || string(sel) == "null" {
			return nil, nil
		}
		var one int
		if err := json.Unmarshal(sel, &one); err == nil {
			if kind == question.KindMulti {
				return Multiple{Indices: []int{one}}, nil
			}
			return Single{Index: one}, nil
		}
		var many []int
		if err := json.Unmarshal(sel, &many); err != nil {
			return nil, fmt.Errorf("%w: selected must be an integer or a list of integers", ErrMalformedSubmission)
		}
		if len(many) == 0 {
			return nil, nil
		}
		return Multiple{Indices: many}, nil
	case question.KindHotspot:
		st, ok := obj["statements"]
		if !ok || string(st) == "null" {
			return nil, nil
		}
		var values map[string]interface{}
		if err := json.Unmarshal(st, &values); err != nil {
			return nil, fmt.Errorf("%w: statements must be an object", ErrMalformedSubmission)
		}
		choices := make(map[int]bool, len(values))
		for key, v := range values {
			i, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || i < 0 {
				return nil, fmt.Errorf("%w: invalid statement index %q", ErrMalformedSubmission, key)
			}
			switch t := v.(type) {
			case bool:
				choices[i] = t
			case string:
				b, ok := parseYesNo(t)
				if !ok {
					return nil, fmt.Errorf("%w: statement %d must be yes or no", ErrMalformedSubmission, i)
				}
				choices[i] = b
			default:
				return nil, fmt.Errorf("%w: statement %d must be yes or no", ErrMalformedSubmission, i)
			}
		}
		if len(choices) == 0 {
			return nil, nil
		}
		return Hotspot{Choices: choices}, nil
	default:
		return nil, ErrMalformedSubmission
	}
}

func parseYesNo(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "true", "si", "sí":
		return true, true
	case "no", "n", "false":
		return false, true
	default:
		return false, false
	}
}
