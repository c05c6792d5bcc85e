package quiz

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"quizweb/internal/question"
)

func TestParseForm(t *testing.T) {
	tests := []struct {
		name string
		kind question.Kind
		form url.Values
		want Submission
	}{
		{name: "single", kind: question.KindSingle, form: url.Values{"answer": {"2"}}, want: Single{Index: 2}},
		{name: "single missing", kind: question.KindSingle, form: url.Values{}, want: nil},
		{name: "single garbage", kind: question.KindSingle, form: url.Values{"answer": {"x"}}, want: nil},
		{name: "multi", kind: question.KindMulti, form: url.Values{"answer": {"0", "3"}}, want: Multiple{Indices: []int{0, 3}}},
		{name: "multi skips garbage", kind: question.KindMulti, form: url.Values{"answer": {"x", "1"}}, want: Multiple{Indices: []int{1}}},
		{name: "multi empty", kind: question.KindMulti, form: url.Values{"action": {"check"}}, want: nil},
		{name: "hotspot", kind: question.KindHotspot, form: url.Values{"statement_0": {"yes"}, "statement_1": {"no"}}, want: Hotspot{Choices: map[int]bool{0: true, 1: false}}},
		{name: "hotspot ignores other fields", kind: question.KindHotspot, form: url.Values{"statement_x": {"yes"}, "statement_2": {"maybe"}, "answer": {"1"}}, want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseForm(tc.kind, tc.form)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %#v want %#v", got, tc.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		kind    question.Kind
		payload string
		want    Submission
		wantErr bool
	}{
		{name: "single", kind: question.KindSingle, payload: `{"selected": 1}`, want: Single{Index: 1}},
		{name: "single from list", kind: question.KindSingle, payload: `{"selected": [1, 2]}`, want: Multiple{Indices: []int{1, 2}}},
		{name: "multi", kind: question.KindMulti, payload: `{"selected": [2, 0]}`, want: Multiple{Indices: []int{2, 0}}},
		{name: "multi from int", kind: question.KindMulti, payload: `{"selected": 2}`, want: Multiple{Indices: []int{2}}},
		{name: "missing selected", kind: question.KindSingle, payload: `{}`, want: nil},
		{name: "null selected", kind: question.KindMulti, payload: `{"selected": null}`, want: nil},
		{name: "empty list", kind: question.KindMulti, payload: `{"selected": []}`, want: nil},
		{name: "empty body", kind: question.KindSingle, payload: ``, want: nil},
		{name: "string selected", kind: question.KindSingle, payload: `{"selected": "B"}`, wantErr: true},
		{name: "invalid json", kind: question.KindSingle, payload: `{"selected":`, wantErr: true},
		{name: "hotspot strings and bools", kind: question.KindHotspot, payload: `{"statements": {"0": "yes", "1": false}}`, want: Hotspot{Choices: map[int]bool{0: true, 1: false}}},
		{name: "hotspot bad value", kind: question.KindHotspot, payload: `{"statements": {"0": "maybe"}}`, wantErr: true},
		{name: "hotspot bad index", kind: question.KindHotspot, payload: `{"statements": {"a": "yes"}}`, wantErr: true},
		{name: "hotspot empty", kind: question.KindHotspot, payload: `{"statements": {}}`, want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeJSON(tc.kind, []byte(tc.payload))
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedSubmission) {
					t.Fatalf("expected ErrMalformedSubmission, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %#v want %#v", got, tc.want)
			}
		})
	}
}

func TestDecodeAnswerAction(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantAction Action
		wantSub    Submission
		wantErr    bool
	}{
		{name: "empty body", payload: ``, wantAction: ActionCheck},
		{name: "action only", payload: `{"action": "finish"}`, wantAction: ActionFinish},
		{name: "with selection", payload: `{"selected": 1, "action": "Next"}`, wantAction: ActionNext, wantSub: Single{Index: 1}},
		{name: "unknown action", payload: `{"selected": 0, "action": "jump"}`, wantAction: ActionCheck, wantSub: Single{Index: 0}},
		{name: "null action", payload: `{"action": null}`, wantAction: ActionCheck},
		{name: "numeric action", payload: `{"selected": 1, "action": 2}`, wantErr: true},
		{name: "object action", payload: `{"action": {"go": "next"}}`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeAnswer(question.KindSingle, []byte(tc.payload))
			if tc.wantErr {
				if !errors.Is(err, ErrMalformedSubmission) {
					t.Fatalf("expected ErrMalformedSubmission, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Action != tc.wantAction || !reflect.DeepEqual(got.Submission, tc.wantSub) {
				t.Fatalf("got %#v want action %s submission %#v", got, tc.wantAction, tc.wantSub)
			}
		})
	}
}
