package apiresp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestWriteOKIncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-1"))
	w := httptest.NewRecorder()

	WriteOK(w, req, http.StatusCreated, map[string]int{"total": 3})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.OK || env.Error != nil || env.Meta.RequestID != "req-1" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestWriteErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		write    func(w http.ResponseWriter, r *http.Request)
		status   int
		wantCode string
		wantMsg  string
	}{
		{
			name:     "derived from status",
			write:    func(w http.ResponseWriter, r *http.Request) { WriteError(w, r, http.StatusTooManyRequests, "") },
			status:   http.StatusTooManyRequests,
			wantCode: "rate_limited",
			wantMsg:  "Too Many Requests",
		},
		{
			name: "explicit code",
			write: func(w http.ResponseWriter, r *http.Request) {
				WriteErrorCode(w, r, http.StatusNotFound, CodeIndexOutOfRange, "question index out of range")
			},
			status:   http.StatusNotFound,
			wantCode: CodeIndexOutOfRange,
			wantMsg:  "question index out of range",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tc.write(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			var env Envelope
			if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.OK || env.Error == nil || env.Error.Code != tc.wantCode || env.Error.Message != tc.wantMsg {
				t.Fatalf("unexpected envelope %+v", env)
			}
		})
	}
}
