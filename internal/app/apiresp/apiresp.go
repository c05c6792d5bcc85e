// Package apiresp writes the JSON envelope shared by every /api/v1 endpoint:
// {"ok": bool, "data": ..., "error": {"code", "message"}, "meta": {"request_id"}}.
package apiresp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Error codes specific to the quiz API. Generic codes are derived from the
// HTTP status.
const (
	CodeSessionNotFound  = "session_not_found"
	CodeIndexOutOfRange  = "index_out_of_range"
	CodeMalformedPayload = "malformed_payload"
	CodeSessionTooLarge  = "session_too_large"
)

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
}

type Envelope struct {
	OK    bool          `json:"ok"`
	Data  any           `json:"data,omitempty"`
	Error *ErrorPayload `json:"error,omitempty"`
	Meta  Meta          `json:"meta"`
}

func WriteOK(w http.ResponseWriter, r *http.Request, status int, data any) {
	WriteLegacy(w, r, status, true, data, "")
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteLegacy(w, r, status, false, nil, msg)
}

// WriteErrorCode writes an error envelope with an explicit code instead of
// the one derived from status.
func WriteErrorCode(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	if code == "" {
		code = codeFromStatus(status)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	write(w, status, Envelope{
		OK:    false,
		Error: &ErrorPayload{Code: code, Message: msg},
		Meta:  Meta{RequestID: middleware.GetReqID(r.Context())},
	})
}

func WriteLegacy(w http.ResponseWriter, r *http.Request, status int, ok bool, data any, errMsg string) {
	if !ok {
		WriteErrorCode(w, r, status, "", errMsg)
		return
	}
	write(w, status, Envelope{
		OK:   true,
		Data: data,
		Meta: Meta{RequestID: middleware.GetReqID(r.Context())},
	})
}

func write(w http.ResponseWriter, status int, res Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusRequestEntityTooLarge:
		return "payload_too_large"
	case http.StatusUnprocessableEntity:
		return "unprocessable_entity"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		if status >= 200 && status < 300 {
			return ""
		}
		return "error"
	}
}
