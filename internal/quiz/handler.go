package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quizweb/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

var (
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionTooLarge is returned by a store that cannot hold a session.
	ErrSessionTooLarge = errors.New("quiz session too large")
)

type contextKey string

const stateContextKey contextKey = "quiz_state"

const (
	SessionCookieName = "quizweb_session"
	SessionHeaderName = "X-Quiz-Session"
)

const maxAnswerBodyBytes = 64 << 10

type quizService interface {
	TotalQuestions() int
	Categories() []string
	StartSession(category string) *State
	QuestionPage(st *State, index int) (*Page, error)
	SubmitAnswer(st *State, index int, sub Submission) (*Feedback, error)
	BuildResults(st *State) *Report
	Restore(st *State)
}

// SessionStore persists State between requests.
type SessionStore interface {
	Load(ctx context.Context, token string) (*State, error)
	Save(ctx context.Context, st *State) (string, error)
	Delete(ctx context.Context, token string) error
}

// CapacityChecker is implemented by stores that bound the size of a session.
// CheckCapacity fails with ErrSessionTooLarge when st could not be saved
// once every question is answered.
type CapacityChecker interface {
	CheckCapacity(st *State) error
}

// Renderer is satisfied by *html/template.Template.
type Renderer interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

// OutcomeRecorder counts feedback kinds.
type OutcomeRecorder interface {
	RecordOutcome(kind string)
}

type Handler struct {
	svc          quizService
	sessions     SessionStore
	tmpl         Renderer
	csrfToken    func(r *http.Request) string
	outcomes     OutcomeRecorder
	cookieTTL    time.Duration
	secureCookie bool
}

type HandlerOption func(*Handler)

// WithCSRFToken sets the function that supplies the token rendered into forms.
func WithCSRFToken(fn func(r *http.Request) string) HandlerOption {
	return func(h *Handler) {
		h.csrfToken = fn
	}
}

func WithOutcomeRecorder(rec OutcomeRecorder) HandlerOption {
	return func(h *Handler) {
		h.outcomes = rec
	}
}

func WithSessionCookie(ttl time.Duration, secure bool) HandlerOption {
	return func(h *Handler) {
		if ttl > 0 {
			h.cookieTTL = ttl
		}
		h.secureCookie = secure
	}
}

func NewHandler(svc quizService, sessions SessionStore, tmpl Renderer, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:       svc,
		sessions:  sessions,
		tmpl:      tmpl,
		cookieTTL: 120 * time.Minute,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Code  string      `json:"code,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Home clears any running quiz and shows the start page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if token := readSessionToken(r); token != "" {
		if err := h.sessions.Delete(r.Context(), token); err != nil {
			log.Printf("quiz delete session failed err=%v", err)
		}
		h.clearSessionCookie(w)
	}
	h.renderStart(w, r, http.StatusOK, "")
}

func (h *Handler) renderStart(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	h.renderStatus(w, r, status, "start", map[string]any{
		"Title":      "Quiz",
		"Total":      h.svc.TotalQuestions(),
		"Categories": h.svc.Categories(),
		"Error":      errMsg,
	})
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	st := h.svc.StartSession(strings.TrimSpace(r.PostFormValue("category")))
	if err := h.checkCapacity(st); err != nil {
		h.renderStart(w, r, http.StatusUnprocessableEntity, "This quiz is too long to keep in a browser session. Choose a single category.")
		return
	}
	if err := h.persist(w, r, st); err != nil {
		http.Error(w, "failed to save session", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/quiz/1", http.StatusSeeOther)
}

// Question serves GET and POST /quiz/{index}.
func (h *Handler) Question(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	st, err := h.loadState(r)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	page, err := h.svc.QuestionPage(st, index)
	if err != nil {
		h.redirectIndexError(w, r, err)
		return
	}

	var feedback *Feedback
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		sub := ParseForm(page.View.Kind, r.PostForm)
		feedback, err = h.svc.SubmitAnswer(st, index, sub)
		if err != nil {
			h.redirectIndexError(w, r, err)
			return
		}
		h.recordOutcome(feedback)
		if feedback.Outcome.Determinate() {
			if err := h.persist(w, r, st); err != nil {
				http.Error(w, "failed to save session", http.StatusInternalServerError)
				return
			}
		}

		target := Navigate(ParseAction(r.PostFormValue("action")), index, page.Total)
		if target.Results {
			http.Redirect(w, r, "/results", http.StatusSeeOther)
			return
		}
		if target.Index != index {
			http.Redirect(w, r, "/quiz/"+strconv.Itoa(target.Index), http.StatusSeeOther)
			return
		}
		if page, err = h.svc.QuestionPage(st, index); err != nil {
			h.redirectIndexError(w, r, err)
			return
		}
	}

	h.render(w, r, "quiz", map[string]any{
		"Title":            "Question " + strconv.Itoa(index),
		"Page":             page,
		"Feedback":         feedback,
		"CategoryFallback": st.CategoryFallback,
	})
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	rep, err := h.CurrentResults(r)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "results", map[string]any{
		"Title":  "Results",
		"Report": rep,
	})
}

// CurrentResults builds the report for the session carried by r.
func (h *Handler) CurrentResults(r *http.Request) (*Report, error) {
	st, err := h.loadState(r)
	if err != nil {
		return nil, err
	}
	return h.svc.BuildResults(st), nil
}

// RequireSession loads the request's quiz state into the context for the
// JSON API.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := h.loadState(r)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				writeJSON(w, r, http.StatusNotFound, response{OK: false, Code: apiresp.CodeSessionNotFound, Error: "quiz session not found"})
				return
			}
			writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), st)))
	})
}

func CurrentState(ctx context.Context) (*State, bool) {
	st, ok := ctx.Value(stateContextKey).(*State)
	return st, ok && st != nil
}

func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateContextKey, st)
}

func (h *Handler) APICategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: map[string]any{
		"categories": h.svc.Categories(),
		"total":      h.svc.TotalQuestions(),
	}})
}

type startSessionRequest struct {
	Category string `json:"category"`
}

func (h *Handler) APIStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxAnswerBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
			return
		}
	}
	st := h.svc.StartSession(strings.TrimSpace(req.Category))
	if err := h.checkCapacity(st); err != nil {
		writeJSON(w, r, http.StatusUnprocessableEntity, response{OK: false, Code: apiresp.CodeSessionTooLarge, Error: "quiz too long for this session backend"})
		return
	}
	token, err := h.save(w, r, st)
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "failed to save session"})
		return
	}
	writeJSON(w, r, http.StatusCreated, response{OK: true, Data: map[string]any{
		"session_id":        st.ID,
		"token":             token,
		"total":             st.Total(),
		"category":          st.Category,
		"category_fallback": st.CategoryFallback,
	}})
}

func (h *Handler) APIQuestion(w http.ResponseWriter, r *http.Request) {
	st, _ := CurrentState(r.Context())
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid question index"})
		return
	}
	page, err := h.svc.QuestionPage(st, index)
	if err != nil {
		writeIndexError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: page})
}

type answerResponse struct {
	Feedback *Feedback    `json:"feedback"`
	Record   AnswerRecord `json:"record"`
	Next     string       `json:"next"`
}

// APIAnswer accepts {"selected": ...} or {"statements": {...}} and an
// optional "action" of check, next or finish.
func (h *Handler) APIAnswer(w http.ResponseWriter, r *http.Request) {
	st, _ := CurrentState(r.Context())
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid question index"})
		return
	}
	page, err := h.svc.QuestionPage(st, index)
	if err != nil {
		writeIndexError(w, r, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAnswerBodyBytes))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	req, err := DecodeAnswer(page.View.Kind, body)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Code: apiresp.CodeMalformedPayload, Error: err.Error()})
		return
	}

	feedback, err := h.svc.SubmitAnswer(st, index, req.Submission)
	if err != nil {
		writeIndexError(w, r, err)
		return
	}
	h.recordOutcome(feedback)
	if feedback.Outcome.Determinate() {
		if _, err := h.save(w, r, st); err != nil {
			writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "failed to save session"})
			return
		}
	}

	next := "/api/v1/sessions/current/results"
	if target := Navigate(req.Action, index, page.Total); !target.Results {
		next = "/api/v1/sessions/current/questions/" + strconv.Itoa(target.Index)
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: answerResponse{
		Feedback: feedback,
		Record:   st.Record(page.View.QuestionID),
		Next:     next,
	}})
}

func (h *Handler) APIResults(w http.ResponseWriter, r *http.Request) {
	st, _ := CurrentState(r.Context())
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: h.svc.BuildResults(st)})
}

func (h *Handler) APIDeleteSession(w http.ResponseWriter, r *http.Request) {
	token := readSessionToken(r)
	if token != "" {
		if err := h.sessions.Delete(r.Context(), token); err != nil {
			writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "failed to delete session"})
			return
		}
	}
	h.clearSessionCookie(w)
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: map[string]string{"status": "deleted"}})
}

func (h *Handler) loadState(r *http.Request) (*State, error) {
	token := readSessionToken(r)
	if token == "" {
		return nil, ErrSessionNotFound
	}
	st, err := h.sessions.Load(r.Context(), token)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			log.Printf("quiz load session failed err=%v", err)
		}
		return nil, err
	}
	h.svc.Restore(st)
	return st, nil
}

func (h *Handler) checkCapacity(st *State) error {
	cc, ok := h.sessions.(CapacityChecker)
	if !ok {
		return nil
	}
	if err := cc.CheckCapacity(st); err != nil {
		log.Printf("quiz session rejected session=%s total=%d err=%v", st.ID, st.Total(), err)
		return err
	}
	return nil
}

func (h *Handler) persist(w http.ResponseWriter, r *http.Request, st *State) error {
	_, err := h.save(w, r, st)
	return err
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, st *State) (string, error) {
	token, err := h.sessions.Save(r.Context(), st)
	if err != nil {
		log.Printf("quiz save session failed session=%s err=%v", st.ID, err)
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	h.renderStatus(w, r, http.StatusOK, name, data)
}

func (h *Handler) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if h.csrfToken != nil {
		data["CSRFToken"] = h.csrfToken(r)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("quiz render failed template=%s err=%v", name, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

func (h *Handler) recordOutcome(fb *Feedback) {
	if h.outcomes != nil && fb != nil {
		h.outcomes.RecordOutcome(fb.Kind)
	}
}

func (h *Handler) redirectIndexError(w http.ResponseWriter, r *http.Request, err error) {
	var ie *IndexError
	if !errors.As(err, &ie) {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	target := ie.Redirect()
	if target.Results {
		http.Redirect(w, r, "/results", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/quiz/"+strconv.Itoa(target.Index), http.StatusFound)
}

func writeIndexError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrIndexOutOfRange) {
		writeJSON(w, r, http.StatusNotFound, response{OK: false, Code: apiresp.CodeIndexOutOfRange, Error: err.Error()})
		return
	}
	writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
}

func readSessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return strings.TrimSpace(r.Header.Get(SessionHeaderName))
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteErrorCode(w, r, code, payload.Code, payload.Error)
}
