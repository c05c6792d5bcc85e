package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"quizweb/internal/quiz"
)

// MaxTokenBytes keeps the signed token under the common 4 KiB cookie limit
// with room for the cookie attributes.
const MaxTokenBytes = 3800

const cookieIssuer = "quizweb"

// compactState is the token form of a quiz.State. Permutations, hotspot
// breakdowns and correct counts are left out and rebuilt by
// quiz.Service.Restore; the score is the number of correct records.
// Answers is aligned with Order, see encodeRecord.
type compactState struct {
	Category  string    `json:"c,omitempty"`
	Seed      uint64    `json:"sd"`
	Order     []int     `json:"o"`
	Answers   []string  `json:"a,omitempty"`
	StartedAt time.Time `json:"t"`
	Fallback  bool      `json:"f,omitempty"`
}

type stateClaims struct {
	State *compactState `json:"st"`
	jwt.RegisteredClaims
}

// CookieStore keeps the whole state on the client as an HS256 token. Nothing
// is stored server side, so Delete only has meaning for the caller's cookie.
type CookieStore struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewCookieStore derives the signing key from secret with HKDF-SHA256.
func NewCookieStore(secret string, ttl time.Duration) (*CookieStore, error) {
	if len(secret) < 16 {
		return nil, errors.New("session secret must be at least 16 bytes")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte("quizweb session signing v1")), key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return &CookieStore{key: key, ttl: ttlOrDefault(ttl), now: time.Now}, nil
}

// Load verifies token and expands it. The returned state has no
// permutations; callers run it through quiz.Service.Restore.
func (s *CookieStore) Load(_ context.Context, token string) (*quiz.State, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	claims := &stateClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if claims.State == nil || claims.ID == "" {
		return nil, fmt.Errorf("%w: token carries no state", ErrNotFound)
	}
	st, err := claims.State.expand(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return st, nil
}

func (s *CookieStore) Save(_ context.Context, st *quiz.State) (string, error) {
	if st == nil || st.ID == "" {
		return "", errors.New("session state requires an id")
	}
	return s.sign(st.ID, compact(st))
}

// CheckCapacity fails with ErrStateTooLarge when st would not fit in a
// cookie once every question has been answered with every item selected.
func (s *CookieStore) CheckCapacity(st *quiz.State) error {
	if st == nil {
		return nil
	}
	worst := compact(st)
	worst.Answers = make([]string, len(st.QuestionOrder))
	for i, id := range st.QuestionOrder {
		worst.Answers[i] = widestRecord(len(st.Permutations[id]))
	}
	_, err := s.sign(st.ID, worst)
	return err
}

func (s *CookieStore) Delete(context.Context, string) error {
	return nil
}

func (s *CookieStore) sign(id string, cs compactState) (string, error) {
	now := s.now()
	claims := &stateClaims{
		State: &cs,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    cookieIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	if len(token) > MaxTokenBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrStateTooLarge, len(token))
	}
	return token, nil
}

func compact(st *quiz.State) compactState {
	cs := compactState{
		Category:  st.Category,
		Seed:      st.Seed,
		Order:     st.QuestionOrder,
		StartedAt: st.StartedAt,
		Fallback:  st.CategoryFallback,
	}
	if st.AnsweredCount() == 0 {
		return cs
	}
	cs.Answers = make([]string, len(st.QuestionOrder))
	for i, id := range st.QuestionOrder {
		cs.Answers[i] = encodeRecord(st.Record(id))
	}
	return cs
}

func (cs compactState) expand(id string) (*quiz.State, error) {
	if cs.Answers != nil && len(cs.Answers) != len(cs.Order) {
		return nil, fmt.Errorf("answers cover %d of %d questions", len(cs.Answers), len(cs.Order))
	}
	st := &quiz.State{
		ID:               id,
		Category:         cs.Category,
		Seed:             cs.Seed,
		QuestionOrder:    cs.Order,
		Answers:          make(map[int]quiz.AnswerRecord, len(cs.Order)),
		StartedAt:        cs.StartedAt,
		CategoryFallback: cs.Fallback,
	}
	for i, qid := range cs.Order {
		rec := quiz.AnswerRecord{}
		if cs.Answers != nil {
			var err error
			if rec, err = decodeRecord(cs.Answers[i]); err != nil {
				return nil, fmt.Errorf("question %d: %w", qid, err)
			}
		}
		if rec.Correct() {
			st.Score++
		}
		st.Answers[qid] = rec
	}
	return st, nil
}

// encodeRecord writes an answered record as a verdict byte (c or w), a kind
// byte and a payload. Standard records ("s") carry the selected view
// positions joined by dots; hotspot records ("h") carry one of y, n or - per
// statement position. Unanswered records are empty.
func encodeRecord(rec quiz.AnswerRecord) string {
	if !rec.Answered() {
		return ""
	}
	var b strings.Builder
	if rec.Correct() {
		b.WriteByte('c')
	} else {
		b.WriteByte('w')
	}
	if len(rec.Details) > 0 {
		b.WriteByte('h')
		marks := []byte(strings.Repeat("-", len(rec.Details)))
		for _, d := range rec.Details {
			if d.UserAnswer == nil || d.Index < 0 || d.Index >= len(marks) {
				continue
			}
			if *d.UserAnswer {
				marks[d.Index] = 'y'
			} else {
				marks[d.Index] = 'n'
			}
		}
		b.Write(marks)
		return b.String()
	}
	b.WriteByte('s')
	for i, v := range rec.Selected {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

func decodeRecord(raw string) (quiz.AnswerRecord, error) {
	if raw == "" {
		return quiz.AnswerRecord{}, nil
	}
	if len(raw) < 2 {
		return quiz.AnswerRecord{}, fmt.Errorf("short answer record %q", raw)
	}
	var correct bool
	switch raw[0] {
	case 'c':
		correct = true
	case 'w':
	default:
		return quiz.AnswerRecord{}, fmt.Errorf("bad verdict in %q", raw)
	}
	rec := quiz.AnswerRecord{IsCorrect: &correct}
	payload := raw[2:]
	switch raw[1] {
	case 's':
		if payload == "" {
			return rec, nil
		}
		for _, part := range strings.Split(payload, ".") {
			v, err := strconv.Atoi(part)
			if err != nil || v < 0 {
				return quiz.AnswerRecord{}, fmt.Errorf("bad selection in %q", raw)
			}
			rec.Selected = append(rec.Selected, v)
		}
	case 'h':
		rec.Details = make([]quiz.StatementResult, len(payload))
		for i := 0; i < len(payload); i++ {
			d := quiz.StatementResult{Index: i}
			switch payload[i] {
			case 'y':
				d.UserAnswer = boolRef(true)
			case 'n':
				d.UserAnswer = boolRef(false)
			case '-':
			default:
				return quiz.AnswerRecord{}, fmt.Errorf("bad statement mark in %q", raw)
			}
			rec.Details[i] = d
		}
	default:
		return quiz.AnswerRecord{}, fmt.Errorf("bad record kind in %q", raw)
	}
	return rec, nil
}

// widestRecord is the longest record a question with n items can produce.
func widestRecord(n int) string {
	var b strings.Builder
	b.WriteString("ws")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(i))
	}
	if b.Len() < n+2 {
		return "wh" + strings.Repeat("-", n)
	}
	return b.String()
}

func boolRef(v bool) *bool {
	return &v
}
