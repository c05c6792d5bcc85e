package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"quizweb/internal/app"
)

func TestLoadQuestionsMissingFileStartsEmpty(t *testing.T) {
	questions, err := loadQuestions(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("missing file must not be fatal: %v", err)
	}
	if questions == nil || questions.Len() != 0 {
		t.Fatalf("expected empty store, got %+v", questions)
	}
}

func TestLoadQuestionsRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadQuestions(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestOpenSessionStore(t *testing.T) {
	cfg := app.Config{SessionBackend: "memory", SessionTTLMinutes: 10}
	store, dbConn, err := openSessionStore(context.Background(), cfg)
	if err != nil || store == nil || dbConn != nil {
		t.Fatalf("memory backend: store=%v db=%v err=%v", store, dbConn, err)
	}

	cfg.SessionBackend = "cookie"
	cfg.SessionSecret = "short"
	if _, _, err := openSessionStore(context.Background(), cfg); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}

	cfg.SessionBackend = "redis"
	if _, _, err := openSessionStore(context.Background(), cfg); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}
