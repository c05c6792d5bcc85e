package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizweb/internal/app"
	"quizweb/internal/db"
	"quizweb/internal/question"
	"quizweb/internal/quiz"
	"quizweb/internal/session"
)

func main() {
	cfg := app.LoadConfig()

	questions, err := loadQuestions(cfg.QuestionsPath)
	if err != nil {
		log.Printf("question file error: %v", err)
		os.Exit(1)
	}
	for _, w := range questions.Warnings() {
		log.Printf("question file warning: %s", w)
	}
	log.Printf("loaded %d questions from %s", questions.Len(), cfg.QuestionsPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, dbConn, err := openSessionStore(ctx, cfg)
	if err != nil {
		log.Printf("session store error: %v", err)
		os.Exit(1)
	}
	if dbConn != nil {
		defer dbConn.Close()
	}

	r := app.NewRouter(cfg, app.Deps{
		Quiz:     quiz.NewService(questions),
		Sessions: sessions,
		DB:       dbConn,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("quizweb listening on %s (sessions=%s env=%s)", cfg.HTTPAddr, cfg.SessionBackend, cfg.AppEnv)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}

// loadQuestions reads path. A missing file yields an empty store so the
// start page can say that no questions are loaded.
func loadQuestions(path string) (*question.Store, error) {
	questions, err := question.Load(path)
	if err == nil {
		return questions, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	log.Printf("question file %s not found, starting with no questions", path)
	questions, err = question.NewStore(nil)
	if err != nil {
		return nil, fmt.Errorf("empty question store: %w", err)
	}
	return questions, nil
}

func openSessionStore(ctx context.Context, cfg app.Config) (session.Store, *sql.DB, error) {
	switch cfg.SessionBackend {
	case "", "memory":
		return session.NewMemoryStore(cfg.SessionTTL()), nil, nil
	case "cookie":
		store, err := session.NewCookieStore(cfg.SessionSecret, cfg.SessionTTL())
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case "sqlite", "postgres":
		dbConn, err := db.OpenWithConfig(ctx, db.Driver(cfg.SessionBackend), cfg.DBDSN, db.Config{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifeMins) * time.Minute,
		})
		if err != nil {
			return nil, nil, err
		}
		return session.NewSQLStore(dbConn, cfg.SessionTTL()), dbConn, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
	}
}
