package app

import (
	"database/sql"
	"html/template"
	"net/http"
	"path/filepath"

	"quizweb/internal/app/observability"
	"quizweb/internal/quiz"
	"quizweb/internal/report"
	"quizweb/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the long-lived components the router serves.
type Deps struct {
	Quiz     *quiz.Service
	Sessions session.Store
	// DB is optional and only used for connection metrics.
	DB *sql.DB
}

func NewRouter(cfg Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	metrics := observability.NewCollector(deps.DB)
	r.Use(metrics.Middleware)

	tmpl := template.Must(template.New("quizweb").Funcs(templateFuncs()).ParseGlob(filepath.Join(cfg.TemplatesDir, "layout", "*.html")))
	template.Must(tmpl.ParseGlob(filepath.Join(cfg.TemplatesDir, "pages", "*.html")))

	quizHandler := quiz.NewHandler(deps.Quiz, deps.Sessions, tmpl,
		quiz.WithCSRFToken(CSRFToken),
		quiz.WithOutcomeRecorder(metrics),
		quiz.WithSessionCookie(cfg.SessionTTL(), cfg.SecureCookies),
	)
	reportHandler := report.NewHandler(report.NewService(), quizHandler)
	limiter := NewIPRateLimiter(cfg.RateLimitPerMin, 0)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", metrics.MetricsHandler)

	r.Group(func(pages chi.Router) {
		pages.Use(CSRFMiddleware(cfg.CSRFEnforced, cfg.SecureCookies))
		pages.Use(RateLimitMiddleware(limiter))

		pages.Get("/", quizHandler.Home)
		pages.Post("/start", quizHandler.Start)
		pages.Get("/quiz/{index}", quizHandler.Question)
		pages.Post("/quiz/{index}", quizHandler.Question)
		pages.Get("/results", quizHandler.Results)
		pages.Get("/results.xlsx", reportHandler.ExportResults)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins(cfg.CORSOrigins),
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", csrfHeaderName, quiz.SessionHeaderName},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: len(cfg.CORSOrigins) > 0,
			MaxAge:           300,
		}))
		api.Use(CSRFMiddleware(cfg.CSRFEnforced, cfg.SecureCookies))
		api.Use(RateLimitMiddleware(limiter))

		api.Get("/categories", quizHandler.APICategories)
		api.Post("/sessions", quizHandler.APIStartSession)
		api.Delete("/sessions/current", quizHandler.APIDeleteSession)

		api.Group(func(sess chi.Router) {
			sess.Use(quizHandler.RequireSession)
			sess.Get("/sessions/current/questions/{index}", quizHandler.APIQuestion)
			sess.Post("/sessions/current/questions/{index}/answer", quizHandler.APIAnswer)
			sess.Get("/sessions/current/results", quizHandler.APIResults)
		})
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	return r
}

func corsOrigins(configured []string) []string {
	if len(configured) == 0 {
		return []string{"*"}
	}
	return configured
}
