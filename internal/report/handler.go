package report

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"quizweb/internal/quiz"
)

type ResultsSource interface {
	CurrentResults(r *http.Request) (*quiz.Report, error)
}

type exporter interface {
	ExportExcel(rep *quiz.Report) ([]byte, error)
}

type Handler struct {
	svc     exporter
	results ResultsSource
}

func NewHandler(svc exporter, results ResultsSource) *Handler {
	return &Handler{svc: svc, results: results}
}

// ExportResults serves the current session's results as an XLSX download.
func (h *Handler) ExportResults(w http.ResponseWriter, r *http.Request) {
	rep, err := h.results.CurrentResults(r)
	if err != nil {
		if errors.Is(err, quiz.ErrSessionNotFound) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		http.Error(w, "failed to load results", http.StatusInternalServerError)
		return
	}
	data, err := h.svc.ExportExcel(rep)
	if err != nil {
		http.Error(w, "failed to export results", http.StatusInternalServerError)
		return
	}
	filename := fmt.Sprintf("quiz-results-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
