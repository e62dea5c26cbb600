// Package api serves the dashboard read surface and the tracker agent
// surface over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/amishk599/jobfloor/internal/config"
	"github.com/amishk599/jobfloor/internal/model"
)

// Deps are the collaborators the handlers read from and write to.
type Deps struct {
	Store       model.Store
	Notifier    model.Notifier
	Categories  []config.CategoryConfig
	CORSOrigins []string
	Logger      *slog.Logger
	Now         func() time.Time // defaults to time.Now
}

// NewRouter mounts the stats and tracker endpoints on a chi router.
func NewRouter(d Deps) http.Handler {
	if d.Now == nil {
		d.Now = time.Now
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(d.CORSOrigins) > 0 {
		r.Use(corsHandler(d.CORSOrigins))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	sh := &StatsHandler{Store: d.Store, Categories: d.Categories, Now: d.Now, Logger: d.Logger}
	r.Get("/stats/today", sh.Today)
	r.Get("/categories", sh.List)
	r.Route("/categories/{category}", func(r chi.Router) {
		r.Use(sh.knownCategory)
		r.Get("/stats", sh.Recent)
		r.Get("/postings", sh.Postings)
		r.Get("/salary", sh.Salary)
	})

	th := &TrackerHandler{Store: d.Store, Notifier: d.Notifier, Logger: d.Logger}
	r.Get("/logs", th.Logs)
	r.Route("/trackers/{name}", func(r chi.Router) {
		r.Get("/", th.Get)
		r.Put("/", th.Put)
		r.Post("/notifications", th.Notify)
	})

	return r
}

func corsHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "PUT", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// storeError reports a failed store call as 503 and logs the cause.
func storeError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	if logger != nil {
		logger.Error("api store call failed", "op", op, "error", err)
	}
	http.Error(w, "store unavailable", http.StatusServiceUnavailable)
}
