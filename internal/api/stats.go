package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amishk599/jobfloor/internal/config"
	"github.com/amishk599/jobfloor/internal/filter"
	"github.com/amishk599/jobfloor/internal/model"
	"github.com/amishk599/jobfloor/internal/stats"
)

const maxDays = 90

// StatsHandler serves read-only views over cached stats and postings.
type StatsHandler struct {
	Store      model.Store
	Categories []config.CategoryConfig
	Now        func() time.Time
	Logger     *slog.Logger
}

type categoryDTO struct {
	Name    string               `json:"name"`
	Label   string               `json:"label"`
	Tracker string               `json:"tracker"`
	Today   *model.CategoryStats `json:"today"`
}

type postingsDTO struct {
	Category string          `json:"category"`
	Date     string          `json:"date"`
	Count    int             `json:"count"`
	Postings []model.Posting `json:"postings"`
}

type salaryDTO struct {
	Category string `json:"category"`
	Date     string `json:"date"`
	stats.SalaryRange
}

type ctxKey struct{}

// knownCategory resolves {category} and rejects names that are not configured.
func (h *StatsHandler) knownCategory(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, err := url.PathUnescape(chi.URLParam(r, "category"))
		if err != nil {
			http.Error(w, "invalid category", http.StatusBadRequest)
			return
		}
		for _, c := range h.Categories {
			if strings.EqualFold(c.Name, name) {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, c)))
				return
			}
		}
		http.Error(w, "unknown category", http.StatusNotFound)
	})
}

func categoryFrom(r *http.Request) config.CategoryConfig {
	c, _ := r.Context().Value(ctxKey{}).(config.CategoryConfig)
	return c
}

// dateParam returns ?date= or today, rejecting anything that is not yyyy-mm-dd.
func (h *StatsHandler) dateParam(r *http.Request) (string, bool) {
	d := strings.TrimSpace(r.URL.Query().Get("date"))
	if d == "" {
		return model.DateKey(h.Now()), true
	}
	if _, err := time.Parse(model.DateLayout, d); err != nil {
		return "", false
	}
	return d, true
}

// Today lists every category's stats for the current date.
func (h *StatsHandler) Today(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.StatsForDate(r.Context(), model.DateKey(h.Now()))
	if err != nil {
		storeError(w, h.Logger, "stats for today", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// List returns the configured categories with today's stats when present.
func (h *StatsHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.StatsForDate(r.Context(), model.DateKey(h.Now()))
	if err != nil {
		storeError(w, h.Logger, "stats for today", err)
		return
	}
	byName := make(map[string]model.CategoryStats, len(rows))
	for _, st := range rows {
		byName[st.Category] = st
	}

	out := make([]categoryDTO, 0, len(h.Categories))
	for _, c := range h.Categories {
		dto := categoryDTO{Name: c.Name, Label: c.Label, Tracker: c.Tracker}
		if st, ok := byName[c.Name]; ok {
			dto.Today = &st
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

// Recent returns up to ?days= stats rows for the category, newest first.
func (h *StatsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	c := categoryFrom(r)

	days := model.DefaultRecentStats
	if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxDays {
			http.Error(w, "invalid days", http.StatusBadRequest)
			return
		}
		days = n
	}

	rows, err := h.Store.RecentStats(r.Context(), c.Name, days)
	if err != nil {
		storeError(w, h.Logger, "recent stats", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Postings returns the cached postings, optionally narrowed by ?city= and ?state=.
func (h *StatsHandler) Postings(w http.ResponseWriter, r *http.Request) {
	c := categoryFrom(r)
	date, ok := h.dateParam(r)
	if !ok {
		http.Error(w, "invalid date (yyyy-mm-dd)", http.StatusBadRequest)
		return
	}

	postings, found, err := h.Store.GetPostings(r.Context(), c.Name, date)
	if err != nil {
		storeError(w, h.Logger, "postings", err)
		return
	}
	if !found {
		http.Error(w, "no postings cached for date", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	postings = filter.NewLocationFilter(q.Get("city"), q.Get("state")).Apply(postings)
	writeJSON(w, http.StatusOK, postingsDTO{
		Category: c.Name,
		Date:     date,
		Count:    len(postings),
		Postings: postings,
	})
}

// Salary summarizes the cached postings' SalaryMax values.
func (h *StatsHandler) Salary(w http.ResponseWriter, r *http.Request) {
	c := categoryFrom(r)
	date, ok := h.dateParam(r)
	if !ok {
		http.Error(w, "invalid date (yyyy-mm-dd)", http.StatusBadRequest)
		return
	}

	postings, found, err := h.Store.GetPostings(r.Context(), c.Name, date)
	if err != nil {
		storeError(w, h.Logger, "postings", err)
		return
	}
	if !found {
		http.Error(w, "no postings cached for date", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, salaryDTO{
		Category:    c.Name,
		Date:        date,
		SalaryRange: stats.Salaries(postings),
	})
}
