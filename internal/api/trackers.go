package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amishk599/jobfloor/internal/model"
)

const maxLogLimit = 1000

// TrackerHandler exposes tracker state, activity logs and notifications.
type TrackerHandler struct {
	Store    model.Store
	Notifier model.Notifier
	Logger   *slog.Logger
}

type trackerDTO struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	TotalTracked int             `json:"total_tracked"`
	LastRun      *time.Time      `json:"last_run"` // null when never run
	Data         json.RawMessage `json:"data,omitempty"`
}

type putTrackerReq struct {
	Category     string          `json:"category"`
	TotalTracked int             `json:"total_tracked"`
	LastRun      *time.Time      `json:"last_run"`
	Data         json.RawMessage `json:"data"`
}

type notifyReq struct {
	Message string `json:"message"`
}

func toTrackerDTO(s model.TrackerState) trackerDTO {
	dto := trackerDTO{Name: s.Name, Category: s.Category, TotalTracked: s.TotalTracked, Data: s.Data}
	if !s.LastRun.IsZero() {
		t := s.LastRun
		dto.LastRun = &t
	}
	return dto
}

func trackerName(r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	name = strings.TrimSpace(name)
	return name, err == nil && name != ""
}

// Logs returns activity entries, newest first, optionally for ?tracker=.
func (h *TrackerHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := model.DefaultLogLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxLogLimit {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.Store.Logs(r.Context(), strings.TrimSpace(r.URL.Query().Get("tracker")), limit)
	if err != nil {
		storeError(w, h.Logger, "logs", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Get returns the tracker's state. A tracker that never stored anything is
// reported with a null last_run rather than 404.
func (h *TrackerHandler) Get(w http.ResponseWriter, r *http.Request) {
	name, ok := trackerName(r)
	if !ok {
		http.Error(w, "invalid tracker", http.StatusBadRequest)
		return
	}

	state, found, err := h.Store.GetTrackerState(r.Context(), name)
	if err != nil {
		storeError(w, h.Logger, "get tracker", err)
		return
	}
	if !found {
		state = model.TrackerState{Name: name}
	}
	writeJSON(w, http.StatusOK, toTrackerDTO(state))
}

// Put overwrites the tracker's state. An omitted last_run means now.
func (h *TrackerHandler) Put(w http.ResponseWriter, r *http.Request) {
	name, ok := trackerName(r)
	if !ok {
		http.Error(w, "invalid tracker", http.StatusBadRequest)
		return
	}

	var req putTrackerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.TotalTracked < 0 {
		http.Error(w, "total_tracked must not be negative", http.StatusBadRequest)
		return
	}

	state := model.TrackerState{
		Name:         name,
		Category:     strings.TrimSpace(req.Category),
		TotalTracked: req.TotalTracked,
		Data:         req.Data,
	}
	if req.LastRun != nil {
		state.LastRun = *req.LastRun
	}
	if string(state.Data) == "null" {
		state.Data = nil
	}

	if err := h.Store.PutTrackerState(r.Context(), state); err != nil {
		storeError(w, h.Logger, "put tracker", err)
		return
	}

	stored, _, err := h.Store.GetTrackerState(r.Context(), name)
	if err != nil {
		storeError(w, h.Logger, "get tracker", err)
		return
	}
	writeJSON(w, http.StatusOK, toTrackerDTO(stored))
}

// Notify delivers a message on behalf of the tracker.
func (h *TrackerHandler) Notify(w http.ResponseWriter, r *http.Request) {
	name, ok := trackerName(r)
	if !ok {
		http.Error(w, "invalid tracker", http.StatusBadRequest)
		return
	}

	var req notifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}

	if err := h.Notifier.Notify(r.Context(), name, req.Message); err != nil {
		if h.Logger != nil {
			h.Logger.Error("notification failed", "tracker", name, "error", err)
		}
		http.Error(w, "notification failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "sent",
		"tracker": name,
		"sent_at": time.Now().UTC().Format(time.RFC3339),
	})
}
