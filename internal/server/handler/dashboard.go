package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/storage"
)

const defaultActivityLimit = 50

// DashboardHandler serves the read-only review and activity views.
type DashboardHandler struct {
	store            storage.Store
	webhookURL       string
	secretConfigured bool
	logger           *slog.Logger
}

func NewDashboardHandler(store storage.Store, webhookURL string, secretConfigured bool, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		store:            store,
		webhookURL:       webhookURL,
		secretConfigured: secretConfigured,
		logger:           logger,
	}
}

// Reviews lists all reviews, most recently reviewed first.
func (h *DashboardHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.store.ListReviews(r.Context())
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, reviews)
}

func (h *DashboardHandler) Review(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	review, err := h.store.GetReview(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get review", "id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to fetch review")
		return
	}
	if review == nil {
		writeError(w, h.logger, http.StatusNotFound, "Review not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, review)
}

// Activity lists the newest activity entries. The optional limit query
// parameter must be a positive integer.
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, h.logger, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.store.ListActivity(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list activity", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to fetch activities")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, entries)
}

// WebhookStatus reports whether deliveries have been seen and how many
// arrived today.
func (h *DashboardHandler) WebhookStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventsToday, err := h.store.CountActivityToday(ctx)
	if err != nil {
		h.logger.Error("failed to count activity", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to fetch webhook status")
		return
	}
	latest, err := h.store.LatestActivity(ctx)
	if err != nil {
		h.logger.Error("failed to get latest activity", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to fetch webhook status")
		return
	}

	status := core.WebhookStatus{
		Configured:       eventsToday > 0 || latest != nil,
		SecretConfigured: h.secretConfigured,
		EventsToday:      eventsToday,
		URL:              h.webhookURL,
	}
	if latest != nil {
		status.LastEventTime = core.Ptr(latest.Timestamp)
	}
	writeJSON(w, h.logger, http.StatusOK, status)
}
