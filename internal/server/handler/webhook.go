package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/github"
)

// maxPayloadBytes matches the largest payload GitHub delivers.
const maxPayloadBytes = 25 << 20

// Delivery headers set by GitHub.
const (
	EventHeader    = "X-GitHub-Event"
	DeliveryHeader = "X-GitHub-Delivery"
)

// WebhookHandler verifies incoming pull request webhooks and queues them for
// review. No review work happens on the request path.
type WebhookHandler struct {
	secret     string
	dispatcher core.JobDispatcher
	deliveries *DeliveryCache
	logger     *slog.Logger
}

// NewWebhookHandler creates a new webhook handler. An empty secret makes
// every signed delivery fail with 500.
func NewWebhookHandler(secret string, dispatcher core.JobDispatcher, deliveries *DeliveryCache, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret:     secret,
		dispatcher: dispatcher,
		deliveries: deliveries,
		logger:     logger,
	}
}

// Handle processes GitHub webhook requests.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.logger, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		h.logger.Warn("failed to read webhook body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Missing signature or body")
		return
	}

	signature := r.Header.Get(github.SignatureHeader)
	if signature == "" {
		signature = r.Header.Get(github.SignatureHeaderFallback)
	}
	if signature == "" || len(body) == 0 {
		h.logger.Warn("missing signature or body", "has_signature", signature != "", "body_bytes", len(body))
		writeError(w, h.logger, http.StatusBadRequest, "Missing signature or body")
		return
	}

	if h.secret == "" {
		h.logger.Error("webhook secret not configured")
		writeError(w, h.logger, http.StatusInternalServerError, "Webhook secret not configured")
		return
	}

	if !github.VerifySignature(body, signature, h.secret) {
		h.logger.Warn("invalid webhook signature", "remote", r.RemoteAddr)
		writeError(w, h.logger, http.StatusUnauthorized, "Invalid signature")
		return
	}

	event, err := core.ParsePullRequestEvent(r.Header.Get(EventHeader), body)
	switch {
	case errors.Is(err, core.ErrNotPullRequest):
		h.logger.Debug("ignoring non-pull_request event", "type", r.Header.Get(EventHeader))
		writeMessage(w, h.logger, http.StatusOK, "Event acknowledged but not a pull_request event")
		return
	case err != nil:
		h.logger.Warn("invalid webhook payload", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid webhook payload")
		return
	}
	event.DeliveryID = r.Header.Get(DeliveryHeader)

	if !h.deliveries.Remember(event.DeliveryID) {
		h.logger.Info("duplicate delivery ignored", "delivery", event.DeliveryID, "key", event.NaturalKey())
		writeMessage(w, h.logger, http.StatusOK, "Duplicate delivery ignored")
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), event); err != nil {
		h.deliveries.Forget(event.DeliveryID)
		h.logger.Error("failed to dispatch review job", "error", err, "key", event.NaturalKey())
		writeError(w, h.logger, http.StatusServiceUnavailable, "Review queue unavailable, retry later")
		return
	}

	h.logger.Info("webhook accepted", "action", event.Action, "key", event.NaturalKey(), "delivery", event.DeliveryID)
	writeMessage(w, h.logger, http.StatusAccepted, "Webhook received, processing started")
}
