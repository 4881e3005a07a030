package core

import "time"

// EventType enumerates the entries of the activity log.
type EventType string

const (
	EventWebhookReceived EventType = "webhook_received"
	EventPROpened        EventType = "pr_opened"
	EventReviewCompleted EventType = "review_completed"
	EventCommentPosted   EventType = "comment_posted"
)

// Activity is a write-once audit entry.
type Activity struct {
	ID        string         `json:"id"`
	EventType EventType      `json:"eventType"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
}

// WebhookStatus summarizes webhook health for the status endpoint.
type WebhookStatus struct {
	// Configured is true once any activity has been recorded.
	Configured       bool       `json:"configured"`
	SecretConfigured bool       `json:"secretConfigured"`
	LastEventTime    *time.Time `json:"lastEventTime,omitempty"`
	EventsToday      int        `json:"eventsToday"`
	URL              string     `json:"url"`
}
