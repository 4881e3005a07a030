package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

var (
	// ErrNotPullRequest marks a well-formed delivery that is not a pull request event.
	ErrNotPullRequest = errors.New("event is not a pull request event")
	// ErrInvalidEvent marks a pull request payload that is missing required data.
	ErrInvalidEvent = errors.New("invalid pull request event")
)

// Actions that start a review.
const (
	ActionOpened      = "opened"
	ActionSynchronize = "synchronize"
	ActionReopened    = "reopened"
)

// PullRequestEvent represents a simplified, internal view of a GitHub
// pull_request webhook delivery.
type PullRequestEvent struct {
	DeliveryID string
	Action     string

	RepoOwner    string
	RepoName     string
	RepoFullName string

	PRNumber int
	PRTitle  string
	PRBody   string
	PRURL    string
	HeadSHA  string
	Author   string
}

// IsReviewable reports whether the action should start a review.
func (e *PullRequestEvent) IsReviewable() bool {
	switch e.Action {
	case ActionOpened, ActionSynchronize, ActionReopened:
		return true
	default:
		return false
	}
}

// NaturalKey identifies the tracked review for this event.
func (e *PullRequestEvent) NaturalKey() string {
	return fmt.Sprintf("%s#%d", e.RepoFullName, e.PRNumber)
}

// ParsePullRequestEvent transforms a verified webhook payload into the
// application's internal PullRequestEvent. It acts as an anti-corruption layer:
// eventType is the X-GitHub-Event header and may be empty when the sender does
// not provide one.
//
// Returned errors wrap ErrNotPullRequest for well-formed deliveries that carry
// nothing to review (ping, push, ...) and ErrInvalidEvent for malformed ones.
func ParsePullRequestEvent(eventType string, payload []byte) (*PullRequestEvent, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON: %w", ErrInvalidEvent, err)
	}

	eventType = strings.TrimSpace(eventType)
	if eventType != "" && eventType != "pull_request" {
		return nil, fmt.Errorf("%w: %s", ErrNotPullRequest, eventType)
	}
	if raw, ok := probe["pull_request"]; !ok || string(raw) == "null" {
		return nil, ErrNotPullRequest
	}

	var event github.PullRequestEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	pr := event.GetPullRequest()
	number := pr.GetNumber()
	if number <= 0 {
		number = event.GetNumber()
	}
	if number <= 0 {
		return nil, fmt.Errorf("%w: pull request number is missing", ErrInvalidEvent)
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetName() == "" || repo.GetOwner().GetLogin() == "" {
		return nil, fmt.Errorf("%w: repository or owner information is missing", ErrInvalidEvent)
	}
	fullName := repo.GetFullName()
	if fullName == "" {
		fullName = repo.GetOwner().GetLogin() + "/" + repo.GetName()
	}

	return &PullRequestEvent{
		Action:       event.GetAction(),
		RepoOwner:    repo.GetOwner().GetLogin(),
		RepoName:     repo.GetName(),
		RepoFullName: fullName,
		PRNumber:     number,
		PRTitle:      pr.GetTitle(),
		PRBody:       pr.GetBody(),
		PRURL:        pr.GetHTMLURL(),
		HeadSHA:      pr.GetHead().GetSHA(),
		Author:       pr.GetUser().GetLogin(),
	}, nil
}
