package core

import (
	"strings"
	"time"
)

// ReviewStatus is the lifecycle state of a Review.
type ReviewStatus string

const (
	StatusPending    ReviewStatus = "pending"
	StatusInProgress ReviewStatus = "in_progress"
	StatusCompleted  ReviewStatus = "completed"
	StatusError      ReviewStatus = "error"
)

// IsTerminal reports whether the status ends a review run.
func (s ReviewStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Severity classifies a Finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// SeverityOrder is the order findings are presented in.
var SeverityOrder = []Severity{SeverityCritical, SeverityWarning, SeverityInfo}

// ParseSeverity normalizes a severity label. Labels from the common
// high/medium/low scale are mapped onto the three supported tiers.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "high", "error", "blocker":
		return SeverityCritical, true
	case "warning", "medium", "warn":
		return SeverityWarning, true
	case "info", "low", "suggestion", "note":
		return SeverityInfo, true
	default:
		return "", false
	}
}

// Finding is a single issue reported by the analysis service.
type Finding struct {
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	File        string   `json:"file,omitempty"`
	Line        int      `json:"line,omitempty"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// Review tracks the automated review of one pull request. The pair
// (Repository, PRNumber) identifies it across repeated webhook deliveries.
type Review struct {
	ID              string       `json:"id"`
	PRNumber        int          `json:"prNumber"`
	Title           string       `json:"prTitle"`
	Repository      string       `json:"repository"`
	RepositoryOwner string       `json:"repositoryOwner"`
	Author          string       `json:"author"`
	Status          ReviewStatus `json:"status"`
	Findings        []Finding    `json:"findings"`
	Summary         *string      `json:"summary"`
	ReviewedAt      time.Time    `json:"reviewedAt"`
	PRURL           string       `json:"prUrl"`
	HeadSHA         string       `json:"headSha"`
}

// RepoName returns the repository name without its owner prefix.
func (r *Review) RepoName() string {
	if _, name, ok := strings.Cut(r.Repository, "/"); ok {
		return name
	}
	return r.Repository
}

// Clone returns a deep copy so callers never share mutable state with a store.
func (r *Review) Clone() *Review {
	if r == nil {
		return nil
	}
	c := *r
	c.Findings = append([]Finding{}, r.Findings...)
	if r.Summary != nil {
		s := *r.Summary
		c.Summary = &s
	}
	return &c
}

// ReviewUpdate carries a partial update. Nil fields are left untouched.
type ReviewUpdate struct {
	Status     *ReviewStatus
	Title      *string
	HeadSHA    *string
	Summary    *string
	Findings   *[]Finding
	ReviewedAt *time.Time
}

// Apply merges the supplied fields into r.
func (u ReviewUpdate) Apply(r *Review) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.HeadSHA != nil {
		r.HeadSHA = *u.HeadSHA
	}
	if u.Summary != nil {
		s := *u.Summary
		r.Summary = &s
	}
	if u.Findings != nil {
		r.Findings = append([]Finding{}, (*u.Findings)...)
	}
	if u.ReviewedAt != nil {
		r.ReviewedAt = *u.ReviewedAt
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
