package github

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v73/github"
)

// Classified GitHub API failures. Errors returned by ChangeSource wrap one of
// these together with the underlying go-github error.
var (
	ErrNotFound    = errors.New("github: not found")
	ErrForbidden   = errors.New("github: access denied")
	ErrRateLimited = errors.New("github: rate limited")
)

func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrForbidden, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}
	return err
}
