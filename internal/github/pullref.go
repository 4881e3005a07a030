package github

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	pullURLRegex       = regexp.MustCompile(`^(?:https?://)?[^/]+/([^/]+)/([^/]+)/pull/(\d+)$`)
	pullShorthandRegex = regexp.MustCompile(`^([^/\s#]+)/([^/\s#]+)#(\d+)$`)
)

// ParsePullRequestRef extracts owner, repository and number from a pull
// request URL (https://github.com/{owner}/{repo}/pull/{n}, any host) or the
// owner/repo#n shorthand.
func ParsePullRequestRef(ref string) (owner, repo string, number int, err error) {
	ref = strings.TrimSuffix(strings.TrimSpace(ref), "/")

	matches := pullShorthandRegex.FindStringSubmatch(ref)
	if matches == nil {
		matches = pullURLRegex.FindStringSubmatch(ref)
	}
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("invalid pull request reference: %q", ref)
	}

	number, err = strconv.Atoi(matches[3])
	if err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("invalid pull request number %q", matches[3])
	}
	return matches[1], matches[2], number, nil
}
