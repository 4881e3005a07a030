package github

import (
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// LineSet holds the new-side line numbers of a diff.
type LineSet map[int]struct{}

// Contains reports whether line is present.
func (s LineSet) Contains(line int) bool {
	_, ok := s[line]
	return ok
}

// ParseValidLinesFromPatch returns the lines present on the new side of a
// unified diff patch: added and context lines. Removed lines and content
// before the first well-formed hunk header are ignored.
func ParseValidLinesFromPatch(patch string) LineSet {
	valid := make(LineSet)
	current := -1

	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "@@") {
			current = -1
			if m := hunkHeaderRegex.FindStringSubmatch(line); len(m) == 2 {
				if start, err := strconv.Atoi(m[1]); err == nil {
					current = start
				}
			}
			continue
		}
		if current < 0 {
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"), strings.HasPrefix(line, " "):
			valid[current] = struct{}{}
			current++
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, `\`):
			// removed line or "\ No newline at end of file"
		}
	}
	return valid
}
