package jobs

import (
	"log/slog"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/github"
)

// ValidateFindingLines checks every anchored finding against the new-side
// lines of its file's patch. Findings pointing outside the diff are kept but
// lose their line anchor. The input slice is not modified.
func ValidateFindingLines(logger *slog.Logger, findings []core.Finding, files []core.ChangedFile) []core.Finding {
	validLines := make(map[string]github.LineSet, len(files))
	for _, f := range files {
		if f.Patch == "" {
			continue
		}
		validLines[strings.TrimPrefix(f.Path, "./")] = github.ParseValidLinesFromPatch(f.Patch)
	}

	out := make([]core.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Line > 0 {
			cleanPath := strings.TrimPrefix(f.File, "./")
			lines, exists := validLines[cleanPath]
			switch {
			case !exists:
				logger.Warn("dropping line anchor (file not in diff)", "file", f.File, "line", f.Line)
				f.Line = 0
			case !lines.Contains(f.Line):
				logger.Warn("dropping line anchor (off-diff line)", "file", f.File, "line", f.Line)
				f.Line = 0
			}
		}
		out = append(out, f)
	}
	return out
}
