package jobs

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/pr-warden/internal/core"
)

func TestValidateFindingLines(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	files := []core.ChangedFile{
		{Path: "main.go", Patch: "@@ -1,3 +1,4 @@\n package main\n+import \"fmt\"\n \n-func old() {}\n+func main() {}"},
		{Path: "pkg/util.go", Patch: "@@ -10,2 +20,2 @@\n ctx\n+added"},
		{Path: "logo.png"},
	}

	tests := []struct {
		name     string
		finding  core.Finding
		wantLine int
	}{
		{name: "added line", finding: core.Finding{File: "main.go", Line: 2}, wantLine: 2},
		{name: "context line", finding: core.Finding{File: "main.go", Line: 1}, wantLine: 1},
		{name: "line after removal", finding: core.Finding{File: "main.go", Line: 4}, wantLine: 4},
		{name: "beyond hunk", finding: core.Finding{File: "main.go", Line: 5}, wantLine: 0},
		{name: "offset hunk", finding: core.Finding{File: "./pkg/util.go", Line: 21}, wantLine: 21},
		{name: "old side numbering", finding: core.Finding{File: "pkg/util.go", Line: 10}, wantLine: 0},
		{name: "file not in diff", finding: core.Finding{File: "other.go", Line: 1}, wantLine: 0},
		{name: "file without patch", finding: core.Finding{File: "logo.png", Line: 1}, wantLine: 0},
		{name: "unanchored", finding: core.Finding{File: "main.go"}, wantLine: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.finding.Title = tt.name
			got := ValidateFindingLines(logger, []core.Finding{tt.finding}, files)

			if assert.Len(t, got, 1, "findings are never dropped") {
				assert.Equal(t, tt.wantLine, got[0].Line)
				assert.Equal(t, tt.finding.File, got[0].File)
			}
		})
	}
}

func TestValidateFindingLines_DoesNotMutateInput(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	findings := []core.Finding{{File: "gone.go", Line: 3}}

	got := ValidateFindingLines(logger, findings, nil)

	assert.Equal(t, 0, got[0].Line)
	assert.Equal(t, 3, findings[0].Line)
}
