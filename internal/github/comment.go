package github

import (
	"fmt"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

var severityHeadings = map[core.Severity]string{
	core.SeverityCritical: "🚨 Critical Issues",
	core.SeverityWarning:  "⚠️ Warnings",
	core.SeverityInfo:     "ℹ️ Suggestions",
}

// FormatReviewComment renders the pull request comment for a completed
// review. Findings are grouped by severity, most severe first, and numbered
// within their group.
func FormatReviewComment(summary string, findings []core.Finding) string {
	var sb strings.Builder
	sb.WriteString("## 🤖 AI Code Review\n\n")
	sb.WriteString(summary)
	sb.WriteString("\n\n")

	if len(findings) == 0 {
		sb.WriteString("### ✅ No Issues Found\n\n")
		sb.WriteString("Great job! The AI review didn't find any significant issues with this PR.")
	}

	for _, severity := range core.SeverityOrder {
		var group []core.Finding
		for _, f := range findings {
			if f.Severity == severity {
				group = append(group, f)
			}
		}
		if len(group) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "### %s (%d)\n\n", severityHeadings[severity], len(group))
		for i, f := range group {
			writeFinding(&sb, f, i+1)
		}
	}

	sb.WriteString("\n\n---\n*Powered by PR Warden*")
	return sb.String()
}

func writeFinding(sb *strings.Builder, f core.Finding, index int) {
	fmt.Fprintf(sb, "**%d. %s**\n\n", index, f.Title)

	if f.File != "" {
		fmt.Fprintf(sb, "📁 File: `%s`", f.File)
		if f.Line > 0 {
			fmt.Fprintf(sb, " (Line %d)", f.Line)
		}
		sb.WriteString("\n\n")
	}

	sb.WriteString(f.Description)
	sb.WriteString("\n\n")

	if f.Suggestion != "" {
		fmt.Fprintf(sb, "💡 **Suggestion:** %s\n\n", f.Suggestion)
	}
}
