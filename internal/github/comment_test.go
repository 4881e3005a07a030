package github

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/pr-warden/internal/core"
)

func TestFormatReviewComment_NoFindings(t *testing.T) {
	body := FormatReviewComment("All good.", nil)

	assert.True(t, strings.HasPrefix(body, "## 🤖 AI Code Review\n\nAll good.\n\n"))
	assert.Contains(t, body, "### ✅ No Issues Found")
	assert.NotContains(t, body, "Critical Issues")
	assert.True(t, strings.HasSuffix(body, "*Powered by PR Warden*"))
}

func TestFormatReviewComment_GroupsBySeverity(t *testing.T) {
	findings := []core.Finding{
		{Severity: core.SeverityInfo, Title: "Rename variable", Description: "x is vague."},
		{Severity: core.SeverityCritical, Title: "SQL injection", Description: "Query is built from input.", File: "db/query.go", Line: 42, Suggestion: "Use placeholders."},
		{Severity: core.SeverityWarning, Title: "Unchecked error", Description: "Close error ignored.", File: "main.go"},
		{Severity: core.SeverityCritical, Title: "Secret in code", Description: "API key committed."},
	}

	body := FormatReviewComment("Needs work.", findings)

	critical := strings.Index(body, "### 🚨 Critical Issues (2)")
	warnings := strings.Index(body, "### ⚠️ Warnings (1)")
	suggestions := strings.Index(body, "### ℹ️ Suggestions (1)")
	assert.Positive(t, critical)
	assert.Greater(t, warnings, critical)
	assert.Greater(t, suggestions, warnings)

	assert.Contains(t, body, "**1. SQL injection**\n\n📁 File: `db/query.go` (Line 42)\n\nQuery is built from input.\n\n💡 **Suggestion:** Use placeholders.\n\n")
	assert.Contains(t, body, "**2. Secret in code**\n\nAPI key committed.\n\n")
	assert.Contains(t, body, "**1. Unchecked error**\n\n📁 File: `main.go`\n\nClose error ignored.\n\n")
	assert.Contains(t, body, "**1. Rename variable**")
	assert.NotContains(t, body, "No Issues Found")
}
