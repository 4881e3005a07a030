package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

// ErrMalformedAnalysis marks model output that is empty, not JSON, or does
// not carry a usable summary and findings list.
var ErrMalformedAnalysis = errors.New("malformed analysis response")

type rawFinding struct {
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	File        string `json:"file"`

	// Line is decoded loosely: models emit 12, 12.0, "12" or null alike.
	Line       json.RawMessage `json:"line"`
	Suggestion string          `json:"suggestion"`
}

type rawAnalysis struct {
	Summary  *string       `json:"summary"`
	Findings *[]rawFinding `json:"findings"`
}

// parseAnalysis decodes and validates the model output. Severity labels are
// normalized; a finding with an unknown severity or no title rejects the whole
// response.
func parseAnalysis(output string) (*core.Analysis, error) {
	payload := extractJSON(output)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedAnalysis)
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedAnalysis, err)
	}
	if raw.Summary == nil || strings.TrimSpace(*raw.Summary) == "" {
		return nil, fmt.Errorf("%w: summary is missing", ErrMalformedAnalysis)
	}
	if raw.Findings == nil {
		return nil, fmt.Errorf("%w: findings are missing", ErrMalformedAnalysis)
	}

	analysis := &core.Analysis{
		Summary:  strings.TrimSpace(*raw.Summary),
		Findings: make([]core.Finding, 0, len(*raw.Findings)),
	}
	for i, f := range *raw.Findings {
		severity, ok := core.ParseSeverity(f.Severity)
		if !ok {
			return nil, fmt.Errorf("%w: finding %d has unknown severity %q", ErrMalformedAnalysis, i, f.Severity)
		}
		title := strings.TrimSpace(f.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: finding %d has no title", ErrMalformedAnalysis, i)
		}
		line := lineNumber(f.Line)
		if f.File == "" {
			line = 0
		}
		analysis.Findings = append(analysis.Findings, core.Finding{
			Severity:    severity,
			Title:       title,
			Description: strings.TrimSpace(f.Description),
			File:        strings.TrimPrefix(strings.TrimSpace(f.File), "./"),
			Line:        line,
			Suggestion:  strings.TrimSpace(f.Suggestion),
		})
	}
	return analysis, nil
}

// lineNumber reads an optional line anchor. Anything that is not a positive
// whole number counts as absent.
func lineNumber(raw json.RawMessage) int {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return 0
	}

	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if n < 1 || n > math.MaxInt32 || n != math.Trunc(n) {
		return 0
	}
	return int(n)
}

// extractJSON strips a wrapping code fence and any prose around the outermost
// JSON object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
