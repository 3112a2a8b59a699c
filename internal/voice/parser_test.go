package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallku/firecircle/internal/core"
)

func TestParseReviewSingleComment(t *testing.T) {
	text := `
File: internal/server/router.go
Line: 42
Category: security
Severity: critical
Issue: unauthenticated endpoint exposed
Fix: require the webhook signature middleware
`
	parsed := ParseReview(text)

	require.Len(t, parsed.Comments, 1)
	c := parsed.Comments[0]
	assert.Equal(t, "internal/server/router.go", c.File)
	assert.Equal(t, 42, c.Line)
	assert.Equal(t, core.DomainSecurity, c.Category)
	assert.Equal(t, core.SeverityCritical, c.Severity)
	assert.Equal(t, "unauthenticated endpoint exposed", c.Message)
	assert.Equal(t, "require the webhook signature middleware", c.SuggestedFix)
	assert.Equal(t, DefaultConfidence, parsed.Confidence)
}

func TestParseReviewMultipleComments(t *testing.T) {
	text := `Here is my review.

File: a.go
Line: 1
Severity: warning
Issue: first finding

File: b.go
Line: 2
Severity: info
Issue: second finding

Confidence: 0.95`
	parsed := ParseReview(text)

	require.Len(t, parsed.Comments, 2)
	assert.Equal(t, "a.go", parsed.Comments[0].File)
	assert.Equal(t, "b.go", parsed.Comments[1].File)
	assert.InDelta(t, 0.95, parsed.Confidence, 1e-9)
}

func TestParseReviewMultiLineFields(t *testing.T) {
	text := `File: a.go
Line: 10
Issue: the handler leaks the response body
because Close is never called
on the error path
Fix: defer resp.Body.Close()
immediately after the error check`
	parsed := ParseReview(text)

	require.Len(t, parsed.Comments, 1)
	assert.Equal(t,
		"the handler leaks the response body because Close is never called on the error path",
		parsed.Comments[0].Message)
	assert.Equal(t,
		"defer resp.Body.Close() immediately after the error check",
		parsed.Comments[0].SuggestedFix)
}

func TestParseReviewBlankLineClosesOpenField(t *testing.T) {
	text := `File: a.go
Issue: real finding

This paragraph is commentary, not part of the issue text.
Line: 7`
	parsed := ParseReview(text)

	require.Len(t, parsed.Comments, 1)
	assert.Equal(t, "real finding", parsed.Comments[0].Message)
	assert.Equal(t, 7, parsed.Comments[0].Line)
}

func TestParseReviewMarkdownDecorations(t *testing.T) {
	text := `- **File:** src/auth.go
- **Line:** 12
- **Category:** Security
- **Severity:** HIGH
- **Issue:** token compared with ==`
	parsed := ParseReview(text)

	require.Len(t, parsed.Comments, 1)
	c := parsed.Comments[0]
	assert.Equal(t, "src/auth.go", c.File)
	assert.Equal(t, 12, c.Line)
	assert.Equal(t, core.DomainSecurity, c.Category)
	assert.Equal(t, core.SeverityCritical, c.Severity)
}

func TestParseReviewDefaults(t *testing.T) {
	text := `File: a.go
Issue: something`
	parsed := ParseReview(text)

	require.Len(t, parsed.Comments, 1)
	c := parsed.Comments[0]
	assert.Equal(t, 0, c.Line)
	assert.Equal(t, core.DomainArchitecture, c.Category)
	assert.Equal(t, core.SeverityInfo, c.Severity)
}

func TestParseReviewNonNumericLine(t *testing.T) {
	text := `File: a.go
Line: approximately forty
Issue: x`
	parsed := ParseReview(text)

	require.Len(t, parsed.Comments, 1)
	assert.Equal(t, 0, parsed.Comments[0].Line)
}

func TestParseReviewDegenerateInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "no markers", text: "Looks good to me!\nShip it."},
		{name: "fields without file", text: "Line: 3\nSeverity: critical\nIssue: orphaned"},
		{name: "truncated mid-comment", text: "File: a.go\nLine: 1\nSever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseReview(tt.text)
			if tt.name == "truncated mid-comment" {
				// A named file still flushes, with whatever fields made it.
				require.Len(t, parsed.Comments, 1)
				assert.Equal(t, "a.go", parsed.Comments[0].File)
			} else {
				assert.Empty(t, parsed.Comments)
			}
			assert.Equal(t, DefaultConfidence, parsed.Confidence)
		})
	}
}

func TestParseReviewConfidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "fraction", text: "Confidence: 0.7", want: 0.7},
		{name: "percentage sign", text: "Confidence: 85%", want: 0.85},
		{name: "bare percentage", text: "Confidence: 90", want: 0.9},
		{name: "unparseable keeps default", text: "Confidence: very high", want: DefaultConfidence},
		{name: "negative keeps default", text: "Confidence: -0.5", want: DefaultConfidence},
		{name: "absent keeps default", text: "File: a.go\nIssue: x", want: DefaultConfidence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseReview(tt.text).Confidence, 1e-9)
		})
	}
}
