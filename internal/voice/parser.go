package voice

import (
	"strconv"
	"strings"

	"github.com/mallku/firecircle/internal/core"
)

// DefaultConfidence is assigned when a voice completes a review without
// self-reporting a confidence signature.
const DefaultConfidence = 0.8

// ParsedReview is the structured result of one voice response.
type ParsedReview struct {
	Comments   []core.ReviewComment
	Confidence float64
}

// field markers a reviewer response is prompted to emit. Matching is
// case-insensitive and tolerates leading list bullets and bold markers,
// since the text generator upstream is not under our control.
const (
	markerFile       = "file:"
	markerLine       = "line:"
	markerCategory   = "category:"
	markerSeverity   = "severity:"
	markerIssue      = "issue:"
	markerFix        = "fix:"
	markerConfidence = "confidence:"
)

// ParseReview extracts structured comments from a voice's free-text response.
// It is a line-oriented state machine: a recognized field marker closes the
// previous field and opens a new one; continuation lines are space-joined
// onto the open Issue/Fix field; a blank line closes the open free-text field
// without closing the in-progress comment; a new File: marker flushes the
// previous comment if it named a file. Malformed fields degrade to defaults,
// never to an error.
func ParseReview(text string) ParsedReview {
	parsed := ParsedReview{Confidence: DefaultConfidence}

	var current *core.ReviewComment
	var openField string // "issue" or "fix" while a free-text field accepts continuations

	flush := func() {
		if current != nil && current.File != "" {
			if current.Category == "" {
				current.Category = core.DomainArchitecture
			}
			if current.Severity == "" {
				current.Severity = core.SeverityInfo
			}
			parsed.Comments = append(parsed.Comments, *current)
		}
		current = nil
		openField = ""
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := normalizeLine(rawLine)

		if line == "" {
			openField = ""
			continue
		}

		marker, value := splitMarker(line)
		switch marker {
		case markerFile:
			flush()
			current = &core.ReviewComment{File: strings.TrimSpace(value)}
		case markerLine:
			openField = ""
			if current != nil {
				// Non-numeric line numbers default to 0.
				n, err := strconv.Atoi(strings.TrimSpace(value))
				if err != nil || n < 0 {
					n = 0
				}
				current.Line = n
			}
		case markerCategory:
			openField = ""
			if current != nil {
				current.Category = core.ParseDomain(value)
			}
		case markerSeverity:
			openField = ""
			if current != nil {
				current.Severity = core.ParseSeverity(value)
			}
		case markerIssue:
			if current != nil {
				current.Message = strings.TrimSpace(value)
				openField = "issue"
			}
		case markerFix:
			if current != nil {
				current.SuggestedFix = strings.TrimSpace(value)
				openField = "fix"
			}
		case markerConfidence:
			openField = ""
			if c, ok := parseConfidence(value); ok {
				parsed.Confidence = c
			}
		default:
			// Continuation lines only extend an open free-text field.
			switch openField {
			case "issue":
				current.Message = joinText(current.Message, line)
			case "fix":
				current.SuggestedFix = joinText(current.SuggestedFix, line)
			}
		}
	}
	flush()

	return parsed
}

// normalizeLine strips whitespace, list bullets, and bold markers so that
// "- **File:** x.py" and "File: x.py" parse the same way.
func normalizeLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "- ")
	line = strings.TrimPrefix(line, "* ")
	line = strings.ReplaceAll(line, "**", "")
	return strings.TrimSpace(line)
}

// splitMarker returns the recognized field marker opening the line, if any,
// and the remainder of the line after it.
func splitMarker(line string) (string, string) {
	lower := strings.ToLower(line)
	for _, m := range []string{markerFile, markerLine, markerCategory, markerSeverity, markerIssue, markerFix, markerConfidence} {
		if strings.HasPrefix(lower, m) {
			return m, line[len(m):]
		}
	}
	return "", line
}

func joinText(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + " " + line
}

// parseConfidence reads a self-reported confidence signature. Values above 1
// are treated as percentages; anything unparseable is ignored.
func parseConfidence(value string) (float64, bool) {
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "%"))
	c, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	if c > 1 {
		c /= 100
	}
	if c < 0 || c > 1 {
		return 0, false
	}
	return c, true
}
