// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import "strings"

// ReviewDomain tags the area of concern a chapter's reviewer focuses on.
type ReviewDomain string

const (
	DomainSecurity      ReviewDomain = "security"
	DomainPerformance   ReviewDomain = "performance"
	DomainArchitecture  ReviewDomain = "architecture"
	DomainTesting       ReviewDomain = "testing"
	DomainDocumentation ReviewDomain = "documentation"
	DomainEthics        ReviewDomain = "ethics"
	DomainSovereignty   ReviewDomain = "sovereignty"
	DomainObservability ReviewDomain = "observability"
)

// KnownDomains lists every recognized review domain tag.
var KnownDomains = []ReviewDomain{
	DomainSecurity,
	DomainPerformance,
	DomainArchitecture,
	DomainTesting,
	DomainDocumentation,
	DomainEthics,
	DomainSovereignty,
	DomainObservability,
}

// ParseDomain normalizes a free-form domain string. Unknown tags are kept
// as-is (lowercased) rather than rejected, because manifest authors and
// reviewer output are not under our control.
func ParseDomain(s string) ReviewDomain {
	return ReviewDomain(strings.ToLower(strings.TrimSpace(s)))
}

// IsKnownDomain reports whether d is one of the recognized domain tags.
func IsKnownDomain(d ReviewDomain) bool {
	for _, k := range KnownDomains {
		if d == k {
			return true
		}
	}
	return false
}

// Severity grades a single review comment.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ParseSeverity maps free-form reviewer output onto the severity scale.
// Anything unrecognized falls back to info rather than failing the parse.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "blocker", "high":
		return SeverityCritical
	case "warning", "warn", "medium":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Consensus is the aggregate recommendation for one review run.
type Consensus string

const (
	ConsensusApprove        Consensus = "approve"
	ConsensusRequestChanges Consensus = "request-changes"
	ConsensusBlock          Consensus = "block"
)

// Chapter binds a file-glob pattern to a reviewer voice and its review domains.
// Chapters are loaded once per run from the manifest and are immutable after that.
type Chapter struct {
	ID            string
	PathPattern   string
	Description   string
	AssignedVoice string
	ReviewDomains []ReviewDomain
}

// ReviewJob pairs one chapter with the changed files assigned to it and the
// diff hunks touching those files. It is created by the partitioner and
// consumed by the dispatcher.
type ReviewJob struct {
	Chapter Chapter
	Files   []string
	Diff    string
}

// ReviewComment is a single issue found by a reviewer voice.
type ReviewComment struct {
	File         string       `json:"file"`
	Line         int          `json:"line,omitempty"`
	Category     ReviewDomain `json:"category"`
	Severity     Severity     `json:"severity"`
	Message      string       `json:"message"`
	SuggestedFix string       `json:"suggested_fix,omitempty"`
}

// ChapterReview is one voice's structured output for one chapter.
// Confidence is an opaque self-reported score in [0,1]; higher means the
// voice was more confident in its assessment. A failed dispatch yields a
// ChapterReview with Completed=false, no comments and confidence 0.
type ChapterReview struct {
	Voice      string          `json:"voice"`
	ChapterID  string          `json:"chapter_id"`
	Comments   []ReviewComment `json:"comments"`
	Confidence float64         `json:"confidence"`
	Completed  bool            `json:"completed"`
}

// GovernanceSummary is the terminal artifact of a review run: the aggregate
// over all chapter reviews plus the consensus recommendation.
type GovernanceSummary struct {
	PRNumber                int            `json:"pr_number"`
	ConsensusRecommendation Consensus      `json:"consensus_recommendation"`
	TotalComments           int            `json:"total_comments"`
	CriticalIssues          int            `json:"critical_issues"`
	ByCategory              map[string]int `json:"by_category"`
	ByVoice                 map[string]int `json:"by_voice"`
	VoicesPresent           int            `json:"voices_present"`
	VoicesFailed            int            `json:"voices_failed"`
	Synthesis               string         `json:"synthesis"`
}
