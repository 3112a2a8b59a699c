package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mallku/firecircle/internal/core"
)

// Synthesize aggregates all chapter reviews of one run into a single
// governance summary. It is a pure function of its inputs: the same reviews
// always produce an identical summary, including the synthesis text, since
// everything upstream of it (the LLM calls) is the only nondeterministic
// part of the pipeline.
func Synthesize(prNumber int, reviews []core.ChapterReview) *core.GovernanceSummary {
	summary := &core.GovernanceSummary{
		PRNumber:   prNumber,
		ByCategory: make(map[string]int),
		ByVoice:    make(map[string]int),
	}

	var warnings int
	var failedVoices []string

	for _, r := range reviews {
		if !r.Completed {
			summary.VoicesFailed++
			failedVoices = append(failedVoices, fmt.Sprintf("%s (%s)", r.Voice, r.ChapterID))
			continue
		}
		summary.VoicesPresent++

		for _, c := range r.Comments {
			summary.TotalComments++
			summary.ByCategory[string(c.Category)]++
			summary.ByVoice[r.Voice]++

			switch c.Severity {
			case core.SeverityCritical:
				summary.CriticalIssues++
			case core.SeverityWarning:
				warnings++
			}
		}
	}

	switch {
	case summary.CriticalIssues > 0:
		summary.ConsensusRecommendation = core.ConsensusBlock
	case warnings > 0:
		summary.ConsensusRecommendation = core.ConsensusRequestChanges
	default:
		summary.ConsensusRecommendation = core.ConsensusApprove
	}

	summary.Synthesis = synthesisText(summary, failedVoices)
	return summary
}

// synthesisText renders the deterministic prose summary. Map iteration is
// replaced with sorted key order so the output is byte-stable.
func synthesisText(s *core.GovernanceSummary, failedVoices []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Fire Circle convened %d voice(s)", s.VoicesPresent+s.VoicesFailed)
	if s.VoicesFailed > 0 {
		fmt.Fprintf(&sb, " (%d did not complete)", s.VoicesFailed)
	}
	fmt.Fprintf(&sb, ": %d comment(s), %d critical.", s.TotalComments, s.CriticalIssues)

	if len(s.ByCategory) > 0 {
		categories := make([]string, 0, len(s.ByCategory))
		for cat := range s.ByCategory {
			categories = append(categories, cat)
		}
		sort.Strings(categories)

		parts := make([]string, 0, len(categories))
		for _, cat := range categories {
			parts = append(parts, fmt.Sprintf("%s: %d", cat, s.ByCategory[cat]))
		}
		fmt.Fprintf(&sb, " By category: %s.", strings.Join(parts, ", "))
	}

	if len(failedVoices) > 0 {
		sort.Strings(failedVoices)
		fmt.Fprintf(&sb, " Voices without review: %s.", strings.Join(failedVoices, ", "))
	}

	fmt.Fprintf(&sb, " Consensus: %s.", s.ConsensusRecommendation)
	return sb.String()
}
