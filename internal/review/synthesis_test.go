package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallku/firecircle/internal/core"
)

func completedReview(voice, chapterID string, comments ...core.ReviewComment) core.ChapterReview {
	return core.ChapterReview{
		Voice:      voice,
		ChapterID:  chapterID,
		Comments:   comments,
		Confidence: 0.9,
		Completed:  true,
	}
}

func failedReview(voice, chapterID string) core.ChapterReview {
	return core.ChapterReview{Voice: voice, ChapterID: chapterID}
}

func comment(severity core.Severity, category core.ReviewDomain) core.ReviewComment {
	return core.ReviewComment{File: "a.go", Line: 1, Severity: severity, Category: category, Message: "m"}
}

func TestSynthesizeConsensus(t *testing.T) {
	tests := []struct {
		name    string
		reviews []core.ChapterReview
		want    core.Consensus
	}{
		{
			name: "clean reviews approve",
			reviews: []core.ChapterReview{
				completedReview("claude", "c1"),
				completedReview("gpt", "c2", comment(core.SeverityInfo, core.DomainTesting)),
			},
			want: core.ConsensusApprove,
		},
		{
			name: "warning requests changes",
			reviews: []core.ChapterReview{
				completedReview("claude", "c1", comment(core.SeverityWarning, core.DomainPerformance)),
			},
			want: core.ConsensusRequestChanges,
		},
		{
			name: "single critical blocks",
			reviews: []core.ChapterReview{
				completedReview("claude", "c1", comment(core.SeverityInfo, core.DomainTesting)),
				completedReview("gpt", "c2", comment(core.SeverityCritical, core.DomainSecurity)),
			},
			want: core.ConsensusBlock,
		},
		{
			name: "critical outranks warnings",
			reviews: []core.ChapterReview{
				completedReview("claude", "c1",
					comment(core.SeverityWarning, core.DomainSecurity),
					comment(core.SeverityCritical, core.DomainSecurity)),
			},
			want: core.ConsensusBlock,
		},
		{
			name:    "no reviews approve",
			reviews: nil,
			want:    core.ConsensusApprove,
		},
		{
			name: "failed voices do not affect consensus",
			reviews: []core.ChapterReview{
				failedReview("claude", "c1"),
				completedReview("gpt", "c2"),
			},
			want: core.ConsensusApprove,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Synthesize(7, tt.reviews)
			assert.Equal(t, tt.want, summary.ConsensusRecommendation)
		})
	}
}

func TestSynthesizeCounts(t *testing.T) {
	reviews := []core.ChapterReview{
		completedReview("claude", "c1",
			comment(core.SeverityCritical, core.DomainSecurity),
			comment(core.SeverityInfo, core.DomainSecurity)),
		completedReview("gpt", "c2",
			comment(core.SeverityWarning, core.DomainPerformance)),
		failedReview("gemini", "c3"),
	}

	summary := Synthesize(12, reviews)

	assert.Equal(t, 12, summary.PRNumber)
	assert.Equal(t, 3, summary.TotalComments)
	assert.Equal(t, 1, summary.CriticalIssues)
	assert.Equal(t, 2, summary.VoicesPresent)
	assert.Equal(t, 1, summary.VoicesFailed)
	assert.Equal(t, map[string]int{"security": 2, "performance": 1}, summary.ByCategory)
	assert.Equal(t, map[string]int{"claude": 2, "gpt": 1}, summary.ByVoice)
}

func TestSynthesizeDeterministic(t *testing.T) {
	reviews := []core.ChapterReview{
		completedReview("claude", "c1",
			comment(core.SeverityWarning, core.DomainSecurity),
			comment(core.SeverityInfo, core.DomainPerformance),
			comment(core.SeverityInfo, core.DomainTesting)),
		completedReview("gpt", "c2",
			comment(core.SeverityInfo, core.DomainArchitecture)),
		failedReview("gemini", "c3"),
		failedReview("ollama", "c4"),
	}

	first := Synthesize(3, reviews)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Synthesize(3, reviews))
	}
}

func TestSynthesizeTextMentionsFailures(t *testing.T) {
	summary := Synthesize(1, []core.ChapterReview{
		completedReview("claude", "c1"),
		failedReview("gemini", "c3"),
	})

	require.NotEmpty(t, summary.Synthesis)
	assert.Contains(t, summary.Synthesis, "1 did not complete")
	assert.Contains(t, summary.Synthesis, "gemini (c3)")
	assert.Contains(t, summary.Synthesis, "Consensus: approve")
}
