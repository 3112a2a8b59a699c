package github

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v73/github"

	"github.com/mallku/firecircle/internal/core"
	"github.com/mallku/firecircle/internal/review"
)

// StatusUpdater defines the contract for updating the status of a GitHub
// Check Run and posting the governance review on a pull request.
type StatusUpdater interface {
	InProgress(ctx context.Context, event *core.GitHubEvent, title, summary string) (int64, error)
	Completed(ctx context.Context, event *core.GitHubEvent, checkRunID int64, conclusion, title, summary string) error
	PostGovernanceReview(ctx context.Context, event *core.GitHubEvent, outcome *review.Outcome, validLines map[string]map[int]struct{}) error
	PostSimpleComment(ctx context.Context, event *core.GitHubEvent, body string) error
}

type statusUpdater struct {
	client Client
}

// NewStatusUpdater creates and returns a new instance of a statusUpdater.
func NewStatusUpdater(client Client) StatusUpdater {
	return &statusUpdater{client: client}
}

// PostSimpleComment posts a single, general comment on the pull request.
func (s *statusUpdater) PostSimpleComment(ctx context.Context, event *core.GitHubEvent, body string) error {
	return s.client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber, body)
}

// InProgress creates a new GitHub Check Run with an "in_progress" status.
func (s *statusUpdater) InProgress(ctx context.Context, event *core.GitHubEvent, title, summary string) (int64, error) {
	opts := github.CreateCheckRunOptions{
		Name:    "Fire Circle Review",
		HeadSHA: event.HeadSHA,
		Status:  github.Ptr("in_progress"),
		Output: &github.CheckRunOutput{
			Title:   &title,
			Summary: &summary,
		},
	}
	checkRun, err := s.client.CreateCheckRun(ctx, event.RepoOwner, event.RepoName, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to create check run: %w", err)
	}
	return checkRun.GetID(), nil
}

// Completed updates an existing GitHub Check Run to a "completed" status.
func (s *statusUpdater) Completed(ctx context.Context, event *core.GitHubEvent, checkRunID int64, conclusion, title, summary string) error {
	now := time.Now()
	opts := github.UpdateCheckRunOptions{
		Status:      github.Ptr("completed"),
		Conclusion:  &conclusion,
		CompletedAt: &github.Timestamp{Time: now},
		Output: &github.CheckRunOutput{
			Title:   &title,
			Summary: &summary,
		},
	}
	_, err := s.client.UpdateCheckRun(ctx, event.RepoOwner, event.RepoName, checkRunID, opts)
	return err
}

// PostGovernanceReview posts the governance summary as a pull request review
// with inline comments. Comments are attached inline only for lines the diff
// can receive comments on (per validLines); everything else stays in the
// summary body so no finding is lost.
func (s *statusUpdater) PostGovernanceReview(ctx context.Context, event *core.GitHubEvent, outcome *review.Outcome, validLines map[string]map[int]struct{}) error {
	var inline []DraftReviewComment
	var overflow []core.ReviewComment

	for _, r := range outcome.Reviews {
		for _, c := range r.Comments {
			if isCommentable(c, validLines) {
				inline = append(inline, DraftReviewComment{
					Path: c.File,
					Line: c.Line,
					Body: formatInlineComment(r.Voice, c),
				})
			} else {
				overflow = append(overflow, c)
			}
		}
	}

	body := formatSummaryBody(outcome, overflow)
	return s.client.CreateReview(ctx, event.RepoOwner, event.RepoName, event.PRNumber, body, inline)
}

func isCommentable(c core.ReviewComment, validLines map[string]map[int]struct{}) bool {
	if c.File == "" || c.Line <= 0 {
		return false
	}
	lines, ok := validLines[c.File]
	if !ok {
		return false
	}
	_, ok = lines[c.Line]
	return ok
}

// formatInlineComment renders one finding as an inline review comment.
func formatInlineComment(voice string, c core.ReviewComment) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s %s | %s | voice: %s\n\n", severityEmoji(c.Severity), c.Severity, c.Category, voice)
	sb.WriteString(c.Message)
	if c.SuggestedFix != "" {
		fmt.Fprintf(&sb, "\n\n**Fix:** %s", c.SuggestedFix)
	}

	return sb.String()
}

// formatSummaryBody renders the governance summary, failure accounting, and
// any findings that could not be attached inline.
func formatSummaryBody(outcome *review.Outcome, overflow []core.ReviewComment) string {
	s := outcome.Summary

	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s Fire Circle consensus: %s\n\n", consensusEmoji(s.ConsensusRecommendation), s.ConsensusRecommendation)
	sb.WriteString(s.Synthesis)
	sb.WriteString("\n")

	if len(s.ByVoice) > 0 {
		sb.WriteString("\n| Voice | Comments |\n|-------|----------|\n")
		voices := make([]string, 0, len(s.ByVoice))
		for v := range s.ByVoice {
			voices = append(voices, v)
		}
		sort.Strings(voices)
		for _, v := range voices {
			fmt.Fprintf(&sb, "| %s | %d |\n", v, s.ByVoice[v])
		}
	}

	if failed := incompleteReviews(outcome.Reviews); len(failed) > 0 {
		sb.WriteString("\n> [!WARNING]\n")
		fmt.Fprintf(&sb, "> %d chapter(s) did not complete: %s. Their findings are missing, not absent.\n",
			len(failed), strings.Join(failed, ", "))
	}

	if len(outcome.Unmatched) > 0 {
		sb.WriteString("\n> [!NOTE]\n")
		fmt.Fprintf(&sb, "> %d changed file(s) matched no chapter and were not reviewed: %s\n",
			len(outcome.Unmatched), strings.Join(outcome.Unmatched, ", "))
	}

	if len(overflow) > 0 {
		sb.WriteString("\n<details>\n<summary>Findings outside the commentable diff</summary>\n\n")
		for _, c := range overflow {
			fmt.Fprintf(&sb, "- %s `%s:%d` [%s] %s\n", severityEmoji(c.Severity), c.File, c.Line, c.Category, c.Message)
		}
		sb.WriteString("\n</details>\n")
	}

	return sb.String()
}

func incompleteReviews(reviews []core.ChapterReview) []string {
	var failed []string
	for _, r := range reviews {
		if !r.Completed {
			failed = append(failed, fmt.Sprintf("%s (%s)", r.ChapterID, r.Voice))
		}
	}
	sort.Strings(failed)
	return failed
}

func consensusEmoji(c core.Consensus) string {
	switch c {
	case core.ConsensusApprove:
		return "✅"
	case core.ConsensusRequestChanges:
		return "🟡"
	case core.ConsensusBlock:
		return "🔴"
	default:
		return "📝"
	}
}

func severityEmoji(sev core.Severity) string {
	switch sev {
	case core.SeverityCritical:
		return "🔴"
	case core.SeverityWarning:
		return "🟡"
	case core.SeverityInfo:
		return "🟢"
	default:
		return "⚪"
	}
}
