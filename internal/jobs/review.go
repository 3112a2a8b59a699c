package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mallku/firecircle/internal/config"
	"github.com/mallku/firecircle/internal/core"
	"github.com/mallku/firecircle/internal/diff"
	"github.com/mallku/firecircle/internal/github"
	"github.com/mallku/firecircle/internal/gitutil"
	"github.com/mallku/firecircle/internal/review"
	"github.com/mallku/firecircle/internal/storage"
)

// CircleReviewJob is a background job that performs one full circle review:
// fetch the PR diff, run the partition/dispatch/synthesis pipeline, persist
// the run, and report the outcome back to GitHub.
type CircleReviewJob struct {
	cfg    *config.Config
	runner *review.Runner
	store  storage.Store
	cloner *gitutil.Cloner
	logger *slog.Logger
}

// NewCircleReviewJob creates a new CircleReviewJob.
func NewCircleReviewJob(cfg *config.Config, runner *review.Runner, store storage.Store, logger *slog.Logger) core.Job {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if runner == nil {
		panic("runner cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &CircleReviewJob{
		cfg:    cfg,
		runner: runner,
		store:  store,
		cloner: gitutil.NewCloner(logger),
		logger: logger,
	}
}

// Run executes the circle review job for a given GitHub event.
func (j *CircleReviewJob) Run(ctx context.Context, event *core.GitHubEvent) error {
	if err := validateEvent(event); err != nil {
		j.logger.Error("input validation failed", "error", err)
		return fmt.Errorf("input validation failed: %w", err)
	}

	j.logger.Info("starting circle review", "repo", event.RepoFullName, "pr", event.PRNumber, "mode", event.Mode)

	ghClient, token, err := github.CreateInstallationClient(ctx, j.cfg, event.InstallationID, j.logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	pr, err := ghClient.GetPullRequest(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to get PR details: %w", err)
	}
	if pr.GetHead() == nil || pr.GetHead().GetSHA() == "" {
		return fmt.Errorf("PR %d has no valid head SHA", event.PRNumber)
	}
	event.HeadSHA = pr.GetHead().GetSHA()

	statusUpdater := github.NewStatusUpdater(ghClient)
	checkRunID, err := statusUpdater.InProgress(ctx, event, "Fire Circle Review", "Convening the circle...")
	if err != nil {
		return fmt.Errorf("failed to set in-progress status: %w", err)
	}

	outcome, validLines, err := j.runReview(ctx, event, ghClient, token)
	if err != nil {
		j.updateStatusOnError(ctx, statusUpdater, event, checkRunID, err.Error())
		return err
	}

	if err := j.persistRun(ctx, event, outcome); err != nil {
		// Persistence failure must not swallow the review itself.
		j.logger.Error("failed to persist review run", "repo", event.RepoFullName, "pr", event.PRNumber, "error", err)
	}

	if err := statusUpdater.PostGovernanceReview(ctx, event, outcome, validLines); err != nil {
		j.updateStatusOnError(ctx, statusUpdater, event, checkRunID, "Failed to post governance review")
		return fmt.Errorf("failed to post governance review: %w", err)
	}

	conclusion, title := conclusionFor(outcome.Summary.ConsensusRecommendation)
	if err := statusUpdater.Completed(ctx, event, checkRunID, conclusion, title, outcome.Summary.Synthesis); err != nil {
		return fmt.Errorf("failed to update completion status: %w", err)
	}

	j.logger.Info("circle review completed",
		"repo", event.RepoFullName,
		"pr", event.PRNumber,
		"consensus", outcome.Summary.ConsensusRecommendation,
		"comments", outcome.Summary.TotalComments)
	return nil
}

// runReview fetches the diff (and head checkout in full mode) and executes
// the review pipeline.
func (j *CircleReviewJob) runReview(ctx context.Context, event *core.GitHubEvent, ghClient github.Client, token string) (*review.Outcome, map[string]map[int]struct{}, error) {
	unified, err := ghClient.GetPullRequestDiff(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch PR diff: %w", err)
	}

	patches := diff.Parse(unified)

	req := review.Request{
		PRNumber: event.PRNumber,
		PRTitle:  event.PRTitle,
		PRBody:   event.PRBody,
		Diff:     unified,
	}

	if event.Mode == core.FullReview {
		cloneCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		repoPath, cleanup, err := j.cloner.CloneAtSHA(cloneCtx, event.RepoCloneURL, event.HeadSHA, token)
		if err != nil {
			// Degrade to diff-only review rather than aborting the run.
			j.logger.Warn("full review checkout failed, falling back to diff-only", "error", err)
		} else {
			defer cleanup()
			req.FileContents = j.cloner.ReadFiles(repoPath, diff.Paths(patches))
		}
	}

	outcome, err := j.runner.Run(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	validLines := make(map[string]map[int]struct{}, len(patches))
	for _, p := range patches {
		validLines[p.Path] = diff.ValidCommentLines(p.Patch, j.logger)
	}

	if err := review.WriteArtifacts(j.artifactsDir(event), outcome); err != nil {
		j.logger.Error("failed to write artifacts", "error", err)
	}

	return outcome, validLines, nil
}

func (j *CircleReviewJob) persistRun(ctx context.Context, event *core.GitHubEvent, outcome *review.Outcome) error {
	if j.store == nil {
		return nil
	}
	run := &storage.Run{
		RepoFullName:   event.RepoFullName,
		PRNumber:       event.PRNumber,
		HeadSHA:        event.HeadSHA,
		Consensus:      string(outcome.Summary.ConsensusRecommendation),
		TotalComments:  outcome.Summary.TotalComments,
		CriticalIssues: outcome.Summary.CriticalIssues,
		Synthesis:      outcome.Summary.Synthesis,
		Summary:        *outcome.Summary,
	}
	_, err := j.store.SaveRun(ctx, run, outcome.Reviews)
	return err
}

func (j *CircleReviewJob) artifactsDir(event *core.GitHubEvent) string {
	name := fmt.Sprintf("%s-%s-pr%d", event.RepoOwner, event.RepoName, event.PRNumber)
	return filepath.Join(j.cfg.Review.ArtifactsDir, name)
}

// updateStatusOnError sends a failure status to GitHub Check Runs.
func (j *CircleReviewJob) updateStatusOnError(ctx context.Context, statusUpdater github.StatusUpdater, event *core.GitHubEvent, checkRunID int64, message string) {
	if err := statusUpdater.Completed(ctx, event, checkRunID, "failure", "Review Failed", message); err != nil {
		j.logger.Error("failed to update failure status", "error", err)
	}
}

// validateEvent ensures the event carries everything a review run needs.
func validateEvent(event *core.GitHubEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.RepoOwner == "" || event.RepoName == "" {
		return fmt.Errorf("repository owner and name are required")
	}
	if event.PRNumber <= 0 {
		return fmt.Errorf("invalid pull request number: %d", event.PRNumber)
	}
	if event.InstallationID == 0 {
		return fmt.Errorf("installation ID is required")
	}
	return nil
}

// conclusionFor maps the circle's consensus onto a check run conclusion.
// The run itself succeeded either way; the conclusion signals the verdict.
func conclusionFor(c core.Consensus) (conclusion, title string) {
	switch c {
	case core.ConsensusBlock:
		return "action_required", "Circle blocks this change"
	case core.ConsensusRequestChanges:
		return "neutral", "Circle requests changes"
	default:
		return "success", "Circle approves"
	}
}
