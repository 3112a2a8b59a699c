package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mallku/firecircle/internal/config"
	"github.com/mallku/firecircle/internal/core"
	"github.com/mallku/firecircle/internal/diff"
	"github.com/mallku/firecircle/internal/github"
	"github.com/mallku/firecircle/internal/gitutil"
	"github.com/mallku/firecircle/internal/logger"
	"github.com/mallku/firecircle/internal/manifest"
	"github.com/mallku/firecircle/internal/review"
	"github.com/mallku/firecircle/internal/voice"
)

var (
	verbose      bool
	fullMode     bool
	artifactsDir string
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgWhite)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Convene the fire circle on a GitHub Pull Request",
	Long: `Convene the fire circle on a GitHub Pull Request.

The review command fetches the PR diff, partitions the changed files into
chapters per the manifest, dispatches each chapter to its assigned voice
concurrently, and prints the synthesized governance summary.

The command exits zero whenever a synthesis was produced, even if some
voices failed; partial circles still govern. Only configuration errors
exit non-zero.

Examples:
  circle-cli review https://github.com/owner/repo/pull/123
  circle-cli review --full https://github.com/owner/repo/pull/123
  circle-cli review --verbose https://github.com/owner/repo/pull/123`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
	reviewCmd.Flags().BoolVar(&fullMode, "full", false, "Send full file contents to the voices, not just diff hunks")
	reviewCmd.Flags().StringVar(&artifactsDir, "artifacts", "", "Write per-chapter JSON artifacts into this directory")
	rootCmd.AddCommand(reviewCmd)
}

// stepTimer tracks timing for verbose output
type stepTimer struct {
	stepNum    int
	totalSteps int
	start      time.Time
	verbose    bool
}

func newStepTimer(totalSteps int, verbose bool) *stepTimer {
	return &stepTimer{
		stepNum:    0,
		totalSteps: totalSteps,
		verbose:    verbose,
	}
}

func (t *stepTimer) step(name string) {
	t.stepNum++
	t.start = time.Now()
	if t.verbose {
		titleColor.Printf("\n🔧 Step %d/%d: %s...\n", t.stepNum, t.totalSteps, name)
	} else {
		fmt.Printf("%s...\n", name)
	}
}

func (t *stepTimer) done(details ...string) {
	if t.verbose {
		elapsed := time.Since(t.start).Round(time.Millisecond)
		successColor.Printf("   ✓ Done (%s)\n", elapsed)
		for _, d := range details {
			dimColor.Printf("   └── %s\n", d)
		}
	}
}

func (t *stepTimer) info(format string, args ...any) {
	if t.verbose {
		dimColor.Printf("   ├── "+format+"\n", args...)
	}
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	prURL := args[0]

	timer := newStepTimer(4, verbose)
	overallStart := time.Now()

	titleColor.Println("🔥 Fire Circle - PR Review")
	dimColor.Printf("   Target: %s\n\n", prURL)

	// 1. Initialize the circle
	timer.step("Initializing the circle")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\n\nTip: Check that your config.yaml exists and is valid", err)
	}
	log := logger.NewLogger(cfg.Logger, os.Stderr)

	registry, err := voice.NewRegistry(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build voice registry: %w", err)
	}

	chapters, err := manifest.Load(cfg.Review.ManifestPath, registry.Names())
	if err != nil {
		return fmt.Errorf("failed to load chapter manifest: %w\n\nTip: Run 'circle-cli chapters validate' to inspect the manifest", err)
	}

	prompts, err := voice.NewPromptManager()
	if err != nil {
		return fmt.Errorf("failed to initialize prompt manager: %w", err)
	}
	runner := review.NewRunner(chapters, registry, prompts, cfg.Review.VoiceTimeout, log)
	timer.info("Voices: %s", strings.Join(registry.Names(), ", "))
	timer.info("Chapters: %d", len(chapters))
	timer.done()

	// 2. Fetch PR metadata and diff
	timer.step("Fetching PR diff")
	owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(prURL)
	if err != nil {
		return fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}

	token := resolveToken(cfg)
	if token == "" {
		return fmt.Errorf("GITHUB_TOKEN is not set\n\nTip: Set FIRECIRCLE_GITHUB_TOKEN or pass --github-token")
	}
	ghClient := github.NewPATClient(ctx, token, log)

	pr, err := ghClient.GetPullRequest(ctx, owner, repoName, prNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch PR: %w\n\nTip: Check that the PR exists and your token has access", err)
	}
	unified, err := ghClient.GetPullRequestDiff(ctx, owner, repoName, prNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch PR diff: %w", err)
	}
	timer.info("PR #%d: %s", pr.GetNumber(), pr.GetTitle())
	timer.info("Head SHA: %s", truncateSHA(pr.GetHead().GetSHA()))
	timer.info("Changed files: %d", len(diff.Parse(unified)))
	timer.done()

	req := review.Request{
		PRNumber: prNumber,
		PRTitle:  pr.GetTitle(),
		PRBody:   pr.GetBody(),
		Diff:     unified,
	}

	// 3. Optional full checkout
	timer.step("Preparing review context")
	if fullMode {
		cloner := gitutil.NewCloner(log)
		repoPath, cleanup, err := cloner.CloneAtSHA(ctx, pr.GetBase().GetRepo().GetCloneURL(), pr.GetHead().GetSHA(), token)
		if err != nil {
			warnColor.Printf("   full checkout failed, falling back to diff-only: %v\n", err)
		} else {
			defer cleanup()
			req.FileContents = cloner.ReadFiles(repoPath, diff.Paths(diff.Parse(unified)))
			timer.info("Checked out %s", truncateSHA(pr.GetHead().GetSHA()))
		}
	} else {
		timer.info("Diff-only mode")
	}
	timer.done()

	// 4. Convene the circle
	timer.step("Convening the circle")
	outcome, err := runner.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("review run failed: %w", err)
	}
	timer.info("Chapters reviewed: %d", len(outcome.Reviews))
	timer.done()

	if artifactsDir != "" {
		if err := review.WriteArtifacts(artifactsDir, outcome); err != nil {
			warnColor.Printf("failed to write artifacts: %v\n", err)
		} else if verbose {
			dimColor.Printf("   artifacts written to %s\n", artifactsDir)
		}
	}

	if verbose {
		dimColor.Printf("\n⏱️  Total time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	}

	printOutcome(outcome)
	return nil
}

// resolveToken prefers the flag/env token, then the config file.
func resolveToken(cfg *config.Config) string {
	if t := viper.GetString("GITHUB_TOKEN"); t != "" {
		return t
	}
	return cfg.GitHub.Token
}

func truncateSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func printOutcome(outcome *review.Outcome) {
	separator := strings.Repeat("═", 60)
	thinSeparator := strings.Repeat("─", 60)
	summary := outcome.Summary

	fmt.Println()
	titleColor.Println(separator)
	titleColor.Println("📋 GOVERNANCE SUMMARY")
	titleColor.Println(separator)
	fmt.Println()
	printConsensusBadge(summary.ConsensusRecommendation)
	fmt.Println()
	fmt.Println()
	infoColor.Println(summary.Synthesis)

	if failed := failedChapters(outcome.Reviews); len(failed) > 0 {
		fmt.Println()
		warnColor.Printf("⚠ Chapters that did not complete: %s\n", strings.Join(failed, ", "))
	}
	if len(outcome.Unmatched) > 0 {
		fmt.Println()
		dimColor.Printf("Unreviewed files (no chapter matched): %s\n", strings.Join(outcome.Unmatched, ", "))
	}

	comments := collectComments(outcome.Reviews)
	if len(comments) == 0 {
		fmt.Println()
		successColor.Println("✅ The circle raised no findings.")
		return
	}

	fmt.Println()
	warnColor.Println(thinSeparator)
	warnColor.Printf("💡 FINDINGS (%d)\n", len(comments))
	warnColor.Println(thinSeparator)

	for i, fc := range comments {
		c := fc.comment
		fmt.Println()
		printSeverityBadge(c.Severity)
		boldColor.Printf(" %s", c.File)
		if c.Line > 0 {
			dimColor.Printf(":%d", c.Line)
		}
		fmt.Println()
		dimColor.Printf("   Voice: %s   Category: %s\n", fc.voice, c.Category)
		fmt.Println()
		infoColor.Printf("%s\n", c.Message)
		if c.SuggestedFix != "" {
			fmt.Println()
			successColor.Printf("Fix: %s\n", c.SuggestedFix)
		}

		if i < len(comments)-1 {
			fmt.Println()
			dimColor.Println(strings.Repeat("─", 40))
		}
	}
	fmt.Println()
}

func failedChapters(reviews []core.ChapterReview) []string {
	var failed []string
	for _, r := range reviews {
		if !r.Completed {
			failed = append(failed, fmt.Sprintf("%s (%s)", r.ChapterID, r.Voice))
		}
	}
	return failed
}

type findingWithVoice struct {
	voice   string
	comment core.ReviewComment
}

// collectComments flattens all chapter findings, critical first.
func collectComments(reviews []core.ChapterReview) []findingWithVoice {
	var out []findingWithVoice
	for _, r := range reviews {
		for _, c := range r.Comments {
			out = append(out, findingWithVoice{voice: r.Voice, comment: c})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return severityRank(out[i].comment.Severity) < severityRank(out[j].comment.Severity)
	})
	return out
}

func severityRank(s core.Severity) int {
	switch s {
	case core.SeverityCritical:
		return 0
	case core.SeverityWarning:
		return 1
	default:
		return 2
	}
}

func printConsensusBadge(c core.Consensus) {
	switch c {
	case core.ConsensusBlock:
		color.New(color.BgRed, color.FgWhite, color.Bold).Printf(" BLOCK ")
	case core.ConsensusRequestChanges:
		color.New(color.BgYellow, color.FgBlack, color.Bold).Printf(" REQUEST CHANGES ")
	default:
		color.New(color.BgGreen, color.FgWhite, color.Bold).Printf(" APPROVE ")
	}
}

func printSeverityBadge(severity core.Severity) {
	switch severity {
	case core.SeverityCritical:
		color.New(color.BgRed, color.FgWhite, color.Bold).Printf(" critical ")
	case core.SeverityWarning:
		color.New(color.BgYellow, color.FgBlack).Printf(" warning ")
	default:
		color.New(color.BgWhite, color.FgBlack).Printf(" info ")
	}
}
