package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mallku/firecircle/internal/config"
	"github.com/mallku/firecircle/internal/core"
	"github.com/mallku/firecircle/internal/db"
	"github.com/mallku/firecircle/internal/gitutil"
	"github.com/mallku/firecircle/internal/storage"
)

var summaryLimit int

var summaryCmd = &cobra.Command{
	Use:   "summary [pr-url]",
	Short: "Show stored governance summaries",
	Long: `Show stored governance summaries.

Without arguments, lists the most recent review runs. With a PR URL, shows
the latest stored run for that pull request, including per-chapter reviews.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	summaryCmd.Flags().IntVarP(&summaryLimit, "limit", "n", 20, "Maximum number of runs to list")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	dbConn, cleanup, err := db.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer cleanup()

	store := storage.NewStore(dbConn.DB)

	if len(args) == 0 {
		return listRuns(ctx, store)
	}
	return showRun(ctx, store, args[0])
}

func listRuns(ctx context.Context, store storage.Store) error {
	runs, err := store.ListRuns(ctx, summaryLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		dimColor.Println("No stored review runs.")
		return nil
	}

	titleColor.Printf("Recent review runs (%d)\n\n", len(runs))
	for _, run := range runs {
		printConsensusBadge(core.Consensus(run.Consensus))
		boldColor.Printf(" %s#%d", run.RepoFullName, run.PRNumber)
		dimColor.Printf("  %s  %s\n", truncateSHA(run.HeadSHA), run.CreatedAt.Format("2006-01-02 15:04"))
		infoColor.Printf("   findings: %d (%d critical)\n\n", run.TotalComments, run.CriticalIssues)
	}
	return nil
}

func showRun(ctx context.Context, store storage.Store, prURL string) error {
	owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(prURL)
	if err != nil {
		return fmt.Errorf("invalid PR URL: %w", err)
	}

	run, err := store.GetLatestRun(ctx, fmt.Sprintf("%s/%s", owner, repoName), prNumber)
	if err != nil {
		return err
	}

	reviews, err := store.GetChapterReviews(ctx, run.ID)
	if err != nil {
		return err
	}

	titleColor.Printf("Latest run for %s#%d", run.RepoFullName, run.PRNumber)
	dimColor.Printf("  (%s, %s)\n\n", truncateSHA(run.HeadSHA), run.CreatedAt.Format("2006-01-02 15:04"))
	printConsensusBadge(core.Consensus(run.Consensus))
	fmt.Println()
	fmt.Println()
	infoColor.Println(run.Synthesis)

	for _, r := range reviews {
		fmt.Println()
		if r.Completed {
			successColor.Printf("✓ %s", r.ChapterID)
		} else {
			errorColor.Printf("✗ %s", r.ChapterID)
		}
		dimColor.Printf("  voice=%s confidence=%.2f findings=%d\n", r.Voice, r.Confidence, len(r.Comments))
		for _, c := range r.Comments {
			printSeverityBadge(c.Severity)
			infoColor.Printf(" %s", c.File)
			if c.Line > 0 {
				dimColor.Printf(":%d", c.Line)
			}
			fmt.Printf(": %s\n", c.Message)
		}
	}
	return nil
}
