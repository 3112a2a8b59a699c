// Package review orchestrates one Fire Circle review run: partition the
// changeset into chapters, dispatch each chapter to its voice concurrently,
// parse the responses, and synthesize the governance summary.
package review

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mallku/firecircle/internal/core"
	"github.com/mallku/firecircle/internal/diff"
	"github.com/mallku/firecircle/internal/partition"
	"github.com/mallku/firecircle/internal/voice"
)

// Request carries everything one review run needs.
type Request struct {
	PRNumber int
	PRTitle  string
	PRBody   string

	// Diff is the unified diff of the pull request.
	Diff string

	// FileContents optionally maps changed file paths to their full contents
	// at the head commit (full review mode).
	FileContents map[string]string
}

// Outcome is the result of one run. The summary is always present, degraded
// proportionally to how many chapters failed; partial results are never
// discarded.
type Outcome struct {
	Summary   *core.GovernanceSummary
	Reviews   []core.ChapterReview
	Unmatched []string
}

// Runner executes review runs against a fixed manifest and voice registry.
type Runner struct {
	chapters     []core.Chapter
	registry     *voice.Registry
	prompts      *voice.PromptManager
	voiceTimeout time.Duration
	logger       *slog.Logger
}

// NewRunner creates a Runner. voiceTimeout bounds each individual voice
// call; zero means no per-call timeout beyond the run context.
func NewRunner(chapters []core.Chapter, registry *voice.Registry, prompts *voice.PromptManager, voiceTimeout time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		chapters:     chapters,
		registry:     registry,
		prompts:      prompts,
		voiceTimeout: voiceTimeout,
		logger:       logger,
	}
}

// Run performs a complete review run. It never fails because a voice failed:
// dispatch errors degrade to non-completed chapter reviews, and a summary is
// always produced, even when ctx is cancelled mid-flight.
func (r *Runner) Run(ctx context.Context, req Request) (*Outcome, error) {
	patches := diff.Parse(req.Diff)
	part := partition.Partition(diff.Paths(patches), r.chapters, r.logger)

	r.logger.Info("changeset partitioned",
		"files", len(patches),
		"chapters", len(part.Assignments),
		"unmatched", len(part.Unmatched))

	jobs := buildJobs(part.Assignments, diff.ByPath(patches))
	reviews := r.dispatch(ctx, req, jobs)

	summary := Synthesize(req.PRNumber, reviews)

	return &Outcome{
		Summary:   summary,
		Reviews:   reviews,
		Unmatched: part.Unmatched,
	}, nil
}

// buildJobs pairs each matched chapter with the diff hunks of its files.
func buildJobs(assignments []partition.Assignment, patches map[string]diff.FilePatch) []core.ReviewJob {
	jobs := make([]core.ReviewJob, 0, len(assignments))
	for _, a := range assignments {
		var sb strings.Builder
		for _, f := range a.Files {
			if p, ok := patches[f]; ok {
				sb.WriteString(p.Patch)
			}
		}
		jobs = append(jobs, core.ReviewJob{
			Chapter: a.Chapter,
			Files:   a.Files,
			Diff:    sb.String(),
		})
	}
	return jobs
}

// dispatch fans one request per chapter out to the assigned voices. Requests
// for distinct chapters are independent; concurrency is bounded by the
// number of distinct voices in the partitioned set, not by file count. Each
// task writes only its own slot, so no shared state is mutated concurrently.
func (r *Runner) dispatch(ctx context.Context, req Request, jobs []core.ReviewJob) []core.ChapterReview {
	reviews := make([]core.ChapterReview, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(distinctVoices(jobs))

	for i, job := range jobs {
		g.Go(func() error {
			reviews[i] = r.reviewChapter(gctx, req, job)
			return nil
		})
	}

	// Tasks never return errors; failures are recorded in their slots.
	_ = g.Wait()

	return reviews
}

// reviewChapter runs one voice call end to end. Any failure (timeout, auth,
// rendering, cancellation) yields a non-completed ChapterReview rather than
// an error, so sibling chapters are unaffected.
func (r *Runner) reviewChapter(ctx context.Context, req Request, job core.ReviewJob) core.ChapterReview {
	failed := core.ChapterReview{
		Voice:     job.Chapter.AssignedVoice,
		ChapterID: job.Chapter.ID,
		Completed: false,
	}

	reviewer, err := r.registry.Get(job.Chapter.AssignedVoice)
	if err != nil {
		r.logger.Error("voice has no reviewer", "voice", job.Chapter.AssignedVoice, "chapter", job.Chapter.ID, "error", err)
		return failed
	}

	prompt, err := r.renderPrompt(req, job)
	if err != nil {
		r.logger.Error("failed to render chapter prompt", "chapter", job.Chapter.ID, "error", err)
		return failed
	}

	resp, err := r.reviewWithTimeout(ctx, reviewer, prompt)
	if err != nil {
		r.logger.Warn("voice did not complete review",
			"voice", job.Chapter.AssignedVoice,
			"chapter", job.Chapter.ID,
			"error", err)
		return failed
	}

	parsed := voice.ParseReview(resp.Text)

	r.logger.Info("chapter reviewed",
		"voice", job.Chapter.AssignedVoice,
		"chapter", job.Chapter.ID,
		"comments", len(parsed.Comments),
		"confidence", parsed.Confidence)

	return core.ChapterReview{
		Voice:      job.Chapter.AssignedVoice,
		ChapterID:  job.Chapter.ID,
		Comments:   parsed.Comments,
		Confidence: parsed.Confidence,
		Completed:  true,
	}
}

func (r *Runner) renderPrompt(req Request, job core.ReviewJob) (string, error) {
	domains := make([]string, 0, len(job.Chapter.ReviewDomains))
	for _, d := range job.Chapter.ReviewDomains {
		domains = append(domains, string(d))
	}

	var contents map[string]string
	if len(req.FileContents) > 0 {
		contents = make(map[string]string, len(job.Files))
		for _, f := range job.Files {
			if body, ok := req.FileContents[f]; ok {
				contents[f] = body
			}
		}
	}

	return r.prompts.Render(voice.ChapterReviewPrompt, r.registry.ProviderOf(job.Chapter.AssignedVoice), voice.ChapterPromptData{
		Voice:        job.Chapter.AssignedVoice,
		ChapterID:    job.Chapter.ID,
		Description:  job.Chapter.Description,
		Domains:      domains,
		Files:        job.Files,
		Diff:         job.Diff,
		FileContents: contents,
		PRTitle:      req.PRTitle,
		PRBody:       req.PRBody,
	})
}

// reviewWithTimeout wraps a voice call with a hard per-call timeout so one
// slow provider cannot block the others indefinitely.
func (r *Runner) reviewWithTimeout(ctx context.Context, reviewer voice.Reviewer, prompt string) (*voice.RawResponse, error) {
	if r.voiceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.voiceTimeout)
		defer cancel()
	}

	type result struct {
		resp *voice.RawResponse
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		resp, err := reviewer.Review(ctx, prompt)
		select {
		case resultCh <- result{resp, err}:
		case <-ctx.Done():
			// Do not block the goroutine if the caller timed out
		}
	}()

	select {
	case res := <-resultCh:
		return res.resp, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func distinctVoices(jobs []core.ReviewJob) int {
	voices := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		voices[j.Chapter.AssignedVoice] = struct{}{}
	}
	if len(voices) == 0 {
		return 1
	}
	return len(voices)
}
