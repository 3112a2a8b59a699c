package review

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallku/firecircle/internal/core"
	"github.com/mallku/firecircle/internal/voice"
)

const testDiff = `diff --git a/internal/server/router.go b/internal/server/router.go
index 111..222 100644
--- a/internal/server/router.go
+++ b/internal/server/router.go
@@ -1,3 +10,3 @@
 package server
+// changed
 var x = 1
diff --git a/docs/readme.md b/docs/readme.md
index 333..444 100644
--- a/docs/readme.md
+++ b/docs/readme.md
@@ -1,1 +1,2 @@
 # readme
+more docs
`

const findingResponse = `File: internal/server/router.go
Line: 11
Category: security
Severity: critical
Issue: something bad
Confidence: 0.9`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testChapters(t *testing.T) []core.Chapter {
	t.Helper()
	return []core.Chapter{
		{ID: "server", PathPattern: "internal/server/**", AssignedVoice: "claude", ReviewDomains: []core.ReviewDomain{core.DomainSecurity}},
		{ID: "docs", PathPattern: "docs/**", AssignedVoice: "gpt"},
	}
}

func testRunner(t *testing.T, timeout time.Duration, reviewers ...voice.Reviewer) *Runner {
	t.Helper()
	prompts, err := voice.NewPromptManager()
	require.NoError(t, err)
	return NewRunner(testChapters(t), voice.NewRegistryWith(reviewers...), prompts, timeout, testLogger())
}

func reviewByChapter(reviews []core.ChapterReview) map[string]core.ChapterReview {
	m := make(map[string]core.ChapterReview, len(reviews))
	for _, r := range reviews {
		m[r.ChapterID] = r
	}
	return m
}

func TestRunHappyPath(t *testing.T) {
	claude := voice.NewFakeReviewer("claude", findingResponse)
	gpt := voice.NewFakeReviewer("gpt", "No issues found.")
	runner := testRunner(t, 0, claude, gpt)

	outcome, err := runner.Run(context.Background(), Request{PRNumber: 5, PRTitle: "t", Diff: testDiff})
	require.NoError(t, err)

	require.Len(t, outcome.Reviews, 2)
	byChapter := reviewByChapter(outcome.Reviews)

	server := byChapter["server"]
	assert.True(t, server.Completed)
	assert.Equal(t, "claude", server.Voice)
	require.Len(t, server.Comments, 1)
	assert.Equal(t, core.SeverityCritical, server.Comments[0].Severity)
	assert.InDelta(t, 0.9, server.Confidence, 1e-9)

	docs := byChapter["docs"]
	assert.True(t, docs.Completed)
	assert.Empty(t, docs.Comments)
	assert.Equal(t, voice.DefaultConfidence, docs.Confidence)

	assert.Equal(t, core.ConsensusBlock, outcome.Summary.ConsensusRecommendation)
	assert.Empty(t, outcome.Unmatched)
}

func TestRunPromptContainsChapterContext(t *testing.T) {
	claude := voice.NewFakeReviewer("claude", "ok")
	gpt := voice.NewFakeReviewer("gpt", "ok")
	runner := testRunner(t, 0, claude, gpt)

	_, err := runner.Run(context.Background(), Request{PRNumber: 5, PRTitle: "add router", Diff: testDiff})
	require.NoError(t, err)

	require.Len(t, claude.Prompts, 1)
	assert.Contains(t, claude.Prompts[0], "internal/server/router.go")
	assert.Contains(t, claude.Prompts[0], "security")
	assert.NotContains(t, claude.Prompts[0], "docs/readme.md",
		"a voice only sees its own chapter's files")
}

func TestRunPartialFailure(t *testing.T) {
	claude := voice.NewFakeReviewer("claude", findingResponse)
	gpt := &voice.FakeReviewer{VoiceName: "gpt", Fail: true}
	runner := testRunner(t, 0, claude, gpt)

	outcome, err := runner.Run(context.Background(), Request{PRNumber: 5, Diff: testDiff})
	require.NoError(t, err, "a failed voice must not fail the run")

	byChapter := reviewByChapter(outcome.Reviews)
	assert.True(t, byChapter["server"].Completed)
	assert.False(t, byChapter["docs"].Completed)
	assert.Zero(t, byChapter["docs"].Confidence)

	assert.Equal(t, 1, outcome.Summary.VoicesPresent)
	assert.Equal(t, 1, outcome.Summary.VoicesFailed)
	assert.Equal(t, core.ConsensusBlock, outcome.Summary.ConsensusRecommendation)
}

func TestRunVoiceTimeout(t *testing.T) {
	slow := &voice.FakeReviewer{
		VoiceName: "claude",
		Response:  findingResponse,
		Delay: func(ctx context.Context) error {
			select {
			case <-time.After(5 * time.Second):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	gpt := voice.NewFakeReviewer("gpt", "ok")
	runner := testRunner(t, 50*time.Millisecond, slow, gpt)

	start := time.Now()
	outcome, err := runner.Run(context.Background(), Request{PRNumber: 5, Diff: testDiff})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "timed-out voice must not stall the run")

	byChapter := reviewByChapter(outcome.Reviews)
	assert.False(t, byChapter["server"].Completed)
	assert.True(t, byChapter["docs"].Completed)
}

func TestRunCancelledContextKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	claude := voice.NewFakeReviewer("claude", findingResponse)
	gpt := voice.NewFakeReviewer("gpt", "ok")
	runner := testRunner(t, 0, claude, gpt)

	outcome, err := runner.Run(ctx, Request{PRNumber: 5, Diff: testDiff})
	require.NoError(t, err)

	// Every chapter still gets a slot; a synthesis is always produced.
	assert.Len(t, outcome.Reviews, 2)
	require.NotNil(t, outcome.Summary)
	assert.NotEmpty(t, outcome.Summary.Synthesis)
}

func TestRunUnknownVoiceDegrades(t *testing.T) {
	// Only gpt is connected; the server chapter's claude is missing.
	gpt := voice.NewFakeReviewer("gpt", "ok")
	runner := testRunner(t, 0, gpt)

	outcome, err := runner.Run(context.Background(), Request{PRNumber: 5, Diff: testDiff})
	require.NoError(t, err)

	byChapter := reviewByChapter(outcome.Reviews)
	assert.False(t, byChapter["server"].Completed)
	assert.True(t, byChapter["docs"].Completed)
}

func TestRunUnmatchedFilesReported(t *testing.T) {
	diffWithStray := testDiff + `diff --git a/Makefile b/Makefile
index 555..666 100644
--- a/Makefile
+++ b/Makefile
@@ -1,1 +1,2 @@
 all:
+	@echo hi
`
	claude := voice.NewFakeReviewer("claude", "ok")
	gpt := voice.NewFakeReviewer("gpt", "ok")
	runner := testRunner(t, 0, claude, gpt)

	outcome, err := runner.Run(context.Background(), Request{PRNumber: 5, Diff: diffWithStray})
	require.NoError(t, err)
	assert.Equal(t, []string{"Makefile"}, outcome.Unmatched)
}

func TestRunEmptyDiff(t *testing.T) {
	claude := voice.NewFakeReviewer("claude", "ok")
	gpt := voice.NewFakeReviewer("gpt", "ok")
	runner := testRunner(t, 0, claude, gpt)

	outcome, err := runner.Run(context.Background(), Request{PRNumber: 5, Diff: ""})
	require.NoError(t, err)

	assert.Empty(t, outcome.Reviews)
	assert.Equal(t, core.ConsensusApprove, outcome.Summary.ConsensusRecommendation)
	assert.Empty(t, claude.Prompts)
}
