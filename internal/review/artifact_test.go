package review

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallku/firecircle/internal/core"
)

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")

	outcome := &Outcome{
		Summary: Synthesize(9, []core.ChapterReview{
			completedReview("claude", "server", comment(core.SeverityCritical, core.DomainSecurity)),
			failedReview("gpt", "docs"),
		}),
		Reviews: []core.ChapterReview{
			completedReview("claude", "server", comment(core.SeverityCritical, core.DomainSecurity)),
			failedReview("gpt", "docs"),
		},
	}

	require.NoError(t, WriteArtifacts(dir, outcome))

	var summary core.GovernanceSummary
	data, err := os.ReadFile(filepath.Join(dir, "governance_summary.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 9, summary.PRNumber)
	assert.Equal(t, core.ConsensusBlock, summary.ConsensusRecommendation)

	var chapter core.ChapterReview
	data, err = os.ReadFile(filepath.Join(dir, "claude_server.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &chapter))
	assert.True(t, chapter.Completed)
	require.Len(t, chapter.Comments, 1)

	// Failed chapters serialize with an explicit empty comments array.
	data, err = os.ReadFile(filepath.Join(dir, "gpt_docs.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"comments": []`)
}
