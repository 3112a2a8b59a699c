package core

import (
	"testing"

	"github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReviewCommand(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantMode ReviewMode
		wantErr  bool
	}{
		{name: "diff review", body: "/circle review", wantMode: DiffReview},
		{name: "full review", body: "/circle review full", wantMode: FullReview},
		{name: "case insensitive", body: "/Circle REVIEW Full", wantMode: FullReview},
		{name: "surrounding whitespace", body: "  /circle review  ", wantMode: DiffReview},
		{name: "trailing noise ignored", body: "/circle review please", wantMode: DiffReview},
		{name: "not a command", body: "nice change!", wantErr: true},
		{name: "wrong verb", body: "/circle summon", wantErr: true},
		{name: "empty", body: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := parseReviewCommand(tt.body)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, mode)
		})
	}
}

func issueCommentEvent(body string) *github.IssueCommentEvent {
	return &github.IssueCommentEvent{
		Issue: &github.Issue{
			Number:           github.Ptr(42),
			Title:            github.Ptr("Add partitioner"),
			Body:             github.Ptr("splits files into chapters"),
			PullRequestLinks: &github.PullRequestLinks{URL: github.Ptr("https://api.github.com/repos/o/r/pulls/42")},
		},
		Comment: &github.IssueComment{
			Body: github.Ptr(body),
			User: &github.User{Login: github.Ptr("reviewer")},
		},
		Repo: &github.Repository{
			Name:     github.Ptr("firecircle"),
			FullName: github.Ptr("mallku/firecircle"),
			CloneURL: github.Ptr("https://github.com/mallku/firecircle.git"),
			Owner:    &github.User{Login: github.Ptr("mallku")},
		},
		Installation: &github.Installation{ID: github.Ptr(int64(77))},
	}
}

func TestEventFromIssueComment(t *testing.T) {
	event, err := EventFromIssueComment(issueCommentEvent("/circle review full"))
	require.NoError(t, err)

	assert.Equal(t, FullReview, event.Mode)
	assert.Equal(t, "mallku", event.RepoOwner)
	assert.Equal(t, "firecircle", event.RepoName)
	assert.Equal(t, "mallku/firecircle", event.RepoFullName)
	assert.Equal(t, 42, event.PRNumber)
	assert.Equal(t, "Add partitioner", event.PRTitle)
	assert.Equal(t, "reviewer", event.Commenter)
	assert.Equal(t, int64(77), event.InstallationID)
}

func TestEventFromIssueCommentRejections(t *testing.T) {
	t.Run("not a review command", func(t *testing.T) {
		_, err := EventFromIssueComment(issueCommentEvent("lgtm"))
		assert.Error(t, err)
	})

	t.Run("not a pull request", func(t *testing.T) {
		e := issueCommentEvent("/circle review")
		e.Issue.PullRequestLinks = nil
		_, err := EventFromIssueComment(e)
		assert.Error(t, err)
	})

	t.Run("missing installation", func(t *testing.T) {
		e := issueCommentEvent("/circle review")
		e.Installation = nil
		_, err := EventFromIssueComment(e)
		assert.Error(t, err)
	})

	t.Run("missing commenter", func(t *testing.T) {
		e := issueCommentEvent("/circle review")
		e.Comment.User = nil
		_, err := EventFromIssueComment(e)
		assert.Error(t, err)
	})
}
