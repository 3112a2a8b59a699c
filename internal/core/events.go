package core

import (
	"fmt"
	"strings"

	"github.com/google/go-github/v73/github"
)

// ReviewMode selects how much context the voices receive.
type ReviewMode string

const (
	// DiffReview sends only the diff hunks for each chapter.
	DiffReview ReviewMode = "diff"
	// FullReview additionally sends the full contents of matched files,
	// which requires a checkout of the head commit.
	FullReview ReviewMode = "full"
)

// GitHubEvent represents a simplified, internal view of a GitHub webhook event.
type GitHubEvent struct {
	Mode ReviewMode

	// Repository details
	RepoOwner    string
	RepoName     string
	RepoFullName string
	RepoCloneURL string

	PRNumber int
	PRTitle  string
	PRBody   string
	HeadSHA  string

	Commenter      string
	InstallationID int64
}

// EventFromIssueComment transforms a raw GitHub IssueCommentEvent into the
// application's internal GitHubEvent representation. It acts as an
// anti-corruption layer, ensuring the incoming webhook payload is valid and
// contains all necessary data before a job is queued. It specifically filters
// for comments that are a "/circle review" command on a pull request.
func EventFromIssueComment(event *github.IssueCommentEvent) (*GitHubEvent, error) {
	if !event.GetIssue().IsPullRequest() {
		return nil, fmt.Errorf("comment is not on a pull request")
	}

	mode, err := parseReviewCommand(event.GetComment().GetBody())
	if err != nil {
		return nil, err
	}

	repo := event.GetRepo()
	if repo == nil || repo.GetOwner() == nil || repo.GetOwner().GetLogin() == "" || repo.GetName() == "" {
		return nil, fmt.Errorf("repository or owner information is missing from the event")
	}

	prNumber := event.GetIssue().GetNumber()
	if prNumber <= 0 {
		return nil, fmt.Errorf("invalid pull request number: %d", prNumber)
	}

	if event.GetComment().GetUser() == nil || event.GetComment().GetUser().GetLogin() == "" {
		return nil, fmt.Errorf("commenter information is missing from the event")
	}

	if event.GetInstallation() == nil || event.GetInstallation().GetID() == 0 {
		return nil, fmt.Errorf("installation ID is missing from the event")
	}

	return &GitHubEvent{
		Mode:           mode,
		RepoOwner:      repo.GetOwner().GetLogin(),
		RepoName:       repo.GetName(),
		RepoFullName:   repo.GetFullName(),
		RepoCloneURL:   repo.GetCloneURL(),
		InstallationID: event.GetInstallation().GetID(),
		PRNumber:       prNumber,
		PRTitle:        event.GetIssue().GetTitle(),
		PRBody:         event.GetIssue().GetBody(),
		Commenter:      event.GetComment().GetUser().GetLogin(),
	}, nil
}

// parseReviewCommand recognizes "/circle review" and "/circle review full".
func parseReviewCommand(body string) (ReviewMode, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(body)))
	if len(fields) < 2 || fields[0] != "/circle" || fields[1] != "review" {
		return "", fmt.Errorf("comment is not a review command")
	}
	if len(fields) >= 3 && fields[2] == "full" {
		return FullReview, nil
	}
	return DiffReview, nil
}
