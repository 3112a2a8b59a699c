// Package storage persists review runs and their chapter reviews.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/mallku/firecircle/internal/core"
)

// ErrRunNotFound is returned when no stored run matches a query.
var ErrRunNotFound = errors.New("review run not found")

// Run is one stored review run: the governance summary plus its context.
type Run struct {
	ID             int64                  `db:"id"`
	RepoFullName   string                 `db:"repo_full_name"`
	PRNumber       int                    `db:"pr_number"`
	HeadSHA        string                 `db:"head_sha"`
	Consensus      string                 `db:"consensus"`
	TotalComments  int                    `db:"total_comments"`
	CriticalIssues int                    `db:"critical_issues"`
	Synthesis      string                 `db:"synthesis"`
	CreatedAt      time.Time              `db:"created_at"`
	Summary        core.GovernanceSummary `db:"-"`
}

// Store defines the interface for all database operations.
type Store interface {
	SaveRun(ctx context.Context, run *Run, reviews []core.ChapterReview) (int64, error)
	GetLatestRun(ctx context.Context, repoFullName string, prNumber int) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	GetChapterReviews(ctx context.Context, runID int64) ([]core.ChapterReview, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a Store backed by Postgres.
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// SaveRun inserts a run and its chapter reviews in one transaction and
// returns the new run ID.
func (s *postgresStore) SaveRun(ctx context.Context, run *Run, reviews []core.ChapterReview) (int64, error) {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal summary: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var runID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO review_runs (repo_full_name, pr_number, head_sha, consensus, total_comments, critical_issues, synthesis, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		run.RepoFullName, run.PRNumber, run.HeadSHA, run.Consensus,
		run.TotalComments, run.CriticalIssues, run.Synthesis, summaryJSON, time.Now(),
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert review run: %w", err)
	}

	for _, r := range reviews {
		commentsJSON, err := json.Marshal(r.Comments)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal comments for chapter %s: %w", r.ChapterID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chapter_reviews (run_id, voice, chapter_id, completed, confidence, comments)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			runID, r.Voice, r.ChapterID, r.Completed, r.Confidence, commentsJSON,
		); err != nil {
			return 0, fmt.Errorf("failed to insert chapter review %s: %w", r.ChapterID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit review run: %w", err)
	}
	return runID, nil
}

// GetLatestRun retrieves the most recent run for a pull request.
func (s *postgresStore) GetLatestRun(ctx context.Context, repoFullName string, prNumber int) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, repo_full_name, pr_number, head_sha, consensus, total_comments, critical_issues, synthesis, summary, created_at
		FROM review_runs
		WHERE repo_full_name = $1 AND pr_number = $2
		ORDER BY created_at DESC
		LIMIT 1`, repoFullName, prNumber)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s#%d", ErrRunNotFound, repoFullName, prNumber)
		}
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs across all repositories.
func (s *postgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo_full_name, pr_number, head_sha, consensus, total_comments, critical_issues, synthesis, summary, created_at
		FROM review_runs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list review runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetChapterReviews returns the chapter reviews of one run.
func (s *postgresStore) GetChapterReviews(ctx context.Context, runID int64) ([]core.ChapterReview, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT voice, chapter_id, completed, confidence, comments
		FROM chapter_reviews
		WHERE run_id = $1
		ORDER BY chapter_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapter reviews: %w", err)
	}
	defer rows.Close()

	var reviews []core.ChapterReview
	for rows.Next() {
		var r core.ChapterReview
		var commentsJSON []byte
		if err := rows.Scan(&r.Voice, &r.ChapterID, &r.Completed, &r.Confidence, &commentsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan chapter review: %w", err)
		}
		if err := json.Unmarshal(commentsJSON, &r.Comments); err != nil {
			return nil, fmt.Errorf("failed to unmarshal comments: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var summaryJSON []byte
	err := row.Scan(&run.ID, &run.RepoFullName, &run.PRNumber, &run.HeadSHA, &run.Consensus,
		&run.TotalComments, &run.CriticalIssues, &run.Synthesis, &summaryJSON, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return &run, nil
}
