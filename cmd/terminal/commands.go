package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mallku/firecircle/internal/config"
	"github.com/mallku/firecircle/internal/db"
	"github.com/mallku/firecircle/internal/storage"
)

const runListLimit = 100

func openStoreCmd() tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.Load()
		if err != nil {
			return errorMsg{err: fmt.Errorf("failed to load configuration: %w", err)}
		}

		dbConn, cleanup, err := db.NewDatabase(&cfg.Database)
		if err != nil {
			return errorMsg{err: fmt.Errorf("failed to connect to database: %w", err)}
		}

		return storeReadyMsg{store: storage.NewStore(dbConn.DB), cleanup: cleanup}
	}
}

func loadRunsCmd(store storage.Store) tea.Cmd {
	return func() tea.Msg {
		runs, err := store.ListRuns(context.Background(), runListLimit)
		if err != nil {
			return errorMsg{err: fmt.Errorf("failed to list runs: %w", err)}
		}
		return runsLoadedMsg{runs: runs}
	}
}

func loadReviewsCmd(store storage.Store, runID int64) tea.Cmd {
	return func() tea.Msg {
		reviews, err := store.GetChapterReviews(context.Background(), runID)
		if err != nil {
			return errorMsg{err: fmt.Errorf("failed to load chapter reviews: %w", err)}
		}
		return reviewsLoadedMsg{runID: runID, reviews: reviews}
	}
}
