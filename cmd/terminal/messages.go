package main

import (
	"github.com/mallku/firecircle/internal/core"
	"github.com/mallku/firecircle/internal/storage"
)

// Indicates that the database connection and store have been initialized.
type storeReadyMsg struct {
	store   storage.Store
	cleanup func()
}

// Carries the list of stored review runs.
type runsLoadedMsg struct {
	runs []storage.Run
}

// Carries the chapter reviews of one run.
type reviewsLoadedMsg struct {
	runID   int64
	reviews []core.ChapterReview
}

// Reports a failure from any command; the model surfaces it in the status bar.
type errorMsg struct{ err error }

func (e errorMsg) Error() string {
	return e.err.Error()
}
