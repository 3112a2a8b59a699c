package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mallku/firecircle/internal/core"
)

// WriteArtifacts persists a run's output as JSON documents: one
// governance_summary.json plus one file per chapter review, named
// <voice>_<chapter-id>.json. Artifacts are written only after all chapter
// tasks have joined, so a partially failed run still produces a complete,
// inspectable set.
func WriteArtifacts(dir string, outcome *Outcome) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create artifacts dir %s: %w", dir, err)
	}

	if err := writeJSON(filepath.Join(dir, "governance_summary.json"), outcome.Summary); err != nil {
		return err
	}

	for _, r := range outcome.Reviews {
		name := fmt.Sprintf("%s_%s.json", r.Voice, r.ChapterID)
		if err := writeJSON(filepath.Join(dir, name), chapterArtifact(r)); err != nil {
			return err
		}
	}

	return nil
}

// chapterArtifact normalizes a review for serialization so an empty review
// still carries an explicit comments array rather than null.
func chapterArtifact(r core.ChapterReview) core.ChapterReview {
	if r.Comments == nil {
		r.Comments = []core.ReviewComment{}
	}
	return r
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
