// Package partition assigns the changed files of a pull request to chapters
// by glob pattern, most specific pattern first.
package partition

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mallku/firecircle/internal/core"
)

// Assignment is one matched chapter together with the files it won.
type Assignment struct {
	Chapter core.Chapter
	Files   []string
}

// Result is the complete partition of a changeset. Unmatched files are
// reported, never silently dropped; callers decide whether they matter.
type Result struct {
	Assignments []Assignment
	Unmatched   []string
}

// Partition assigns every changed file to at most one chapter. Chapters are
// tried in specificity order (path segments desc, pattern length desc,
// wildcard count asc, manifest order as the final tie-break) and the first
// matching pattern wins. Chapters that match nothing are excluded from the
// result; assignments come back in manifest declaration order.
func Partition(changedFiles []string, chapters []core.Chapter, logger *slog.Logger) Result {
	order := bySpecificity(chapters)

	// Keyed by manifest index, not chapter ID, so a file is counted once
	// even if two chapters somehow end up with the same ID.
	files := make(map[int][]string, len(chapters))
	var unmatched []string

	for _, file := range changedFiles {
		matched := false
		for _, idx := range order {
			ch := chapters[idx]
			ok, err := doublestar.Match(ch.PathPattern, file)
			if err != nil {
				logger.Warn("skipping malformed chapter pattern", "pattern", ch.PathPattern, "chapter", ch.ID, "error", err)
				continue
			}
			if ok {
				files[idx] = append(files[idx], file)
				matched = true
				break
			}
		}
		if !matched {
			logger.Warn("changed file matches no chapter, excluded from review", "file", file)
			unmatched = append(unmatched, file)
		}
	}

	var assignments []Assignment
	for i, ch := range chapters {
		if fs, ok := files[i]; ok {
			assignments = append(assignments, Assignment{Chapter: ch, Files: fs})
		}
	}

	return Result{Assignments: assignments, Unmatched: unmatched}
}

// bySpecificity returns chapter indices sorted narrowest-pattern first.
// The sort is stable so chapters of equal specificity keep manifest order.
func bySpecificity(chapters []core.Chapter) []int {
	order := make([]int, len(chapters))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		pi, pj := chapters[order[i]].PathPattern, chapters[order[j]].PathPattern

		si, sj := segments(pi), segments(pj)
		if si != sj {
			return si > sj
		}
		if len(pi) != len(pj) {
			return len(pi) > len(pj)
		}
		return wildcards(pi) < wildcards(pj)
	})

	return order
}

func segments(pattern string) int {
	return strings.Count(pattern, "/") + 1
}

func wildcards(pattern string) int {
	return strings.Count(pattern, "*") + strings.Count(pattern, "?")
}
