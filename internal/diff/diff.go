// Package diff parses unified-diff text into per-file patches. The
// partitioner only needs the touched file paths; the dispatcher needs the
// hunk text grouped by file.
package diff

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var (
	fileHeaderRegex = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	hunkHeaderRegex = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+(\d+)(?:,\d+)? @@`)
)

// FilePatch holds the path of one file touched by a diff and the raw patch
// text (headers and hunks) for that file.
type FilePatch struct {
	Path  string
	Patch string
}

// Parse splits unified-diff text into per-file patches, in diff order.
// The b-side path of the "diff --git" header identifies the file, so renames
// and additions resolve to the post-change path.
func Parse(unified string) []FilePatch {
	var patches []FilePatch
	var current *FilePatch
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.Patch = body.String()
			patches = append(patches, *current)
			body.Reset()
		}
	}

	for _, line := range strings.Split(unified, "\n") {
		if matches := fileHeaderRegex.FindStringSubmatch(line); len(matches) == 3 {
			flush()
			current = &FilePatch{Path: matches[2]}
		}
		if current != nil {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()

	return patches
}

// Paths returns the touched file paths of a parsed diff, in diff order.
func Paths(patches []FilePatch) []string {
	paths := make([]string, 0, len(patches))
	for _, p := range patches {
		paths = append(paths, p.Path)
	}
	return paths
}

// ByPath indexes parsed patches by file path for chapter assembly.
func ByPath(patches []FilePatch) map[string]FilePatch {
	indexed := make(map[string]FilePatch, len(patches))
	for _, p := range patches {
		indexed[p.Path] = p
	}
	return indexed
}

// ValidCommentLines extracts all line numbers that can receive a review
// comment for one file's patch. These are the lines present on the new
// side of the diff (added or unchanged context lines).
func ValidCommentLines(patch string, logger *slog.Logger) map[int]struct{} {
	validLines := make(map[int]struct{})

	currentLine := -1

	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "@@") {
			matches := hunkHeaderRegex.FindStringSubmatch(line)
			if len(matches) >= 2 {
				start, err := strconv.Atoi(matches[1])
				if err != nil {
					// Skip malformed hunk; don't use corrupted line numbers
					if logger != nil {
						logger.Warn("skipped malformed hunk header", "line", line, "error", err)
					}
					currentLine = -1
					continue
				}
				currentLine = start
			}
			continue
		}

		if currentLine == -1 {
			continue
		}

		// In a unified diff:
		// ' ' (space) is an unchanged line
		// '+' is an added line
		// '-' is a removed line (doesn't increment the new-side counter)
		switch {
		case strings.HasPrefix(line, "+"), strings.HasPrefix(line, " "):
			validLines[currentLine] = struct{}{}
			currentLine++
		case strings.HasPrefix(line, "-"):
			continue
		case line == "":
			// usually the tail of a hunk
			continue
		}
	}

	return validLines
}
