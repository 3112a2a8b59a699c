package util

import (
	"fmt"
	"regexp"
	"strings"
)

var chapterIDRegexp = regexp.MustCompile("[^a-z0-9_-]+")

// ChapterID derives a stable identifier for a chapter from its glob pattern
// and assigned voice. The same manifest entry always produces the same ID.
func ChapterID(pattern, voice string) string {
	safePattern := strings.ToLower(pattern)
	safePattern = strings.ReplaceAll(safePattern, "**", "all")
	safePattern = strings.ReplaceAll(safePattern, "*", "any")
	safePattern = strings.ReplaceAll(safePattern, "/", "-")
	safePattern = strings.ReplaceAll(safePattern, ".", "-")
	safePattern = chapterIDRegexp.ReplaceAllString(safePattern, "")
	safeVoice := chapterIDRegexp.ReplaceAllString(strings.ToLower(voice), "")

	id := fmt.Sprintf("%s-%s", safeVoice, safePattern)

	const maxIDLength = 128
	if len(id) > maxIDLength {
		id = id[:maxIDLength]
	}
	return strings.Trim(id, "-")
}
