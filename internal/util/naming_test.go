package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChapterID(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		voice   string
		want    string
	}{
		{
			name:    "double star becomes all",
			pattern: "**/*.go",
			voice:   "claude",
			want:    "claude-all-any-go",
		},
		{
			name:    "path separators become dashes",
			pattern: "internal/server/**",
			voice:   "gpt",
			want:    "gpt-internal-server-all",
		},
		{
			name:    "uppercase is lowered",
			pattern: "Docs/*.MD",
			voice:   "Gemini",
			want:    "gemini-docs-any-md",
		},
		{
			name:    "special characters are stripped",
			pattern: "src/{a,b}/**",
			voice:   "claude",
			want:    "claude-src-ab-all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChapterID(tt.pattern, tt.voice))
		})
	}
}

func TestChapterIDStable(t *testing.T) {
	a := ChapterID("internal/**", "claude")
	b := ChapterID("internal/**", "claude")
	assert.Equal(t, a, b)
}

func TestChapterIDDistinguishesVoices(t *testing.T) {
	assert.NotEqual(t, ChapterID("**", "claude"), ChapterID("**", "gpt"))
}

func TestChapterIDLengthCapped(t *testing.T) {
	longPattern := strings.Repeat("verylongsegment/", 40) + "*.go"
	id := ChapterID(longPattern, "claude")
	assert.LessOrEqual(t, len(id), 128)
	assert.False(t, strings.HasSuffix(id, "-"))
}
