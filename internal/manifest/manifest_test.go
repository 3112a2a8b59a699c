package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mallku/firecircle/internal/core"
)

var knownVoices = []string{"claude", "gpt", "gemini"}

const validManifest = `
chapters:
  - path_pattern: "internal/server/**"
    description: "HTTP transport layer"
    assigned_voice: claude
    review_domains:
      - security
      - architecture
  - path_pattern: "**/*.go"
    assigned_voice: gpt
`

func TestParseValidManifest(t *testing.T) {
	chapters, err := Parse([]byte(validManifest), knownVoices)
	require.NoError(t, err)
	require.Len(t, chapters, 2)

	assert.Equal(t, "internal/server/**", chapters[0].PathPattern)
	assert.Equal(t, "claude", chapters[0].AssignedVoice)
	assert.Equal(t, "HTTP transport layer", chapters[0].Description)
	assert.Equal(t, []core.ReviewDomain{core.DomainSecurity, core.DomainArchitecture}, chapters[0].ReviewDomains)
	assert.NotEmpty(t, chapters[0].ID)

	assert.Equal(t, "gpt", chapters[1].AssignedVoice)
	assert.Empty(t, chapters[1].ReviewDomains)
}

func TestParseChapterOrderPreserved(t *testing.T) {
	chapters, err := Parse([]byte(validManifest), knownVoices)
	require.NoError(t, err)
	assert.Equal(t, "internal/server/**", chapters[0].PathPattern)
	assert.Equal(t, "**/*.go", chapters[1].PathPattern)
}

func TestParseStableChapterIDs(t *testing.T) {
	first, err := Parse([]byte(validManifest), knownVoices)
	require.NoError(t, err)
	second, err := Parse([]byte(validManifest), knownVoices)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.NotEqual(t, first[0].ID, first[1].ID)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "malformed yaml",
			yaml:    "chapters: [not yaml",
			wantErr: ErrManifestParsing,
		},
		{
			name:    "no chapters",
			yaml:    "chapters: []",
			wantErr: ErrManifestInvalid,
		},
		{
			name: "missing path pattern",
			yaml: `
chapters:
  - assigned_voice: claude
`,
			wantErr: ErrManifestInvalid,
		},
		{
			name: "missing voice",
			yaml: `
chapters:
  - path_pattern: "**/*.go"
`,
			wantErr: ErrManifestInvalid,
		},
		{
			name: "unknown voice",
			yaml: `
chapters:
  - path_pattern: "**/*.go"
    assigned_voice: nonexistent
`,
			wantErr: ErrUnknownVoice,
		},
		{
			name: "malformed glob pattern",
			yaml: `
chapters:
  - path_pattern: "internal/[bad"
    assigned_voice: claude
`,
			wantErr: ErrManifestInvalid,
		},
		{
			name: "duplicate chapter",
			yaml: `
chapters:
  - path_pattern: "src/**"
    assigned_voice: claude
  - path_pattern: "src/**"
    assigned_voice: claude
`,
			wantErr: ErrManifestInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), knownVoices)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseLenientDomainTags(t *testing.T) {
	chapters, err := Parse([]byte(`
chapters:
  - path_pattern: "**/*.go"
    assigned_voice: claude
    review_domains:
      - SECURITY
      - made-up-domain
`), knownVoices)
	require.NoError(t, err)

	// Unknown tags are kept as-is rather than rejected; casing normalizes.
	assert.Equal(t, core.DomainSecurity, chapters[0].ReviewDomains[0])
	assert.Equal(t, core.ReviewDomain("made-up-domain"), chapters[0].ReviewDomains[1])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), knownVoices)
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chapters.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o600))

	chapters, err := Load(path, knownVoices)
	require.NoError(t, err)
	assert.Len(t, chapters, 2)
}
