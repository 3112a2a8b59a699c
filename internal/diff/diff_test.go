package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/cmd/main.go b/cmd/main.go
index 1111111..2222222 100644
--- a/cmd/main.go
+++ b/cmd/main.go
@@ -10,4 +10,5 @@ func main() {
 	a := 1
-	b := 2
+	b := 3
+	c := 4
 	fmt.Println(a, b)
diff --git a/internal/old_name.go b/internal/new_name.go
similarity index 90%
rename from internal/old_name.go
rename to internal/new_name.go
--- a/internal/old_name.go
+++ b/internal/new_name.go
@@ -1,2 +1,2 @@
-package old
+package internal
 var y = 2
`

func TestParsePerFilePatches(t *testing.T) {
	patches := Parse(sampleDiff)

	require.Len(t, patches, 2)
	assert.Equal(t, "cmd/main.go", patches[0].Path)
	assert.Contains(t, patches[0].Patch, "@@ -10,4 +10,5 @@")
	assert.Contains(t, patches[0].Patch, "+	b := 3")
	assert.NotContains(t, patches[0].Patch, "package internal")

	// Renames resolve to the post-change path.
	assert.Equal(t, "internal/new_name.go", patches[1].Path)
}

func TestParseEmptyAndGarbageInput(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("not a diff at all\njust some text"))
}

func TestPathsAndByPath(t *testing.T) {
	patches := Parse(sampleDiff)

	assert.Equal(t, []string{"cmd/main.go", "internal/new_name.go"}, Paths(patches))

	indexed := ByPath(patches)
	require.Contains(t, indexed, "cmd/main.go")
	assert.Equal(t, "cmd/main.go", indexed["cmd/main.go"].Path)
}

func TestValidCommentLines(t *testing.T) {
	patches := Parse(sampleDiff)
	require.Len(t, patches, 2)

	lines := ValidCommentLines(patches[0].Patch, nil)

	// New-side lines 10..13: context, added, added, context. The removed
	// line does not occupy a new-side number.
	assert.Equal(t, map[int]struct{}{10: {}, 11: {}, 12: {}, 13: {}}, lines)
}

func TestValidCommentLinesMalformedHunk(t *testing.T) {
	patch := `diff --git a/x.go b/x.go
--- a/x.go
+++ b/x.go
@@ garbage @@
+added line
@@ -1,1 +5,1 @@
+real line
`
	lines := ValidCommentLines(patch, nil)

	// Lines after the malformed hunk header are unmapped; the next valid
	// hunk resumes normal counting.
	assert.Equal(t, map[int]struct{}{5: {}}, lines)
}
