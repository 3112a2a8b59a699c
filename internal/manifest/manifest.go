// Package manifest loads and validates the chapter manifest that maps
// file-glob patterns to reviewer voices and their review domains.
package manifest

import (
	"errors"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/mallku/firecircle/internal/core"
	"github.com/mallku/firecircle/internal/util"
)

var (
	ErrManifestNotFound = errors.New("manifest file not found")
	ErrManifestParsing  = errors.New("manifest parsing failed")
	ErrManifestInvalid  = errors.New("manifest validation failed")
	ErrUnknownVoice     = errors.New("manifest references unknown voice")
)

// entry mirrors one chapter declaration in the YAML manifest.
type entry struct {
	PathPattern   string   `yaml:"path_pattern"`
	Description   string   `yaml:"description"`
	AssignedVoice string   `yaml:"assigned_voice"`
	ReviewDomains []string `yaml:"review_domains"`
}

type document struct {
	Chapters []entry `yaml:"chapters"`
}

// Load reads the manifest at path and returns its chapters in declaration
// order. knownVoices is the set of voice names the runtime has adapters for;
// a chapter assigned to any other voice fails the load.
func Load(path string, knownVoices []string) ([]core.Chapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return Parse(data, knownVoices)
}

// Parse decodes and validates manifest content.
func Parse(data []byte, knownVoices []string) ([]core.Chapter, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestParsing, err)
	}
	if len(doc.Chapters) == 0 {
		return nil, fmt.Errorf("%w: no chapters declared", ErrManifestInvalid)
	}

	voices := make(map[string]struct{}, len(knownVoices))
	for _, v := range knownVoices {
		voices[v] = struct{}{}
	}

	chapters := make([]core.Chapter, 0, len(doc.Chapters))
	seen := make(map[string]int, len(doc.Chapters))
	for i, e := range doc.Chapters {
		if e.PathPattern == "" {
			return nil, fmt.Errorf("%w: chapter %d has no path_pattern", ErrManifestInvalid, i)
		}
		if !doublestar.ValidatePattern(e.PathPattern) {
			return nil, fmt.Errorf("%w: chapter %d has malformed path_pattern %q", ErrManifestInvalid, i, e.PathPattern)
		}
		if e.AssignedVoice == "" {
			return nil, fmt.Errorf("%w: chapter %d (%s) has no assigned_voice", ErrManifestInvalid, i, e.PathPattern)
		}
		if _, ok := voices[e.AssignedVoice]; !ok {
			return nil, fmt.Errorf("%w: %q (chapter %d, pattern %s)", ErrUnknownVoice, e.AssignedVoice, i, e.PathPattern)
		}

		id := util.ChapterID(e.PathPattern, e.AssignedVoice)
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: chapters %d and %d share id %q", ErrManifestInvalid, prev, i, id)
		}
		seen[id] = i

		domains := make([]core.ReviewDomain, 0, len(e.ReviewDomains))
		for _, d := range e.ReviewDomains {
			domains = append(domains, core.ParseDomain(d))
		}

		chapters = append(chapters, core.Chapter{
			ID:            id,
			PathPattern:   e.PathPattern,
			Description:   e.Description,
			AssignedVoice: e.AssignedVoice,
			ReviewDomains: domains,
		})
	}

	return chapters, nil
}
