package voice

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed prompts/*.prompt
var promptFiles embed.FS

// PromptKey selects a prompt task; Provider selects a provider-specific
// variant with "default" as the fallback.
type (
	Provider  string
	PromptKey string
)

const (
	DefaultProvider     Provider  = "default"
	ChapterReviewPrompt PromptKey = "chapter_review"
)

// PromptManager loads the embedded prompt templates, keyed by task and
// provider. Filenames follow "key_provider.prompt".
type PromptManager struct {
	prompts map[PromptKey]map[Provider]*template.Template
}

// ChapterPromptData is the type-safe payload for rendering a chapter review
// prompt.
type ChapterPromptData struct {
	Voice        string
	ChapterID    string
	Description  string
	Domains      []string
	Files        []string
	Diff         string
	FileContents map[string]string
	PRTitle      string
	PRBody       string
}

func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{
		prompts: make(map[PromptKey]map[Provider]*template.Template),
	}

	files, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded prompts directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		fileName := file.Name()
		baseName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		lastUnderscore := strings.LastIndex(baseName, "_")
		if lastUnderscore <= 0 || lastUnderscore == len(baseName)-1 {
			return nil, fmt.Errorf("invalid prompt filename format: %s (expected 'key_provider.prompt')", fileName)
		}

		key := PromptKey(baseName[:lastUnderscore])
		provider := Provider(baseName[lastUnderscore+1:])

		content, err := promptFiles.ReadFile("prompts/" + fileName)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded prompt file %s: %w", fileName, err)
		}

		if err := pm.register(key, provider, string(content)); err != nil {
			return nil, fmt.Errorf("failed to register prompt from file %s: %w", fileName, err)
		}
	}

	return pm, nil
}

func (pm *PromptManager) register(key PromptKey, provider Provider, content string) error {
	tmpl, err := template.New(string(key) + "_" + string(provider)).Parse(content)
	if err != nil {
		return fmt.Errorf("could not parse template: %w", err)
	}

	if _, ok := pm.prompts[key]; !ok {
		pm.prompts[key] = make(map[Provider]*template.Template)
	}

	pm.prompts[key][provider] = tmpl
	return nil
}

// Get returns the template for a key and provider, falling back to the
// default variant when no provider-specific one exists.
func (pm *PromptManager) Get(key PromptKey, provider Provider) (*template.Template, error) {
	taskPrompts, ok := pm.prompts[key]
	if !ok {
		return nil, fmt.Errorf("no prompts found for key '%s'", key)
	}

	if tmpl, ok := taskPrompts[provider]; ok {
		return tmpl, nil
	}
	if tmpl, ok := taskPrompts[DefaultProvider]; ok {
		return tmpl, nil
	}

	return nil, fmt.Errorf("no template found for key '%s' and provider '%s', and no default was available", key, provider)
}

// Render executes the selected template with the given data.
func (pm *PromptManager) Render(key PromptKey, provider Provider, data any) (string, error) {
	tmpl, err := pm.Get(key, provider)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return buf.String(), nil
}
