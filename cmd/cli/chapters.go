package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mallku/firecircle/internal/config"
	"github.com/mallku/firecircle/internal/core"
	"github.com/mallku/firecircle/internal/manifest"
)

var manifestPath string

var chaptersCmd = &cobra.Command{
	Use:   "chapters",
	Short: "Inspect the chapter manifest",
}

var chaptersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the chapters declared in the manifest",
	RunE:  runChaptersList,
}

var chaptersValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the chapter manifest against the configured voices",
	Long: `Validate the chapter manifest against the configured voices.

Checks that the manifest parses, that every chapter has a path pattern and
an assigned voice, and that every assigned voice is configured.`,
	RunE: runChaptersValidate,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	chaptersCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "", "Path to the chapter manifest (defaults to the configured one)")
	chaptersCmd.AddCommand(chaptersListCmd)
	chaptersCmd.AddCommand(chaptersValidateCmd)
	rootCmd.AddCommand(chaptersCmd)
}

func runChaptersList(_ *cobra.Command, _ []string) error {
	chapters, err := loadManifest()
	if err != nil {
		return err
	}

	titleColor.Printf("Chapters (%d)\n\n", len(chapters))
	for _, ch := range chapters {
		boldColor.Printf("%s\n", ch.ID)
		infoColor.Printf("  pattern: %s\n", ch.PathPattern)
		infoColor.Printf("  voice:   %s\n", ch.AssignedVoice)
		if len(ch.ReviewDomains) > 0 {
			domains := make([]string, 0, len(ch.ReviewDomains))
			for _, d := range ch.ReviewDomains {
				domains = append(domains, string(d))
			}
			infoColor.Printf("  domains: %s\n", strings.Join(domains, ", "))
		}
		if ch.Description != "" {
			dimColor.Printf("  %s\n", ch.Description)
		}
		fmt.Println()
	}
	return nil
}

func runChaptersValidate(_ *cobra.Command, _ []string) error {
	chapters, err := loadManifest()
	if err != nil {
		errorColor.Printf("✗ manifest invalid: %v\n", err)
		os.Exit(1)
	}

	for _, ch := range chapters {
		for _, d := range ch.ReviewDomains {
			if !core.IsKnownDomain(d) {
				warnColor.Printf("⚠ chapter %s declares unrecognized domain %q\n", ch.ID, d)
			}
		}
	}

	successColor.Printf("✓ manifest valid: %d chapters\n", len(chapters))
	return nil
}

func loadManifest() ([]core.Chapter, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	path := manifestPath
	if path == "" {
		path = cfg.Review.ManifestPath
	}

	return manifest.Load(path, cfg.VoiceNames())
}
