package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	githubToken string
)

var rootCmd = &cobra.Command{
	Use:   "circle-cli",
	Short: "circle-cli is the command-line interface for Fire Circle.",
	Long:  `A CLI for running Fire Circle reviews and inspecting past runs: convene the circle against a pull request, validate a chapter manifest, or browse stored governance summaries.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&githubToken, "github-token", "t", "", "GitHub Token")

	if err := viper.BindPFlag("GITHUB_TOKEN", rootCmd.PersistentFlags().Lookup("github-token")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("FIRECIRCLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
