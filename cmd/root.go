// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"snag/internal/config"
	"snag/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagQuality   string
	flagKind      string
	flagCookies   string
	flagYTDLP     string
	flagNoHistory bool
	flagJSON      bool
	flagDebug     bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

var logger zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "snag [url]",
	Short: "Resolve a media page URL into a direct download link",
	Long: `Snag takes a link to a video or photo on YouTube, Instagram, Facebook,
X/Twitter, TikTok, Vimeo or an arbitrary page and prints a URL you can
download directly, picked for the requested quality.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              resolveRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Target quality: sd | hd")
	rootCmd.PersistentFlags().StringVarP(&flagKind, "kind", "k", "", "Media kind: auto | video | photo")
	rootCmd.PersistentFlags().StringVar(&flagCookies, "cookies", "", "Directory of Netscape cookie files")
	rootCmd.PersistentFlags().StringVar(&flagYTDLP, "yt-dlp", "", "yt-dlp executable name or path")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not record this run in history")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration, then sets up logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file and environment values
	if flagQuality != "" {
		cfg.Quality = flagQuality
	}
	if flagKind != "" {
		cfg.Kind = flagKind
	}
	if flagCookies != "" {
		cfg.CookiesDir = flagCookies
	}
	if flagYTDLP != "" {
		cfg.YTDLPPath = flagYTDLP
	}
	if flagNoHistory {
		cfg.History = false
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = logging.New(os.Stderr, cfg.LogLevel, cfg.Debug, false)
	return nil
}
