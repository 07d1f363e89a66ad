package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/dossier/internal/api"
	"github.com/jackzampolin/dossier/internal/config"
	"github.com/jackzampolin/dossier/internal/home"
	"github.com/jackzampolin/dossier/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "dossier",
	Short: "Assemble personnel files from PDF documents",
	Long: `Dossier assembles an employee's personnel file from PDF documents.

Documents are loaded into titled sections, reordered page by page, and
exported as one PDF with optional cover and divider pages, or uploaded
section by section to a storage service.

The tool runs in two modes:
  - dossier serve      hosts assembly sessions over HTTP
  - dossier assemble   builds a file offline from a YAML manifest`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.dossier/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "dossier home directory (default: ~/.dossier)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log debug output",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// getHome resolves the home directory from --home.
func getHome() (*home.Dir, error) {
	return home.New(homeDir)
}

// loadConfig reads --config, falling back to the home directory's config
// file and then viper's search paths.
func loadConfig(h *home.Dir) (*config.Manager, error) {
	file := cfgFile
	if file == "" && h != nil && h.ConfigExists() {
		file = h.ConfigPath()
	}
	return config.NewManager(file)
}

// newLogger returns a text logger writing to w.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// cliLogger is the logger for one-shot commands. It writes to stderr so
// stdout carries only command output.
func cliLogger() *slog.Logger {
	return newLogger(os.Stderr)
}
