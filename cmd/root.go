// Package cmd holds the CLI entry point and the wiring between the
// configuration, Gmail, Gemini, and TUI layers.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bassamadnan/mailgenie/auth"
	"github.com/bassamadnan/mailgenie/config"
	"github.com/bassamadnan/mailgenie/gemini"
	"github.com/bassamadnan/mailgenie/gmail"
	"github.com/bassamadnan/mailgenie/logging"
	"github.com/bassamadnan/mailgenie/tui"
)

var (
	flagCredentials string
	flagToken       string
	flagModel       string
	flagMaxResults  int64
	flagLogFile     string
	flagQuery       string
)

// rootCmd represents the base command for the mailgenie application
var rootCmd = &cobra.Command{
	Use:   "mailgenie",
	Short: "Search Gmail and answer with Gemini-drafted replies",
	Long: `mailgenie is a terminal Gmail client with an AI copilot: search your
inbox, read messages, and send replies drafted by Gemini after your edits.

Configuration comes from the environment (a .env file is honored); flags
override it. GEMINI_API_KEY is required.`,
	SilenceUsage: true,
	RunE:         run,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mailgenie version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&flagCredentials, "credentials", "", "path to the OAuth client secret JSON")
	rootCmd.Flags().StringVar(&flagToken, "token", "", "path to the cached OAuth token")
	rootCmd.Flags().StringVar(&flagModel, "model", "", "Gemini model used for reply drafts")
	rootCmd.Flags().Int64Var(&flagMaxResults, "max-results", 0, "messages fetched per search (1-50)")
	rootCmd.Flags().StringVar(&flagLogFile, "log-file", "", "path of the diagnostic log file")
	rootCmd.Flags().StringVar(&flagQuery, "query", "", "Gmail search to run on startup")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	_, closeLog, err := logging.Setup(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds, err := auth.Load(cfg.CredentialsPath, cfg.TokenPath)
	if err != nil {
		return err
	}

	mail, err := gmail.NewClient(ctx, creds)
	if err != nil {
		return fmt.Errorf("create gmail client: %w", err)
	}

	gen, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return err
	}
	defer gen.Close()

	slog.Info("starting", "version", version, "model", cfg.GeminiModel)
	return tui.NewApp(ctx, creds, mail, gen, cfg.MaxResults, flagQuery).Run()
}

func applyFlags(cfg *config.Config) {
	if flagCredentials != "" {
		cfg.CredentialsPath = flagCredentials
	}
	if flagToken != "" {
		cfg.TokenPath = flagToken
	}
	if flagModel != "" {
		cfg.GeminiModel = flagModel
	}
	if flagMaxResults != 0 {
		cfg.MaxResults = flagMaxResults
	}
	if flagLogFile != "" {
		cfg.LogPath = flagLogFile
	}
}
