package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/lexi/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lexi",
	Short: "Reading and writing coach for adults with dyslexia",
	Long: `Lexi is a terminal chat tutor. It places you at a level from your
dyslexia severity score, walks you through practical reading and writing
exercises with hints, and takes a short word-game break when an exercise
gets frustrating.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogging()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Assigned here rather than in the literal to break the initialization
	// cycle rootCmd -> setupLogging -> logsToFile -> rootCmd.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal; anything else is worth reporting.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return setupLogging(cmd)
	}

	rootCmd.PersistentFlags().String("db", "", "SQLite file or postgres:// URL (overrides LEXI_DB env var)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides LEXI_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of the default location")

	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then LEXI_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
