package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var logFile *os.File

// setupLogging installs the default slog logger. The TUI owns the terminal,
// so the root and console commands log to a file; the others log to stderr.
func setupLogging(cmd *cobra.Command) error {
	closeLogging()
	level, err := parseLogLevel(cmd)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	path, _ := cmd.Flags().GetString("log-file")
	if path == "" && logsToFile(cmd) {
		if path, err = defaultLogPath(); err != nil {
			return err
		}
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		w = f
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func closeLogging() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func logsToFile(cmd *cobra.Command) bool {
	return cmd == rootCmd || cmd == consoleCmd
}

func parseLogLevel(cmd *cobra.Command) (slog.Level, error) {
	s, _ := cmd.Flags().GetString("log-level")
	if s == "" {
		s = os.Getenv("LEXI_LOG_LEVEL")
	}
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// defaultLogPath is $XDG_STATE_HOME/lexi/lexi.log, or
// ~/.local/state/lexi/lexi.log.
func defaultLogPath() (string, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "lexi", "lexi.log"), nil
}
