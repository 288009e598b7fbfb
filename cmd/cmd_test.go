package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lexi/internal/store"
)

// execute runs the root command with args and stdin, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("LEXI_LLM_PROVIDER", "mock")
	for _, k := range []string{"LEXI_DB", "LEXI_MONGO_URI", "LEXI_AMQP_URL", "LEXI_REDIS_URL"} {
		t.Setenv(k, "")
	}

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLevelsCommand(t *testing.T) {
	out, err := execute(t, "", "levels", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1-20")
	assert.Contains(t, out, "81-100")

	out, err = execute(t, "", "levels", "show", "21-40")
	require.NoError(t, err)
	assert.Contains(t, out, "Level 21-40")
	assert.NotContains(t, out, "Expected:")
}

func TestConsoleThenProgressAndReset(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lexi.db")

	out, err := execute(t, "Ana\n\n35\n", "console", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "What’s your name?")
	assert.Contains(t, out, "Hi Ana!")
	assert.Contains(t, out, "level 21-40")

	out, err = execute(t, "", "progress", "--db", db, "--name", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "21-40")
	assert.Contains(t, out, "0/3")

	out, err = execute(t, "", "reset", "--db", db, "--name", "Ana")
	require.NoError(t, err)
	assert.Contains(t, out, "has been reset")

	_, err = execute(t, "", "progress", "--db", db, "--name", "Ana")
	assert.ErrorContains(t, err, "no progress saved")
}

func TestConsolePrintsLastAnnouncementAtEOF(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lexi.db")

	// Three misses schedule the word game; input ends before its timer.
	out, err := execute(t, "Ana\n5\nqqqq\nqqqq\nqqqq\n", "console", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Correct answer:")
	assert.Contains(t, out, "Let's take a short break with a fun word game!")
}

func TestLLMStatsAndFailedList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lexi.db")
	s, err := store.Open(db)
	require.NoError(t, err)
	ctx := context.Background()
	for _, kind := range []string{"", "rate_limit", "rate_limit", "invalid"} {
		require.NoError(t, s.EventRepo().AppendLLMRequest(ctx, store.LLMRequestEventData{
			Provider:     "gemini",
			Model:        "gemini-1.5-pro",
			Purpose:      "answer-evaluation",
			InputTokens:  120,
			OutputTokens: 20,
			Success:      kind == "",
			ErrorKind:    kind,
		}))
	}
	require.NoError(t, s.Close())

	out, err := execute(t, "", "llm", "stats", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "answer-evaluation")
	assert.Contains(t, out, "25%")
	assert.Contains(t, out, "Failures (answers judged offline)")
	assert.Contains(t, out, "rate_limit")
	assert.Contains(t, out, "67%")

	out, err = execute(t, "", "llm", "list", "--db", db, "--failed")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "✗ rate_limit"))
	assert.Contains(t, out, "✗ invalid")
	assert.NotContains(t, out, "✓")
}

func TestCheckRequiresExerciseForAnswer(t *testing.T) {
	_, err := execute(t, "", "check", "--level", "1-20", "some answer")
	assert.ErrorContains(t, err, "--exercise is required")

	_, err = execute(t, "", "check", "--level", "1-20", "--exercise", "9", "x")
	assert.ErrorContains(t, err, "invalid exercise")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version", "--short")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "lexi "), "got %q", out)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}
