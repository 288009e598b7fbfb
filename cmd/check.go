package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lexi/internal/content"
	"github.com/abhisek/lexi/internal/evaluate"
)

var checkCmd = &cobra.Command{
	Use:   "check [answer]",
	Short: "Check answers against a level's exercises (no progress saved)",
	Long: `Judge answers with the same evaluator the tutor uses.

With an answer argument, checks it against one exercise and exits.
Without one, walks through the level interactively. Nothing is written
to the learner's progress; LLM calls are still logged.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("level", "", "Level range, e.g. 21-40 (required)")
	checkCmd.Flags().Int("exercise", 0, "Exercise number within the level (1-3); 0 walks all of them")
	_ = checkCmd.MarkFlagRequired("level")
}

func runCheck(cmd *cobra.Command, args []string) error {
	levelVal, _ := cmd.Flags().GetString("level")
	exNum, _ := cmd.Flags().GetInt("exercise")

	lvl, err := content.Default().LevelByRange(levelVal)
	if err != nil {
		return err
	}
	if exNum < 0 || exNum > len(lvl.Exercises) {
		return fmt.Errorf("invalid exercise %d: level %s has %d", exNum, lvl.Range, len(lvl.Exercises))
	}
	if len(args) == 1 && exNum == 0 {
		return fmt.Errorf("--exercise is required when an answer is given")
	}

	ctx := cmd.Context()
	svc, err := openServices(ctx, cmd, serviceOpts{WithEvaluator: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		ex, _ := lvl.Exercise(exNum - 1)
		v := svc.Evaluator.Evaluate(ctx, evaluate.Request{Response: args[0], Exercise: ex})
		printVerdict(cmd, v)
		if !v.Correct {
			fmt.Fprintf(out, "Expected: %s\n", ex.Expected)
		}
		return nil
	}

	exercises := lvl.Exercises
	first := 1
	if exNum > 0 {
		exercises = exercises[exNum-1 : exNum]
		first = exNum
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	var correct int
	for i, ex := range exercises {
		fmt.Fprintf(out, "── Exercise %d/%d [%s] ──\n", first+i, len(lvl.Exercises), ex.Kind)
		fmt.Fprintln(out, ex.Question)

		fmt.Fprint(out, "\nYour answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Fprint(out, "(skipped)\n\n")
			continue
		}

		v := svc.Evaluator.Evaluate(ctx, evaluate.Request{Response: answer, Exercise: ex})
		printVerdict(cmd, v)
		if v.Correct {
			correct++
		} else {
			fmt.Fprintf(out, "Expected: %s\n", ex.Expected)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "── Summary: %d/%d correct ──\n", correct, len(exercises))
	return scanner.Err()
}

func printVerdict(cmd *cobra.Command, v evaluate.Verdict) {
	out := cmd.OutOrStdout()
	if v.Correct {
		fmt.Fprint(out, "\033[32m✓ Correct!\033[0m")
	} else {
		fmt.Fprint(out, "\033[31m✗ Not yet.\033[0m")
	}
	fmt.Fprintf(out, " (%s)\n", v.Source)
	if v.Feedback != "" {
		fmt.Fprintf(out, "Feedback: %s\n", v.Feedback)
	}
}
