package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lexi/internal/content"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Browse the exercise levels",
	RunE:  listLevels,
}

var levelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the exercise levels",
	RunE:  listLevels,
}

func listLevels(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-8s  %-9s  %s\n", "Range", "Exercises", "Description")
	fmt.Fprintln(out, strings.Repeat("─", 72))
	for _, l := range content.Default().Levels() {
		fmt.Fprintf(out, "%-8s  %-9d  %s\n", l.Range.String(), len(l.Exercises), l.Description)
	}
	return nil
}

var levelsShowCmd = &cobra.Command{
	Use:   "show <range>",
	Short: "Show the exercises of one level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showAnswers, _ := cmd.Flags().GetBool("answers")

		lvl, err := content.Default().LevelByRange(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		sep := strings.Repeat("─", 60)
		fmt.Fprintf(out, "Level %s: %s\n%s\n", lvl.Range.String(), lvl.Description, sep)
		for i, ex := range lvl.Exercises {
			fmt.Fprintf(out, "%d. [%s] %s\n", i+1, ex.Kind, ex.Question)
			if showAnswers {
				fmt.Fprintf(out, "   Expected: %s\n", ex.Expected)
				for j, h := range ex.Hints {
					fmt.Fprintf(out, "   Hint %d:   %s\n", j+1, h)
				}
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	levelsShowCmd.Flags().Bool("answers", false, "Include expected answers and hints")
	levelsCmd.AddCommand(levelsListCmd)
	levelsCmd.AddCommand(levelsShowCmd)
}
