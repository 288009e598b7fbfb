package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/lexi/internal/llm"
	"github.com/abhisek/lexi/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the evaluation calls made to the LLM provider",
	Long: `Every answer evaluation that reaches a provider is recorded with its
prompt, reply, token counts and, when it failed, the kind of failure. A
failed call means the learner's answer was judged by the offline rules.`,
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failed, _ := cmd.Flags().GetBool("failed")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{
			Limit:      limit,
			Purpose:    purpose,
			FailedOnly: failed,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(w, "No LLM calls recorded.")
			return nil
		}

		t := newTable("ID", "Time", "Purpose", "Model", "Tokens", "Ms", "Result")
		for _, e := range events {
			t.Row(
				strconv.Itoa(e.ID),
				e.Timestamp.Local().Format("01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 28),
				fmt.Sprintf("%d/%d", e.InputTokens, e.OutputTokens),
				strconv.FormatInt(e.LatencyMs, 10),
				result(e.Success, e.ErrorKind),
			)
		}
		fmt.Fprintln(w, t.String())
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if store.IsNotFound(err) {
			return fmt.Errorf("call %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}

		w := cmd.OutOrStdout()
		fields := [][2]string{
			{"ID", strconv.Itoa(e.ID)},
			{"Time", e.Timestamp.Local().Format("2006-01-02 15:04:05")},
			{"Provider", e.Provider},
			{"Model", e.Model},
			{"Purpose", e.Purpose},
			{"Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)},
			{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
			{"Result", result(e.Success, e.ErrorKind)},
		}
		if e.ErrorMessage != "" {
			fields = append(fields, [2]string{"Error", e.ErrorMessage})
		}
		for _, f := range fields {
			fmt.Fprintf(w, "%-9s %s\n", f[0]+":", f[1])
		}

		section(w, "Prompt", e.RequestBody)
		section(w, "Reply", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize calls, failures and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		repo := s.EventRepo()
		w := cmd.OutOrStdout()

		usage, err := repo.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(usage) == 0 {
			fmt.Fprintln(w, "No LLM calls recorded.")
			return nil
		}

		var calls, failures, in, out int
		t := newTable("Purpose", "Calls", "Failed", "Success", "Input", "Output", "Avg ms")
		for _, u := range usage {
			t.Row(u.Purpose, strconv.Itoa(u.Calls), strconv.Itoa(u.Failures),
				percent(u.Calls-u.Failures, u.Calls),
				strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens),
				strconv.FormatInt(u.AvgLatencyMs, 10))
			calls += u.Calls
			failures += u.Failures
			in += u.InputTokens
			out += u.OutputTokens
		}
		t.Row("total", strconv.Itoa(calls), strconv.Itoa(failures),
			percent(calls-failures, calls), strconv.Itoa(in), strconv.Itoa(out), "")
		fmt.Fprintln(w, "Calls by purpose")
		fmt.Fprintln(w, t.String())

		// Each failed evaluation fell back to the offline rules.
		kinds, err := repo.LLMFailuresByKind(ctx)
		if err != nil {
			return fmt.Errorf("query failures: %w", err)
		}
		if len(kinds) > 0 {
			t := newTable("Kind", "Calls", "Share")
			for _, k := range kinds {
				kind := k.Kind
				if kind == "" {
					kind = "unknown"
				}
				t.Row(kind, strconv.Itoa(k.Calls), percent(k.Calls, failures))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Failures (answers judged offline)")
			fmt.Fprintln(w, t.String())
		}

		models, err := repo.LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		var total float64
		var unpriced []string
		t = newTable("Model", "Calls", "Input", "Output", "Cost")
		for _, m := range models {
			cost := "?"
			if p := llm.LookupCost(m.Model); p != nil {
				c := p.Cost(m.InputTokens, m.OutputTokens)
				total += c
				cost = formatCost(c)
			} else {
				unpriced = append(unpriced, m.Model)
			}
			t.Row(truncate(m.Model, 32), strconv.Itoa(m.Calls),
				strconv.Itoa(m.InputTokens), strconv.Itoa(m.OutputTokens), cost)
		}
		label := "total"
		if len(unpriced) > 0 {
			label = "total (partial)"
		}
		t.Row(label, "", "", "", formatCost(total))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Estimated cost (USD)")
		fmt.Fprintln(w, t.String())
		if len(unpriced) > 0 {
			fmt.Fprintf(w, "No pricing for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		Headers(headers...)
}

func result(ok bool, kind string) string {
	switch {
	case ok:
		return "✓"
	case kind == "":
		return "✗"
	default:
		return "✗ " + kind
	}
}

func section(w io.Writer, title, body string) {
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintf(w, "\n── %s %s\n%s\n", title, strings.Repeat("─", max(56-len(title), 0)), body)
}

func percent(n, of int) string {
	if of == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", 100*float64(n)/float64(of))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only calls with this purpose (e.g. answer-evaluation)")
	llmListCmd.Flags().Bool("failed", false, "Only calls that failed")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
