package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lexi/internal/progress"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show a learner's progress dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx := cmd.Context()
		svc, err := openServices(ctx, cmd, serviceOpts{})
		if err != nil {
			return err
		}
		defer svc.Close()

		rec, err := svc.Repo.Get(ctx, name)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		if rec == nil {
			return fmt.Errorf("no progress saved for %q", name)
		}

		r := progress.Build(rec, svc.Catalog, time.Now())
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}
		return progress.Render(cmd.OutOrStdout(), r)
	},
}

func init() {
	progressCmd.Flags().String("name", "", "Learner name (required)")
	progressCmd.Flags().Bool("json", false, "Print the report as JSON")
	_ = progressCmd.MarkFlagRequired("name")
}
