package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete a learner's saved progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		ctx := cmd.Context()
		svc, err := openServices(ctx, cmd, serviceOpts{})
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.Repo.Reset(ctx, name); err != nil {
			return fmt.Errorf("reset %q: %w", name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Progress for %s has been reset.\n", name)
		return nil
	},
}

func init() {
	resetCmd.Flags().String("name", "", "Learner name (required)")
	_ = resetCmd.MarkFlagRequired("name")
}
