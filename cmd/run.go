package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/lexi/internal/app"
)

// runApp opens the services and launches the chat TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	svc, err := openServices(ctx, cmd, serviceOpts{WithEvaluator: true})
	if err != nil {
		return err
	}
	defer svc.Close()

	return app.Run(ctx, app.Options{
		Repo:      svc.Repo,
		Evaluator: svc.Evaluator,
		Catalog:   svc.Catalog,
		Logger:    svc.Logger,
	})
}
