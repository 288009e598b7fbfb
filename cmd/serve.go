package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/lexi/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve progress and the level catalog over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = os.Getenv("LEXI_HTTP_ADDR")
		}
		if addr == "" {
			addr = ":8080"
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := openServices(ctx, cmd, serviceOpts{WithEvaluator: true})
		if err != nil {
			return err
		}
		defer svc.Close()

		svc.Logger.Info("http server listening", "addr", addr)
		return api.Serve(ctx, addr, api.Deps{
			Repo:      svc.Repo,
			Catalog:   svc.Catalog,
			Evaluator: svc.Evaluator,
			Logger:    svc.Logger,
		})
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides LEXI_HTTP_ADDR, default :8080)")
}

