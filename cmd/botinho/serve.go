package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/claytonlovin/Botinho/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook and admin HTTP server",
	Long: `Starts the bot behind an HTTP server. The WhatsApp gateway posts
messages to /webhook; sessions, results, the tree, live events and
Prometheus metrics are exposed alongside it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.HTTPAddr
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := cli.Build(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Serve(ctx, app, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (defaults to BOTINHO_HTTP_ADDR)")
}
