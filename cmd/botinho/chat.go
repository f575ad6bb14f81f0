package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/claytonlovin/Botinho/internal/cli"
	"github.com/claytonlovin/Botinho/pkg/runner"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot from the terminal",
	Long: `Runs a single conversation on stdin/stdout, as if typed on WhatsApp.
Send a voice note with "/audio <file>". With --json every line in and out
is a JSON object, which makes the bot scriptable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, _ := cmd.Flags().GetString("identity")
		jsonMode, _ := cmd.Flags().GetBool("json")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := cli.Build(ctx, cfg, logger, nil)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Chat(ctx, app, cli.ChatOptions{
			Identity: identity,
			JSON:     jsonMode,
			In:       os.Stdin,
			Out:      os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("identity", runner.DefaultIdentity, "WhatsApp identity of the conversation")
	chatCmd.Flags().Bool("json", false, "Read and write JSON lines")
}
