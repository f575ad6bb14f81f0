package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/claytonlovin/Botinho/internal/presentation/tui"
	"github.com/claytonlovin/Botinho/pkg/runner"
)

// ChatOptions configures a local conversation.
type ChatOptions struct {
	Identity string
	JSON     bool
	In       io.Reader
	Out      *os.File
}

// Chat talks to the bot from the terminal until the input ends or ctx is done.
func Chat(ctx context.Context, app *App, opts ChatOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	} else {
		var textOpts []runner.TextHandlerOption
		if tui.IsTerminal(opts.Out) {
			tui.PrintBanner(opts.Out)
			fmt.Fprintf(opts.Out, "Conversando como %s. Envie áudio com /audio <arquivo>; Ctrl+D encerra.\n\n", opts.Identity)
			textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, textOpts...)
	}

	r := runner.New(app.Bot, handler,
		runner.WithIdentity(opts.Identity),
		runner.WithLogger(app.Logger),
	)
	return r.Run(ctx)
}
