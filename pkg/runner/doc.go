/*
Package runner drives a local conversation with the bot over a line-oriented
stream, standing in for the chat transport during development.

Each input line becomes one inbound message for a fixed identity and every
outbound message is written back through the same IOHandler.

# Key Components

  - Runner: reads lines, routes them and reports routing failures.
  - TextHandler: interactive terminal I/O with optional rich rendering.
  - JSONHandler: JSON-Lines I/O for scripted sessions.

# Usage

	r := runner.New(manager, runner.NewTextHandler(os.Stdin, os.Stdout),
		runner.WithIdentity("5511988887777@c.us"),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}

A line of the form "/audio <file>" is sent as a voice note read from file.
*/
package runner
