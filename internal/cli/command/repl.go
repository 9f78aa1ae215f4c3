package command

import (
	"context"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv-go/internal/cli/connection"
	"github.com/yndnr/respkv-go/internal/cli/output"
	"github.com/yndnr/respkv-go/internal/cli/repl"
)

// REPLCommand returns the repl command.
func REPLCommand() *cli.Command {
	return &cli.Command{
		Name:   "repl",
		Usage:  "Start interactive mode",
		Action: replAction,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not read or write ~/.respkv/history",
			},
		},
	}
}

func replAction(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	s := &session{client: client, flags: flags, ctx: c.Context}
	defer func() { s.client.Close() }()

	history := repl.DefaultHistoryPath()
	if c.Bool("no-history") {
		history = ""
	}

	r := repl.New(s.execute(c.App.Writer),
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithPrompt(flags.Server+"> "),
		repl.WithHistory(repl.NewHistory(history)),
	)
	return r.Run()
}

// session owns the REPL connection and redials once after an I/O error.
type session struct {
	client *connection.Client
	flags  *GlobalFlags
	ctx    context.Context
}

func (s *session) execute(w io.Writer) repl.Executor {
	formatter := output.NewFormatter(s.flags.Output)
	return func(args []string) error {
		reply, err := s.client.Do(args...)
		if err != nil {
			if err := s.redial(); err != nil {
				return err
			}
			if reply, err = s.client.Do(args...); err != nil {
				return err
			}
		}
		return formatter.Format(w, reply)
	}
}

func (s *session) redial() error {
	opts, err := s.flags.ClientOptions()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.flags.Timeout)
	defer cancel()

	client, err := connection.Dial(ctx, opts)
	if err != nil {
		return err
	}
	s.client.Close()
	s.client = client
	return nil
}
