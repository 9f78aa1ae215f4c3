package command

import (
	"strconv"

	"github.com/urfave/cli/v2"
)

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:      "ping",
		Usage:     "Check that the server answers",
		ArgsUsage: "[MESSAGE]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return cli.Exit("ping takes at most one argument", 2)
			}
			args := append([]string{"PING"}, c.Args().Slice()...)
			return run(c, args...)
		},
	}
}

// EchoCommand returns the echo command.
func EchoCommand() *cli.Command {
	return &cli.Command{
		Name:      "echo",
		Usage:     "Have the server echo a message",
		ArgsUsage: "MESSAGE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("echo takes exactly one argument", 2)
			}
			return run(c, "ECHO", c.Args().First())
		},
	}
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read the value of a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("get takes exactly one key", 2)
			}
			return run(c, "GET", c.Args().First())
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a value, optionally with a time to live",
		ArgsUsage: "KEY VALUE",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "ex",
				Usage: "Expire after this many seconds",
			},
			&cli.Int64Flag{
				Name:  "px",
				Usage: "Expire after this many milliseconds",
			},
		},
		Action: setAction,
	}
}

func setAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("set takes a key and a value", 2)
	}
	if c.IsSet("ex") && c.IsSet("px") {
		return cli.Exit("--ex and --px are mutually exclusive", 2)
	}

	args := []string{"SET", c.Args().Get(0), c.Args().Get(1)}
	switch {
	case c.IsSet("ex"):
		args = append(args, "EX", strconv.FormatInt(c.Int64("ex"), 10))
	case c.IsSet("px"):
		args = append(args, "PX", strconv.FormatInt(c.Int64("px"), 10))
	}
	return run(c, args...)
}

// ExistsCommand returns the exists command.
func ExistsCommand() *cli.Command {
	return &cli.Command{
		Name:      "exists",
		Usage:     "Count how many of the keys exist",
		ArgsUsage: "KEY [KEY...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("exists needs at least one key", 2)
			}
			return run(c, append([]string{"EXISTS"}, c.Args().Slice()...)...)
		},
	}
}

// DoCommand returns the do command, which sends arbitrary arguments.
func DoCommand() *cli.Command {
	return &cli.Command{
		Name:      "do",
		Usage:     "Send a raw command",
		ArgsUsage: "COMMAND [ARG...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("do needs a command", 2)
			}
			return run(c, c.Args().Slice()...)
		},
	}
}
