package command

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv-go/internal/core/service"
)

// HashPasswordCommand returns the hash-password command.
func HashPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "Print an argon2id hash for security.requirepass_hash",
		ArgsUsage: "[PASSWORD]",
		Description: "Without an argument the password is read from the first line of standard input,\n" +
			"which keeps it out of the shell history.",
		Action: hashPasswordAction,
	}
}

func hashPasswordAction(c *cli.Context) error {
	password := c.Args().First()
	if c.NArg() == 0 {
		line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, hash)
	return nil
}
