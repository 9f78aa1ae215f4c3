package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv-go/internal/cli/config"
	"github.com/yndnr/respkv-go/internal/cli/connection"
	"github.com/yndnr/respkv-go/internal/cli/output"
	"github.com/yndnr/respkv-go/internal/infra/buildinfo"
	"github.com/yndnr/respkv-go/internal/infra/tlsroots"
	"github.com/yndnr/respkv-go/pkg/resp"
)

const metadataConfig = "cliConfig"

// App creates the CLI application. Without a command it starts the REPL.
func App() *cli.App {
	app := &cli.App{
		Name:    "respkv-cli",
		Usage:   "respkv command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			PingCommand(),
			EchoCommand(),
			GetCommand(),
			SetCommand(),
			ExistsCommand(),
			DoCommand(),
			REPLCommand(),
			BenchCommand(),
			HashPasswordCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if c.App.Metadata == nil {
				c.App.Metadata = make(map[string]any)
			}
			c.App.Metadata[metadataConfig] = cfg
			return nil
		},
		Action: replAction,
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file (default ~/.respkv/cli.yaml)",
			EnvVars: []string{"RESPKV_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"P"},
			Usage:   "Named server profile from the CLI config",
			EnvVars: []string{"RESPKV_PROFILE"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Server address (host:port)",
			EnvVars: []string{"RESPKV_SERVER"},
			Value:   "127.0.0.1:6379",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"a"},
			Usage:   "Password sent with AUTH after connecting",
			EnvVars: []string{"RESPKV_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
			Value:   "text",
		},
		&cli.BoolFlag{
			Name:  "tls",
			Usage: "Connect with TLS",
		},
		&cli.StringFlag{
			Name:  "tls-ca",
			Usage: "PEM bundle used to verify the server instead of the system roots",
		},
		&cli.StringFlag{
			Name:  "tls-server-name",
			Usage: "Server name expected in the certificate",
		},
		&cli.BoolFlag{
			Name:  "tls-insecure",
			Usage: "Skip certificate verification",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Dial and per-command timeout",
			Value: 5 * time.Second,
		},
	}
}

// GlobalFlags holds the resolved connection and output settings.
type GlobalFlags struct {
	// Server connection
	Server   string
	Password string
	Timeout  time.Duration

	// TLS
	TLS           bool
	TLSCAFile     string
	TLSServerName string
	TLSInsecure   bool

	Output output.Format
}

// ParseGlobalFlags resolves the global flags. Flags set on the command
// line win over the selected profile, which wins over flag defaults.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := GetConfig(c)
	profile, err := cfg.Resolve(c.String("profile"))
	if err != nil {
		return nil, err
	}

	g := &GlobalFlags{
		Server:        c.String("server"),
		Password:      c.String("password"),
		Timeout:       c.Duration("timeout"),
		TLS:           c.Bool("tls") || profile.TLS,
		TLSCAFile:     c.String("tls-ca"),
		TLSServerName: c.String("tls-server-name"),
		TLSInsecure:   c.Bool("tls-insecure"),
	}
	if !c.IsSet("server") && profile.Server != "" {
		g.Server = profile.Server
	}
	if g.TLSCAFile == "" {
		g.TLSCAFile = profile.TLSCAFile
	}
	if g.TLSServerName == "" {
		g.TLSServerName = profile.TLSServerName
	}

	format := c.String("output")
	if !c.IsSet("output") && cfg.DefaultOutput != "" {
		format = cfg.DefaultOutput
	}
	if g.Output, err = output.ParseFormat(format); err != nil {
		return nil, err
	}
	return g, nil
}

// ClientOptions converts the flags into dial options.
func (g *GlobalFlags) ClientOptions() (connection.Options, error) {
	opts := connection.Options{
		Addr:        g.Server,
		Password:    g.Password,
		DialTimeout: g.Timeout,
		IOTimeout:   g.Timeout,
	}
	if !g.TLS && g.TLSCAFile == "" && !g.TLSInsecure {
		return opts, nil
	}

	roots := tlsroots.NewPool()
	if g.TLSCAFile != "" {
		var err error
		if roots, err = tlsroots.LoadPool(g.TLSCAFile); err != nil {
			return opts, err
		}
	}
	opts.TLSConfig = roots.ClientTLSConfig(g.TLSServerName, g.TLSInsecure)
	return opts, nil
}

// GetConfig returns the CLI config loaded in Before, or the defaults.
func GetConfig(c *cli.Context) *config.CLIConfig {
	if cfg, ok := c.App.Metadata[metadataConfig].(*config.CLIConfig); ok {
		return cfg
	}
	return config.Default()
}

// EnsureConnected dials the server selected by the global flags.
func EnsureConnected(c *cli.Context) (*connection.Client, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}
	opts, err := flags.ClientOptions()
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	client, err := connection.Dial(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", flags.Server, err)
	}
	return client, flags, nil
}

// run dials, sends one command and prints the reply. An error reply is
// printed and turned into exit status 1.
func run(c *cli.Context, args ...string) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	defer client.Close()

	reply, err := client.Do(args...)
	if err != nil {
		return err
	}
	if err := output.NewFormatter(flags.Output).Format(c.App.Writer, reply); err != nil {
		return err
	}
	if reply.Kind == resp.KindError {
		return cli.Exit("", 1)
	}
	return nil
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
