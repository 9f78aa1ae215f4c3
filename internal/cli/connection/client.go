package connection

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/yndnr/respkv-go/pkg/resp"
)

// Default timeouts.
const (
	DefaultDialTimeout = 5 * time.Second
	DefaultIOTimeout   = 30 * time.Second
)

const readChunk = 4096

// ErrAuthFailed is returned by Dial when the server rejects the password.
var ErrAuthFailed = errors.New("connection: authentication failed")

// Options configures a client connection.
type Options struct {
	// Addr is host:port of the RESP listener.
	Addr string

	// Password is sent with AUTH right after connecting when non-empty.
	Password string

	// TLSConfig enables TLS when non-nil.
	TLSConfig *tls.Config

	DialTimeout time.Duration

	// IOTimeout bounds each request/reply round trip. Zero disables it.
	IOTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	return o
}

// Client is a single RESP connection. It is not safe for concurrent use.
type Client struct {
	conn   net.Conn
	opts   Options
	limits resp.Limits

	buf   []byte
	chunk []byte
	out   []byte
}

// Dial connects to opts.Addr and authenticates if a password is set.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	if opts.Addr == "" {
		return nil, errors.New("connection: address is required")
	}

	network, address := splitNetwork(opts.Addr)
	dialer := &net.Dialer{Timeout: opts.DialTimeout}
	var (
		conn net.Conn
		err  error
	)
	if opts.TLSConfig != nil && network == "tcp" {
		td := &tls.Dialer{NetDialer: dialer, Config: opts.TLSConfig}
		conn, err = td.DialContext(ctx, network, address)
	} else {
		conn, err = dialer.DialContext(ctx, network, address)
	}
	if err != nil {
		return nil, fmt.Errorf("connection: dial %s: %w", opts.Addr, err)
	}

	c := &Client{
		conn:   conn,
		opts:   opts,
		limits: resp.DefaultLimits(),
		chunk:  make([]byte, readChunk),
	}

	if opts.Password != "" {
		reply, err := c.Do("AUTH", opts.Password)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		if reply.Kind == resp.KindError {
			_ = c.Close()
			return nil, fmt.Errorf("%w: %s", ErrAuthFailed, reply.Str)
		}
	}

	return c, nil
}

// splitNetwork maps "unix:/path" and absolute paths to a Unix socket and
// everything else to TCP.
func splitNetwork(addr string) (network, address string) {
	if rest, ok := strings.CutPrefix(addr, "unix:"); ok {
		return "unix", rest
	}
	if strings.HasPrefix(addr, "/") {
		return "unix", addr
	}
	return "tcp", addr
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.opts.Addr
}

// Do sends one command and waits for its reply.
func (c *Client) Do(args ...string) (resp.Value, error) {
	b := make([][]byte, len(args))
	for i, a := range args {
		b[i] = []byte(a)
	}
	return c.DoBytes(b)
}

// DoBytes sends one command with binary arguments and waits for its reply.
func (c *Client) DoBytes(args [][]byte) (resp.Value, error) {
	if len(args) == 0 {
		return resp.Value{}, errors.New("connection: empty command")
	}
	if c.opts.IOTimeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.opts.IOTimeout))
	}

	c.out = resp.AppendCommand(c.out[:0], args)
	if _, err := c.conn.Write(c.out); err != nil {
		return resp.Value{}, fmt.Errorf("connection: write: %w", err)
	}
	return c.readReply()
}

// Ping round-trips a PING.
func (c *Client) Ping() error {
	reply, err := c.Do("PING")
	if err != nil {
		return err
	}
	if reply.Kind == resp.KindError {
		return errors.New(reply.Str)
	}
	return nil
}

func (c *Client) readReply() (resp.Value, error) {
	for {
		if len(c.buf) > 0 {
			v, n, err := c.limits.Parse(c.buf)
			if err == nil {
				c.buf = c.buf[:copy(c.buf, c.buf[n:])]
				return v, nil
			}
			if !errors.Is(err, resp.ErrIncomplete) {
				return resp.Value{}, fmt.Errorf("connection: %w", err)
			}
		}

		n, err := c.conn.Read(c.chunk)
		c.buf = append(c.buf, c.chunk[:n]...)
		if err != nil && n == 0 {
			return resp.Value{}, fmt.Errorf("connection: read: %w", err)
		}
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
