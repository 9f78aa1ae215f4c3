package redisserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/respkv-go/internal/core/service"
	"github.com/yndnr/respkv-go/pkg/resp"
)

const readChunkSize = 16 << 10

// Conn represents a single client connection.
type Conn struct {
	id      string
	netConn net.Conn
	bw      *bufio.Writer

	// rbuf holds received bytes not yet consumed by a complete frame.
	rbuf []byte
	wbuf []byte

	authenticated bool
	limiter       *rate.Limiter

	closed atomic.Bool
}

func newConn(c net.Conn, rateLimit int) *Conn {
	conn := &Conn{
		id:      ulid.Make().String(),
		netConn: c,
		bw:      bufio.NewWriter(c),
	}
	if rateLimit > 0 {
		conn.limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	}
	return conn
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() string {
	return c.id
}

// Close closes the underlying socket. It is safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// remote names the peer for logs. Unix socket peers are usually unnamed.
func (c *Conn) remote() string {
	if a := c.RemoteAddr(); a != nil && a.String() != "" {
		return a.String()
	}
	return "local"
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()

	logger := s.logger.With("conn_id", c.id, "remote", c.remote())
	logger.Debug("connection accepted")
	defer logger.Debug("connection closed")

	chunk := make([]byte, readChunkSize)
	for {
		// Between commands the idle timeout applies; inside a partially
		// received command the read timeout does.
		timeout := s.cfg.IdleTimeout
		if len(c.rbuf) > 0 {
			timeout = s.cfg.ReadTimeout
		}
		if err := setDeadline(c.netConn.SetReadDeadline, timeout); err != nil {
			return
		}

		n, err := c.netConn.Read(chunk)
		if n > 0 {
			c.rbuf = append(c.rbuf, chunk[:n]...)
			quit, ok := s.drain(c, logger)
			if err := setDeadline(c.netConn.SetWriteDeadline, s.cfg.WriteTimeout); err != nil {
				return
			}
			if flushErr := c.bw.Flush(); flushErr != nil {
				logger.Debug("connection write error", "error", flushErr)
				return
			}
			if quit || !ok {
				return
			}
		}
		if err != nil {
			var netErr net.Error
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			case errors.As(err, &netErr) && netErr.Timeout():
				logger.Debug("connection timed out")
			default:
				logger.Debug("connection read error", "error", err)
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// drain executes every complete command in c.rbuf and buffers the replies.
// It reports whether the client asked to quit and whether the connection
// is still usable.
func (s *Server) drain(c *Conn, logger *slog.Logger) (quit, ok bool) {
	pos := 0
	defer func() {
		if pos > 0 {
			c.rbuf = append(c.rbuf[:0], c.rbuf[pos:]...)
		}
	}()

	for pos < len(c.rbuf) {
		v, used, err := s.limits.Parse(c.rbuf[pos:])
		if errors.Is(err, resp.ErrIncomplete) {
			return false, true
		}
		if err != nil {
			s.protocolError(c, logger, err.Error())
			return false, false
		}
		args, isCmd := v.CommandArgs()
		if !isCmd {
			s.protocolError(c, logger, "expected array of bulk strings, got "+v.Kind.String())
			return false, false
		}

		raw := c.rbuf[pos : pos+used]
		pos += used

		reply, quit := s.handle(c, args, raw, logger)
		c.wbuf = resp.AppendValue(c.wbuf[:0], reply)
		if _, err := c.bw.Write(c.wbuf); err != nil {
			return false, false
		}
		if quit {
			return true, true
		}
	}
	return false, true
}

func (s *Server) protocolError(c *Conn, logger *slog.Logger, detail string) {
	s.observer.ProtocolError()
	logger.Warn("protocol error, closing connection", "error", detail)
	_, _ = c.bw.Write(resp.AppendValue(nil, resp.Error("ERR Protocol error: "+detail)))
}

// handle runs one command and returns its reply and whether the
// connection should close after the reply is written.
func (s *Server) handle(c *Conn, args [][]byte, raw []byte, logger *slog.Logger) (resp.Value, bool) {
	if len(args) == 0 {
		return s.dispatcher.DispatchFrame(args, raw), false
	}

	name := normalizeCommandName(args[0])
	switch name {
	case "QUIT":
		return resp.SimpleString("OK"), true
	case "AUTH":
		return s.handleAuth(c, args, logger), false
	}

	if s.password != nil && !c.authenticated && name != "PING" && name != "ECHO" {
		return service.ErrNoAuth.Reply(), false
	}

	if c.limiter != nil && !c.limiter.Allow() {
		return service.ErrRateLimited.Reply(), false
	}

	return s.dispatcher.DispatchFrame(args, raw), false
}

func (s *Server) handleAuth(c *Conn, args [][]byte, logger *slog.Logger) resp.Value {
	if len(args) != 2 {
		return service.ArityError("auth").Reply()
	}
	if s.password == nil {
		return service.ErrAuthNotConfigured.Reply()
	}
	if !s.password.Verify(args[1]) {
		logger.Warn("authentication failed")
		return service.ErrWrongPass.Reply()
	}
	c.authenticated = true
	return resp.SimpleString("OK")
}

func setDeadline(set func(time.Time) error, d time.Duration) error {
	if d <= 0 {
		return set(time.Time{})
	}
	return set(time.Now().Add(d))
}

// normalizeCommandName uppercases an ASCII command name.
func normalizeCommandName(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	// Uppercase ASCII without allocating for already uppercased tokens.
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return string(bytes.ToUpper(b))
	}
	return string(b)
}
