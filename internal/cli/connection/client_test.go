package connection

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/respkv-go/pkg/resp"
)

func dialTest(t *testing.T, opts Options) *Client {
	t.Helper()
	c, err := Dial(context.Background(), opts)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func mustDo(t *testing.T, c *Client, args ...string) resp.Value {
	t.Helper()
	v, err := c.Do(args...)
	if err != nil {
		t.Fatalf("Do(%v) error = %v", args, err)
	}
	return v
}

// ============================================================
// Dial
// ============================================================

func TestDial_Errors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	closedAddr := ln.Addr().String()
	ln.Close()

	tests := []struct {
		name string
		opts Options
	}{
		{"missing address", Options{}},
		{"nothing listening", Options{Addr: closedAddr, DialTimeout: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if c, err := Dial(context.Background(), tt.opts); err == nil {
				c.Close()
				t.Error("Dial() expected error")
			}
		})
	}
}

func TestDial_Auth(t *testing.T) {
	srv := startServer(t, "s3cret")
	addr := srv.Addr().String()

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"correct password", "s3cret", nil},
		{"wrong password", "guess", ErrAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Dial(context.Background(), Options{Addr: addr, Password: tt.password})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Dial() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Dial() error = %v", err)
			}
			defer c.Close()
			if got := mustDo(t, c, "SET", "k", "v"); !resp.Equal(got, resp.SimpleString("OK")) {
				t.Errorf("SET after AUTH = %v", got)
			}
		})
	}
}

func TestDial_NoPasswordGetsNoAuth(t *testing.T) {
	srv := startServer(t, "s3cret")
	c := dialTest(t, Options{Addr: srv.Addr().String()})

	got := mustDo(t, c, "GET", "k")
	if got.Kind != resp.KindError || !strings.HasPrefix(got.Str, "NOAUTH") {
		t.Errorf("GET without AUTH = %v, want NOAUTH error", got)
	}
	if err := c.Ping(); err != nil {
		t.Errorf("Ping() without AUTH error = %v", err)
	}
}

// ============================================================
// Request / reply
// ============================================================

func TestClient_Do(t *testing.T) {
	srv := startServer(t, "")
	c := dialTest(t, Options{Addr: srv.Addr().String(), IOTimeout: 2 * time.Second})

	tests := []struct {
		args []string
		want resp.Value
	}{
		{[]string{"PING"}, resp.SimpleString("PONG")},
		{[]string{"SET", "greeting", "hello world"}, resp.SimpleString("OK")},
		{[]string{"GET", "greeting"}, resp.BulkString("hello world")},
		{[]string{"GET", "missing"}, resp.NullBulk()},
		{[]string{"EXISTS", "greeting", "missing", "greeting"}, resp.Integer(2)},
		{[]string{"ECHO", ""}, resp.BulkString("")},
		{[]string{"FLUSHALL"}, resp.Error("ERR unsupported command")},
	}

	for _, tt := range tests {
		if got := mustDo(t, c, tt.args...); !resp.Equal(got, tt.want) {
			t.Errorf("Do(%q) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestClient_DoBytesBinaryAndLarge(t *testing.T) {
	srv := startServer(t, "")
	c := dialTest(t, Options{Addr: srv.Addr().String()})

	value := bytes.Repeat([]byte{0, '\r', '\n', 0xff}, 64<<10)
	if _, err := c.DoBytes([][]byte{[]byte("SET"), []byte("blob"), value}); err != nil {
		t.Fatalf("SET error = %v", err)
	}
	got, err := c.DoBytes([][]byte{[]byte("GET"), []byte("blob")})
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	if !bytes.Equal(got.Bulk, value) {
		t.Errorf("GET returned %d bytes, want %d", len(got.Bulk), len(value))
	}
}

func TestClient_EmptyCommand(t *testing.T) {
	srv := startServer(t, "")
	c := dialTest(t, Options{Addr: srv.Addr().String()})

	if _, err := c.DoBytes(nil); err == nil {
		t.Error("DoBytes(nil) expected error")
	}
}

func TestClient_ServerGone(t *testing.T) {
	srv := startServer(t, "")
	c := dialTest(t, Options{Addr: srv.Addr().String()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if _, err := c.Do("PING"); err == nil {
		t.Error("Do() after server shutdown expected error")
	}
}

func TestSplitNetwork(t *testing.T) {
	tests := []struct {
		addr        string
		wantNetwork string
		wantAddress string
	}{
		{"127.0.0.1:6379", "tcp", "127.0.0.1:6379"},
		{"localhost:6379", "tcp", "localhost:6379"},
		{"unix:/run/respkv/kv.sock", "unix", "/run/respkv/kv.sock"},
		{"/tmp/kv.sock", "unix", "/tmp/kv.sock"},
	}
	for _, tt := range tests {
		network, address := splitNetwork(tt.addr)
		if network != tt.wantNetwork || address != tt.wantAddress {
			t.Errorf("splitNetwork(%q) = (%q, %q), want (%q, %q)",
				tt.addr, network, address, tt.wantNetwork, tt.wantAddress)
		}
	}
}

func TestDial_UnixSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "respkv")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "kv.sock")

	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		if _, err := conn.Read(buf); err == nil {
			conn.Write([]byte("+PONG\r\n"))
		}
	}()

	c := dialTest(t, Options{Addr: "unix:" + path})
	if got := mustDo(t, c, "PING"); !resp.Equal(got, resp.SimpleString("PONG")) {
		t.Errorf("PING = %v, want PONG", got)
	}
}
