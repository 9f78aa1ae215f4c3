package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yndnr/respkv-go/pkg/resp"
)

// CommandError is an error reply. Prefix is the leading uppercase word of
// the wire form (ERR, NOAUTH, WRONGPASS).
type CommandError struct {
	Prefix  string
	Message string
}

// Error implements the error interface and returns the wire text.
func (e *CommandError) Error() string {
	return e.Prefix + " " + e.Message
}

// Is reports whether target is a CommandError with the same text.
func (e *CommandError) Is(target error) bool {
	t, ok := target.(*CommandError)
	if !ok {
		return false
	}
	return e.Prefix == t.Prefix && e.Message == t.Message
}

// Reply renders the error as a RESP simple error.
func (e *CommandError) Reply() resp.Value {
	return resp.Error(e.Error())
}

// NewCommandError creates an error reply with an explicit prefix.
func NewCommandError(prefix, message string) *CommandError {
	return &CommandError{Prefix: prefix, Message: message}
}

// Error replies produced by the dispatcher and the connection layer.
var (
	ErrEmptyCommand       = NewCommandError("ERR", "empty command")
	ErrUnsupportedCommand = NewCommandError("ERR", "unsupported command")
	ErrSyntax             = NewCommandError("ERR", "syntax error")
	ErrInvalidExpire      = NewCommandError("ERR", "invalid expire time in 'set' command")
	ErrPersistence        = NewCommandError("ERR", "persistence failure")
	ErrRateLimited        = NewCommandError("ERR", "rate limit exceeded")
	ErrNoAuth             = NewCommandError("NOAUTH", "Authentication required.")
	ErrWrongPass          = NewCommandError("WRONGPASS", "invalid password")
	ErrAuthNotConfigured  = NewCommandError("ERR", "AUTH <password> called without any password configured")
)

// ArityError is the reply for a command called with the wrong number of
// arguments. The name is reported in lowercase.
func ArityError(name string) *CommandError {
	return NewCommandError("ERR", fmt.Sprintf("wrong number of arguments for '%s' command", strings.ToLower(name)))
}

// ReplyFor converts err into an error reply. Errors that are not
// CommandErrors are reported with the ERR prefix.
func ReplyFor(err error) resp.Value {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Reply()
	}
	return resp.Error("ERR " + err.Error())
}
