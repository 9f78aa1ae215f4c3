package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Protocol limits. A length header alone must not be able to make a
// reader buffer or allocate without bound.
const (
	// DefaultMaxBulkLen matches the Redis proto-max-bulk-len default (512MB).
	DefaultMaxBulkLen = 512 << 20

	// DefaultMaxArrayLen bounds the element count of a single array.
	DefaultMaxArrayLen = 1 << 20

	// DefaultMaxLineLen bounds a simple string, error or length line.
	DefaultMaxLineLen = 64 << 10

	// DefaultMaxDepth bounds array nesting.
	DefaultMaxDepth = 32
)

var (
	// ErrIncomplete means the buffer holds a prefix of a frame.
	ErrIncomplete = errors.New("resp: incomplete frame")

	// ErrMalformed means the buffer can never become a valid frame.
	ErrMalformed = errors.New("resp: malformed frame")

	// ErrLimitExceeded is a malformed frame that broke a protocol limit.
	ErrLimitExceeded = fmt.Errorf("%w: limit exceeded", ErrMalformed)
)

var crlf = []byte("\r\n")

// Limits bounds what a parser accepts. Zero fields fall back to defaults.
type Limits struct {
	MaxBulkLen  int
	MaxArrayLen int
	MaxLineLen  int
	MaxDepth    int
}

// DefaultLimits returns the limits used by ParseFrame.
func DefaultLimits() Limits {
	return Limits{
		MaxBulkLen:  DefaultMaxBulkLen,
		MaxArrayLen: DefaultMaxArrayLen,
		MaxLineLen:  DefaultMaxLineLen,
		MaxDepth:    DefaultMaxDepth,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxBulkLen <= 0 {
		l.MaxBulkLen = d.MaxBulkLen
	}
	if l.MaxArrayLen <= 0 {
		l.MaxArrayLen = d.MaxArrayLen
	}
	if l.MaxLineLen <= 0 {
		l.MaxLineLen = d.MaxLineLen
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = d.MaxDepth
	}
	return l
}

// ParseFrame decodes the frame at the start of buf using DefaultLimits.
func ParseFrame(buf []byte) (Value, int, error) {
	return DefaultLimits().Parse(buf)
}

// Parse decodes the frame at the start of buf. On success it returns the
// value and the number of bytes the frame occupies. Payload bytes are
// copied, so buf may be reused once Parse returns.
func (l Limits) Parse(buf []byte) (Value, int, error) {
	return l.withDefaults().parse(buf, 0)
}

func (l Limits) parse(buf []byte, depth int) (Value, int, error) {
	if len(buf) == 0 {
		return Value{}, 0, ErrIncomplete
	}

	tag := buf[0]
	switch tag {
	case '+', '-', ':', '$', '*':
	default:
		return Value{}, 0, fmt.Errorf("%w: unknown type byte %q", ErrMalformed, tag)
	}

	line, next, err := l.readLine(buf)
	if err != nil {
		return Value{}, 0, err
	}

	switch tag {
	case '+':
		return SimpleString(string(line)), next, nil
	case '-':
		return Error(string(line)), next, nil
	case ':':
		n, err := parseInt(line)
		if err != nil {
			return Value{}, 0, fmt.Errorf("%w: invalid integer %q", ErrMalformed, line)
		}
		return Integer(n), next, nil
	case '$':
		return l.parseBulk(buf, line, next)
	default:
		return l.parseArray(buf, line, next, depth)
	}
}

// readLine returns the payload between the tag byte and the first CRLF,
// and the offset just past that CRLF.
func (l Limits) readLine(buf []byte) ([]byte, int, error) {
	idx := bytes.Index(buf, crlf)
	if idx < 0 {
		if len(buf) > l.MaxLineLen {
			return nil, 0, fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, l.MaxLineLen)
		}
		return nil, 0, ErrIncomplete
	}
	if idx > l.MaxLineLen {
		return nil, 0, fmt.Errorf("%w: line longer than %d bytes", ErrLimitExceeded, l.MaxLineLen)
	}
	return buf[1:idx], idx + len(crlf), nil
}

func (l Limits) parseBulk(buf, line []byte, next int) (Value, int, error) {
	n, err := parseLength(line)
	if err != nil {
		return Value{}, 0, fmt.Errorf("%w: invalid bulk length %q", ErrMalformed, line)
	}
	if n == -1 {
		return NullBulk(), next, nil
	}
	if n > l.MaxBulkLen {
		return Value{}, 0, fmt.Errorf("%w: bulk length %d exceeds %d", ErrLimitExceeded, n, l.MaxBulkLen)
	}

	end := next + n
	if len(buf) < end+len(crlf) {
		return Value{}, 0, ErrIncomplete
	}
	if !bytes.Equal(buf[end:end+len(crlf)], crlf) {
		return Value{}, 0, fmt.Errorf("%w: bulk payload not terminated by CRLF", ErrMalformed)
	}

	payload := make([]byte, n)
	copy(payload, buf[next:end])
	return Value{Kind: KindBulkString, Bulk: payload}, end + len(crlf), nil
}

func (l Limits) parseArray(buf, line []byte, next, depth int) (Value, int, error) {
	n, err := parseLength(line)
	if err != nil {
		return Value{}, 0, fmt.Errorf("%w: invalid array length %q", ErrMalformed, line)
	}
	if n == -1 {
		return NullArray(), next, nil
	}
	if n == 0 {
		return EmptyArray(), next, nil
	}
	if n > l.MaxArrayLen {
		return Value{}, 0, fmt.Errorf("%w: array length %d exceeds %d", ErrLimitExceeded, n, l.MaxArrayLen)
	}
	if depth+1 > l.MaxDepth {
		return Value{}, 0, fmt.Errorf("%w: nesting deeper than %d", ErrLimitExceeded, l.MaxDepth)
	}

	// The declared length is untrusted until the elements have arrived.
	elems := make([]Value, 0, min(n, 64))
	pos := next
	for i := 0; i < n; i++ {
		elem, used, err := l.parse(buf[pos:], depth+1)
		if err != nil {
			return Value{}, 0, err
		}
		elems = append(elems, elem)
		pos += used
	}
	return Value{Kind: KindArray, Array: elems}, pos, nil
}

// parseLength parses a bulk or array length: -1 or a non-negative decimal.
func parseLength(b []byte) (int, error) {
	n, err := parseInt(b)
	if err != nil {
		return 0, err
	}
	if n < -1 || n > int64(^uint(0)>>1) {
		return 0, strconv.ErrRange
	}
	return int(n), nil
}

// parseInt accepts an optional leading '-' followed by decimal digits.
func parseInt(b []byte) (int64, error) {
	if len(b) == 0 || b[0] == '+' {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(string(b), 10, 64)
}
