package resp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which RESP2 type a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindSimpleString
	KindError
	KindInteger
	KindBulkString
	KindArray
)

// String returns the RESP type name.
func (k Kind) String() string {
	switch k {
	case KindSimpleString:
		return "simple-string"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulkString:
		return "bulk-string"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Value is one RESP2 protocol value.
//
// Only the fields that belong to Kind are meaningful:
//   - KindSimpleString, KindError: Str
//   - KindInteger: Int
//   - KindBulkString: Bulk, or Null for the null bulk string
//   - KindArray: Array, or Null for the null array
//
// A non-null bulk string may be empty, and a non-null array may have no
// elements; both are distinct from their null forms.
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Bulk  []byte
	Array []Value
	Null  bool
}

// SimpleString returns a simple string value. s must not contain "\r\n".
func SimpleString(s string) Value {
	return Value{Kind: KindSimpleString, Str: s}
}

// Error returns a simple error value. msg must not contain "\r\n".
func Error(msg string) Value {
	return Value{Kind: KindError, Str: msg}
}

// Errorf formats an error value.
func Errorf(format string, args ...any) Value {
	return Error(fmt.Sprintf(format, args...))
}

// Integer returns an integer value.
func Integer(n int64) Value {
	return Value{Kind: KindInteger, Int: n}
}

// Bulk returns a non-null bulk string holding b. A nil b yields an empty,
// non-null bulk string; use NullBulk for the null value.
func Bulk(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Kind: KindBulkString, Bulk: b}
}

// BulkString returns a non-null bulk string holding s.
func BulkString(s string) Value {
	return Value{Kind: KindBulkString, Bulk: []byte(s)}
}

// NullBulk returns the null bulk string.
func NullBulk() Value {
	return Value{Kind: KindBulkString, Null: true}
}

// Array returns a non-null array of the given elements.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: KindArray, Array: elems}
}

// EmptyArray returns a non-null array with no elements.
func EmptyArray() Value {
	return Array()
}

// NullArray returns the null array.
func NullArray() Value {
	return Value{Kind: KindArray, Null: true}
}

// Command builds a request array of bulk strings.
func Command(args ...string) Value {
	elems := make([]Value, len(args))
	for i, a := range args {
		elems[i] = BulkString(a)
	}
	return Array(elems...)
}

// CommandBytes builds a request array of bulk strings from raw arguments.
func CommandBytes(args [][]byte) Value {
	elems := make([]Value, len(args))
	for i, a := range args {
		elems[i] = Bulk(a)
	}
	return Array(elems...)
}

// IsError reports whether v is a simple error.
func (v Value) IsError() bool {
	return v.Kind == KindError
}

// CommandArgs returns the payloads of v when v has the shape of a client
// request: a non-null array whose elements are all bulk strings. A null
// bulk element yields a nil argument.
func (v Value) CommandArgs() ([][]byte, bool) {
	if v.Kind != KindArray || v.Null {
		return nil, false
	}
	args := make([][]byte, len(v.Array))
	for i, e := range v.Array {
		if e.Kind != KindBulkString {
			return nil, false
		}
		args[i] = e.Bulk
	}
	return args, true
}

// Equal reports whether a and b are the same protocol value.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindSimpleString, KindError:
		return a.Str == b.Str
	case KindInteger:
		return a.Int == b.Int
	case KindBulkString:
		if a.Null || b.Null {
			return a.Null == b.Null
		}
		return bytes.Equal(a.Bulk, b.Bulk)
	case KindArray:
		if a.Null || b.Null {
			return a.Null == b.Null
		}
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders v compactly for logs and test failures.
func (v Value) String() string {
	var sb strings.Builder
	v.writeDebug(&sb)
	return sb.String()
}

func (v Value) writeDebug(sb *strings.Builder) {
	switch v.Kind {
	case KindSimpleString:
		sb.WriteString("+" + v.Str)
	case KindError:
		sb.WriteString("-" + v.Str)
	case KindInteger:
		sb.WriteString(":" + strconv.FormatInt(v.Int, 10))
	case KindBulkString:
		if v.Null {
			sb.WriteString("$nil")
			return
		}
		sb.WriteString("$" + strconv.Quote(string(v.Bulk)))
	case KindArray:
		if v.Null {
			sb.WriteString("*nil")
			return
		}
		sb.WriteString("*[")
		for i, e := range v.Array {
			if i > 0 {
				sb.WriteString(" ")
			}
			e.writeDebug(sb)
		}
		sb.WriteString("]")
	default:
		sb.WriteString("<invalid>")
	}
}
