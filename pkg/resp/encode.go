package resp

import "strconv"

// Encode returns the wire form of v.
func Encode(v Value) []byte {
	return AppendValue(make([]byte, 0, encodedSizeHint(v)), v)
}

// AppendValue appends the wire form of v to dst and returns the result.
//
// An empty non-null array is written as the canonical "*0\r\n". Some
// older servers emitted the empty bulk string form ("$0\r\n\r\n") there,
// which does not round-trip; respkv does not reproduce that.
func AppendValue(dst []byte, v Value) []byte {
	switch v.Kind {
	case KindSimpleString:
		dst = append(dst, '+')
		dst = append(dst, v.Str...)
		return append(dst, crlf...)
	case KindError:
		dst = append(dst, '-')
		dst = append(dst, v.Str...)
		return append(dst, crlf...)
	case KindInteger:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, v.Int, 10)
		return append(dst, crlf...)
	case KindBulkString:
		if v.Null {
			return append(dst, "$-1\r\n"...)
		}
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(v.Bulk)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, v.Bulk...)
		return append(dst, crlf...)
	case KindArray:
		if v.Null {
			return append(dst, "*-1\r\n"...)
		}
		dst = append(dst, '*')
		dst = strconv.AppendInt(dst, int64(len(v.Array)), 10)
		dst = append(dst, crlf...)
		for _, e := range v.Array {
			dst = AppendValue(dst, e)
		}
		return dst
	default:
		// Encoding an invalid value is a programming error; surface it to
		// the peer rather than writing nothing.
		return append(dst, "-ERR invalid reply\r\n"...)
	}
}

// AppendCommand appends the request array for args, the form clients
// send and the write-ahead log stores.
func AppendCommand(dst []byte, args [][]byte) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(len(args)), 10)
	dst = append(dst, crlf...)
	for _, a := range args {
		dst = append(dst, '$')
		dst = strconv.AppendInt(dst, int64(len(a)), 10)
		dst = append(dst, crlf...)
		dst = append(dst, a...)
		dst = append(dst, crlf...)
	}
	return dst
}

func encodedSizeHint(v Value) int {
	switch v.Kind {
	case KindBulkString:
		return len(v.Bulk) + 16
	case KindArray:
		n := 16
		for _, e := range v.Array {
			n += encodedSizeHint(e)
		}
		return n
	default:
		return len(v.Str) + 24
	}
}
