package repl

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnbalancedQuotes is returned for a quote that is never closed or is
// followed by something other than whitespace.
var ErrUnbalancedQuotes = errors.New("unbalanced quotes in request")

// SplitArgs splits a line into arguments. Double quoted arguments accept
// the escapes \n \r \t \b \a \\ \" and \xHH; single quoted arguments only
// accept \'.
func SplitArgs(line string) ([]string, error) {
	var args []string
	i := 0
	for {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i >= len(line) {
			return args, nil
		}

		var cur strings.Builder
		switch line[i] {
		case '"':
			end, err := readDoubleQuoted(line, i+1, &cur)
			if err != nil {
				return nil, err
			}
			i = end
		case '\'':
			end, err := readSingleQuoted(line, i+1, &cur)
			if err != nil {
				return nil, err
			}
			i = end
		default:
			for i < len(line) && !isSpace(line[i]) {
				cur.WriteByte(line[i])
				i++
			}
		}
		args = append(args, cur.String())
	}
}

// readDoubleQuoted reads from just after the opening quote and returns
// the offset just past the closing quote.
func readDoubleQuoted(line string, i int, cur *strings.Builder) (int, error) {
	for i < len(line) {
		c := line[i]
		switch {
		case c == '\\' && i+3 < len(line) && line[i+1] == 'x' && isHex(line[i+2]) && isHex(line[i+3]):
			b, _ := strconv.ParseUint(line[i+2:i+4], 16, 8)
			cur.WriteByte(byte(b))
			i += 4
		case c == '\\' && i+1 < len(line):
			cur.WriteByte(unescape(line[i+1]))
			i += 2
		case c == '"':
			if i+1 < len(line) && !isSpace(line[i+1]) {
				return 0, ErrUnbalancedQuotes
			}
			return i + 1, nil
		default:
			cur.WriteByte(c)
			i++
		}
	}
	return 0, ErrUnbalancedQuotes
}

func readSingleQuoted(line string, i int, cur *strings.Builder) (int, error) {
	for i < len(line) {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line) && line[i+1] == '\'':
			cur.WriteByte('\'')
			i += 2
		case c == '\'':
			if i+1 < len(line) && !isSpace(line[i+1]) {
				return 0, ErrUnbalancedQuotes
			}
			return i + 1, nil
		default:
			cur.WriteByte(c)
			i++
		}
	}
	return 0, ErrUnbalancedQuotes
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'a':
		return '\a'
	default:
		return c
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
