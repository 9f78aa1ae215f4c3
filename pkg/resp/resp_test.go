package resp

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// ============================================================
// ParseFrame - literal frames
// ============================================================

func TestParseFrame_Literals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     Value
		consumed int
	}{
		{
			name:     "simple string",
			input:    "+OK\r\n",
			want:     SimpleString("OK"),
			consumed: 5,
		},
		{
			name:     "simple error",
			input:    "-ERR boom\r\n",
			want:     Error("ERR boom"),
			consumed: 11,
		},
		{
			name:     "negative integer",
			input:    ":-123\r\n",
			want:     Integer(-123),
			consumed: 7,
		},
		{
			name:     "bulk string",
			input:    "$5\r\nHello\r\n",
			want:     BulkString("Hello"),
			consumed: 11,
		},
		{
			name:     "empty bulk string",
			input:    "$0\r\n\r\n",
			want:     BulkString(""),
			consumed: 6,
		},
		{
			name:     "null bulk string consumes five bytes",
			input:    "$-1\r\n+OK\r\n",
			want:     NullBulk(),
			consumed: 5,
		},
		{
			name:     "mixed array",
			input:    "*2\r\n+OK\r\n:123\r\n",
			want:     Array(SimpleString("OK"), Integer(123)),
			consumed: 15,
		},
		{
			name:     "empty array",
			input:    "*0\r\n",
			want:     EmptyArray(),
			consumed: 4,
		},
		{
			name:     "null array",
			input:    "*-1\r\n",
			want:     NullArray(),
			consumed: 5,
		},
		{
			name:     "nested array",
			input:    "*2\r\n*1\r\n:1\r\n$3\r\nfoo\r\n",
			want:     Array(Array(Integer(1)), BulkString("foo")),
			consumed: 21,
		},
		{
			name:     "bulk payload may contain CRLF",
			input:    "$4\r\na\r\nb\r\n",
			want:     BulkString("a\r\nb"),
			consumed: 10,
		},
		{
			name:     "trailing bytes are left for the next frame",
			input:    "+PONG\r\n+PONG\r\n",
			want:     SimpleString("PONG"),
			consumed: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n, err := ParseFrame([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseFrame() error = %v", err)
			}
			if !Equal(got, tt.want) {
				t.Errorf("ParseFrame() = %v, want %v", got, tt.want)
			}
			if n != tt.consumed {
				t.Errorf("consumed = %d, want %d", n, tt.consumed)
			}
		})
	}
}

// ============================================================
// ParseFrame - incomplete input
// ============================================================

func TestParseFrame_IncompleteAtEveryPrefix(t *testing.T) {
	frames := []string{
		"+OK\r\n",
		":42\r\n",
		"$5\r\nHello\r\n",
		"*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n",
		"*2\r\n*2\r\n:1\r\n:2\r\n$0\r\n\r\n",
	}

	for _, frame := range frames {
		for i := 0; i < len(frame); i++ {
			prefix := frame[:i]
			_, _, err := ParseFrame([]byte(prefix))
			if !errors.Is(err, ErrIncomplete) {
				t.Errorf("ParseFrame(%q) error = %v, want ErrIncomplete", prefix, err)
			}
		}
		if _, n, err := ParseFrame([]byte(frame)); err != nil || n != len(frame) {
			t.Errorf("ParseFrame(%q) = (%d, %v), want (%d, nil)", frame, n, err, len(frame))
		}
	}
}

func TestParseFrame_NestedIncompleteIsWholeFrame(t *testing.T) {
	// First element complete, second still arriving: no partial array.
	input := []byte("*2\r\n$3\r\nGET\r\n$3\r\nke")
	v, n, err := ParseFrame(input)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("error = %v, want ErrIncomplete", err)
	}
	if n != 0 || v.Kind != KindInvalid {
		t.Errorf("got (%v, %d), want zero value and 0", v, n)
	}
}

// ============================================================
// ParseFrame - malformed input
// ============================================================

func TestParseFrame_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown type byte", "?foo\r\n"},
		{"inline text is not a frame", "PING\r\n"},
		{"integer with letters", ":12a\r\n"},
		{"integer with plus sign", ":+5\r\n"},
		{"empty integer", ":\r\n"},
		{"bulk length not a number", "$x\r\nabc\r\n"},
		{"bulk length below -1", "$-2\r\n"},
		{"bulk missing terminator", "$3\r\nabcXY"},
		{"array length not a number", "*z\r\n"},
		{"array length below -1", "*-5\r\n"},
		{"malformed element", "*2\r\n$1\r\na\r\n!\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseFrame([]byte(tt.input))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("ParseFrame(%q) error = %v, want ErrMalformed", tt.input, err)
			}
		})
	}
}

func TestParseFrame_Limits(t *testing.T) {
	limits := Limits{MaxBulkLen: 8, MaxArrayLen: 2, MaxLineLen: 16, MaxDepth: 2}

	tests := []struct {
		name  string
		input string
	}{
		{"bulk too long", "$9\r\n"},
		{"array too long", "*3\r\n"},
		{"line too long without CRLF", "+" + strings.Repeat("a", 32)},
		{"line too long with CRLF", "+" + strings.Repeat("a", 32) + "\r\n"},
		{"nesting too deep", "*1\r\n*1\r\n*1\r\n:1\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := limits.Parse([]byte(tt.input))
			if !errors.Is(err, ErrLimitExceeded) {
				t.Errorf("Parse(%q) error = %v, want ErrLimitExceeded", tt.input, err)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("limit errors must also match ErrMalformed, got %v", err)
			}
		})
	}
}

func TestParseFrame_CopiesPayload(t *testing.T) {
	buf := []byte("$3\r\nabc\r\n")
	v, _, err := ParseFrame(buf)
	if err != nil {
		t.Fatalf("ParseFrame() error = %v", err)
	}
	copy(buf, "XXXXXXXXX")
	if string(v.Bulk) != "abc" {
		t.Errorf("payload aliased the input buffer: %q", v.Bulk)
	}
}

// ============================================================
// Encode
// ============================================================

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"simple string", SimpleString("OK"), "+OK\r\n"},
		{"error", Error("ERR unsupported command"), "-ERR unsupported command\r\n"},
		{"integer", Integer(-7), ":-7\r\n"},
		{"bulk", BulkString("Hello"), "$5\r\nHello\r\n"},
		{"empty bulk", BulkString(""), "$0\r\n\r\n"},
		{"null bulk", NullBulk(), "$-1\r\n"},
		{"null array", NullArray(), "*-1\r\n"},
		{"empty array is canonical", EmptyArray(), "*0\r\n"},
		{"command", Command("GET", "k"), "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Encode(tt.value)); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendCommand_MatchesEncode(t *testing.T) {
	args := [][]byte{[]byte("SET"), []byte("key"), []byte(""), []byte("PX")}
	got := AppendCommand(nil, args)
	want := Encode(CommandBytes(args))
	if !bytes.Equal(got, want) {
		t.Errorf("AppendCommand() = %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []Value{
		SimpleString(""),
		SimpleString("PONG"),
		Error("ERR syntax error"),
		Integer(0),
		Integer(-9223372036854775808),
		Integer(9223372036854775807),
		BulkString(""),
		Bulk([]byte{0, 1, 2, '\r', '\n', 255}),
		NullBulk(),
		NullArray(),
		EmptyArray(),
		Array(NullBulk(), NullArray(), EmptyArray(), Array(Integer(1), Array(BulkString("deep")))),
		Command("SET", "key", "value", "EX", "10"),
	}

	for _, v := range values {
		encoded := Encode(v)
		got, n, err := ParseFrame(encoded)
		if err != nil {
			t.Errorf("ParseFrame(Encode(%v)) error = %v", v, err)
			continue
		}
		if n != len(encoded) {
			t.Errorf("consumed %d of %d bytes for %v", n, len(encoded), v)
		}
		if !Equal(got, v) {
			t.Errorf("round trip = %v, want %v", got, v)
		}
	}
}

// ============================================================
// Value helpers
// ============================================================

func TestValue_CommandArgsKeepsNullBulk(t *testing.T) {
	v, _, err := ParseFrame([]byte("*3\r\n$4\r\nECHO\r\n$-1\r\n$0\r\n\r\n"))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	args, ok := v.CommandArgs()
	if !ok || len(args) != 3 {
		t.Fatalf("CommandArgs = (%q, %v)", args, ok)
	}
	if args[1] != nil {
		t.Errorf("null bulk arg = %q, want nil", args[1])
	}
	if args[2] == nil || len(args[2]) != 0 {
		t.Errorf("empty bulk arg = %#v, want non-nil empty", args[2])
	}
}

func TestValue_CommandArgs(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		want   []string
		wantOK bool
	}{
		{"bulk array", Command("ECHO", "hi"), []string{"ECHO", "hi"}, true},
		{"empty array", EmptyArray(), []string{}, true},
		{"null array", NullArray(), nil, false},
		{"scalar", SimpleString("PING"), nil, false},
		{"non-bulk element", Array(BulkString("GET"), Integer(1)), nil, false},
		{"nested array element", Array(BulkString("GET"), Array()), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.value.CommandArgs()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if string(got[i]) != tt.want[i] {
					t.Errorf("arg[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEqual_NullVersusEmpty(t *testing.T) {
	if Equal(NullBulk(), BulkString("")) {
		t.Error("null bulk must differ from empty bulk")
	}
	if Equal(NullArray(), EmptyArray()) {
		t.Error("null array must differ from empty array")
	}
	if Equal(Integer(1), BulkString("1")) {
		t.Error("different kinds must not be equal")
	}
}

func TestValue_String(t *testing.T) {
	v := Array(SimpleString("OK"), Integer(3), NullBulk(), BulkString("a b"))
	want := `*[+OK :3 $nil $"a b"]`
	if got := v.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

// ============================================================
// Benchmarks
// ============================================================

func BenchmarkParseFrame_Set(b *testing.B) {
	frame := Encode(Command("SET", "session:12345", strings.Repeat("v", 256), "EX", "60"))
	b.SetBytes(int64(len(frame)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := ParseFrame(frame); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAppendValue_Bulk(b *testing.B) {
	v := BulkString(strings.Repeat("v", 256))
	buf := make([]byte, 0, 512)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf = AppendValue(buf[:0], v)
	}
}
