package repl

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"empty", "", nil},
		{"blank", "  \t ", nil},
		{"plain words", "SET key value", []string{"SET", "key", "value"}},
		{"extra spaces", "  GET   key  ", []string{"GET", "key"}},
		{"double quoted", `SET k "hello world"`, []string{"SET", "k", "hello world"}},
		{"empty quoted", `SET k ""`, []string{"SET", "k", ""}},
		{"escapes", `ECHO "a\tb\nc\\\""`, []string{"ECHO", "a\tb\nc\\\""}},
		{"hex escape", `ECHO "\x41\x00z"`, []string{"ECHO", "A\x00z"}},
		{"single quoted", `ECHO 'it\'s "raw" \n'`, []string{"ECHO", `it's "raw" \n`}},
		{"quote inside word", `a"b`, []string{`a"b`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitArgs(tt.line)
			if err != nil {
				t.Fatalf("SplitArgs() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitArgs_Unbalanced(t *testing.T) {
	tests := []string{
		`SET k "open`,
		`SET k 'open`,
		`SET k "closed"x`,
		`SET k 'closed'x`,
		`ECHO "trailing\`,
	}

	for _, line := range tests {
		if _, err := SplitArgs(line); !errors.Is(err, ErrUnbalancedQuotes) {
			t.Errorf("SplitArgs(%q) error = %v, want ErrUnbalancedQuotes", line, err)
		}
	}
}
