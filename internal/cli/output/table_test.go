package output

import (
	"bytes"
	"testing"
)

func TestTable_Render(t *testing.T) {
	table := &Table{Headers: []string{"OP", "OPS/S"}}
	table.AddRow("SET", "12000")
	table.AddRow("GET", "15000")

	tests := []struct {
		name      string
		noHeaders bool
		want      string
	}{
		{"with headers", false, "OP   OPS/S\nSET  12000\nGET  15000\n"},
		{"without headers", true, "SET  12000\nGET  15000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := table.RenderWithOptions(&buf, tt.noHeaders); err != nil {
				t.Fatalf("RenderWithOptions() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestTableFormatter_Map(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"b": 2, "a": "x", "c": nil}
	if err := (&TableFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "KEY  VALUE\na    x\nb    2\nc    -\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestTableFormatter_Unsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, []int{1, 2}); err == nil {
		t.Error("Format() of a slice expected error")
	}
	if err := (&TableFormatter{}).Format(&buf, map[int]string{1: "a"}); err == nil {
		t.Error("Format() of a non-string-keyed map expected error")
	}
	if err := (&TableFormatter{}).Format(&buf, nil); err != nil {
		t.Errorf("Format(nil) error = %v", err)
	}
}
