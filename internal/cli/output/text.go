package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/respkv-go/pkg/resp"
)

// TextFormatter renders replies the way redis-cli does and everything
// else as a table.
type TextFormatter struct{}

// Format writes data in human readable form.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case resp.Value:
		_, err := io.WriteString(w, RenderReply(v))
		return err
	case *resp.Value:
		_, err := io.WriteString(w, RenderReply(*v))
		return err
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	}
	return (&TableFormatter{}).Format(w, data)
}

// RenderReply returns the redis-cli rendering of v, newline terminated.
func RenderReply(v resp.Value) string {
	var b strings.Builder
	renderReply(&b, v, 0)
	return b.String()
}

func renderReply(b *strings.Builder, v resp.Value, indent int) {
	switch v.Kind {
	case resp.KindSimpleString:
		b.WriteString(v.Str)
	case resp.KindError:
		b.WriteString("(error) ")
		b.WriteString(v.Str)
	case resp.KindInteger:
		b.WriteString("(integer) ")
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case resp.KindBulkString:
		if v.Null {
			b.WriteString("(nil)")
		} else {
			b.WriteString(strconv.Quote(string(v.Bulk)))
		}
	case resp.KindArray:
		switch {
		case v.Null:
			b.WriteString("(nil)")
		case len(v.Array) == 0:
			b.WriteString("(empty array)")
		default:
			width := len(strconv.Itoa(len(v.Array)))
			for i, e := range v.Array {
				if i > 0 {
					b.WriteString(strings.Repeat(" ", indent))
				}
				prefix := fmt.Sprintf("%*d) ", width, i+1)
				b.WriteString(prefix)
				renderReply(b, e, indent+len(prefix))
			}
			return
		}
	default:
		b.WriteString("(invalid)")
	}
	b.WriteByte('\n')
}
