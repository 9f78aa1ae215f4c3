package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/respkv-go/pkg/resp"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the given format. Unknown formats
// fall back to text.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}

// Plain converts a reply to values that encode naturally as JSON or YAML.
func Plain(v resp.Value) any {
	switch v.Kind {
	case resp.KindSimpleString:
		return v.Str
	case resp.KindError:
		return map[string]string{"error": v.Str}
	case resp.KindInteger:
		return v.Int
	case resp.KindBulkString:
		if v.Null {
			return nil
		}
		return string(v.Bulk)
	case resp.KindArray:
		if v.Null {
			return nil
		}
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			out[i] = Plain(e)
		}
		return out
	default:
		return nil
	}
}

// plainData converts replies and leaves every other value alone.
func plainData(data any) any {
	switch v := data.(type) {
	case resp.Value:
		return Plain(v)
	case *resp.Value:
		if v == nil {
			return nil
		}
		return Plain(*v)
	default:
		return data
	}
}
