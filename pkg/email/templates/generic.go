package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Generic is a minimal layout. It reads "title" and "content" from data, both
// escaped; content paragraphs are split on blank lines. An "html" value is
// inserted unescaped after the content.
func Generic(data map[string]any) templ.Component {
	title := stringValue(data, "title")
	content := stringValue(data, "content")
	raw := stringValue(data, "html")

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
		sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
		fmt.Fprintf(&sb, "<title>%s</title>\n", templ.EscapeString(title))
		sb.WriteString("</head>\n<body style=\"margin:0;padding:24px;font-family:Arial,Helvetica,sans-serif;color:#222;\">\n")
		sb.WriteString("<div style=\"max-width:600px;margin:0 auto;\">\n")
		if title != "" {
			fmt.Fprintf(&sb, "<h1 style=\"font-size:22px;\">%s</h1>\n", templ.EscapeString(title))
		}
		for _, p := range paragraphs(content) {
			lines := strings.Split(p, "\n")
			for i, l := range lines {
				lines[i] = templ.EscapeString(strings.TrimSpace(l))
			}
			fmt.Fprintf(&sb, "<p>%s</p>\n", strings.Join(lines, "<br>"))
		}
		if raw != "" {
			sb.WriteString(raw)
			sb.WriteString("\n")
		}
		sb.WriteString("</div>\n</body>\n</html>\n")

		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func paragraphs(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(s, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stringValue(data map[string]any, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
