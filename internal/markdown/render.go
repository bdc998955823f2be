package markdown

import (
	"bytes"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	renderhtml "github.com/yuin/goldmark/renderer/html"
)

var converter = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(renderhtml.WithHardWraps()),
)

// ToHTML converts Markdown text to an HTML fragment.
func ToHTML(source []byte) ([]byte, error) {
	var buffer bytes.Buffer
	if err := converter.Convert(source, &buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Document wraps an HTML fragment in a standalone page.
func Document(title string, body []byte) []byte {
	var builder strings.Builder
	builder.WriteString("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>")
	builder.WriteString(html.EscapeString(title))
	builder.WriteString("</title></head><body>")
	builder.Write(body)
	builder.WriteString("</body></html>")
	return []byte(builder.String())
}
