package richtext

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Body formats accepted by Markup.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

var (
	descriptionPolicy = newDescriptionPolicy()
	plainPolicy       = bluemonday.StrictPolicy()
	markdown          = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

func newDescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "ul", "li")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Markup turns a catalog body into safe markup. Markdown bodies are converted first; HTML
// bodies (the default) are only sanitized. Blank or unconvertible input yields "".
func Markup(body, format string) template.HTML {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	src := body
	if strings.EqualFold(strings.TrimSpace(format), FormatMarkdown) {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(body), &buf); err != nil {
			return ""
		}
		src = buf.String()
	}
	return template.HTML(descriptionPolicy.Sanitize(src))
}

// PlainText strips all markup from a catalog body and collapses whitespace, for meta
// descriptions and structured data. A positive limit truncates on a rune boundary.
func PlainText(body, format string, limit int) string {
	text := strings.Join(strings.Fields(html.UnescapeString(plainPolicy.Sanitize(string(Markup(body, format))))), " ")
	if limit > 0 {
		if r := []rune(text); len(r) > limit {
			text = strings.TrimSpace(string(r[:limit-1])) + "…"
		}
	}
	return text
}
