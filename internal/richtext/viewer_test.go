package richtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func eventDocument() *Document {
	return &Document{Nodes: []DocNode{
		{Type: NodeImage, ImageData: &ImageData{Src: "https://cdn.example.com/hall.jpg", AltText: "Hall", Width: 1200, Height: 800, Caption: "Main hall"}},
		{Type: NodeHeading, HeadingData: &HeadingData{Level: 3}, Nodes: []DocNode{
			{Type: NodeText, TextData: &TextData{Text: "Schedule"}},
		}},
		{Type: NodeParagraph, Nodes: []DocNode{
			{Type: NodeText, TextData: &TextData{Text: "Doors open ", Decorations: []Decoration{{Type: DecorationBold}}}},
			{Type: NodeText, TextData: &TextData{Text: "tickets", Decorations: []Decoration{{Type: DecorationLink, LinkData: &LinkData{URL: "https://example.com/t", Target: "_blank"}}}}},
			{Type: NodeText, TextData: &TextData{Text: "bad", Decorations: []Decoration{{Type: DecorationLink, LinkData: &LinkData{URL: "javascript:alert(1)"}}}}},
		}},
		{Type: NodeDivider},
		{Type: NodeImage, ImageData: &ImageData{Src: "/second.jpg"}},
	}}
}

func TestViewerStockPluginsEmitLowercaseAttribute(t *testing.T) {
	t.Parallel()

	out, err := NewViewer(QuickStartPlugins()).RenderHTML(eventDocument())
	require.NoError(t, err)
	require.Contains(t, string(out), `fetchpriority="high"`)
}

func TestViewerWithPatchedPlugins(t *testing.T) {
	t.Parallel()

	out, err := NewViewer(PatchImageRenderer(QuickStartPlugins())).RenderHTML(eventDocument())
	require.NoError(t, err)
	body := string(out)

	require.Contains(t, body, `fetchPriority="high"`)
	require.NotContains(t, body, `fetchpriority=`)
	require.Contains(t, body, `<figcaption>Main hall</figcaption>`)
	require.Contains(t, body, `<h3>Schedule</h3>`)
	require.Contains(t, body, `<strong>Doors open </strong>`)
	require.Contains(t, body, `<a href="https://example.com/t" target="_blank" rel="noopener noreferrer">tickets</a>`)
	require.NotContains(t, body, "javascript:")
	require.Contains(t, body, `<hr class="rich-content-divider"/>`)
	require.Contains(t, body, `loading="lazy"`)
	require.True(t, strings.HasPrefix(body, `<div class="rich-content">`))
}

func TestViewerPatchedTreeHasNoLowercaseAttribute(t *testing.T) {
	t.Parallel()

	root := NewViewer(PatchImageRenderer(QuickStartPlugins())).Render(eventDocument())
	var images, lowercase, figures int
	Walk(root, func(n Node) bool {
		el, ok := n.(*Element)
		if !ok {
			return true
		}
		if _, ok := el.Attr("fetchpriority"); ok {
			lowercase++
		}
		if el.Tag == "img" {
			if _, ok := el.Attr(FetchPriorityAttr); ok {
				images++
			}
		}
		return true
	})
	require.Zero(t, lowercase)
	require.Equal(t, 1, images, "only the leading image is prioritized")

	// returning false skips the subtree
	images = 0
	Walk(root, func(n Node) bool {
		el, ok := n.(*Element)
		if !ok {
			return true
		}
		if el.Tag == "figure" {
			figures++
			return false
		}
		if el.Tag == "img" {
			images++
		}
		return true
	})
	require.Equal(t, 2, figures)
	require.Zero(t, images)
}

func TestViewerEmptyDocument(t *testing.T) {
	t.Parallel()

	v := NewViewer(QuickStartPlugins())
	require.Nil(t, v.Render(nil))
	out, err := v.RenderHTML(&Document{})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestMarkup(t *testing.T) {
	t.Parallel()

	html := Markup(`<p class="lead">Soft <script>alert(1)</script>cotton</p>`, FormatHTML)
	require.Equal(t, `<p class="lead">Soft cotton</p>`, string(html))

	md := Markup("**Care**: wash cold", FormatMarkdown)
	require.Contains(t, string(md), "<strong>Care</strong>")

	require.Empty(t, Markup("   ", ""))
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Soft & warm cotton", PlainText("<p>Soft &amp; <em>warm</em>\n cotton</p>", FormatHTML, 0))
	require.Equal(t, "Care: wash cold", PlainText("**Care**: wash cold", FormatMarkdown, 0))
	require.Equal(t, "abcd…", PlainText("abcdefgh", FormatHTML, 5))
}
