package richtext

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Viewer renders documents through a plugin list. Core node types (paragraphs, headings,
// lists, text) are built in; everything else is delegated to plugin node-view renderers.
type Viewer struct {
	renderers map[string]Renderer
}

// NewViewer builds a viewer from plugins. A later plugin overrides an earlier one for the
// same node type.
func NewViewer(plugins []Plugin) *Viewer {
	v := &Viewer{renderers: map[string]Renderer{}}
	for _, p := range plugins {
		for kind, r := range p.NodeViewRenderers {
			if r != nil {
				v.renderers[kind] = r
			}
		}
	}
	return v
}

// Render builds the render tree of doc. A nil or empty document renders to nil.
func (v *Viewer) Render(doc *Document) Node {
	if doc.Empty() {
		return nil
	}
	return El("div", []html.Attribute{Attr("class", "rich-content")}, v.renderNodes(doc.Nodes)...)
}

// RenderHTML renders doc to markup. A nil or empty document yields an empty string.
func (v *Viewer) RenderHTML(doc *Document) (template.HTML, error) {
	n := v.Render(doc)
	if n == nil {
		return "", nil
	}
	return HTML(n)
}

func (v *Viewer) renderNodes(nodes []DocNode) []Node {
	out := make([]Node, 0, len(nodes))
	for i, n := range nodes {
		if r := v.renderNode(n, i); r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (v *Viewer) renderNode(n DocNode, index int) Node {
	if r, ok := v.renderers[n.Type]; ok {
		return r(Props{Node: n, Index: index})
	}
	switch n.Type {
	case NodeParagraph:
		return El("p", nil, v.renderNodes(n.Nodes)...)
	case NodeHeading:
		level := 2
		if n.HeadingData != nil && n.HeadingData.Level >= 1 && n.HeadingData.Level <= 6 {
			level = n.HeadingData.Level
		}
		return El("h"+strconv.Itoa(level), nil, v.renderNodes(n.Nodes)...)
	case NodeBlockquote:
		return El("blockquote", nil, v.renderNodes(n.Nodes)...)
	case NodeBulletedList:
		return El("ul", nil, v.renderNodes(n.Nodes)...)
	case NodeOrderedList:
		return El("ol", nil, v.renderNodes(n.Nodes)...)
	case NodeListItem:
		return El("li", nil, v.renderNodes(n.Nodes)...)
	case NodeText:
		return renderText(n.TextData)
	default:
		// unknown node types keep their content
		children := v.renderNodes(n.Nodes)
		if len(children) == 0 {
			return nil
		}
		return Fragment(children)
	}
}

func renderText(td *TextData) Node {
	if td == nil || td.Text == "" {
		return nil
	}
	var out Node = Text(td.Text)
	for _, d := range td.Decorations {
		switch d.Type {
		case DecorationBold:
			out = El("strong", nil, out)
		case DecorationItalic:
			out = El("em", nil, out)
		case DecorationUnderline:
			out = El("u", nil, out)
		case DecorationLink:
			if d.LinkData == nil || !safeLink(d.LinkData.URL) {
				continue
			}
			attrs := []html.Attribute{Attr("href", d.LinkData.URL)}
			if d.LinkData.Target == "_blank" {
				attrs = append(attrs, Attr("target", "_blank"), Attr("rel", "noopener noreferrer"))
			}
			out = El("a", attrs, out)
		}
	}
	return out
}

func safeLink(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return true
	default:
		return false
	}
}

// renderImage is the stock IMAGE renderer. The leading image of a block is marked with a
// high fetch priority using the lowercase DOM spelling.
func renderImage(p Props) Node {
	img := p.Node.ImageData
	if img == nil || strings.TrimSpace(img.Src) == "" {
		return nil
	}
	attrs := []html.Attribute{
		Attr("src", img.Src),
		Attr("alt", img.AltText),
	}
	if img.Width > 0 {
		attrs = append(attrs, Attr("width", strconv.Itoa(img.Width)))
	}
	if img.Height > 0 {
		attrs = append(attrs, Attr("height", strconv.Itoa(img.Height)))
	}
	if p.Index == 0 {
		attrs = append(attrs, Attr(legacyFetchPriorityAttr, "high"))
	} else {
		attrs = append(attrs, Attr("loading", "lazy"))
	}
	var caption Node
	if img.Caption != "" {
		caption = El("figcaption", nil, Text(img.Caption))
	}
	return El("figure", []html.Attribute{Attr("class", "rich-content-image")},
		El("img", attrs),
		caption,
	)
}

func renderDivider(Props) Node {
	return El("hr", []html.Attribute{Attr("class", "rich-content-divider")})
}

// ToHTML converts n into detached html nodes.
func ToHTML(n Node) []*html.Node {
	switch n := n.(type) {
	case *Element:
		if n == nil {
			return nil
		}
		el := &html.Node{
			Type:     html.ElementNode,
			Data:     n.Tag,
			DataAtom: atom.Lookup([]byte(n.Tag)),
			Attr:     append([]html.Attribute(nil), n.Attrs...),
		}
		for _, c := range n.Children {
			for _, hn := range ToHTML(c) {
				el.AppendChild(hn)
			}
		}
		return []*html.Node{el}
	case Text:
		return []*html.Node{{Type: html.TextNode, Data: string(n)}}
	case Fragment:
		var out []*html.Node
		for _, c := range n {
			out = append(out, ToHTML(c)...)
		}
		return out
	default:
		return nil
	}
}

// HTML serializes n.
func HTML(n Node) (template.HTML, error) {
	var buf bytes.Buffer
	for _, hn := range ToHTML(n) {
		if err := html.Render(&buf, hn); err != nil {
			return "", fmt.Errorf("richtext: render: %w", err)
		}
	}
	return template.HTML(buf.String()), nil
}
