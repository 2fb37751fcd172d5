package richtext

import "golang.org/x/net/html"

// Plugin types and node-view keys understood by the viewer.
const (
	ImagePluginType   = "wix-draft-plugin-image"
	DividerPluginType = "wix-draft-plugin-divider"

	ImageNodeView   = "IMAGE"
	DividerNodeView = "DIVIDER"
)

const (
	legacyFetchPriorityAttr = "fetchpriority"
	// FetchPriorityAttr is the attribute name the patched image renderer emits.
	FetchPriorityAttr = "fetchPriority"
)

// Props is what a node-view renderer receives for a single document node.
type Props struct {
	Node DocNode
	// Index is the position of the node among its siblings.
	Index int
}

// Renderer turns one document node into a render tree.
type Renderer func(Props) Node

// Plugin contributes node-view renderers for the document node types it owns.
type Plugin struct {
	Type              string
	NodeViewRenderers map[string]Renderer
}

// QuickStartPlugins returns the default viewer plugin set.
func QuickStartPlugins() []Plugin {
	return []Plugin{
		{
			Type:              ImagePluginType,
			NodeViewRenderers: map[string]Renderer{ImageNodeView: renderImage},
		},
		{
			Type:              DividerPluginType,
			NodeViewRenderers: map[string]Renderer{DividerNodeView: renderDivider},
		},
	}
}

// PatchImageRenderer returns plugins with the image plugin's IMAGE renderer wrapped so the
// lowercase fetchpriority attribute never reaches the output. Every other plugin is returned
// as is, and neither the input slice nor its renderer maps are modified.
func PatchImageRenderer(plugins []Plugin) []Plugin {
	out := make([]Plugin, len(plugins))
	for i, p := range plugins {
		out[i] = patchImagePlugin(p)
	}
	return out
}

func patchImagePlugin(p Plugin) Plugin {
	if p.Type != ImagePluginType || p.NodeViewRenderers == nil {
		return p
	}
	render, ok := p.NodeViewRenderers[ImageNodeView]
	if !ok || render == nil {
		return p
	}
	renderers := make(map[string]Renderer, len(p.NodeViewRenderers))
	for k, r := range p.NodeViewRenderers {
		renderers[k] = r
	}
	renderers[ImageNodeView] = func(props Props) Node {
		return NormalizeFetchPriority(render(props))
	}
	p.NodeViewRenderers = renderers
	return p
}

// NormalizeFetchPriority renames fetchpriority to fetchPriority on every element of n.
// Elements without the attribute and without a changed descendant are returned unmodified.
func NormalizeFetchPriority(n Node) Node {
	return Rewrite(n, renameFetchPriority)
}

func renameFetchPriority(attrs []html.Attribute) ([]html.Attribute, bool) {
	idx := -1
	for i, a := range attrs {
		if a.Namespace == "" && a.Key == legacyFetchPriorityAttr {
			idx = i
			break
		}
	}
	if idx < 0 {
		return attrs, false
	}
	out := make([]html.Attribute, 0, len(attrs))
	out = append(out, attrs[:idx]...)
	out = append(out, attrs[idx+1:]...)
	out = append(out, html.Attribute{Key: FetchPriorityAttr, Val: attrs[idx].Val})
	return out, true
}
