package richtext

import "golang.org/x/net/html"

// Node is one entry of a rendered tree. The set of kinds is closed: *Element, Text and Fragment.
type Node interface {
	isNode()
}

// Element is an HTML element with ordered attributes and children.
type Element struct {
	Tag      string
	Attrs    []html.Attribute
	Children []Node
}

// Text is an unescaped text run; escaping happens when the tree is serialized.
type Text string

// Fragment groups sibling nodes without a wrapping element.
type Fragment []Node

func (*Element) isNode() {}
func (Text) isNode()     {}
func (Fragment) isNode() {}

// El builds an element. Nil children are dropped.
func El(tag string, attrs []html.Attribute, children ...Node) *Element {
	e := &Element{Tag: tag, Attrs: attrs}
	for _, c := range children {
		if c != nil {
			e.Children = append(e.Children, c)
		}
	}
	return e
}

// Attr builds an attribute without namespace.
func Attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// Attr returns the value of the first attribute named key.
func (e *Element) Attr(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, a := range e.Attrs {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Walk visits n and its descendants depth-first. Returning false from fn skips the
// children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *Element:
		if n == nil {
			return
		}
		for _, c := range n.Children {
			Walk(c, fn)
		}
	case Fragment:
		for _, c := range n {
			Walk(c, fn)
		}
	}
}

// AttrRewriter returns the attributes an element should carry and whether they differ from
// attrs. It must not modify attrs in place.
type AttrRewriter func(attrs []html.Attribute) ([]html.Attribute, bool)

// Rewrite applies fn to every element of the tree. Any node whose own attributes and whole
// subtree are unchanged is returned as is, so untouched branches are shared with the input.
func Rewrite(n Node, fn AttrRewriter) Node {
	out, _ := rewrite(n, fn)
	return out
}

func rewrite(n Node, fn AttrRewriter) (Node, bool) {
	switch n := n.(type) {
	case *Element:
		if n == nil {
			return n, false
		}
		children, childrenChanged := rewriteChildren(n.Children, fn)
		attrs, attrsChanged := fn(n.Attrs)
		if !childrenChanged && !attrsChanged {
			return n, false
		}
		cp := *n
		cp.Attrs = attrs
		cp.Children = children
		return &cp, true
	case Fragment:
		children, changed := rewriteChildren(n, fn)
		if !changed {
			return n, false
		}
		return Fragment(children), true
	default:
		return n, false
	}
}

func rewriteChildren(in []Node, fn AttrRewriter) ([]Node, bool) {
	var out []Node
	for i, c := range in {
		nc, changed := rewrite(c, fn)
		if changed && out == nil {
			out = make([]Node, len(in))
			copy(out, in[:i])
		}
		if out != nil {
			out[i] = nc
		}
	}
	if out == nil {
		return in, false
	}
	return out, true
}
