package richtext

// Node types of a rich content document.
const (
	NodeParagraph    = "PARAGRAPH"
	NodeText         = "TEXT"
	NodeHeading      = "HEADING"
	NodeBlockquote   = "BLOCKQUOTE"
	NodeBulletedList = "BULLETED_LIST"
	NodeOrderedList  = "ORDERED_LIST"
	NodeListItem     = "LIST_ITEM"
	NodeImage        = ImageNodeView
	NodeDivider      = DividerNodeView
)

// Text decoration types.
const (
	DecorationBold      = "BOLD"
	DecorationItalic    = "ITALIC"
	DecorationUnderline = "UNDERLINE"
	DecorationLink      = "LINK"
)

// Document is a structured rich content document as delivered by the events API.
type Document struct {
	Nodes []DocNode `json:"nodes" yaml:"nodes"`
}

// DocNode is a single document node. Only the data block matching Type is set.
type DocNode struct {
	Type        string       `json:"type" yaml:"type"`
	ID          string       `json:"id,omitempty" yaml:"id"`
	Nodes       []DocNode    `json:"nodes,omitempty" yaml:"nodes"`
	TextData    *TextData    `json:"textData,omitempty" yaml:"textData"`
	HeadingData *HeadingData `json:"headingData,omitempty" yaml:"headingData"`
	ImageData   *ImageData   `json:"imageData,omitempty" yaml:"imageData"`
}

// TextData carries a text run and its decorations.
type TextData struct {
	Text        string       `json:"text" yaml:"text"`
	Decorations []Decoration `json:"decorations,omitempty" yaml:"decorations"`
}

// Decoration styles a text run.
type Decoration struct {
	Type     string    `json:"type" yaml:"type"`
	LinkData *LinkData `json:"linkData,omitempty" yaml:"linkData"`
}

// LinkData is the target of a LINK decoration.
type LinkData struct {
	URL    string `json:"url" yaml:"url"`
	Target string `json:"target,omitempty" yaml:"target"`
}

// HeadingData carries the heading level (1-6).
type HeadingData struct {
	Level int `json:"level" yaml:"level"`
}

// ImageData describes an embedded image.
type ImageData struct {
	Src     string `json:"src" yaml:"src"`
	Width   int    `json:"width,omitempty" yaml:"width"`
	Height  int    `json:"height,omitempty" yaml:"height"`
	AltText string `json:"altText,omitempty" yaml:"altText"`
	Caption string `json:"caption,omitempty" yaml:"caption"`
}

// Empty reports whether the document has nothing to render.
func (d *Document) Empty() bool {
	return d == nil || len(d.Nodes) == 0
}
