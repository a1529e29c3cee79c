// Package story models the node-based output document and its JSON
// serialization.
package story

import (
	"fmt"

	"github.com/google/uuid"

	"smconv/webmap"
)

// NodeType discriminates content node kinds in the output document.
type NodeType string

const (
	NodeText  NodeType = "text"
	NodeImage NodeType = "image"
	NodeVideo NodeType = "video"
	NodeAudio NodeType = "audio"
	NodeEmbed NodeType = "embed"
	NodeMap   NodeType = "webmap"
)

// TextStyle selects text presentation. Converted description markup always
// comes out as paragraphs; headings inside it stay inline HTML.
type TextStyle string

const StyleParagraph TextStyle = "paragraph"

// Node is one typed unit of the output document. The union is closed: the
// only implementations live in this package.
type Node interface {
	Type() NodeType
	data() map[string]any
}

// Text preserves inline markup from the classic description panel.
type Text struct {
	HTML  string
	Style TextStyle
}

func (t *Text) Type() NodeType { return NodeText }

func (t *Text) data() map[string]any {
	style := t.Style
	if style == "" {
		style = StyleParagraph
	}
	return map[string]any{"text": t.HTML, "type": string(style)}
}

// Image is a picture node. Caption, alt text and link are optional.
type Image struct {
	Source  string
	Caption string
	AltText string
	Link    string
}

func (i *Image) Type() NodeType { return NodeImage }

func (i *Image) data() map[string]any {
	d := map[string]any{"image": i.Source}
	if i.Caption != "" {
		d["caption"] = i.Caption
	}
	if i.AltText != "" {
		d["alt"] = i.AltText
	}
	if i.Link != "" {
		d["link"] = i.Link
	}
	return d
}

// Video embeds a hosted video by URL.
type Video struct {
	Source  string
	AltText string
}

func (v *Video) Type() NodeType { return NodeVideo }

func (v *Video) data() map[string]any {
	d := map[string]any{"video": v.Source}
	if v.AltText != "" {
		d["alt"] = v.AltText
	}
	return d
}

// Audio embeds a hosted audio clip by URL.
type Audio struct {
	Source  string
	AltText string
}

func (a *Audio) Type() NodeType { return NodeAudio }

func (a *Audio) data() map[string]any {
	d := map[string]any{"audio": a.Source}
	if a.AltText != "" {
		d["alt"] = a.AltText
	}
	return d
}

// Embed wraps an iframe or a bare external page URL.
type Embed struct {
	Source  string
	AltText string
}

func (e *Embed) Type() NodeType { return NodeEmbed }

func (e *Embed) data() map[string]any {
	d := map[string]any{"url": e.Source, "embedType": "link"}
	if e.AltText != "" {
		d["alt"] = e.AltText
	}
	return d
}

// LayerVisibility pins one map layer's visibility in the output document.
type LayerVisibility struct {
	ID      string `json:"id"`
	Visible bool   `json:"visible"`
}

// Map references a portal map with an optional viewpoint and layer states.
type Map struct {
	MapID  string
	Extent *webmap.Extent
	Layers []LayerVisibility
}

func (m *Map) Type() NodeType { return NodeMap }

func (m *Map) data() map[string]any {
	d := map[string]any{"map": m.MapID, "type": "default"}
	if m.Extent != nil {
		d["extent"] = m.Extent
	}
	if len(m.Layers) > 0 {
		d["mapLayers"] = m.Layers
	}
	return d
}

// ImageMeta is the caption side channel for images found inside markup:
// captions live in sibling elements, not in the image itself, and get
// merged into the node after mapping.
type ImageMeta struct {
	Caption string
	AltText string
	Link    string
}

// Apply merges the metadata into the node.
func (m *ImageMeta) Apply(img *Image) {
	if m == nil || img == nil {
		return
	}
	if m.Caption != "" {
		img.Caption = m.Caption
	}
	if m.AltText != "" {
		img.AltText = m.AltText
	}
	if m.Link != "" {
		img.Link = m.Link
	}
}

// NewID mints a document-unique node id.
func NewID() string {
	u := uuid.New()
	return fmt.Sprintf("n-%x", u[:4])
}
