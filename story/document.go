package story

import (
	"encoding/json"
	"fmt"
)

// Document is one converted entry laid out as a single-slide story: the
// primary media on the main stage and the description nodes in the panel.
type Document struct {
	Title    string
	Subtitle string
	Theme    string
	// Cover stays hidden: the classic series shows entry content
	// immediately, without a title screen.
	CoverHidden bool
	// Thumbnail is a local file path registered as the document's preview
	// resource. May be empty.
	Thumbnail string

	// Main is the primary media node. Nil when the entry had no usable
	// media (the entry is then panel-only).
	Main     Node
	Contents []Node
}

type jsonNode struct {
	Type     string         `json:"type"`
	Data     map[string]any `json:"data,omitempty"`
	Children []string       `json:"children,omitempty"`
}

// MarshalJSON renders the document in the node-graph shape the story
// platform stores: a root story node, a cover, and one slide holding the
// main stage media and the narrative contents.
func (d *Document) MarshalJSON() ([]byte, error) {
	nodes := make(map[string]jsonNode)

	addNode := func(n Node) string {
		id := NewID()
		nodes[id] = jsonNode{Type: string(n.Type()), Data: n.data()}
		return id
	}

	coverID := NewID()
	nodes[coverID] = jsonNode{
		Type: "storycover",
		Data: map[string]any{
			"type":    "minimal",
			"title":   d.Title,
			"summary": d.Subtitle,
			"hidden":  d.CoverHidden,
		},
	}

	slide := jsonNode{
		Type: "slide",
		Data: map[string]any{"title": d.Title},
	}
	if d.Main != nil {
		slide.Children = append(slide.Children, addNode(d.Main))
	}
	for _, n := range d.Contents {
		if n == nil {
			continue
		}
		slide.Children = append(slide.Children, addNode(n))
	}
	slideID := NewID()
	nodes[slideID] = slide

	rootData := map[string]any{"storyTheme": d.Theme}
	if d.Thumbnail != "" {
		rootData["thumbnail"] = d.Thumbnail
	}
	rootID := NewID()
	nodes[rootID] = jsonNode{
		Type:     "story",
		Data:     rootData,
		Children: []string{coverID, slideID},
	}

	out := struct {
		Root  string              `json:"root"`
		Nodes map[string]jsonNode `json:"nodes"`
	}{
		Root:  rootID,
		Nodes: nodes,
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize story document: %w", err)
	}
	return data, nil
}
