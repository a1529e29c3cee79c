package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"smconv/story"
)

// upgradeScheme rewrites an insecure http prefix to https.
func upgradeScheme(src string) string {
	if strings.HasPrefix(src, "http://") {
		return "https://" + src[len("http://"):]
	}
	return src
}

// findCaption looks for a figcaption near the image: first inside an
// enclosing figure, then inside the nearest div ancestor. Returns trimmed
// caption text or empty.
func findCaption(img *goquery.Selection) string {
	scope := img.Closest("figure")
	if scope.Length() == 0 {
		scope = img.Closest("div")
	}
	if scope.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(scope.Find("figcaption").First().Text())
}

// innerHTML returns the element's inner markup with inline colors
// normalized into portable classes.
func innerHTML(s *goquery.Selection) string {
	h, err := s.Html()
	if err != nil {
		return ""
	}
	return ProcessFragmentColors(h)
}

// MapElement converts one segmented element into a content node. Image
// wrappers additionally produce caption metadata, found in sibling markup
// rather than the image itself; callers merge it into the node afterwards.
// Malformed elements never error: absent attributes yield empty fields, and
// unrecognized kinds fall back to a text node so content is never dropped.
func MapElement(s *goquery.Selection) (story.Node, *story.ImageMeta) {
	img := s.Find("img").AddBackFiltered("img").First()
	if img.Length() > 0 {
		src, _ := img.Attr("src")
		alt, _ := img.Attr("alt")
		node := &story.Image{Source: upgradeScheme(src)}
		return node, &story.ImageMeta{
			Caption: findCaption(img),
			AltText: alt,
		}
	}

	switch goquery.NodeName(s) {
	case "p":
		return &story.Text{HTML: innerHTML(s), Style: story.StyleParagraph}, nil

	case "video":
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		return &story.Video{Source: src, AltText: alt}, nil

	case "audio":
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		return &story.Audio{Source: src, AltText: alt}, nil

	case "iframe", "embed":
		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-src")
		}
		alt, _ := s.Attr("alt")
		return &story.Embed{Source: src, AltText: alt}, nil

	case "map":
		src, _ := s.Attr("src")
		return &story.Map{MapID: src}, nil
	}

	// unknown kinds become text, content is never dropped
	return &story.Text{HTML: innerHTML(s), Style: story.StyleParagraph}, nil
}

// MapAll runs the node mapper over segmented elements and merges image
// caption metadata back into the produced nodes.
func MapAll(elements []*goquery.Selection) []story.Node {
	nodes := make([]story.Node, 0, len(elements))
	for _, el := range elements {
		node, meta := MapElement(el)
		if node == nil {
			continue
		}
		if img, ok := node.(*story.Image); ok {
			meta.Apply(img)
		}
		nodes = append(nodes, node)
	}
	return nodes
}
