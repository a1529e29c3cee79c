package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// mediaSelector matches elements that make a block meaningful even without
// text content.
const mediaSelector = "img, video, audio, iframe, embed, map"

// isMeaningful reports whether the element carries non-empty text or any
// media element, itself included.
func isMeaningful(s *goquery.Selection) bool {
	if strings.TrimSpace(s.Text()) != "" {
		return true
	}
	return s.Is(mediaSelector) || s.Find(mediaSelector).Length() > 0
}

// Segment partitions an HTML fragment into an ordered list of meaningful
// top-level elements, each mapped to one content node downstream:
//   - a figure holding an image stays whole, its caption belongs to it;
//   - a wrapper with meaningful children is flattened one level, each
//     meaningful child becomes its own unit;
//   - a childless but meaningful element is emitted itself;
//   - everything else is dropped.
//
// Pure: no I/O, ordering preserved. Unparseable input yields nil.
func Segment(fragment string) []*goquery.Selection {
	if strings.TrimSpace(fragment) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var out []*goquery.Selection
	doc.Find("body").Children().Each(func(_ int, child *goquery.Selection) {
		if goquery.NodeName(child) == "figure" && child.Find("img").Length() > 0 {
			out = append(out, child)
			return
		}

		var meaningfulChildren []*goquery.Selection
		child.Children().Each(func(_ int, c *goquery.Selection) {
			if isMeaningful(c) {
				meaningfulChildren = append(meaningfulChildren, c)
			}
		})
		if len(meaningfulChildren) > 0 {
			out = append(out, meaningfulChildren...)
			return
		}

		if isMeaningful(child) {
			out = append(out, child)
		}
	})
	return out
}
