package convert

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"smconv/config"
	"smconv/markup"
	"smconv/portal"
	"smconv/series"
	"smconv/story"
	"smconv/thumbnail"
	"smconv/webmap"
)

// entryResult accumulates everything produced for one entry. Each entry
// writes only its own result; nothing is shared across entries.
type entryResult struct {
	Index     int // zero-based position in the series
	Title     string
	Invalid   bool // the primary map reference could not be used
	Document  *story.Document
	Thumbnail string
	Webmap    *webmap.Document // assembled for map-backed entries, kept for diagnostics
}

// Converter drives legacy entries through mapping, assembly and thumbnail
// generation. Entries are processed strictly in sequence.
type Converter struct {
	portal *portal.Client
	thumbs *thumbnail.Generator
	cfg    *config.Config
	theme  string
	cover  []byte // series item's stored thumbnail, may be empty
	log    *zap.Logger
}

// NewConverter wires the per-entry pipeline together. cover carries the
// series item's own stored thumbnail when one could be fetched; entries
// without a renderable preview inherit it instead of the built-in image.
func NewConverter(client *portal.Client, thumbs *thumbnail.Generator, cfg *config.Config, theme string, cover []byte, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{
		portal: client,
		thumbs: thumbs,
		cfg:    cfg,
		theme:  theme,
		cover:  cover,
		log:    log,
	}
}

// fallbackThumbnail prefers the series item's stored thumbnail over the
// built-in image.
func (c *Converter) fallbackThumbnail() string {
	if len(c.cover) > 0 {
		return c.thumbs.FromBytes(c.cover)
	}
	return c.thumbs.Default()
}

// ConvertEntries converts the whole series, one entry at a time. Per-entry
// problems are flagged on the result and never stop the batch.
func (c *Converter) ConvertEntries(ctx context.Context, s *series.Series) []entryResult {
	results := make([]entryResult, 0, len(s.Entries))
	for i, e := range s.Entries {
		res := c.convertEntry(ctx, i, e, s)
		c.log.Info(fmt.Sprintf("[%d of %d] %s", i+1, len(s.Entries), res.Title),
			zap.String("media", mediaKind(e)), zap.Bool("invalid", res.Invalid))
		if res.Invalid {
			c.log.Warn("Entry has an unusable webmap reference, fix before publishing",
				zap.Int("entry", i+1), zap.String("title", res.Title))
		}
		results = append(results, res)
	}
	return results
}

func mediaKind(e series.Entry) string {
	if e.Media.Kind == "" {
		return "none"
	}
	return e.Media.Kind
}

func (c *Converter) convertEntry(ctx context.Context, i int, e series.Entry, s *series.Series) entryResult {
	res := entryResult{Index: i, Title: entryTitle(e, i)}

	main := c.convertMainStage(ctx, e, &res)

	res.Document = &story.Document{
		Title:       res.Title,
		Subtitle:    s.Subtitle,
		Theme:       c.theme,
		CoverHidden: true,
		Thumbnail:   res.Thumbnail,
		Main:        main,
		Contents:    markup.MapAll(markup.Segment(e.Description)),
	}
	return res
}

// convertMainStage builds the primary media node and its thumbnail. An
// unusable map reference flags the entry and leaves the primary node absent;
// conversion continues either way.
func (c *Converter) convertMainStage(ctx context.Context, e series.Entry, res *entryResult) story.Node {
	switch e.Media.Kind {
	case series.MediaWebmap:
		wm := e.Media.Webmap
		if wm.ID == "" {
			res.Invalid = true
			res.Thumbnail = c.fallbackThumbnail()
			return nil
		}

		def, err := c.fetchDefinition(ctx, wm.ID)
		if err != nil {
			// render degrades to basemap-only, the map node still references the item
			c.log.Warn("Unable to fetch map definition", zap.String("id", wm.ID), zap.Error(err))
		}

		doc := webmap.Assemble(def, wm.Extent, wm.Layers, wm.Basemap, webmap.ExportOptions{
			OutputSize: [2]int{c.cfg.Export.Width, c.cfg.Export.Height},
			DPI:        c.cfg.Export.DPI,
		})
		res.Webmap = doc
		res.Thumbnail = c.thumbs.FromWebmap(ctx, doc)

		return &story.Map{
			MapID:  wm.ID,
			Extent: doc.MapOptions.Extent,
			Layers: layerVisibility(wm.Layers),
		}

	case series.MediaWebpage:
		if e.Media.Webpage.URL == "" {
			res.Thumbnail = c.fallbackThumbnail()
			return nil
		}
		res.Thumbnail = c.fallbackThumbnail()
		return &story.Embed{Source: e.Media.Webpage.URL}

	case series.MediaImage:
		img := e.Media.Image
		if img.URL == "" {
			res.Thumbnail = c.fallbackThumbnail()
			return nil
		}
		res.Thumbnail = c.thumbs.FromImage(ctx, img.URL)
		caption := img.Caption
		if caption == "" {
			caption = img.Title
		}
		return &story.Image{
			Source:  img.URL,
			Caption: caption,
			AltText: img.AltText,
			Link:    img.Link,
		}
	}

	res.Thumbnail = c.fallbackThumbnail()
	return nil
}

// fetchDefinition pulls the referenced map's stored definition from the
// portal.
func (c *Converter) fetchDefinition(ctx context.Context, id string) (*webmap.Definition, error) {
	data, err := c.portal.ItemData(ctx, id)
	if err != nil {
		return nil, err
	}
	return webmap.ParseDefinition(data)
}

// layerVisibility keeps only explicit visibility overrides for the map node.
func layerVisibility(overrides []webmap.LayerOverride) []story.LayerVisibility {
	var out []story.LayerVisibility
	for _, o := range overrides {
		if o.ID == "" || o.Visibility == nil {
			continue
		}
		out = append(out, story.LayerVisibility{ID: o.ID, Visible: *o.Visibility})
	}
	return out
}

func entryTitle(e series.Entry, i int) string {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		return fmt.Sprintf("Untitled entry %d", i+1)
	}
	return title
}
