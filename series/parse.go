package series

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"smconv/webmap"
)

// ErrNotASeries is returned when the payload does not look like classic
// story map series item data at all.
var ErrNotASeries = errors.New("payload carries no values block, not a story map series")

// raw payload shapes, matching the classic builder's item data
type rawPayload struct {
	Values *rawValues `json:"values"`
}

type rawValues struct {
	Title    string      `json:"title"`
	Subtitle string      `json:"subtitle"`
	Settings rawSettings `json:"settings"`
	Story    rawStory    `json:"story"`
}

type rawSettings struct {
	Layout struct {
		ID string `json:"id"`
	} `json:"layout"`
	LayoutOptions struct {
		Panel struct {
			Position string `json:"position"`
		} `json:"panel"`
	} `json:"layoutOptions"`
	Theme struct {
		Colors struct {
			Name  string `json:"name"`
			Group string `json:"group"`
		} `json:"colors"`
	} `json:"theme"`
	MapOptions struct {
		MapsSync bool `json:"mapsSync"`
	} `json:"mapOptions"`
}

type rawStory struct {
	Entries []rawEntry `json:"entries"`
}

type rawEntry struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Media       rawMedia `json:"media"`
}

type rawMedia struct {
	Type   string `json:"type"`
	Webmap *struct {
		ID      string                 `json:"id"`
		Extent  *webmap.Extent         `json:"extent"`
		Layers  []webmap.LayerOverride `json:"layers"`
		Basemap *webmap.Basemap        `json:"baseMap"`
	} `json:"webmap"`
	Webpage *struct {
		URL string `json:"url"`
	} `json:"webpage"`
	Image *struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Caption string `json:"caption"`
		AltText string `json:"altText"`
		Link    string `json:"link"`
	} `json:"image"`
}

// Parse decodes classic series item data. A payload without a values block
// is a hard error, anything else degrades to zero values.
func Parse(data []byte) (*Series, error) {
	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unable to decode series payload: %w", err)
	}
	if raw.Values == nil {
		return nil, ErrNotASeries
	}

	v := raw.Values
	s := &Series{
		Title:    v.Title,
		Subtitle: v.Subtitle,
		Layout:   v.Settings.Layout.ID,
		Panel:    v.Settings.LayoutOptions.Panel.Position,
		Theme:    themeFromColors(v.Settings.Theme.Colors.Group),
		MapsSync: v.Settings.MapOptions.MapsSync,
	}

	s.Entries = make([]Entry, 0, len(v.Story.Entries))
	for _, re := range v.Story.Entries {
		s.Entries = append(s.Entries, Entry{
			Title:       re.Title,
			Description: re.Description,
			Media:       convertMedia(re.Media),
		})
	}
	return s, nil
}

// convertMedia keeps the declared kind even when type-specific fields are
// missing or empty: the orchestrator decides what counts as invalid, the
// parser only preserves what was there.
func convertMedia(m rawMedia) Media {
	switch m.Type {
	case MediaWebmap:
		wm := &WebmapMedia{}
		if m.Webmap != nil {
			wm.ID = m.Webmap.ID
			wm.Extent = m.Webmap.Extent
			wm.Layers = m.Webmap.Layers
			wm.Basemap = m.Webmap.Basemap
		}
		return Media{Kind: MediaWebmap, Webmap: wm}
	case MediaWebpage:
		wp := &WebpageMedia{}
		if m.Webpage != nil {
			wp.URL = m.Webpage.URL
		}
		return Media{Kind: MediaWebpage, Webpage: wp}
	case MediaImage:
		im := &ImageMedia{}
		if m.Image != nil {
			im.URL = m.Image.URL
			im.Title = m.Image.Title
			im.Caption = m.Image.Caption
			im.AltText = m.Image.AltText
			im.Link = m.Image.Link
		}
		return Media{Kind: MediaImage, Image: im}
	}
	return Media{}
}

// themeFromColors maps the classic color scheme onto the new document
// themes: the dark color group becomes obsidian, everything else summit.
func themeFromColors(group string) Theme {
	if strings.EqualFold(group, "dark") {
		return ThemeObsidian
	}
	return ThemeSummit
}
