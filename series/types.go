// Package series models the classic story map series payload: the legacy
// item data JSON that drives the whole conversion.
package series

import "smconv/webmap"

// Media kinds a classic entry can carry.
const (
	MediaWebmap  = "webmap"
	MediaWebpage = "webpage"
	MediaImage   = "image"
)

// Theme names in the converted document model.
type Theme string

const (
	ThemeSummit   Theme = "summit"
	ThemeObsidian Theme = "obsidian"
)

// WebmapMedia references a portal map with optional per-entry adjustments.
type WebmapMedia struct {
	ID      string
	Extent  *webmap.Extent
	Layers  []webmap.LayerOverride
	Basemap *webmap.Basemap
}

// WebpageMedia embeds an external page.
type WebpageMedia struct {
	URL string
}

// ImageMedia shows a picture with optional annotation.
type ImageMedia struct {
	URL     string
	Title   string
	Caption string
	AltText string
	Link    string
}

// Media is an entry's main stage content. Exactly one of the pointers is set
// for a known Kind; all are nil when the entry has no usable media.
type Media struct {
	Kind    string
	Webmap  *WebmapMedia
	Webpage *WebpageMedia
	Image   *ImageMedia
}

// Entry is a single section of the classic series.
type Entry struct {
	Title       string
	Description string // raw HTML from the side panel
	Media       Media
}

// Series is the parsed classic story.
type Series struct {
	Title    string
	Subtitle string
	Layout   string // tabbed, side-accordion or bulleted
	Panel    string // panel position within the layout
	Theme    Theme
	MapsSync bool
	Entries  []Entry
}
