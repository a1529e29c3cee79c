package webmap

// defaultBasemap is used when neither the entry nor the stored map
// definition names one.
func defaultBasemap() Basemap {
	return Basemap{
		Title: "Topographic",
		Layers: []Layer{
			{
				ID:         "defaultBasemap",
				LayerType:  "ArcGISTiledMapServiceLayer",
				Title:      "World Topographic Map",
				URL:        "https://services.arcgisonline.com/ArcGIS/rest/services/World_Topo_Map/MapServer",
				Opacity:    1,
				Visibility: true,
			},
		},
	}
}

// applyOverrides merges per-entry layer adjustments into the stored layers.
// Overrides are matched by layer id; set override fields win, everything
// else keeps the stored value. Overrides without a stored counterpart are
// ignored: there is nothing to render them with.
func applyOverrides(stored []Layer, overrides []LayerOverride) []Layer {
	if len(overrides) == 0 {
		return stored
	}

	byID := make(map[string]LayerOverride, len(overrides))
	for _, o := range overrides {
		if o.ID != "" {
			byID[o.ID] = o
		}
	}

	out := make([]Layer, len(stored))
	for i, l := range stored {
		if o, ok := byID[l.ID]; ok {
			if o.Title != nil {
				l.Title = *o.Title
			}
			if o.URL != nil {
				l.URL = *o.URL
			}
			if o.Opacity != nil {
				l.Opacity = *o.Opacity
			}
			if o.Visibility != nil {
				l.Visibility = *o.Visibility
			}
		}
		out[i] = l
	}
	return out
}

// reverseLayers flips layer order in place. The export service draws layers
// bottom-up while the stored definition lists them top-down.
func reverseLayers(layers []Layer) {
	for i, j := 0, len(layers)-1; i < j; i, j = i+1, j-1 {
		layers[i], layers[j] = layers[j], layers[i]
	}
}

// Assemble builds a renderable web map document from the stored map
// definition and the entry's adjustments. def may be nil when the portal
// fetch failed; the result then renders just the basemap over the chosen
// extent. Precedence for both extent and basemap is entry, then stored
// definition, then built-in default.
func Assemble(def *Definition, entryExtent *Extent, overrides []LayerOverride, entryBasemap *Basemap, export ExportOptions) *Document {
	doc := &Document{
		SpatialReference: SpatialReference{WKID: WebMercatorWKID},
		ExportOptions:    export,
	}

	if def != nil {
		doc.OperationalLayers = applyOverrides(def.OperationalLayers, overrides)
		reverseLayers(doc.OperationalLayers)
	}

	switch {
	case entryBasemap != nil && len(entryBasemap.Layers) > 0:
		doc.BaseMap = *entryBasemap
	case def != nil && def.BaseMap != nil && len(def.BaseMap.Layers) > 0:
		doc.BaseMap = *def.BaseMap
	default:
		doc.BaseMap = defaultBasemap()
	}

	extent := entryExtent
	if extent == nil {
		extent = def.StoredExtent()
	}
	if extent == nil {
		extent = DefaultGlobeExtent()
	}
	normalized := NormalizeAny(*extent)
	doc.MapOptions.Extent = &normalized

	return doc
}
