// Package webmap builds minimal web map documents suitable for requesting a
// rendered preview from the export (print) service.
package webmap

import (
	"encoding/json"
	"fmt"
)

// WebMercatorWKID is the well-known id of the only spatial reference the
// export service is used with.
const WebMercatorWKID = 102100

// SpatialReference identifies a coordinate system by its well-known id.
type SpatialReference struct {
	WKID int `json:"wkid"`
}

// Extent is a geographic bounding box in Web Mercator linear units.
type Extent struct {
	XMin             float64           `json:"xmin"`
	YMin             float64           `json:"ymin"`
	XMax             float64           `json:"xmax"`
	YMax             float64           `json:"ymax"`
	SpatialReference *SpatialReference `json:"spatialReference,omitempty"`
}

// Layer is a single map layer, operational or basemap. Only fields the
// export service cares about are kept.
type Layer struct {
	ID         string  `json:"id,omitempty"`
	LayerType  string  `json:"layerType,omitempty"`
	Title      string  `json:"title,omitempty"`
	URL        string  `json:"url,omitempty"`
	Opacity    float64 `json:"opacity"`
	Visibility bool    `json:"visibility"`
}

// LayerOverride carries per-entry layer adjustments from the classic story.
// Only set fields take precedence over the stored layer definition.
type LayerOverride struct {
	ID         string   `json:"id"`
	Title      *string  `json:"title,omitempty"`
	URL        *string  `json:"url,omitempty"`
	Opacity    *float64 `json:"opacity,omitempty"`
	Visibility *bool    `json:"visibility,omitempty"`
}

// Basemap is a named list of basemap layers.
type Basemap struct {
	Title  string  `json:"title,omitempty"`
	Layers []Layer `json:"baseMapLayers"`
}

// MapOptions carries the view extent for the export service.
type MapOptions struct {
	Extent *Extent `json:"extent,omitempty"`
}

// ExportOptions controls the raster output of the export service.
type ExportOptions struct {
	OutputSize [2]int `json:"outputSize"`
	DPI        int    `json:"dpi"`
}

// Document is a minimal renderable web map. It is built fresh per thumbnail
// request and never persisted.
type Document struct {
	BaseMap           Basemap          `json:"baseMap"`
	OperationalLayers []Layer          `json:"operationalLayers"`
	SpatialReference  SpatialReference `json:"spatialReference"`
	MapOptions        MapOptions       `json:"mapOptions"`
	ExportOptions     ExportOptions    `json:"exportOptions"`
}

// RemoveFailedService drops every operational and basemap layer whose URL
// starts with failedURL. Returns the number of removed layers.
func (d *Document) RemoveFailedService(failedURL string) int {
	removed := 0

	keep := func(layers []Layer) []Layer {
		out := layers[:0]
		for _, l := range layers {
			if len(l.URL) >= len(failedURL) && l.URL[:len(failedURL)] == failedURL {
				removed++
				continue
			}
			out = append(out, l)
		}
		return out
	}

	d.OperationalLayers = keep(d.OperationalLayers)
	d.BaseMap.Layers = keep(d.BaseMap.Layers)
	return removed
}

// Definition is the referenced map's stored definition as fetched from the
// portal. Fields not needed for thumbnail assembly are ignored on decode.
type Definition struct {
	OperationalLayers []Layer  `json:"operationalLayers"`
	BaseMap           *Basemap `json:"baseMap"`
	InitialState      *struct {
		Viewpoint *struct {
			TargetGeometry *Extent `json:"targetGeometry"`
		} `json:"viewpoint"`
	} `json:"initialState"`
	MapOptions *MapOptions `json:"mapOptions"`
}

// StoredExtent returns the map's own view extent when its stored definition
// carries one.
func (d *Definition) StoredExtent() *Extent {
	if d == nil {
		return nil
	}
	if d.MapOptions != nil && d.MapOptions.Extent != nil {
		return d.MapOptions.Extent
	}
	if d.InitialState != nil && d.InitialState.Viewpoint != nil {
		return d.InitialState.Viewpoint.TargetGeometry
	}
	return nil
}

// ParseDefinition decodes a stored map definition fetched from the portal.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("unable to decode map definition: %w", err)
	}
	return &def, nil
}
