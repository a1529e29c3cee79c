package webmap

import "math"

const (
	// Web Mercator world half-width/half-height in meters.
	webMercatorBound = 20037508.342789244
	webMercatorWidth = webMercatorBound * 2
	earthRadius      = 6378137.0
)

// DefaultGlobeExtent covers the whole projected world. Used when neither the
// entry nor the referenced map provides a usable view.
func DefaultGlobeExtent() *Extent {
	return &Extent{
		XMin:             -webMercatorBound,
		YMin:             -webMercatorBound,
		XMax:             webMercatorBound,
		YMax:             webMercatorBound,
		SpatialReference: &SpatialReference{WKID: WebMercatorWKID},
	}
}

// wrapX brings an x coordinate into the valid Web Mercator range by shifting
// it whole world-widths. Values on the boundary stay put.
func wrapX(x float64) float64 {
	if x >= -webMercatorBound && x <= webMercatorBound {
		return x
	}
	x = math.Mod(x+webMercatorBound, webMercatorWidth)
	if x < 0 {
		x += webMercatorWidth
	}
	return x - webMercatorBound
}

// clampY limits a y coordinate to the projection's valid range.
func clampY(y float64) float64 {
	if y > webMercatorBound {
		return webMercatorBound
	}
	if y < -webMercatorBound {
		return -webMercatorBound
	}
	return y
}

// Normalize returns e with out-of-range coordinates brought back into the
// valid Web Mercator window: x wrapped around the antimeridian, y clamped to
// the poles. A missing spatial reference defaults to Web Mercator. The
// operation is idempotent and never fails.
func Normalize(e Extent) Extent {
	e.XMin = wrapX(e.XMin)
	e.XMax = wrapX(e.XMax)
	e.YMin = clampY(e.YMin)
	e.YMax = clampY(e.YMax)
	if e.SpatialReference == nil || e.SpatialReference.WKID == 0 {
		e.SpatialReference = &SpatialReference{WKID: WebMercatorWKID}
	}
	return e
}

// FromWGS84 projects geographic degrees into Web Mercator meters.
func FromWGS84(lon, lat float64) (x, y float64) {
	x = earthRadius * lon * math.Pi / 180
	// keep latitude away from the poles where the projection diverges
	lat = math.Max(-89.9999, math.Min(89.9999, lat))
	y = earthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

// NormalizeAny converts e to Web Mercator when it arrives in geographic
// coordinates (wkid 4326) and then normalizes it.
func NormalizeAny(e Extent) Extent {
	if e.SpatialReference != nil && e.SpatialReference.WKID == 4326 {
		e.XMin, e.YMin = FromWGS84(e.XMin, e.YMin)
		e.XMax, e.YMax = FromWGS84(e.XMax, e.YMax)
		e.SpatialReference = &SpatialReference{WKID: WebMercatorWKID}
	}
	return Normalize(e)
}
