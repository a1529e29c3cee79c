package webmap

import (
	"math"
	"testing"
)

func TestNormalize_InRangeUntouched(t *testing.T) {
	e := Extent{XMin: -1000, YMin: -2000, XMax: 1000, YMax: 2000}
	n := Normalize(e)

	if n.XMin != -1000 || n.XMax != 1000 || n.YMin != -2000 || n.YMax != 2000 {
		t.Errorf("Normalize() changed in-range coordinates: %+v", n)
	}
	if n.SpatialReference == nil || n.SpatialReference.WKID != WebMercatorWKID {
		t.Errorf("Normalize() spatial reference = %+v, want wkid %d", n.SpatialReference, WebMercatorWKID)
	}
}

func TestNormalize_WrapsX(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"one world east", 1000 + webMercatorWidth, 1000},
		{"one world west", -1000 - webMercatorWidth, -1000},
		{"two worlds east", 2500 + 2*webMercatorWidth, 2500},
		{"boundary positive", webMercatorBound, webMercatorBound},
		{"boundary negative", -webMercatorBound, -webMercatorBound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(Extent{XMin: tt.x, XMax: tt.x})
			if math.Abs(n.XMin-tt.want) > 1e-6 {
				t.Errorf("wrapX(%f) = %f, want %f", tt.x, n.XMin, tt.want)
			}
		})
	}
}

func TestNormalize_ClampsY(t *testing.T) {
	n := Normalize(Extent{YMin: -1e9, YMax: 1e9})

	if n.YMin != -webMercatorBound {
		t.Errorf("YMin = %f, want %f", n.YMin, -webMercatorBound)
	}
	if n.YMax != webMercatorBound {
		t.Errorf("YMax = %f, want %f", n.YMax, webMercatorBound)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	e := Extent{XMin: 1e8, YMin: -1e9, XMax: -1e8, YMax: 1e9}
	once := Normalize(e)
	twice := Normalize(once)

	if once.XMin != twice.XMin || once.XMax != twice.XMax ||
		once.YMin != twice.YMin || once.YMax != twice.YMax ||
		*once.SpatialReference != *twice.SpatialReference {
		t.Errorf("Normalize() not idempotent: %+v vs %+v", once, twice)
	}
}

func TestNormalize_KeepsForeignWKID(t *testing.T) {
	e := Extent{SpatialReference: &SpatialReference{WKID: 3857}}
	n := Normalize(e)
	if n.SpatialReference.WKID != 3857 {
		t.Errorf("wkid = %d, want 3857 preserved", n.SpatialReference.WKID)
	}
}

func TestNormalizeAny_ProjectsWGS84(t *testing.T) {
	e := Extent{
		XMin: -180, YMin: -85.05112878,
		XMax: 180, YMax: 85.05112878,
		SpatialReference: &SpatialReference{WKID: 4326},
	}
	n := NormalizeAny(e)

	if n.SpatialReference.WKID != WebMercatorWKID {
		t.Fatalf("wkid = %d, want %d", n.SpatialReference.WKID, WebMercatorWKID)
	}
	// full longitude span maps onto the full projected width
	if math.Abs(n.XMin+webMercatorBound) > 1 || math.Abs(n.XMax-webMercatorBound) > 1 {
		t.Errorf("projected x range = [%f, %f], want [±%f]", n.XMin, n.XMax, webMercatorBound)
	}
	if math.Abs(n.YMax-webMercatorBound) > 100 {
		t.Errorf("projected ymax = %f, want close to %f", n.YMax, webMercatorBound)
	}
}

func TestDefaultGlobeExtent(t *testing.T) {
	e := DefaultGlobeExtent()
	if e.XMin != -webMercatorBound || e.XMax != webMercatorBound {
		t.Errorf("globe extent x = [%f, %f]", e.XMin, e.XMax)
	}
	if e.SpatialReference == nil || e.SpatialReference.WKID != WebMercatorWKID {
		t.Errorf("globe extent spatial reference = %+v", e.SpatialReference)
	}
}
