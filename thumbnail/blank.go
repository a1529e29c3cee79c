package thumbnail

import (
	"image"

	"smconv/utils/images"
)

// DefaultBlankStdDev is the standard-deviation cutoff below which a render
// counts as near-uniform.
const DefaultBlankStdDev = 5.0

// IsBlank classifies a rendered preview as uninformative: the image is
// reduced to a single luminance channel and counts as blank when it has at
// most two distinct sample values or its standard deviation falls below the
// threshold. Both catch near-uniform renders such as a water-only or
// empty-layer tile.
func IsBlank(img image.Image, stddevThreshold float64) bool {
	if stddevThreshold <= 0 {
		stddevThreshold = DefaultBlankStdDev
	}
	distinct, stddev := images.SampleStats(images.Flatten(img))
	return distinct <= 2 || stddev < stddevThreshold
}
