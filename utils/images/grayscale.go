package images

import (
	"image"
	"image/color"
	"math"
)

// Flatten reduces img to a single 8-bit luminance channel.
// NOTE: This function may be slow for large images, if speed is a problem it
// could be optimized.
func Flatten(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return out
}

// SampleStats returns the number of distinct sample values and the standard
// deviation over all samples of a single-channel image. An empty image has
// zero distinct values and zero deviation.
func SampleStats(g *image.Gray) (distinct int, stddev float64) {
	var hist [256]int
	total := 0
	sum := 0.0

	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[(y-b.Min.Y)*g.Stride : (y-b.Min.Y)*g.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
			sum += float64(v)
			total++
		}
	}
	if total == 0 {
		return 0, 0
	}

	mean := sum / float64(total)
	variance := 0.0
	for v, n := range hist {
		if n == 0 {
			continue
		}
		distinct++
		d := float64(v) - mean
		variance += d * d * float64(n)
	}
	return distinct, math.Sqrt(variance / float64(total))
}
