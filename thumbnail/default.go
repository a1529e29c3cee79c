package thumbnail

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"
	"os"

	"smconv/utils/images"
)

//go:embed default.svg
var defaultSVG []byte

// LoadDefaultImage prepares the fallback thumbnail picture: the file at
// path when given, otherwise the built-in globe placeholder rasterized to
// the requested bounds.
func LoadDefaultImage(path string, maxW, maxH int) (image.Image, error) {
	if path == "" {
		img, err := images.RasterizeSVGToImage(defaultSVG, maxW, maxH)
		if err != nil {
			return nil, fmt.Errorf("unable to rasterize built-in default thumbnail: %w", err)
		}
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read default thumbnail %s: %w", path, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode default thumbnail %s: %w", path, err)
	}
	return img, nil
}
