package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"

	// decoders for everything a story or portal may serve as an image
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"smconv/config"
	"smconv/webmap"
)

// maxImageSize bounds fetched image downloads.
const maxImageSize = 64 << 20

// Generator produces thumbnail files under a single working directory.
// Every file is named thumbnail_<random-token>.png; the caller owns the
// files and decides when to delete them.
type Generator struct {
	render       Renderer
	hc           *http.Client
	dir          string
	maxAttempts  int
	maxW, maxH   int
	blankStdDev  float64
	defaultImage image.Image
	log          *zap.Logger
}

// New creates a thumbnail generator. defaultImage must be non-nil, it is
// the end of every fallback chain.
func New(render Renderer, cfg *config.Config, workDir string, defaultImage image.Image, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		render:       render,
		hc:           &http.Client{Timeout: cfg.Export.Timeout()},
		dir:          workDir,
		maxAttempts:  cfg.Export.MaxAttempts,
		maxW:         cfg.Thumbnails.MaxWidth,
		maxH:         cfg.Thumbnails.MaxHeight,
		blankStdDev:  cfg.Thumbnails.BlankStdDev,
		defaultImage: defaultImage,
		log:          log.Named("thumbnail"),
	}
}

// save writes the image as a uniquely named PNG under the work directory.
func (g *Generator) save(img image.Image) (string, error) {
	u := uuid.New()
	path := filepath.Join(g.dir, fmt.Sprintf("thumbnail_%x.png", u[:]))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("unable to save thumbnail: %w", err)
	}
	return path, nil
}

// fetchImage downloads and decodes an image, sniffing the payload first so
// HTML error pages do not reach the decoders.
func (g *Generator) fetchImage(ctx context.Context, rawURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create image request: %w", err)
	}
	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s fetching %s", resp.Status, rawURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("unable to read image body: %w", err)
	}

	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("response from %s is not an image", rawURL)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode image from %s: %w", rawURL, err)
	}
	return img, nil
}

// Default writes the default image through the usual downscale path.
// This is the terminal fallback; an empty path means even the local save
// failed and the entry goes out without a preview.
func (g *Generator) Default() string {
	path, err := g.save(imaging.Fit(g.defaultImage, g.maxW, g.maxH, imaging.Lanczos))
	if err != nil {
		g.log.Error("Unable to save default thumbnail", zap.Error(err))
		return ""
	}
	return path
}

// FromImage fetches a picture and downscales it to the configured bounds.
// Any fetch or decode failure substitutes the default image.
func (g *Generator) FromImage(ctx context.Context, rawURL string) string {
	img, err := g.fetchImage(ctx, rawURL)
	if err != nil {
		g.log.Warn("Image thumbnail failed, using default", zap.String("url", rawURL), zap.Error(err))
		return g.Default()
	}

	path, err := g.save(imaging.Fit(img, g.maxW, g.maxH, imaging.Lanczos))
	if err != nil {
		g.log.Warn("Unable to save image thumbnail, using default", zap.Error(err))
		return g.Default()
	}
	return path
}

// FromBytes decodes raw image bytes (an item's stored thumbnail) and
// downscales them; failures substitute the default image.
func (g *Generator) FromBytes(data []byte) string {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		g.log.Warn("Stored thumbnail not decodable, using default", zap.Error(err))
		return g.Default()
	}
	path, err := g.save(imaging.Fit(img, g.maxW, g.maxH, imaging.Lanczos))
	if err != nil {
		g.log.Warn("Unable to save stored thumbnail, using default", zap.Error(err))
		return g.Default()
	}
	return path
}

// FromWebmap renders the document through the export service, stripping
// layers the service cannot draw and retrying up to the attempt budget.
// A failing layer URL seen twice stops the loop. The document is mutated as
// layers are stripped. A blank render with no usable extent degrades to the
// default image; a blank render that still has an extent is accepted as
// final. The returned path is never a failure, the chain always ends at the
// default image.
func (g *Generator) FromWebmap(ctx context.Context, doc *webmap.Document) string {
	tried := make(map[string]struct{})

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		imageURL, err := g.render.Render(ctx, doc)
		if err != nil {
			var le *LayerError
			if errors.As(err, &le) && le.URL != "" {
				if _, seen := tried[le.URL]; seen {
					g.log.Warn("Layer keeps failing, giving up", zap.String("url", le.URL))
					break
				}
				tried[le.URL] = struct{}{}
				removed := doc.RemoveFailedService(le.URL)
				g.log.Info("Stripped failing layers, retrying",
					zap.String("url", le.URL), zap.Int("removed", removed), zap.Int("attempt", attempt))
				continue
			}
			g.log.Warn("Export service failed, using default", zap.Error(err))
			break
		}

		img, err := g.fetchImage(ctx, imageURL)
		if err != nil {
			g.log.Warn("Unable to fetch rendered image, using default", zap.Error(err))
			break
		}

		if IsBlank(img, g.blankStdDev) {
			g.log.Warn("Rendered thumbnail is blank", zap.Int("attempt", attempt))
			if doc.MapOptions.Extent == nil {
				break
			}
			// with a usable extent the blank render is accepted as final
		}

		path, err := g.save(img)
		if err != nil {
			g.log.Warn("Unable to save rendered thumbnail, using default", zap.Error(err))
			break
		}
		return path
	}
	return g.Default()
}
