package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"smconv/config"
	"smconv/webmap"
)

type stubRenderer struct {
	calls int
	next  func(call int, doc *webmap.Document) (string, error)
}

func (s *stubRenderer) Render(_ context.Context, doc *webmap.Document) (string, error) {
	s.calls++
	return s.next(s.calls, doc)
}

func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*7 + y*13) % 256)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func uniformPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestGenerator(t *testing.T, render Renderer, attempts int) *Generator {
	t.Helper()
	cfg := &config.Config{
		Export:     config.ExportConfig{MaxAttempts: attempts, TimeoutSec: 5},
		Thumbnails: config.ThumbnailsConfig{MaxWidth: 80, MaxHeight: 60, BlankStdDev: 5},
	}
	def, err := LoadDefaultImage("", 80, 60)
	if err != nil {
		t.Fatalf("LoadDefaultImage() error = %v", err)
	}
	return New(render, cfg, t.TempDir(), def, nil)
}

func checkThumbnailFile(t *testing.T, gen *Generator, path string) image.Image {
	t.Helper()
	if path == "" {
		t.Fatal("empty thumbnail path")
	}
	if filepath.Dir(path) != gen.dir {
		t.Errorf("path %q outside work dir %q", path, gen.dir)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "thumbnail_") || !strings.HasSuffix(base, ".png") {
		t.Errorf("file name = %q, want thumbnail_<token>.png", base)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("thumbnail not written: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("thumbnail not a PNG: %v", err)
	}
	return img
}

func TestFromImage(t *testing.T) {
	big := gradientPNG(t, 400, 400)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pic.png" {
			w.Write(big)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	gen := newTestGenerator(t, nil, 1)

	t.Run("downscaled to bounds", func(t *testing.T) {
		path := gen.FromImage(context.Background(), srv.URL+"/pic.png")
		img := checkThumbnailFile(t, gen, path)
		if img.Bounds().Dx() > 80 || img.Bounds().Dy() > 60 {
			t.Errorf("bounds = %v, want within 80x60", img.Bounds())
		}
	})

	t.Run("fetch failure falls back to default", func(t *testing.T) {
		path := gen.FromImage(context.Background(), srv.URL+"/missing.png")
		checkThumbnailFile(t, gen, path)
	})

	t.Run("non-image payload falls back to default", func(t *testing.T) {
		srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not found but 200</html>"))
		}))
		defer srv2.Close()
		path := gen.FromImage(context.Background(), srv2.URL+"/x.png")
		checkThumbnailFile(t, gen, path)
	})
}

func TestFromWebmap_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(gradientPNG(t, 100, 80))
	}))
	defer srv.Close()

	render := &stubRenderer{next: func(int, *webmap.Document) (string, error) {
		return srv.URL + "/render.png", nil
	}}
	gen := newTestGenerator(t, render, 10)

	path := gen.FromWebmap(context.Background(), &webmap.Document{})
	img := checkThumbnailFile(t, gen, path)
	// rendered result is saved as-is, not refitted
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 80 {
		t.Errorf("bounds = %v, want 100x80", img.Bounds())
	}
	if render.calls != 1 {
		t.Errorf("render calls = %d, want 1", render.calls)
	}
}

func TestFromWebmap_RepeatedFailingLayerTerminates(t *testing.T) {
	render := &stubRenderer{next: func(int, *webmap.Document) (string, error) {
		return "", &LayerError{URL: "https://svc/bad", Detail: "failed at https://svc/bad"}
	}}
	gen := newTestGenerator(t, render, 10)

	doc := &webmap.Document{OperationalLayers: []webmap.Layer{{ID: "x", URL: "https://svc/bad/0"}}}
	path := gen.FromWebmap(context.Background(), doc)

	checkThumbnailFile(t, gen, path)
	if render.calls != 2 {
		t.Errorf("render calls = %d, want 2 (second repeat stops the loop)", render.calls)
	}
	if len(doc.OperationalLayers) != 0 {
		t.Errorf("failing layer not stripped: %+v", doc.OperationalLayers)
	}
}

func TestFromWebmap_AttemptBudget(t *testing.T) {
	render := &stubRenderer{next: func(call int, _ *webmap.Document) (string, error) {
		// a different failing layer every time
		return "", &LayerError{URL: fmt.Sprintf("https://svc/bad%d", call)}
	}}
	gen := newTestGenerator(t, render, 3)

	path := gen.FromWebmap(context.Background(), &webmap.Document{})
	checkThumbnailFile(t, gen, path)
	if render.calls != 3 {
		t.Errorf("render calls = %d, want exactly the attempt budget", render.calls)
	}
}

func TestFromWebmap_PlainErrorNoRetry(t *testing.T) {
	render := &stubRenderer{next: func(int, *webmap.Document) (string, error) {
		return "", fmt.Errorf("service down")
	}}
	gen := newTestGenerator(t, render, 10)

	path := gen.FromWebmap(context.Background(), &webmap.Document{})
	checkThumbnailFile(t, gen, path)
	if render.calls != 1 {
		t.Errorf("render calls = %d, want 1", render.calls)
	}
}

func TestFromWebmap_BlankHandling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(uniformPNG(t, 100, 80))
	}))
	defer srv.Close()

	render := &stubRenderer{next: func(int, *webmap.Document) (string, error) {
		return srv.URL + "/render.png", nil
	}}

	t.Run("blank without extent falls back to default", func(t *testing.T) {
		gen := newTestGenerator(t, render, 10)
		path := gen.FromWebmap(context.Background(), &webmap.Document{})
		img := checkThumbnailFile(t, gen, path)
		if img.Bounds().Dx() == 100 && img.Bounds().Dy() == 80 {
			t.Error("blank render accepted despite missing extent")
		}
	})

	t.Run("blank with extent accepted as final", func(t *testing.T) {
		gen := newTestGenerator(t, render, 10)
		doc := &webmap.Document{MapOptions: webmap.MapOptions{Extent: webmap.DefaultGlobeExtent()}}
		path := gen.FromWebmap(context.Background(), doc)
		img := checkThumbnailFile(t, gen, path)
		if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 80 {
			t.Errorf("bounds = %v, want the rendered image itself", img.Bounds())
		}
	})
}

func TestIsBlank(t *testing.T) {
	blank, err := png.Decode(bytes.NewReader(uniformPNG(t, 50, 50)))
	if err != nil {
		t.Fatal(err)
	}
	if !IsBlank(blank, 5) {
		t.Error("uniform image not classified blank")
	}

	rich, err := png.Decode(bytes.NewReader(gradientPNG(t, 50, 50)))
	if err != nil {
		t.Fatal(err)
	}
	if IsBlank(rich, 5) {
		t.Error("gradient image classified blank")
	}

	// two distinct values is still blank even with a large spread
	two := image.NewGray(image.Rect(0, 0, 10, 10))
	for x := 0; x < 10; x++ {
		two.SetGray(x, 0, color.Gray{Y: 255})
	}
	if !IsBlank(two, 5) {
		t.Error("two-value image not classified blank")
	}
}

func TestFromBytes(t *testing.T) {
	gen := newTestGenerator(t, nil, 1)

	path := gen.FromBytes(gradientPNG(t, 300, 300))
	img := checkThumbnailFile(t, gen, path)
	if img.Bounds().Dx() > 80 || img.Bounds().Dy() > 60 {
		t.Errorf("bounds = %v, want fitted", img.Bounds())
	}

	// garbage falls back to default
	checkThumbnailFile(t, gen, gen.FromBytes([]byte("not an image")))
}
