// Package thumbnail produces raster previews for converted entries: plain
// images are downscaled, map-backed entries are rendered through the export
// service with a layer-stripping retry loop. Failure always degrades to the
// default image, never upward.
package thumbnail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"smconv/config"
	"smconv/webmap"
)

// Renderer turns a webmap document into a fetchable image URL.
type Renderer interface {
	Render(ctx context.Context, doc *webmap.Document) (string, error)
}

// LayerError is an export-service failure that names the failing layer URL,
// extracted from the error detail's " at <url>" suffix. The caller can strip
// the layer and retry.
type LayerError struct {
	URL    string
	Detail string
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("export service cannot draw layer %s: %s", e.URL, e.Detail)
}

// ExportClient submits webmap documents to the export (print) service.
type ExportClient struct {
	url string
	hc  *http.Client
	rpt *config.Report
	log *zap.Logger
	seq int
}

// NewExportClient creates an export service client. rpt may be nil; when
// set, every round trip is captured in the debug report.
func NewExportClient(cfg *config.ExportConfig, rpt *config.Report, log *zap.Logger) *ExportClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExportClient{
		url: cfg.URL,
		hc:  &http.Client{Timeout: cfg.Timeout()},
		rpt: rpt,
		log: log.Named("export"),
	}
}

type exportResponse struct {
	Results []struct {
		Value struct {
			URL string `json:"url"`
		} `json:"value"`
	} `json:"results"`
	Error *struct {
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

// Render submits the document and returns the rendered image URL. A service
// error naming a failing layer comes back as *LayerError.
func (c *ExportClient) Render(ctx context.Context, doc *webmap.Document) (string, error) {
	wm, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("unable to serialize webmap document: %w", err)
	}

	form := url.Values{}
	form.Set("f", "json")
	form.Set("Web_Map_as_JSON", string(wm))
	form.Set("Format", "PNG32")
	form.Set("Layout_Template", "MAP_ONLY")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("unable to create export request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("export request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", fmt.Errorf("unable to read export response: %w", err)
	}

	c.seq++
	c.rpt.StoreData(fmt.Sprintf("export/request-%03d.json", c.seq), wm)
	c.rpt.StoreData(fmt.Sprintf("export/response-%03d.json", c.seq), body)

	var er exportResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return "", fmt.Errorf("unable to decode export response: %w", err)
	}

	switch {
	case len(er.Results) > 0:
		u := er.Results[0].Value.URL
		if u == "" {
			return "", fmt.Errorf("export result carries no image url")
		}
		c.log.Debug("Rendered webmap", zap.String("url", u))
		return u, nil

	case er.Error != nil && len(er.Error.Details) > 0:
		detail := er.Error.Details[0]
		if idx := strings.LastIndex(detail, " at "); idx >= 0 {
			return "", &LayerError{URL: strings.TrimSpace(detail[idx+4:]), Detail: detail}
		}
		return "", fmt.Errorf("export service error: %s", detail)

	case er.Error != nil:
		return "", fmt.Errorf("export service error: %s", er.Error.Message)
	}
	return "", fmt.Errorf("export service returned neither results nor error")
}
