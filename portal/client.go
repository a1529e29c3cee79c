// Package portal is a small client for the source platform's REST API: item
// data and item thumbnails, nothing more.
package portal

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
)

// maxResponseSize bounds item data and thumbnail downloads.
const maxResponseSize = 64 << 20

// Client talks to the portal's sharing REST endpoint.
type Client struct {
	restURL string
	token   string
	hc      *http.Client
	log     *zap.Logger
}

// NewClient creates a portal client from configuration. The token may be
// empty for public items.
func NewClient(cfg *config.PortalConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		restURL: strings.TrimRight(cfg.URL, "/") + "/sharing/rest",
		token:   string(cfg.Token),
		hc:      &http.Client{Timeout: cfg.Timeout()},
		log:     log.Named("portal"),
	}
}

// restError is the platform's in-band error shape: HTTP 200 with an error
// body.
type restError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("unable to read response: %w", err)
	}
	return data, nil
}

func (c *Client) itemURL(id, resource string) string {
	u := c.restURL + "/content/items/" + url.PathEscape(id) + resource
	q := url.Values{}
	q.Set("f", "json")
	if c.token != "" {
		q.Set("token", c.token)
	}
	return u + "?" + q.Encode()
}

// ItemData fetches an item's data resource as raw JSON. The platform
// reports errors in-band with HTTP 200, those are surfaced as errors too.
func (c *Client) ItemData(ctx context.Context, id string) ([]byte, error) {
	data, err := c.get(ctx, c.itemURL(id, "/data"))
	if err != nil {
		return nil, fmt.Errorf("unable to fetch data for item %s: %w", id, err)
	}

	var re restError
	if json.Unmarshal(data, &re) == nil && re.Error != nil {
		return nil, fmt.Errorf("portal error for item %s: %d %s", id, re.Error.Code, re.Error.Message)
	}

	c.log.Debug("Fetched item data", zap.String("id", id), zap.Int("bytes", len(data)))
	return data, nil
}

// ItemThumbnailName fetches the item description and returns the stored
// thumbnail resource name, empty when the item has none.
func (c *Client) ItemThumbnailName(ctx context.Context, id string) (string, error) {
	data, err := c.get(ctx, c.itemURL(id, ""))
	if err != nil {
		return "", fmt.Errorf("unable to fetch description for item %s: %w", id, err)
	}

	var re restError
	if json.Unmarshal(data, &re) == nil && re.Error != nil {
		return "", fmt.Errorf("portal error for item %s: %d %s", id, re.Error.Code, re.Error.Message)
	}

	var info struct {
		Thumbnail string `json:"thumbnail"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return "", fmt.Errorf("unable to parse description for item %s: %w", id, err)
	}
	return info.Thumbnail, nil
}

// ItemThumbnail downloads an item's stored thumbnail image by its info name.
func (c *Client) ItemThumbnail(ctx context.Context, id, name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("item %s has no thumbnail", id)
	}
	u := c.restURL + "/content/items/" + url.PathEscape(id) + "/info/" + name
	if c.token != "" {
		u += "?token=" + url.QueryEscape(c.token)
	}
	data, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch thumbnail for item %s: %w", id, err)
	}
	return data, nil
}
