package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smconv/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.PortalConfig{URL: srv.URL, Token: "tok", TimeoutSec: 5}, nil)
}

func TestItemData(t *testing.T) {
	var gotPath, gotQuery string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"values": {"title": "x"}}`))
	})

	data, err := c.ItemData(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("ItemData() error = %v", err)
	}
	if !strings.Contains(string(data), "values") {
		t.Errorf("data = %s", data)
	}
	if gotPath != "/sharing/rest/content/items/abc123/data" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotQuery, "f=json") || !strings.Contains(gotQuery, "token=tok") {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestItemData_InBandError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": 403, "message": "no access"}}`))
	})

	_, err := c.ItemData(context.Background(), "abc123")
	if err == nil || !strings.Contains(err.Error(), "no access") {
		t.Errorf("ItemData() error = %v, want in-band error surfaced", err)
	}
}

func TestItemData_HTTPError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	if _, err := c.ItemData(context.Background(), "abc123"); err == nil {
		t.Error("ItemData() expected error for 404")
	}
}

func TestItemThumbnailName(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sharing/rest/content/items/abc" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"title": "Series", "thumbnail": "thumbnail/ago_downloaded.png"}`))
	})

	name, err := c.ItemThumbnailName(context.Background(), "abc")
	if err != nil {
		t.Fatalf("ItemThumbnailName() error = %v", err)
	}
	if name != "thumbnail/ago_downloaded.png" {
		t.Errorf("name = %q", name)
	}
}

func TestItemThumbnailName_None(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title": "Series"}`))
	})

	name, err := c.ItemThumbnailName(context.Background(), "abc")
	if err != nil || name != "" {
		t.Errorf("ItemThumbnailName() = %q, %v, want empty without error", name, err)
	}
}

func TestItemThumbnail(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sharing/rest/content/items/abc/info/thumbnail.png" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("png-bytes"))
	})

	data, err := c.ItemThumbnail(context.Background(), "abc", "thumbnail.png")
	if err != nil {
		t.Fatalf("ItemThumbnail() error = %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("data = %q", data)
	}

	if _, err := c.ItemThumbnail(context.Background(), "abc", ""); err == nil {
		t.Error("ItemThumbnail() expected error for missing name")
	}
}
