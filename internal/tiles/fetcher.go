// Package tiles fetches, caches and composes the precomputed map
// tiles drawn under rendered frames. Source tiles are 256x256 PNGs at
// one pixel per block; tile (i, j) covers world blocks
// [256i, 256i+256) x [256j, 256j+256).
package tiles

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TileSize is the pixel (and block) edge of a source tile.
const TileSize = 256

// ErrTileMissing means the origin has no tile at the coordinates.
// Missing tiles render as plain black terrain.
var ErrTileMissing = errors.New("tiles: tile not found upstream")

// Fetcher downloads tiles from the origin server.
type Fetcher struct {
	baseURL string
	client  *http.Client
}

// NewFetcher creates a tile fetcher for the given base URL. Requests
// are traced via otelhttp.
func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// URL returns the origin URL for tile (i, j). The published tile dumps
// percent-escape the coordinate separator, so the comma is emitted as
// %2C.
func (f *Fetcher) URL(i, j int) string {
	return fmt.Sprintf("%s/z0/%d%%2C%d.png", f.baseURL, i, j)
}

// Fetch downloads and decodes one tile. A 404 is reported as
// ErrTileMissing.
func (f *Fetcher) Fetch(ctx context.Context, i, j int) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(i, j), nil)
	if err != nil {
		return nil, fmt.Errorf("tiles: build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tiles: fetch %d,%d: %w", i, j, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrTileMissing
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("tiles: fetch %d,%d: unexpected status %d", i, j, resp.StatusCode)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tiles: decode %d,%d: %w", i, j, err)
	}
	return img, nil
}
