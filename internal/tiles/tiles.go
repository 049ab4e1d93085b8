package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"
	"sync"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"snitchvis/internal/metrics"
	"snitchvis/internal/render"
	"snitchvis/internal/storage"
)

// Config bounds the tile service.
type Config struct {
	// CachePrefix is the object storage key prefix, default "tiles".
	CachePrefix string
	// Radius limits served tiles to [-Radius, Radius] on both axes;
	// anything outside is plain black. Default 40, matching the
	// published dumps.
	Radius int
}

// Service serves tiles cache-first: object storage, then the origin,
// falling back to black for tiles the origin does not have. Whatever
// the origin answers is flattened onto black and cached, including
// misses.
type Service struct {
	fetcher *Fetcher
	store   storage.Storage
	prefix  string
	radius  int
	metrics *metrics.Metrics
}

// NewService wires a tile service. m may be nil.
func NewService(fetcher *Fetcher, store storage.Storage, cfg Config, m *metrics.Metrics) *Service {
	prefix := cfg.CachePrefix
	if prefix == "" {
		prefix = "tiles"
	}
	radius := cfg.Radius
	if radius <= 0 {
		radius = 40
	}
	return &Service{
		fetcher: fetcher,
		store:   store,
		prefix:  prefix,
		radius:  radius,
		metrics: m,
	}
}

func (s *Service) key(i, j int) string {
	return fmt.Sprintf("%s/z0/%d_%d.png", s.prefix, i, j)
}

// PNG returns tile (i, j) as PNG bytes.
func (s *Service) PNG(ctx context.Context, i, j int) ([]byte, error) {
	if i < -s.radius || i > s.radius || j < -s.radius || j > s.radius {
		s.metrics.IncTileFetch(metrics.TileSourceMissing)
		return blackPNG(), nil
	}

	key := s.key(i, j)
	rc, _, err := s.store.Get(ctx, key)
	if err == nil {
		defer rc.Close()
		b, rerr := io.ReadAll(rc)
		if rerr != nil {
			return nil, fmt.Errorf("tiles: read cached %d,%d: %w", i, j, rerr)
		}
		s.metrics.IncTileFetch(metrics.TileSourceCache)
		return b, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("tiles: cache lookup %d,%d: %w", i, j, err)
	}

	img, err := s.fetcher.Fetch(ctx, i, j)
	switch {
	case errors.Is(err, ErrTileMissing):
		img = nil
		s.metrics.IncTileFetch(metrics.TileSourceMissing)
	case err != nil:
		return nil, err
	default:
		s.metrics.IncTileFetch(metrics.TileSourceOrigin)
	}

	b, err := encodeTile(img)
	if err != nil {
		return nil, fmt.Errorf("tiles: encode %d,%d: %w", i, j, err)
	}

	// Cache write is best effort; a failed Put must not fail the read.
	_, _ = s.store.Put(ctx, key, bytes.NewReader(b), storage.PutObjectOptions{
		Size:        int64(len(b)),
		ContentType: "image/png",
	})
	return b, nil
}

// Image returns tile (i, j) decoded.
func (s *Service) Image(ctx context.Context, i, j int) (image.Image, error) {
	b, err := s.PNG(ctx, i, j)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("tiles: decode cached %d,%d: %w", i, j, err)
	}
	return img, nil
}

// Compose assembles the terrain for a world bounding box into a
// size x size image, scaling each overlapping source tile into place.
// The result is the renderer's Background layer.
func (s *Service) Compose(ctx context.Context, b render.Box, size int) (*image.RGBA, error) {
	if size <= 0 || b.SpanX() <= 0 || b.SpanY() <= 0 {
		return nil, fmt.Errorf("tiles: compose needs a positive size and box")
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)

	scaleX := float64(size) / b.SpanX()
	scaleY := float64(size) / b.SpanY()
	i0 := int(math.Floor(b.MinX / TileSize))
	i1 := int(math.Ceil(b.MaxX/TileSize)) - 1
	j0 := int(math.Floor(b.MinY / TileSize))
	j1 := int(math.Ceil(b.MaxY/TileSize)) - 1

	for i := i0; i <= i1; i++ {
		for j := j0; j <= j1; j++ {
			if i < -s.radius || i > s.radius || j < -s.radius || j > s.radius {
				continue
			}
			img, err := s.Image(ctx, i, j)
			if err != nil {
				return nil, err
			}
			dr := image.Rect(
				int(math.Round((float64(i*TileSize)-b.MinX)*scaleX)),
				int(math.Round((float64(j*TileSize)-b.MinY)*scaleY)),
				int(math.Round((float64(i*TileSize+TileSize)-b.MinX)*scaleX)),
				int(math.Round((float64(j*TileSize+TileSize)-b.MinY)*scaleY)),
			)
			xdraw.ApproxBiLinear.Scale(dst, dr, img, img.Bounds(), xdraw.Src, nil)
		}
	}
	return dst, nil
}

// Prefetch warms the cache for every tile in [-radius, radius]² using
// a bounded worker pool. progress, if non-nil, is called after each
// tile.
func (s *Service) Prefetch(ctx context.Context, radius, workers int, progress func(done, total int)) error {
	if radius <= 0 || radius > s.radius {
		radius = s.radius
	}
	if workers <= 0 {
		workers = 4
	}

	total := (2*radius + 1) * (2*radius + 1)
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := -radius; i <= radius; i++ {
		for j := -radius; j <= radius; j++ {
			i, j := i, j
			g.Go(func() error {
				if _, err := s.PNG(ctx, i, j); err != nil {
					return err
				}
				if progress != nil {
					progress(int(done.Add(1)), total)
				}
				return nil
			})
		}
	}
	return g.Wait()
}

// encodeTile flattens img onto an opaque black tile and encodes it as
// PNG. A nil img yields the plain black tile.
func encodeTile(img image.Image) ([]byte, error) {
	flat := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	draw.Draw(flat, flat.Bounds(), image.Black, image.Point{}, draw.Src)
	if img != nil {
		draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	blackOnce sync.Once
	blackPix  []byte
)

// blackPNG returns the encoded all-black tile served for positions
// outside the tile range.
func blackPNG() []byte {
	blackOnce.Do(func() {
		b, err := encodeTile(nil)
		if err != nil {
			// png.Encode of a fixed in-memory RGBA cannot fail.
			panic(err)
		}
		blackPix = b
	})
	return blackPix
}
