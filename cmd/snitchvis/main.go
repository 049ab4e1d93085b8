package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"snitchvis/internal/model"
	"snitchvis/internal/render"
	"snitchvis/internal/snitchdb"
	"snitchvis/internal/snitchlog"
	"snitchvis/internal/tiles"
	"snitchvis/internal/video"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "snitchvis",
		Short: "Render snitch event logs to video without a server",
		Long: `snitchvis renders Minecraft snitch event logs into videos locally.
It reads the same log and snitch database formats as the API server and
produces the same output, so it is handy for one-off renders and for
warming a tile cache.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRenderCmd())
	root.AddCommand(newTilesCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	var (
		eventsPath  string
		dbPath      string
		out         string
		fps         int
		durationSec int
		size        int
		fadeMS      int64
		allSnitches bool
		referenceAt string
		tilesURL    string
		tilesDir    string
		workers     int
		ffmpegPath  string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render an event log to an MP4 file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ref := time.Now().UTC()
			if referenceAt != "" {
				var err error
				if ref, err = time.Parse(time.RFC3339, referenceAt); err != nil {
					return fmt.Errorf("parse --reference-at: %w", err)
				}
			}

			f, err := os.Open(eventsPath)
			if err != nil {
				return err
			}
			events, err := snitchlog.Parse(f, ref)
			f.Close()
			if err != nil {
				return err
			}

			var snitches []model.Snitch
			if dbPath != "" {
				if snitches, err = snitchdb.ReadSnitches(ctx, dbPath); err != nil {
					return err
				}
			}
			snitches = append(snitches, snitchdb.Synthesize(snitches, events)...)

			scene, err := render.NewScene(events, snitches, nil, allSnitches)
			if err != nil {
				return err
			}

			var background image.Image
			if tilesURL != "" {
				svc, err := tileService(tilesURL, tilesDir)
				if err != nil {
					return err
				}
				if background, err = svc.Compose(ctx, scene.Bounds, video.RecordSize); err != nil {
					return fmt.Errorf("compose tiles: %w", err)
				}
			}

			rec := &video.Recorder{Workers: workers, FFmpegPath: ffmpegPath}
			opts := model.RenderOptions{
				FPS:         fps,
				DurationSec: durationSec,
				Width:       size,
				Height:      size,
				FadeMS:      fadeMS,
				AllSnitches: allSnitches,
				Tiles:       tilesURL != "",
			}
			if err := rec.Record(ctx, scene, opts, background, out); err != nil {
				return err
			}

			cmd.Printf("%s: %d events, %d users, %s timeline\n",
				out, len(scene.Events), len(scene.Users),
				(time.Duration(scene.Duration()) * time.Millisecond).Round(time.Second))
			return nil
		},
	}

	cmd.Flags().StringVarP(&eventsPath, "events", "i", "", "snitch event log file")
	cmd.Flags().StringVarP(&dbPath, "snitches", "s", "", "snitch sqlite database")
	cmd.Flags().StringVarP(&out, "out", "o", "snitchvis.mp4", "output video file")
	cmd.Flags().IntVar(&fps, "fps", 30, "output framerate")
	cmd.Flags().IntVar(&durationSec, "duration", 10, "output length in seconds")
	cmd.Flags().IntVar(&size, "size", 800, "output width and height in pixels")
	cmd.Flags().Int64Var(&fadeMS, "fade-ms", 300000, "how long an event highlight stays visible")
	cmd.Flags().BoolVar(&allSnitches, "all-snitches", false, "widen the view to every snitch in the database")
	cmd.Flags().StringVar(&referenceAt, "reference-at", "", "RFC 3339 time anchoring clock-only timestamps (default now)")
	cmd.Flags().StringVar(&tilesURL, "tiles-url", "", "tile origin base URL; empty disables the terrain layer")
	cmd.Flags().StringVar(&tilesDir, "tiles-dir", "", "local tile cache directory (default under the user cache dir)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent frame renders (default one per CPU)")
	cmd.Flags().StringVar(&ffmpegPath, "ffmpeg", "ffmpeg", "ffmpeg binary")
	cmd.MarkFlagRequired("events")

	return cmd
}

func newTilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tiles",
		Short: "Manage the local tile cache",
	}
	cmd.AddCommand(newTilesFetchCmd())
	return cmd
}

func newTilesFetchCmd() *cobra.Command {
	var (
		tilesURL string
		tilesDir string
		radius   int
		workers  int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download every tile within the radius into the local cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := tileService(tilesURL, tilesDir)
			if err != nil {
				return err
			}
			return svc.Prefetch(cmd.Context(), radius, workers, func(done, total int) {
				if done%500 == 0 || done == total {
					cmd.Printf("fetched %d/%d tiles\n", done, total)
				}
			})
		},
	}

	cmd.Flags().StringVar(&tilesURL, "url", "", "tile origin base URL")
	cmd.Flags().StringVar(&tilesDir, "dir", "", "local tile cache directory (default under the user cache dir)")
	cmd.Flags().IntVar(&radius, "radius", 40, "fetch tiles in [-radius, radius] on both axes")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent downloads")
	cmd.MarkFlagRequired("url")

	return cmd
}

// tileService builds the same cache-first tile service the server
// uses, backed by a local directory instead of object storage.
func tileService(baseURL, dir string) (*tiles.Service, error) {
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			cache = os.TempDir()
		}
		dir = filepath.Join(cache, "snitchvis", "tiles")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fetcher := tiles.NewFetcher(baseURL, 10*time.Second)
	return tiles.NewService(fetcher, &dirStore{root: dir}, tiles.Config{}, nil), nil
}
