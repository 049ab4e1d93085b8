// Package video renders report timelines to MP4: frames come off a
// bounded parallel render pool, are JPEG-encoded in strict order, and
// are piped into an external ffmpeg process.
package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// execCommand is swapped out in tests so the pipeline can run against
// a stand-in process instead of ffmpeg.
var execCommand = exec.CommandContext

// Encoder feeds an image2pipe ffmpeg invocation. The mjpeg input is
// scaled to the requested output size by ffmpeg itself, so frames can
// be rendered at a fixed internal resolution.
type Encoder struct {
	// FFmpegPath is the ffmpeg binary, default "ffmpeg".
	FFmpegPath string
	Framerate  int
	Width      int
	Height     int
	// Quality is the intermediate JPEG quality, default 90.
	Quality int
}

func (e *Encoder) path() string {
	if e.FFmpegPath == "" {
		return "ffmpeg"
	}
	return e.FFmpegPath
}

func (e *Encoder) quality() int {
	if e.Quality <= 0 {
		return 90
	}
	return e.Quality
}

func (e *Encoder) args(out string) []string {
	return []string{
		"-y",
		"-f", "image2pipe",
		"-r", strconv.Itoa(e.Framerate),
		"-vcodec", "mjpeg",
		"-pix_fmt", "yuv420p",
		"-i", "-",
		"-vf", fmt.Sprintf("scale=%d:%d", e.Width, e.Height),
		out,
	}
}

// Encode drains frames into ffmpeg until the channel closes and waits
// for the process to finish writing out. It returns the number of
// frames encoded.
func (e *Encoder) Encode(ctx context.Context, frames <-chan *image.RGBA, out string) (int, error) {
	cmd := execCommand(ctx, e.path(), e.args(out)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return 0, fmt.Errorf("video: open ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("video: start %s: %w", e.path(), err)
	}

	n, werr := writeFrames(stdin, frames, e.quality())
	_ = stdin.Close()

	// A nonzero exit explains most write failures (broken pipe), so it
	// takes precedence and carries the stderr tail.
	if waitErr := cmd.Wait(); waitErr != nil {
		return n, fmt.Errorf("video: ffmpeg: %w: %s", waitErr, stderrTail(&stderr))
	}
	if werr != nil {
		return n, fmt.Errorf("video: write frames: %w", werr)
	}
	return n, nil
}

// writeFrames JPEG-encodes each frame onto w in channel order.
func writeFrames(w io.Writer, frames <-chan *image.RGBA, quality int) (int, error) {
	opts := &jpeg.Options{Quality: quality}
	n := 0
	for img := range frames {
		if err := jpeg.Encode(w, img, opts); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// stderrTail keeps error messages readable: ffmpeg is chatty, only
// the last few lines matter.
func stderrTail(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, " | ")
}
