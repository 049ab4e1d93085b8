package video

import (
	"bytes"
	"context"
	"image"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame(edge int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, edge, edge))
}

func frameChan(frames ...*image.RGBA) chan *image.RGBA {
	ch := make(chan *image.RGBA, len(frames))
	for _, f := range frames {
		ch <- f
	}
	close(ch)
	return ch
}

func TestEncoderArgs(t *testing.T) {
	enc := &Encoder{Framerate: 30, Width: 1280, Height: 720}

	assert.Equal(t, []string{
		"-y",
		"-f", "image2pipe",
		"-r", "30",
		"-vcodec", "mjpeg",
		"-pix_fmt", "yuv420p",
		"-i", "-",
		"-vf", "scale=1280:720",
		"out.mp4",
	}, enc.args("out.mp4"))
}

func TestEncoderDefaults(t *testing.T) {
	enc := &Encoder{}

	assert.Equal(t, "ffmpeg", enc.path())
	assert.Equal(t, 90, enc.quality())

	enc.FFmpegPath = "/opt/ffmpeg/bin/ffmpeg"
	enc.Quality = 75
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", enc.path())
	assert.Equal(t, 75, enc.quality())
}

func TestWriteFrames(t *testing.T) {
	var buf bytes.Buffer

	n, err := writeFrames(&buf, frameChan(testFrame(8), testFrame(8), testFrame(8)), 90)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Greater(t, buf.Len(), 4)
	assert.Equal(t, []byte{0xff, 0xd8}, buf.Bytes()[:2], "stream starts with a JPEG SOI marker")
}

func TestEncoderEncode(t *testing.T) {
	var gotName string
	var gotArgs []string

	orig := execCommand
	defer func() { execCommand = orig }()
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotName = name
		gotArgs = args
		return exec.CommandContext(ctx, "cat")
	}

	enc := &Encoder{Framerate: 10, Width: 640, Height: 480}
	n, err := enc.Encode(context.Background(), frameChan(testFrame(8), testFrame(8)), "out.mp4")

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ffmpeg", gotName)
	assert.Equal(t, enc.args("out.mp4"), gotArgs)
}

func TestEncoderEncodeProcessFailure(t *testing.T) {
	orig := execCommand
	defer func() { execCommand = orig }()
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "false")
	}

	enc := &Encoder{Framerate: 10, Width: 640, Height: 480}
	_, err := enc.Encode(context.Background(), frameChan(testFrame(8)), "out.mp4")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ffmpeg")
}

func TestStderrTail(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("one\ntwo\nthree\nfour\nfive\nsix\n")

	assert.Equal(t, "three | four | five | six", stderrTail(&buf))
}
