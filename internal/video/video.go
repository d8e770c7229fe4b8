// Package video invokes the external encoder over a rendered frame
// sequence. It runs once, after every frame has been written; a
// failure here never invalidates frames already on disk.
package video

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/ivlev/frames2video/internal/config"
)

// ErrEncode classifies encoder failures with errors.Is.
var ErrEncode = errors.New("video encoding failed")

// Encoder consumes an ordered frame directory and produces the final
// video file.
type Encoder interface {
	Encode(ctx context.Context, framesDir string, cfg *config.Config) error
}

// FFmpegEncoder shells out to ffmpeg.
type FFmpegEncoder struct {
	// Codec is the -c:v value, typically from system.GetBestH264Encoder.
	Codec string
}

// Encode assembles framesDir/00001.png.. into cfg.OutputVideo at the
// configured frame rate, passing bit_rate through untouched.
func (e *FFmpegEncoder) Encode(ctx context.Context, framesDir string, cfg *config.Config) error {
	codec := e.Codec
	if codec == "" {
		codec = "libx264"
	}

	args := []string{
		"-y",
		"-framerate", fmt.Sprintf("%d", cfg.FrameRate),
		"-i", filepath.Join(framesDir, "%05d.png"),
		"-c:v", codec,
	}
	if cfg.BitRate != "" {
		args = append(args, "-b:v", cfg.BitRate)
	}
	args = append(args, "-pix_fmt", "yuv420p", cfg.OutputVideo)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %v, output: %s", ErrEncode, err, string(out))
	}
	return nil
}
