// Package engine sequences the render pipeline: keyframe expansion,
// the optional deflicker pass, per-frame rendering and the encoder
// handoff.
package engine

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/frames2video/internal/config"
	"github.com/ivlev/frames2video/internal/deflicker"
	"github.com/ivlev/frames2video/internal/keyframe"
	"github.com/ivlev/frames2video/internal/render"
	"github.com/ivlev/frames2video/internal/source"
	"github.com/ivlev/frames2video/internal/video"
)

// Pipeline owns the parameter tracks and frame list for the duration
// of one render. No state survives across runs.
type Pipeline struct {
	Config  *config.Config
	Source  source.Source
	Encoder video.Encoder

	framesDir string
}

func NewPipeline(cfg *config.Config, src source.Source, enc video.Encoder) *Pipeline {
	return &Pipeline{
		Config:  cfg,
		Source:  src,
		Encoder: enc,
	}
}

// Run executes one full render. The stages are strictly ordered: all
// configuration and keyframe validation completes before any image is
// read, sampling completes before the rolling mean, and every frame is
// on disk before the encoder starts.
func (p *Pipeline) Run(ctx context.Context) error {
	startTime := time.Now()

	numFrames := p.Source.FrameCount()
	if numFrames == 0 {
		return fmt.Errorf("источник не содержит кадров")
	}

	cropTrack, brightness, srcW, srcH, err := p.buildTracks(numFrames)
	if err != nil {
		return err
	}

	workers := p.Config.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > numFrames {
		workers = numFrames
	}

	fmt.Println("--- [PROJECT: FRAME PIPELINE] ---")
	fmt.Printf("[*] Источник: %s | Кадров: %d (%dx%d)\n", p.Config.InputPath, numFrames, srcW, srcH)
	fmt.Printf("[*] Выход: %dx%d @ %d FPS | Потоков: %d\n",
		p.Config.Width, p.Config.Height, p.Config.FrameRate, workers)
	fmt.Println("---------------------------------")

	if p.Config.Deflicker {
		samples, err := p.brightnessSamples(ctx, numFrames, workers)
		if err != nil {
			return err
		}
		targets := deflicker.RollingMean(samples, p.Config.DFWindow)
		ratios := deflicker.CorrectionRatio(samples, targets)
		if brightness == nil {
			brightness = constantTrack(1.0, numFrames)
		}
		for i := range brightness {
			brightness[i] *= ratios[i]
		}
		logrus.WithFields(logrus.Fields{
			"frames": numFrames,
			"window": p.Config.DFWindow,
		}).Info("deflicker correction merged")
	}

	if err := p.prepareFramesDir(); err != nil {
		return err
	}

	if err := p.renderFrames(ctx, numFrames, workers, cropTrack, brightness); err != nil {
		if !p.Config.KeepFrames {
			os.RemoveAll(p.framesDir)
		}
		return err
	}

	if p.Config.NoEncode {
		fmt.Printf("[*] Кодирование пропущено. Кадры: %s\n", p.framesDir)
		return nil
	}

	fmt.Println("[*] Сборка финального видео...")
	if err := p.Encoder.Encode(ctx, p.framesDir, p.Config); err != nil {
		// Rendered frames are each valid on their own; a failed encode
		// keeps them so the run can be retried without re-rendering.
		fmt.Printf("[!] Кадры сохранены для повторного кодирования: %s\n", p.framesDir)
		return fmt.Errorf("ошибка сборки финального видео: %w", err)
	}

	if p.Config.KeepFrames {
		fmt.Printf("[*] Кадры сохранены: %s\n", p.framesDir)
	} else {
		os.RemoveAll(p.framesDir)
	}

	fmt.Printf("[*] Готово за %.2fs\n", time.Since(startTime).Seconds())
	return nil
}

// buildTracks expands the crop and brightness keyframe specs. This is
// the fail-fast gate: both specs validate before the first byte of
// source I/O, so a bad keyframe list never costs a header read, let
// alone sampling or rendering. A nil brightness track means the
// brightness step is skipped entirely.
func (p *Pipeline) buildTracks(numFrames int) (keyframe.Track, []float64, int, int, error) {
	cropSet, cropOK, err := p.Config.Crop.Resolve(keyframe.ArityBox, numFrames)
	if err != nil {
		return nil, nil, 0, 0, fmt.Errorf("ошибка разметки ключевых кадров: crop: %w", err)
	}

	brightSet, brightOK, err := p.Config.Bright.Resolve(keyframe.ArityScalar, numFrames)
	if err != nil {
		return nil, nil, 0, 0, fmt.Errorf("ошибка разметки ключевых кадров: bright: %w", err)
	}

	// Validation is done; the first source access happens here.
	srcW, srcH, err := p.Source.Dimensions(0)
	if err != nil {
		return nil, nil, 0, 0, err
	}

	if !cropOK {
		box := render.AutoCrop(srcW, srcH, p.Config.Width, p.Config.Height)
		cropSet = keyframe.Constant(box, numFrames)
	}

	var brightness []float64
	if brightOK {
		brightness = brightSet.Expand().Scalars()
	}
	return cropSet.Expand(), brightness, srcW, srcH, nil
}

// brightnessSamples returns one normalized luminance value per frame,
// from the project cache when it matches, otherwise by reading every
// source frame across the worker pool.
func (p *Pipeline) brightnessSamples(ctx context.Context, numFrames, workers int) ([]float64, error) {
	if p.Config.CachePath != "" {
		if samples, ok := deflicker.LoadCache(p.Config.CachePath, numFrames); ok {
			fmt.Printf("[*] Яркость загружена из кэша: %s\n", p.Config.CachePath)
			return samples, nil
		}
	}

	bar := progressbar.NewOptions(numFrames,
		progressbar.OptionSetDescription("Sampling"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	samples := make([]float64, numFrames)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < numFrames; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := p.Source.Frame(i)
			if err != nil {
				return err
			}
			samples[i] = deflicker.Brightness(img)
			bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	fmt.Fprintln(os.Stderr)

	if p.Config.CachePath != "" {
		if err := deflicker.SaveCache(p.Config.CachePath, samples); err != nil {
			logrus.WithError(err).Warn("brightness cache not written")
		}
	}
	return samples, nil
}

// renderFrames applies each frame's track slice and writes the PNG
// sequence. Frames are independent once the tracks are final, so the
// pool runs them in any order; the 1-based index in the file name
// keeps the emitted sequence ordered by source position.
func (p *Pipeline) renderFrames(ctx context.Context, numFrames, workers int, cropTrack keyframe.Track, brightness []float64) error {
	bar := progressbar.NewOptions(numFrames,
		progressbar.OptionSetDescription("Rendering"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < numFrames; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := p.Source.Frame(i)
			if err != nil {
				return err
			}

			factor := math.NaN()
			if brightness != nil {
				factor = brightness[i]
			}

			out, err := render.Frame(img, render.BoxFromVector(cropTrack[i]), factor,
				p.Config.Width, p.Config.Height)
			if err != nil {
				return &source.FrameError{Index: i, Path: p.Source.FramePath(i), Err: err}
			}

			path := filepath.Join(p.framesDir, render.FrameName(i+1))
			err = render.WritePNG(path, out)
			render.Recycle(out)
			if err != nil {
				return &source.FrameError{Index: i, Path: path, Err: err}
			}
			bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr)
	return nil
}

func (p *Pipeline) prepareFramesDir() error {
	if p.Config.KeepFrames {
		base := strings.TrimSuffix(p.Config.OutputVideo, filepath.Ext(p.Config.OutputVideo))
		p.framesDir = base + "_frames"
		return os.MkdirAll(p.framesDir, 0755)
	}
	dir, err := os.MkdirTemp("", "frames2video_")
	if err != nil {
		return err
	}
	p.framesDir = dir
	return nil
}

func constantTrack(v float64, n int) []float64 {
	track := make([]float64, n)
	for i := range track {
		track[i] = v
	}
	return track
}
