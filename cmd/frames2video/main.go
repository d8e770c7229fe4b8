package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/frames2video/internal/config"
	"github.com/ivlev/frames2video/internal/engine"
	"github.com/ivlev/frames2video/internal/source"
	"github.com/ivlev/frames2video/internal/system"
	"github.com/ivlev/frames2video/internal/video"
)

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()

	inputPtr := flag.String("input", "", "Папка с кадрами или PDF-файл")
	outputPtr := flag.String("output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	projectPtr := flag.String("project", "", "YAML-файл проекта (filetype, size, crop, bright, deflicker...)")
	filetypePtr := flag.String("filetype", "", "Расширение входных кадров (например, jpg)")
	widthPtr := flag.Int("width", 1920, "Ширина")
	heightPtr := flag.Int("height", 1080, "Высота")
	fpsPtr := flag.Int("fps", 25, "FPS")
	bitratePtr := flag.String("bitrate", "", "Битрейт видео (например, 16M)")
	deflickerPtr := flag.Bool("deflicker", false, "Выравнивать яркость по скользящему среднему")
	dfWindowPtr := flag.Int("df-window", 10, "Окно скользящего среднего (кадров)")
	workersPtr := flag.Int("workers", 0, "Потоки (0 - авто по CPU/памяти)")
	dpiPtr := flag.Int("dpi", 300, "DPI растеризации PDF")
	cachePtr := flag.String("cache", "", "Файл кэша яркости (по умолчанию: <проект>.brightness)")
	keepPtr := flag.Bool("keep-frames", false, "Сохранить PNG-кадры рядом с видео")
	noEncodePtr := flag.Bool("no-encode", false, "Только кадры, без кодирования")
	verbosePtr := flag.Bool("verbose", false, "Подробный лог")

	flag.Parse()

	if *verbosePtr {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	if *inputPtr == "" {
		log.Fatalf("[-] Ошибка: не указан -input")
	}

	cfg := &config.Config{
		InputPath:   *inputPtr,
		OutputVideo: *outputPtr,
		Filetype:    *filetypePtr,
		Width:       *widthPtr,
		Height:      *heightPtr,
		FrameRate:   *fpsPtr,
		BitRate:     *bitratePtr,
		Deflicker:   *deflickerPtr,
		DFWindow:    *dfWindowPtr,
		Workers:     *workersPtr,
		DPI:         *dpiPtr,
		CachePath:   *cachePtr,
		KeepFrames:  *keepPtr,
		NoEncode:    *noEncodePtr,
	}

	if *projectPtr != "" {
		proj, err := config.Load(*projectPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка проекта: %v", err)
		}
		applyProject(cfg, proj)
		fmt.Printf("[*] Используется проект: %s\n", *projectPtr)
	}

	var src source.Source
	var err error
	if strings.HasSuffix(strings.ToLower(cfg.InputPath), ".pdf") {
		src, err = source.NewPDFSource(cfg.InputPath, cfg.DPI)
	} else {
		src, err = source.NewDirSource(cfg.InputPath, cfg.Filetype)
	}
	if err != nil {
		log.Fatalf("[-] Ошибка инициализации источника: %v", err)
	}
	defer src.Close()

	if src.FrameCount() == 0 {
		log.Fatalf("[-] Ошибка: в источнике нет кадров")
	}

	if cfg.Workers <= 0 {
		w, h, err := src.Dimensions(0)
		if err != nil {
			log.Fatalf("[-] Ошибка чтения первого кадра: %v", err)
		}
		cfg.Workers = system.DefaultWorkers(w, h)
	}

	if cfg.Deflicker && cfg.CachePath == "" {
		base := *projectPtr
		if base == "" {
			base = cfg.InputPath
		}
		cfg.CachePath = strings.TrimSuffix(base, filepath.Ext(base)) + ".brightness"
	}

	if cfg.OutputVideo == "" {
		os.MkdirAll("output", 0755)
		baseName := filepath.Base(strings.TrimSuffix(cfg.InputPath, filepath.Ext(cfg.InputPath)))
		cleanName := strings.ReplaceAll(baseName, " ", "_")
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		cfg.OutputVideo = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
	}

	encoderName, _ := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}

	pipeline := engine.NewPipeline(cfg, src, &video.FFmpegEncoder{Codec: encoderName})
	if err := pipeline.Run(context.Background()); err != nil {
		log.Fatalf("[-] Ошибка проекта: %v", err)
	}

	if !cfg.NoEncode {
		fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputVideo)
	}
}

// applyProject merges project-file values into cfg. The file carries
// the render parameters; flags stay authoritative for paths and
// operational switches.
func applyProject(cfg *config.Config, proj *config.Project) {
	if proj.Filetype != "" {
		cfg.Filetype = proj.Filetype
	}
	if len(proj.Size) == 2 {
		cfg.Width, cfg.Height = proj.Size[0], proj.Size[1]
	}
	if proj.FrameRate > 0 {
		cfg.FrameRate = proj.FrameRate
	}
	if proj.BitRate != "" {
		cfg.BitRate = proj.BitRate
	}
	if proj.Deflicker {
		cfg.Deflicker = true
	}
	if proj.DFWindow > 0 {
		cfg.DFWindow = proj.DFWindow
	}
	cfg.Crop = proj.Crop
	cfg.Bright = proj.Bright
}
