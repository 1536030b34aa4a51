// Command bubbletest runs bubble segmentation on a cropped text region and
// writes the resulting masks and repaired image.
package main

import (
	"flag"
	"fmt"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"bubble-cleaner/internal/imgio"
	"bubble-cleaner/internal/ocr"
	"bubble-cleaner/internal/render"
	"bubble-cleaner/internal/segment"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
	_ "golang.org/x/image/tiff"
)

func main() {
	imagePath := flag.String("image", "", "Path to bubble crop (PNG, JPEG, or TIFF)")
	algo := flag.String("algo", "edge", "Segmentation algorithm: edge or components")
	strokeFilter := flag.Bool("stroke-filter", false, "Apply the stroke-width plausibility filter (components only)")
	sdThresh := flag.Float64("sd-thresh", 10, "Background variance below which a flat fill is used instead of inpainting")
	outDir := flag.String("out", ".", "Output directory for text_mask.png and painted.png")
	debug := flag.Bool("debug", false, "Dump intermediate masks to the output directory")
	runOCR := flag.Bool("ocr", false, "Recognize text in the crop before repair")
	lang := flag.String("lang", "eng", "OCR language code")
	replace := flag.String("render", "", "Replacement text to draw into the repaired bubble")
	fontPath := flag.String("font", "", "TTF font for replacement text")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if *imagePath == "" {
		fmt.Println("Usage: bubbletest -image <path> [-algo edge|components] [-stroke-filter] [-out dir]")
		os.Exit(1)
	}

	img, err := imgio.Load(*imagePath)
	if err != nil {
		log.Fatal().Err(err).Msg("load image")
	}
	defer img.Close()
	log.Info().Str("path", *imagePath).Int("width", img.Cols()).Int("height", img.Rows()).Msg("loaded crop")

	opts := segment.DefaultOptions().WithStrokeFilter(*strokeFilter)
	opts.InpaintSDThresh = *sdThresh
	if *debug {
		opts = opts.WithDebug(&dirSink{dir: *outDir, log: log})
	}

	var result *segment.Result
	switch *algo {
	case "edge":
		result, err = segment.EdgeFlood(img, opts)
	case "components":
		result, err = segment.ConnectedComponents(img, opts)
	default:
		log.Fatal().Str("algo", *algo).Msg("unknown algorithm")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("segmentation failed")
	}
	defer result.Close()

	log.Info().
		Interface("foreground", result.Foreground).
		Interface("background", result.Background).
		Interface("inner_rect", result.InnerRect).
		Float64("background_sd", result.BackgroundSD).
		Bool("used_inpaint", result.UsedInpaint).
		Msg("segmentation complete")

	if *runOCR {
		engine, err := ocr.NewEngine(ocr.Config{Language: *lang})
		if err != nil {
			log.Fatal().Err(err).Msg("start OCR engine")
		}
		defer engine.Close()

		text, err := engine.RecognizeImage(img)
		if err != nil {
			log.Error().Err(err).Msg("recognition failed")
		} else {
			log.Info().Str("text", text).Msg("recognized")
		}
	}

	if err := imgio.Save(filepath.Join(*outDir, "text_mask.png"), result.TextMask); err != nil {
		log.Fatal().Err(err).Msg("write text mask")
	}
	painted := result.Painted
	if *replace != "" && result.InnerRect.Valid() {
		goImg, err := imgio.MatToImage(painted)
		if err != nil {
			log.Fatal().Err(err).Msg("convert painted image")
		}
		ropts := render.DefaultOptions()
		ropts.FontPath = *fontPath
		rendered, err := render.Text(goImg, result.InnerRect, *replace, result.Foreground, ropts)
		if err != nil {
			log.Fatal().Err(err).Msg("render replacement text")
		}
		m := imgio.ImageToMat(rendered)
		defer m.Close()
		painted = m
	}
	if err := imgio.Save(filepath.Join(*outDir, "painted.png"), painted); err != nil {
		log.Fatal().Err(err).Msg("write painted image")
	}
	log.Info().Str("dir", *outDir).Msg("outputs written")
}

// dirSink dumps intermediate masks as PNG files.
type dirSink struct {
	dir string
	log zerolog.Logger
	seq int
}

func (s *dirSink) Snapshot(stage string, img gocv.Mat) {
	s.seq++
	path := filepath.Join(s.dir, fmt.Sprintf("debug_%02d_%s.png", s.seq, stage))
	if !gocv.IMWrite(path, img) {
		s.log.Warn().Str("stage", stage).Str("path", path).Msg("debug snapshot write failed")
		return
	}
	s.log.Debug().Str("stage", stage).Str("path", path).Msg("debug snapshot")
}
