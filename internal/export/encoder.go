package export

import (
	"context"
	"fmt"
	"image"
	stddraw "image/draw"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ivlev/heroslide/internal/config"
)

// Encoder turns composited hero frames into video clips and stitches the
// clips into the final rotation reel.
type Encoder interface {
	EncodeClip(ctx context.Context, img image.Image, clipPath string, params config.ClipParams, encoderName string, quality int) error
	Concatenate(ctx context.Context, clipPaths []string, finalPath string, tmpDir string, durations []float64, cfg config.Config) error
}

type FFmpegEncoder struct{}

// EncodeClip pipes one raw RGBA frame into ffmpeg; the zoompan reveal in the
// clip filter multiplies it into a full-length clip, so no frame sequence
// ever touches the disk.
func (e *FFmpegEncoder) EncodeClip(
	ctx context.Context,
	img image.Image,
	clipPath string,
	params config.ClipParams,
	encoderName string,
	quality int,
) error {
	inputW, inputH := img.Bounds().Dx(), img.Bounds().Dy()
	filter := ClipFilter(params)

	args := buildClipArgs(inputW, inputH, filter, clipPath, params, encoderName, quality)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	// Запись raw RGBA данных
	if err := writeRawRGBA(stdin, img); err != nil {
		stdin.Close()
		return fmt.Errorf("write raw error: %w", err)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w", err)
	}

	return nil
}

func buildClipArgs(inputW, inputH int, filter, clipPath string, params config.ClipParams, encoderName string, quality int) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", inputW, inputH),
		"-i", "-",
		"-vf", filter,
		"-t", fmt.Sprintf("%f", params.Duration),
		"-r", fmt.Sprintf("%d", params.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", encoderName,
	}

	args = append(args, qualityArgs(encoderName, quality)...)
	args = append(args, clipPath)
	return args
}

// qualityArgs: качество в зависимости от энкодера.
func qualityArgs(encoderName string, quality int) []string {
	switch encoderName {
	case "h264_videotoolbox":
		// VideoToolbox не на всех версиях поддерживает -q:v. Используем битрейт.
		bitrate := quality * 100 // кбит/с
		return []string{"-b:v", fmt.Sprintf("%dk", bitrate)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default: // libx264
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	// Приводим к каноничному RGBA, если stride или origin нестандартные
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(bounds)
		stddraw.Draw(rgba, bounds, img, bounds.Min, stddraw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// Concatenate stitches the clips with xfade crossfades matching the live
// carousel's transition. A zero fade falls back to the cheap stream copy.
func (e *FFmpegEncoder) Concatenate(ctx context.Context, clipPaths []string, finalPath string, tmpDir string, durations []float64, cfg config.Config) error {
	if cfg.FadeSeconds <= 0 || len(clipPaths) < 2 {
		concatFilePath := filepath.Join(tmpDir, "inputs.txt")
		f, err := os.Create(concatFilePath)
		if err != nil {
			return err
		}
		for _, p := range clipPaths {
			absPath, _ := filepath.Abs(p)
			fmt.Fprintf(f, "file '%s'\n", absPath)
		}
		f.Close()

		cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
			"-f", "concat", "-safe", "0", "-i", concatFilePath,
			"-c", "copy", finalPath,
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("ffmpeg concat error: %v, output: %s", err, string(out))
		}
		return nil
	}

	args := buildConcatArgs(clipPaths, finalPath, durations, cfg)
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg xfade error: %v, output: %s", err, string(out))
	}
	return nil
}

func buildConcatArgs(clipPaths []string, finalPath string, durations []float64, cfg config.Config) []string {
	args := []string{"-y"}
	for _, p := range clipPaths {
		args = append(args, "-i", p)
	}

	filterGraph := ""
	lastOut := "[0:v]"
	currentOffset := 0.0

	for i := 1; i < len(clipPaths); i++ {
		duration := cfg.DwellSeconds + cfg.FadeSeconds
		if i-1 < len(durations) {
			duration = durations[i-1]
		}
		currentOffset += duration - cfg.FadeSeconds

		nextIn := fmt.Sprintf("[%d:v]", i)
		outName := fmt.Sprintf("[v%d]", i)
		filterGraph += fmt.Sprintf("%s%sxfade=transition=fade:duration=%f:offset=%f%s;",
			lastOut, nextIn, cfg.FadeSeconds, currentOffset, outName)
		lastOut = outName
	}

	filterGraph = strings.TrimSuffix(filterGraph, ";")
	if filterGraph != "" {
		args = append(args, "-filter_complex", filterGraph)
	}

	args = append(args, "-map", lastOut)
	args = append(args, "-c:v", cfg.VideoEncoder, "-pix_fmt", "yuv420p")
	args = append(args, qualityArgs(cfg.VideoEncoder, cfg.Quality)...)
	args = append(args, finalPath)
	return args
}
