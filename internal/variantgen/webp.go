package variantgen

import (
	"context"
	"fmt"
	"image"
	"os/exec"
)

// EncodeWebP shells out to ffmpeg's libwebp encoder. Raw RGBA идёт через
// stdin, без промежуточного файла на диске.
func EncodeWebP(ctx context.Context, img *image.RGBA, path string) error {
	b := img.Bounds()

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		"-i", "-",
		"-frames:v", "1",
		"-c:v", "libwebp",
		"-quality", "82",
		path,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	if _, err := stdin.Write(img.Pix); err != nil {
		stdin.Close()
		return fmt.Errorf("write raw error: %w", err)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w", err)
	}
	return nil
}
