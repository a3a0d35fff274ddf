package preload

import (
	"fmt"
	"image"
	"os"

	"context"

	// Decoders for the supported encodings. webp is the modern format the
	// selector prefers; jpeg/png cover the fallback assets.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// FileProbe validates that a local asset exists and carries a decodable
// image header. Only the header is read (DecodeConfig), so probing a large
// variant stays cheap.
type FileProbe struct{}

func (FileProbe) Probe(ctx context.Context, url string) error {
	if url == "" {
		return fmt.Errorf("пустой URL")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(url)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
