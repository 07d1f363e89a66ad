package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	xdraw "golang.org/x/image/draw"
)

// ThumbnailType is the MIME type produced by Thumbnail.
const ThumbnailType = "image/jpeg"

// NativeDPI renders pages at their native size (1 PDF point per pixel).
const NativeDPI = 72

// Rasterizer renders one page of the PDF at path to an image.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string, pageNum int) (image.Image, error)
}

// Pdftoppm rasterizes pages with the pdftoppm binary from poppler-utils.
type Pdftoppm struct {
	Path string // Binary path (default: "pdftoppm" on $PATH)
	DPI  int    // Render resolution (default: NativeDPI)
}

// Available reports whether the pdftoppm binary can be found.
func (p *Pdftoppm) Available() bool {
	_, err := exec.LookPath(p.binary())
	return err == nil
}

func (p *Pdftoppm) binary() string {
	if p.Path == "" {
		return "pdftoppm"
	}
	return p.Path
}

// Rasterize renders a single page to an image.
func (p *Pdftoppm) Rasterize(ctx context.Context, path string, pageNum int) (image.Image, error) {
	dpi := p.DPI
	if dpi <= 0 {
		dpi = NativeDPI
	}

	tmpDir, err := os.MkdirTemp("", "dossier-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	// -singlefile: write <prefix>.png without a page number suffix
	pageStr := strconv.Itoa(pageNum)
	cmd := exec.CommandContext(ctx, p.binary(),
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		path,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	f, err := os.Open(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered page: %w", err)
	}
	return img, nil
}

// WithTempFile writes data to a temporary file, calls fn with its path and
// removes the file afterwards.
func WithTempFile(data []byte, fn func(path string) error) error {
	f, err := os.CreateTemp("", "dossier-src-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	return fn(f.Name())
}

// Thumbnail scales img by scale onto a white background and encodes it as JPEG.
func Thumbnail(img image.Image, scale float64, quality int) ([]byte, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("invalid thumbnail scale %v", scale)
	}

	src := img.Bounds()
	w := max(1, int(math.Round(float64(src.Dx())*scale)))
	h := max(1, int(math.Round(float64(src.Dy())*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, src, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
