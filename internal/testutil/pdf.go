package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// MakePDF generates a valid PDF with the given number of pages.
// Each page carries the text "<label> p<N>".
func MakePDF(t testing.TB, pages int, label string) []byte {
	t.Helper()

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 18)
	for i := 1; i <= pages; i++ {
		doc.AddPage()
		doc.Cell(40, 10, fmt.Sprintf("%s p%d", label, i))
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("failed to generate PDF: %v", err)
	}
	return buf.Bytes()
}

// FakeRasterizer returns a solid grey page image without invoking any
// external binary. It records every page it was asked to render.
type FakeRasterizer struct {
	Width, Height int
	Err           error // returned for every call when set
	FailPage      int   // returns an error for this page only when non-zero

	mu    sync.Mutex
	calls []int
}

// Rasterize implements pdf.Rasterizer.
func (f *FakeRasterizer) Rasterize(ctx context.Context, path string, pageNum int) (image.Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageNum)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if f.FailPage != 0 && f.FailPage == pageNum {
		return nil, fmt.Errorf("render page %d: simulated failure", pageNum)
	}

	w, h := f.Width, f.Height
	if w == 0 || h == 0 {
		w, h = 595, 842
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.Black)
	return img, nil
}

// Calls returns the number of pages rendered so far.
func (f *FakeRasterizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
