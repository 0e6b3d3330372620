package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/agridynamic/admin-console/internal/core/domain"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 40, G: 120, B: 60, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestFitter_DownscalesLargeImages(t *testing.T) {
	f := NewFitter(100, 100)
	out, err := f.Optimize(domain.Upload{Filename: "wide.png", Data: pngOf(t, 400, 200)})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}
	if out.ContentType != "image/png" || out.Filename != "wide.png" {
		t.Fatalf("unexpected metadata %+v", out)
	}
}

func TestFitter_SmallImagesUntouched(t *testing.T) {
	data := pngOf(t, 50, 50)
	out, err := NewFitter(100, 100).Optimize(domain.Upload{Filename: "small.png", Data: data})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if !bytes.Equal(out.Data, data) {
		t.Fatalf("image inside the box must pass through")
	}
}

func TestFitter_UnknownFormatPassesThrough(t *testing.T) {
	in := domain.Upload{Filename: "doc.pdf", Data: []byte("%PDF-1.4 not an image")}
	out, err := NewFitter(10, 10).Optimize(in)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if !bytes.Equal(out.Data, in.Data) {
		t.Fatalf("unknown formats must pass through")
	}
}
