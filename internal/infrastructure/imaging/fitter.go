package imaging

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/agridynamic/admin-console/internal/core/domain"
	"github.com/agridynamic/admin-console/internal/core/ports"
)

const jpegQuality = 85

// Fitter shrinks uploads that exceed a bounding box before they are sent to
// the backend. Aspect ratio is preserved; images already inside the box and
// formats it cannot re-encode pass through untouched.
type Fitter struct {
	maxWidth  int
	maxHeight int
}

var _ ports.ImageOptimizer = (*Fitter)(nil)

func NewFitter(maxWidth, maxHeight int) *Fitter {
	return &Fitter{maxWidth: maxWidth, maxHeight: maxHeight}
}

func (f *Fitter) Optimize(u domain.Upload) (domain.Upload, error) {
	if f.maxWidth <= 0 || f.maxHeight <= 0 {
		return u, nil
	}
	format, mime, ok := detectFormat(u.Data)
	if !ok {
		return u, nil
	}

	img, err := imaging.Decode(bytes.NewReader(u.Data), imaging.AutoOrientation(true))
	if err != nil {
		return domain.Upload{}, fmt.Errorf("decode %s: %w", u.Filename, err)
	}
	b := img.Bounds()
	if b.Dx() <= f.maxWidth && b.Dy() <= f.maxHeight {
		return u, nil
	}

	resized := imaging.Fit(img, f.maxWidth, f.maxHeight, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return domain.Upload{}, fmt.Errorf("encode %s: %w", u.Filename, err)
	}

	out := u
	out.Data = buf.Bytes()
	out.ContentType = mime
	return out, nil
}

// detectFormat sniffs the formats imaging can both decode and encode. TIFF is
// refused (CVE-2023-36308).
func detectFormat(data []byte) (imaging.Format, string, bool) {
	ct := http.DetectContentType(data)
	switch {
	case strings.Contains(ct, "jpeg"):
		return imaging.JPEG, "image/jpeg", true
	case strings.Contains(ct, "png"):
		return imaging.PNG, "image/png", true
	case strings.Contains(ct, "gif"):
		return imaging.GIF, "image/gif", true
	default:
		return 0, "", false
	}
}
