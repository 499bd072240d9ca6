// Package images turns fetched image bytes into inline image escape
// sequences for the terminal protocols mdtty supports.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/url"
	"path"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/disintegration/imaging"

	"github.com/mdtty/mdtty/pkg/resources"
	"github.com/mdtty/mdtty/pkg/terminal"
)

// ErrNoProtocol is returned when encoding is requested for a terminal
// without any image protocol. Callers are expected to check the
// capability first and render the link fallback instead.
var ErrNoProtocol = errors.New("terminal supports no image protocol")

// Encoder writes one inline image in a terminal specific framing.
type Encoder interface {
	// Encode writes the escape sequences displaying the resource to w.
	// columns is the column budget the image must fit into; src is the
	// resolved resource URL, used by protocols that attach a name or
	// reference the resource by location.
	Encode(w io.Writer, data resources.MimeData, src *url.URL, columns int) error
}

// ForProtocol selects the encoder for a detected image protocol.
func ForProtocol(p terminal.ImageProtocol) (Encoder, error) {
	switch p {
	case terminal.ImageITerm2:
		return ITerm2{}, nil
	case terminal.ImageKitty:
		return Kitty{}, nil
	case terminal.ImageTerminology:
		return Terminology{}, nil
	default:
		return nil, ErrNoProtocol
	}
}

func isSVG(data resources.MimeData, src *url.URL) bool {
	if data.MimeType == "image/svg+xml" {
		return true
	}
	return src != nil && strings.EqualFold(path.Ext(src.Path), ".svg")
}

// pixels is a decoded image ready for protocol framing.
type pixels struct {
	// png holds PNG-encoded bytes of the (possibly resized) image.
	png []byte
	// width and height are the final pixel dimensions.
	width, height int
	// fromSVG records that the source was rasterised, so any file
	// name reported to the terminal must carry a .png extension.
	fromSVG bool
}

// prepare decodes data, rasterising SVG first, and downscales the
// result to the pixel width implied by the column budget so the
// terminal never receives an oversized payload.
func prepare(data resources.MimeData, src *url.URL, columns int) (pixels, error) {
	maxWidth := columns * terminal.CellPixelWidth
	if maxWidth <= 0 {
		maxWidth = 80 * terminal.CellPixelWidth
	}

	if isSVG(data, src) {
		pngData, w, h, err := RasterizeSVG(data.Data, maxWidth)
		if err != nil {
			return pixels{}, fmt.Errorf("rasterizing SVG: %w", err)
		}
		return pixels{png: pngData, width: w, height: h, fromSVG: true}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data.Data))
	if err != nil {
		return pixels{}, fmt.Errorf("decoding image: %w", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	resized := false
	if w > maxWidth {
		img = imaging.Fit(img, maxWidth, h*maxWidth/w, imaging.Lanczos)
		bounds = img.Bounds()
		w, h = bounds.Dx(), bounds.Dy()
		resized = true
	}

	// PNG data that already fits can be passed through untouched.
	if !resized && data.MimeType == "image/png" {
		return pixels{png: data.Data, width: w, height: h}, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return pixels{}, fmt.Errorf("encoding PNG: %w", err)
	}
	return pixels{png: buf.Bytes(), width: w, height: h}, nil
}

// name derives the file name reported to the terminal from the URL,
// replacing the extension with .png when the payload was rasterised
// from SVG so the terminal does not mis-parse the bytes.
func (p pixels) name(src *url.URL) string {
	if src == nil {
		return ""
	}
	base := path.Base(src.Path)
	if base == "." || base == "/" {
		return ""
	}
	if p.fromSVG {
		base = strings.TrimSuffix(base, path.Ext(base)) + ".png"
	}
	return base
}
