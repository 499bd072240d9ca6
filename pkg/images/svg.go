package images

import (
	"bytes"
	"errors"
	"image"
	"image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

var errEmptySVG = errors.New("SVG has no intrinsic size")

// RasterizeSVG renders SVG markup to PNG bytes no wider than
// maxWidth pixels, preserving aspect ratio. Malformed or unsupported
// SVG input is reported as an error; callers fall back to link text.
func RasterizeSVG(svg []byte, maxWidth int) (data []byte, width, height int, err error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, 0, 0, err
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		return nil, 0, 0, errEmptySVG
	}

	width = int(w)
	height = int(h)
	if width > maxWidth {
		height = height * maxWidth / width
		width = maxWidth
	}
	if width <= 0 || height <= 0 {
		return nil, 0, 0, errEmptySVG
	}

	icon.SetTarget(0, 0, float64(width), float64(height))
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), width, height, nil
}
