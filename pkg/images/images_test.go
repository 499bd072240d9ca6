package images

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdtty/mdtty/pkg/resources"
	"github.com/mdtty/mdtty/pkg/terminal"
)

// encodePNG builds a PNG of the given size. Pixel values follow a
// simple LCG so the payload does not compress away in chunking tests.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	seed := uint32(1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			seed = seed*1664525 + 1013904223
			img.Set(x, y, color.RGBA{uint8(seed), uint8(seed >> 8), uint8(seed >> 16), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngURL(t *testing.T, name string) *url.URL {
	t.Helper()
	u, err := url.Parse("https://example.com/images/" + name)
	require.NoError(t, err)
	return u
}

const sampleSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 40 20"><rect width="40" height="20" fill="red"/></svg>`

func TestForProtocol(t *testing.T) {
	enc, err := ForProtocol(terminal.ImageITerm2)
	require.NoError(t, err)
	assert.IsType(t, ITerm2{}, enc)

	enc, err = ForProtocol(terminal.ImageKitty)
	require.NoError(t, err)
	assert.IsType(t, Kitty{}, enc)

	enc, err = ForProtocol(terminal.ImageTerminology)
	require.NoError(t, err)
	assert.IsType(t, Terminology{}, enc)

	_, err = ForProtocol(terminal.ImageNone)
	assert.ErrorIs(t, err, ErrNoProtocol)
}

func TestPreparePassesThroughFittingPNG(t *testing.T) {
	data := encodePNG(t, 16, 16)
	p, err := prepare(resources.MimeData{MimeType: "image/png", Data: data}, nil, 80)
	require.NoError(t, err)
	assert.Equal(t, data, p.png)
	assert.Equal(t, 16, p.width)
	assert.Equal(t, 16, p.height)
	assert.False(t, p.fromSVG)
}

func TestPrepareDownscalesWidePNG(t *testing.T) {
	data := encodePNG(t, 400, 100)
	p, err := prepare(resources.MimeData{MimeType: "image/png", Data: data}, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, 10*terminal.CellPixelWidth, p.width)
	assert.Less(t, p.height, 100)

	img, err := png.Decode(bytes.NewReader(p.png))
	require.NoError(t, err)
	assert.Equal(t, p.width, img.Bounds().Dx())
}

func TestPrepareRejectsGarbage(t *testing.T) {
	_, err := prepare(resources.MimeData{Data: []byte("not an image")}, nil, 80)
	assert.Error(t, err)
}

func TestPrepareSVGByMimeType(t *testing.T) {
	p, err := prepare(resources.MimeData{MimeType: "image/svg+xml", Data: []byte(sampleSVG)}, nil, 80)
	require.NoError(t, err)
	assert.True(t, p.fromSVG)
	assert.Equal(t, 40, p.width)
	assert.Equal(t, 20, p.height)
}

func TestPrepareSVGByExtension(t *testing.T) {
	u := pngURL(t, "diagram.svg")
	p, err := prepare(resources.MimeData{Data: []byte(sampleSVG)}, u, 80)
	require.NoError(t, err)
	assert.True(t, p.fromSVG)
}

func TestPixelsNameReplacesSVGExtension(t *testing.T) {
	p := pixels{fromSVG: true}
	assert.Equal(t, "diagram.png", p.name(pngURL(t, "diagram.svg")))

	p = pixels{}
	assert.Equal(t, "photo.jpg", p.name(pngURL(t, "photo.jpg")))
	assert.Equal(t, "", p.name(nil))
}

func TestITerm2Encode(t *testing.T) {
	data := encodePNG(t, 8, 8)
	var buf bytes.Buffer
	err := ITerm2{}.Encode(&buf, resources.MimeData{MimeType: "image/png", Data: data}, pngURL(t, "pixel.png"), 80)
	require.NoError(t, err)

	out := buf.String()
	encodedName := base64.StdEncoding.EncodeToString([]byte("pixel.png"))
	assert.True(t, strings.HasPrefix(out, "\x1b]1337;File=name="+encodedName+";"), "got %q", out)
	assert.Contains(t, out, ";inline=1:")
	assert.True(t, strings.HasSuffix(out, "\x1b\\\n"))

	payload := out[strings.Index(out, ":")+1 : len(out)-3]
	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestITerm2EncodeSVGReportsPNGName(t *testing.T) {
	var buf bytes.Buffer
	err := ITerm2{}.Encode(&buf, resources.MimeData{Data: []byte(sampleSVG)}, pngURL(t, "diagram.svg"), 80)
	require.NoError(t, err)

	encodedName := base64.StdEncoding.EncodeToString([]byte("diagram.png"))
	assert.Contains(t, buf.String(), "File=name="+encodedName+";")
}

func TestKittyEncodeSingleChunk(t *testing.T) {
	data := encodePNG(t, 8, 8)
	var buf bytes.Buffer
	err := Kitty{}.Encode(&buf, resources.MimeData{MimeType: "image/png", Data: data}, nil, 80)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b_Ga=T,t=d,f=100,m=0;"), "got %q", out[:40])
	assert.True(t, strings.HasSuffix(out, "\x1b\\\n"))

	payload := out[strings.Index(out, ";")+1 : len(out)-3]
	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestKittyEncodeChunking(t *testing.T) {
	data := encodePNG(t, 128, 128)
	expected := base64.StdEncoding.EncodeToString(data)
	require.Greater(t, len(expected), kittyChunkSize, "fixture must need chunking")

	var buf bytes.Buffer
	err := Kitty{}.Encode(&buf, resources.MimeData{MimeType: "image/png", Data: data}, nil, 200)
	require.NoError(t, err)

	out := strings.TrimSuffix(buf.String(), "\n")
	chunks := strings.Split(out, "\x1b\\")
	require.Equal(t, "", chunks[len(chunks)-1])
	chunks = chunks[:len(chunks)-1]
	require.Greater(t, len(chunks), 1)

	var payload strings.Builder
	for i, chunk := range chunks {
		require.True(t, strings.HasPrefix(chunk, "\x1b_G"), "chunk %d", i)
		sep := strings.Index(chunk, ";")
		header := chunk[3:sep]
		body := chunk[sep+1:]

		if i == 0 {
			assert.Equal(t, "a=T,t=d,f=100,m=1", header)
		} else if i == len(chunks)-1 {
			assert.Equal(t, "m=0", header)
		} else {
			assert.Equal(t, "m=1", header)
		}
		if i < len(chunks)-1 {
			assert.Len(t, body, kittyChunkSize, "chunk %d", i)
		}
		payload.WriteString(body)
	}
	assert.Equal(t, expected, payload.String())
}

func TestTerminologyEncode(t *testing.T) {
	data := encodePNG(t, 100, 50)
	u := &url.URL{Scheme: "file", Path: "/tmp/pic.png"}
	var buf bytes.Buffer
	err := Terminology{}.Encode(&buf, resources.MimeData{MimeType: "image/png", Data: data}, u, 20)
	require.NoError(t, err)

	out := buf.String()
	// 100x50 pixels into 20 columns: 50*20/(100*2) = 5 rows.
	assert.True(t, strings.HasPrefix(out, "\x1b}ic#20;5;/tmp/pic.png\x00"), "got %q", out[:30])
	assert.Equal(t, 5, strings.Count(out, "\x1b}ib\x00"))
	assert.Equal(t, 5, strings.Count(out, "\x1b}ie\x00\n"))
	assert.Contains(t, out, strings.Repeat("#", 20))
}

func TestTerminologyEncodeUsesFullURLForRemote(t *testing.T) {
	data := encodePNG(t, 10, 10)
	u := pngURL(t, "pic.png")
	var buf bytes.Buffer
	err := Terminology{}.Encode(&buf, resources.MimeData{MimeType: "image/png", Data: data}, u, 20)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "https://example.com/images/pic.png\x00")
}

func TestRasterizeSVG(t *testing.T) {
	data, w, h, err := RasterizeSVG([]byte(sampleSVG), 640)
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestRasterizeSVGCapsWidth(t *testing.T) {
	_, w, h, err := RasterizeSVG([]byte(sampleSVG), 20)
	require.NoError(t, err)
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)
}

func TestRasterizeSVGRejectsGarbage(t *testing.T) {
	_, _, _, err := RasterizeSVG([]byte("<not-svg"), 100)
	assert.Error(t, err)
}
