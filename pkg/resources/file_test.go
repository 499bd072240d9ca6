package resources

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileURL(t *testing.T, path string) *url.URL {
	t.Helper()
	return &url.URL{Scheme: "file", Path: path}
}

func TestFileHandlerReadsPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pixel.png")
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0644))

	data, err := FileHandler{}.Read(fileURL(t, path))
	require.NoError(t, err)
	assert.Equal(t, "image/png", data.MimeType)
	assert.Equal(t, []byte("not really a png"), data.Data)
}

func TestFileHandlerMimeTypes(t *testing.T) {
	assert.Equal(t, "image/svg+xml", guessMimeType("/a/b.svg"))
	assert.Equal(t, "image/png", guessMimeType("/a/b.PNG"))
	assert.Equal(t, "image/jpeg", guessMimeType("/a/b.jpeg"))
	assert.Equal(t, "image/jpeg", guessMimeType("/a/b.jpg"))
	assert.Equal(t, "image/gif", guessMimeType("/a/b.gif"))
	assert.Equal(t, "", guessMimeType("/a/b.webp"))
	assert.Equal(t, "", guessMimeType("/a/b"))
}

func TestFileHandlerNotFound(t *testing.T) {
	_, err := FileHandler{}.Read(fileURL(t, filepath.Join(t.TempDir(), "missing.png")))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestFileHandlerTooLarge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.png")
	require.NoError(t, os.WriteFile(path, make([]byte, 32), 0644))

	_, err := FileHandler{Limit: 16}.Read(fileURL(t, path))
	assert.Equal(t, KindTooLarge, KindOf(err))
}

func TestFileHandlerExactlyAtLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fits.png")
	require.NoError(t, os.WriteFile(path, make([]byte, 16), 0644))

	data, err := FileHandler{Limit: 16}.Read(fileURL(t, path))
	require.NoError(t, err)
	assert.Len(t, data.Data, 16)
}

func TestFileHandlerRejectsForeignScheme(t *testing.T) {
	u, err := url.Parse("https://example.com/image.png")
	require.NoError(t, err)

	_, err = FileHandler{}.Read(u)
	assert.Equal(t, KindUnsupported, KindOf(err))
}
