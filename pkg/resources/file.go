package resources

import (
	"errors"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileHandler reads file: URLs from the local filesystem.
type FileHandler struct {
	// Limit is the maximum number of bytes to read. Zero means
	// MaxResourceSize.
	Limit int64
}

// guessMimeType recognises the formats downstream code cares about:
// SVG needs explicit rasterisation and PNG may be passed through to
// the terminal untouched. Everything else stays unhinted.
func guessMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return ""
	}
}

func (h FileHandler) limit() int64 {
	if h.Limit > 0 {
		return h.Limit
	}
	return MaxResourceSize
}

func (h FileHandler) Read(u *url.URL) (MimeData, error) {
	if err := filterSchemes(u, "file"); err != nil {
		return MimeData{}, err
	}
	path := u.Path
	f, err := os.Open(path)
	if err != nil {
		kind := KindIO
		if errors.Is(err, fs.ErrNotExist) {
			kind = KindNotFound
		}
		return MimeData{}, &Error{Kind: kind, URL: u.String(), Err: err}
	}
	defer f.Close()

	// Read one byte past the limit to tell a legitimate EOF from a
	// truncated oversized file.
	buf, err := io.ReadAll(io.LimitReader(f, h.limit()+1))
	if err != nil {
		return MimeData{}, &Error{Kind: KindIO, URL: u.String(), Err: err}
	}
	if int64(len(buf)) > h.limit() {
		return MimeData{}, &Error{Kind: KindTooLarge, URL: u.String()}
	}
	return MimeData{MimeType: guessMimeType(path), Data: buf}, nil
}
