// Package resources reads the external resources a document refers
// to, under a strict size cap and network policy. Every failure here
// is recoverable by the renderer, which substitutes a textual
// fallback and keeps going.
package resources

import (
	"errors"
	"fmt"
	"net/url"
)

// MaxResourceSize is the hard cap on any single fetched resource.
const MaxResourceSize = 100 * 1024 * 1024 // 100 MiB

// ErrorKind classifies resource failures. The renderer treats all of
// them the same way (fallback rendering); the kind exists for
// diagnostics and tests.
type ErrorKind int

const (
	KindIO ErrorKind = iota
	KindNotFound
	KindTooLarge
	KindDenied
	KindUnsupported
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindTooLarge:
		return "too large"
	case KindDenied:
		return "denied by policy"
	case KindUnsupported:
		return "unsupported"
	case KindTimeout:
		return "timed out"
	default:
		return "io error"
	}
}

// Error is a classified resource failure.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resource %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("resource %s: %s", e.URL, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the error kind, defaulting to KindIO for plain
// errors.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindIO
}

// MimeData is fetched resource content with an optional mime type
// hint. The buffer is owned by the caller and discarded after use;
// resources are never cached across calls.
type MimeData struct {
	// MimeType is the mime type if known, empty otherwise.
	MimeType string
	// Data is the raw content.
	Data []byte
}

// Handler reads a resource from a URL.
//
// A handler which does not support the URL's scheme returns an Error
// of KindUnsupported so a dispatching handler can try the next one.
type Handler interface {
	Read(u *url.URL) (MimeData, error)
}

// filterSchemes returns an unsupported-scheme error unless u matches
// one of the given schemes.
func filterSchemes(u *url.URL, schemes ...string) error {
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return &Error{
		Kind: KindUnsupported,
		URL:  u.String(),
		Err:  fmt.Errorf("unsupported scheme %q, expected one of %v", u.Scheme, schemes),
	}
}

// Dispatch tries each handler in order, moving on while handlers
// report the scheme as unsupported.
type Dispatch []Handler

func (d Dispatch) Read(u *url.URL) (MimeData, error) {
	for _, h := range d {
		data, err := h.Read(u)
		if err != nil && KindOf(err) == KindUnsupported {
			continue
		}
		return data, err
	}
	return MimeData{}, &Error{Kind: KindUnsupported, URL: u.String()}
}

// Denied is a handler for schemes excluded by policy. It fails every
// read with KindDenied, which the renderer turns into a plain link.
type Denied struct{}

func (Denied) Read(u *url.URL) (MimeData, error) {
	return MimeData{}, &Error{Kind: KindDenied, URL: u.String()}
}
