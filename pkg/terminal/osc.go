package terminal

import (
	"io"
	"net"
	"net/url"
)

// WriteOSC writes an OSC command terminated with ST. The legacy BEL
// terminator is deliberately not used.
func WriteOSC(w io.Writer, command string) error {
	if _, err := w.Write([]byte{0x1b, ']'}); err != nil {
		return err
	}
	if _, err := io.WriteString(w, command); err != nil {
		return err
	}
	_, err := w.Write([]byte{0x1b, '\\'})
	return err
}

// SetMark writes an iTerm2 jump mark for navigation between headings.
func SetMark(w io.Writer) error {
	return WriteOSC(w, "1337;SetMark")
}

// urlNeedsExplicitHost reports whether a file:// URL must be given
// this machine's hostname. OSC 8 requires an explicit host on file
// URLs so links printed over SSH resolve on the right machine.
func urlNeedsExplicitHost(u *url.URL) bool {
	if u.Scheme != "file" {
		return false
	}
	host := u.Hostname()
	if host == "" || host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// SetLinkURL opens an OSC 8 hyperlink to destination for subsequent
// text. Local file URLs get hostname patched in when they point at
// this machine.
func SetLinkURL(w io.Writer, destination *url.URL, hostname string) error {
	if urlNeedsExplicitHost(destination) {
		patched := *destination
		patched.Host = hostname
		destination = &patched
	}
	return WriteOSC(w, "8;;"+destination.String())
}

// ClearLink terminates the current hyperlink, if any.
func ClearLink(w io.Writer) error {
	return WriteOSC(w, "8;;")
}
