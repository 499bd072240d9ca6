package render

import (
	"bufio"
	"io"
	"net/url"

	"github.com/mdtty/mdtty/pkg/terminal"
)

// styledWriter owns the single buffered output sink. All components
// write through it, never to the underlying descriptor, which keeps
// syscall count low and guarantees output ordering.
//
// The writer tracks the active StyleSet and open hyperlink and emits
// only the escape sequences needed to move from one set to the next.
// Styles never survive a newline: every line re-asserts its own
// styling, so wrapped styled text stays correct.
type styledWriter struct {
	bw       *bufio.Writer
	caps     terminal.Capabilities
	hostname string

	cur StyleSet
}

func newStyledWriter(w io.Writer, caps terminal.Capabilities, hostname string) *styledWriter {
	return &styledWriter{bw: bufio.NewWriter(w), caps: caps, hostname: hostname}
}

// WriteStyled writes text under the given style, emitting style and
// hyperlink transitions as needed.
func (sw *styledWriter) WriteStyled(style StyleSet, text string) error {
	if !sw.caps.Styling {
		style = StyleSet{Link: style.Link}
	}
	if !sw.caps.Hyperlinks {
		style.Link = ""
	}

	if style.Link != sw.cur.Link {
		if sw.cur.Link != "" {
			if err := terminal.ClearLink(sw.bw); err != nil {
				return err
			}
		}
		if style.Link != "" {
			if err := sw.openLink(style.Link); err != nil {
				return err
			}
		}
	}
	if !style.sgrEqual(sw.cur) {
		if !sw.cur.sgrEqual(plain) {
			if _, err := sw.bw.WriteString("\x1b[0m"); err != nil {
				return err
			}
		}
		if seq := style.sgr(); seq != "" {
			if _, err := sw.bw.WriteString(seq); err != nil {
				return err
			}
		}
	}
	sw.cur = style
	_, err := sw.bw.WriteString(text)
	return err
}

func (sw *styledWriter) openLink(destination string) error {
	u, err := url.Parse(destination)
	if err != nil {
		// Not a parseable URL; skip the envelope and render the text.
		return nil
	}
	return terminal.SetLinkURL(sw.bw, u, sw.hostname)
}

// Newline resets styling and the hyperlink before the line break so
// no attribute bleeds across lines.
func (sw *styledWriter) Newline() error {
	if err := sw.WriteStyled(plain, ""); err != nil {
		return err
	}
	return sw.bw.WriteByte('\n')
}

// WriteRaw bypasses styling entirely, for escape sequences produced
// elsewhere (inline images, marks).
func (sw *styledWriter) WriteRaw(b []byte) error {
	_, err := sw.bw.Write(b)
	return err
}

// Raw exposes the buffered writer for protocol emitters.
func (sw *styledWriter) Raw() *bufio.Writer { return sw.bw }

func (sw *styledWriter) Flush() error {
	if err := sw.WriteStyled(plain, ""); err != nil {
		return err
	}
	return sw.bw.Flush()
}
