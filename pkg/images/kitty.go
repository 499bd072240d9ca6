package images

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/url"

	"github.com/mdtty/mdtty/pkg/resources"
)

// kittyChunkSize is the maximum payload per kitty escape sequence.
const kittyChunkSize = 4096

// Kitty implements the kitty graphics protocol: APC _G sequences with
// the base64 payload split into 4096-byte chunks, m=1 on every chunk
// but the last.
//
// See https://sw.kovidgoyal.net/kitty/graphics-protocol.html.
type Kitty struct{}

func (Kitty) Encode(w io.Writer, data resources.MimeData, src *url.URL, columns int) error {
	p, err := prepare(data, src, columns)
	if err != nil {
		return err
	}

	payload := []byte(base64.StdEncoding.EncodeToString(p.png))
	first := true
	for len(payload) > 0 {
		chunk := payload
		more := 0
		if len(payload) > kittyChunkSize {
			chunk = payload[:kittyChunkSize]
			more = 1
		}
		payload = payload[len(chunk):]

		var header string
		if first {
			// f=100 transfers PNG data directly, a=T displays it.
			header = fmt.Sprintf("a=T,t=d,f=100,m=%d", more)
			first = false
		} else {
			header = fmt.Sprintf("m=%d", more)
		}
		if _, err := fmt.Fprintf(w, "\x1b_G%s;", header); err != nil {
			return err
		}
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\x1b\\"); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "\n")
	return err
}
