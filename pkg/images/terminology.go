package images

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/mdtty/mdtty/pkg/resources"
)

// Terminology implements the terminology image protocol. The
// terminal is told to set a texture from the resource location and
// then replace a drawn rectangle of placeholder characters with it.
type Terminology struct{}

func (Terminology) Encode(w io.Writer, data resources.MimeData, src *url.URL, columns int) error {
	p, err := prepare(data, src, columns)
	if err != nil {
		return err
	}
	if columns <= 0 {
		columns = 80
	}
	// Terminal cells are roughly twice as tall as wide.
	rows := p.height * columns / (p.width * 2)
	if rows < 1 {
		rows = 1
	}

	location := ""
	if src != nil {
		if src.Scheme == "file" {
			location = src.Path
		} else {
			location = src.String()
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\x1b}ic#%d;%d;%s\x00", columns, rows, location)
	for i := 0; i < rows; i++ {
		b.WriteString("\x1b}ib\x00")
		b.WriteString(strings.Repeat("#", columns))
		b.WriteString("\x1b}ie\x00\n")
	}
	_, err = io.WriteString(w, b.String())
	return err
}
