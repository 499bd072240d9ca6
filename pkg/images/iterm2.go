package images

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/url"

	"github.com/mdtty/mdtty/pkg/resources"
	"github.com/mdtty/mdtty/pkg/terminal"
)

// ITerm2 implements the iTerm2 inline image protocol: a single OSC
// 1337 File command carrying the base64 encoded payload.
//
// See https://iterm2.com/documentation-images.html.
type ITerm2 struct{}

func (ITerm2) Encode(w io.Writer, data resources.MimeData, src *url.URL, columns int) error {
	p, err := prepare(data, src, columns)
	if err != nil {
		return err
	}
	payload := base64.StdEncoding.EncodeToString(p.png)
	var command string
	if name := p.name(src); name != "" {
		encodedName := base64.StdEncoding.EncodeToString([]byte(name))
		command = fmt.Sprintf("1337;File=name=%s;size=%d;inline=1:%s", encodedName, len(p.png), payload)
	} else {
		command = fmt.Sprintf("1337;File=size=%d;inline=1:%s", len(p.png), payload)
	}
	if err := terminal.WriteOSC(w, command); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
