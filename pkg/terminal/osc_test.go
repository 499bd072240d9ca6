package terminal

import (
	"bytes"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOSC(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOSC(&buf, "1337;SetMark"))
	assert.Equal(t, "\x1b]1337;SetMark\x1b\\", buf.String())
}

func TestSetMark(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetMark(&buf))
	assert.Equal(t, "\x1b]1337;SetMark\x1b\\", buf.String())
}

func TestSetLinkURLRemote(t *testing.T) {
	var buf bytes.Buffer
	u, err := url.Parse("https://example.com/page")
	require.NoError(t, err)

	require.NoError(t, SetLinkURL(&buf, u, "myhost"))
	assert.Equal(t, "\x1b]8;;https://example.com/page\x1b\\", buf.String())
}

func TestSetLinkURLPatchesLocalFileHost(t *testing.T) {
	for _, host := range []string{"", "localhost", "127.0.0.1"} {
		u := &url.URL{Scheme: "file", Host: host, Path: "/tmp/doc.md"}
		var buf bytes.Buffer
		require.NoError(t, SetLinkURL(&buf, u, "myhost"))
		assert.Equal(t, "\x1b]8;;file://myhost/tmp/doc.md\x1b\\", buf.String(), "host %q", host)
	}
}

func TestSetLinkURLKeepsForeignFileHost(t *testing.T) {
	u := &url.URL{Scheme: "file", Host: "otherbox", Path: "/tmp/doc.md"}
	var buf bytes.Buffer
	require.NoError(t, SetLinkURL(&buf, u, "myhost"))
	assert.Equal(t, "\x1b]8;;file://otherbox/tmp/doc.md\x1b\\", buf.String())
}

func TestClearLink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ClearLink(&buf))
	assert.Equal(t, "\x1b]8;;\x1b\\", buf.String())
}
