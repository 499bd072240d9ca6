package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighlightUnknownLanguageFallsBack(t *testing.T) {
	lines := Highlight("plain text\nmore\n", "no-such-language", DefaultTheme())

	require.Len(t, lines, 2)
	assert.Equal(t, "plain text", lines[0][0].Text)
	assert.Equal(t, ColorYellow, lines[0][0].Style.Color)
}

func TestHighlightGoKeyword(t *testing.T) {
	lines := Highlight("func main() {}\n", "go", DefaultTheme())

	require.Len(t, lines, 1)
	assert.Equal(t, "func", lines[0][0].Text)
	assert.Equal(t, ColorBlue, lines[0][0].Style.Color)
}

func TestHighlightStringLiteral(t *testing.T) {
	lines := Highlight(`x = "hi"`+"\n", "python", DefaultTheme())

	require.Len(t, lines, 1)
	var found bool
	for _, span := range lines[0] {
		if span.Text == `"hi"` && span.Style.Color == ColorGreen {
			found = true
		}
	}
	assert.True(t, found, "string literal should be green: %v", lines[0])
}

func TestHighlightComment(t *testing.T) {
	lines := Highlight("// note\n", "go", DefaultTheme())

	require.Len(t, lines, 1)
	span := lines[0][0]
	assert.Equal(t, ColorCyan, span.Style.Color)
	assert.True(t, span.Style.Italic)
}

func TestHighlightPreservesLineStructure(t *testing.T) {
	lines := Highlight("a := 1\n\nb := 2\n", "go", DefaultTheme())
	require.Len(t, lines, 3)
	assert.Empty(t, lines[1])
}

func TestPlainLines(t *testing.T) {
	style := StyleSet{Color: ColorYellow}
	lines := plainLines("one\n\ntwo\n", style)

	require.Len(t, lines, 3)
	assert.Equal(t, "one", lines[0][0].Text)
	assert.Nil(t, lines[1])
	assert.Equal(t, "two", lines[2][0].Text)
	assert.Equal(t, style, lines[2][0].Style)
}

func TestPlainLinesNoTrailingNewline(t *testing.T) {
	lines := plainLines("single", StyleSet{})
	require.Len(t, lines, 1)
	assert.Equal(t, "single", lines[0][0].Text)
}
