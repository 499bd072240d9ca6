package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spanText(lines []Line) []string {
	var out []string
	for _, line := range lines {
		var b strings.Builder
		for _, s := range line {
			b.WriteString(s.Text)
		}
		out = append(out, b.String())
	}
	return out
}

func TestFillFitsOnOneLine(t *testing.T) {
	lines, col := Fill([]Span{{Text: "hello world"}}, 40, 0)
	assert.Equal(t, []string{"hello world"}, spanText(lines))
	assert.Equal(t, 11, col)
}

func TestFillWrapsAtWhitespace(t *testing.T) {
	lines, _ := Fill([]Span{{Text: "aaa bbb ccc ddd"}}, 7, 0)
	assert.Equal(t, []string{"aaa bbb", "ccc ddd"}, spanText(lines))
}

func TestFillNeverSplitsWords(t *testing.T) {
	long := strings.Repeat("x", 30)
	lines, _ := Fill([]Span{{Text: "a " + long + " b"}}, 10, 0)
	assert.Equal(t, []string{"a", long, "b"}, spanText(lines))
}

func TestFillIdempotentAtFixedBudget(t *testing.T) {
	spans := []Span{{Text: "the quick brown fox jumps over the lazy dog"}}
	first, _ := Fill(spans, 16, 0)

	for _, line := range first {
		again, _ := Fill(line, 16, 0)
		assert.Equal(t, spanText([]Line{line}), spanText(again))
	}
}

func TestFillHonoursCursor(t *testing.T) {
	lines, _ := Fill([]Span{{Text: "word"}}, 10, 8)
	assert.Equal(t, []string{"", "word"}, spanText(lines))
}

func TestFillCollapsesWhitespaceRuns(t *testing.T) {
	lines, _ := Fill([]Span{{Text: "a   \t b"}}, 40, 0)
	assert.Equal(t, []string{"a b"}, spanText(lines))
}

func TestFillDropsLeadingWhitespace(t *testing.T) {
	lines, _ := Fill([]Span{{Text: "  a"}}, 40, 0)
	assert.Equal(t, []string{"a"}, spanText(lines))
}

func TestFillHardBreak(t *testing.T) {
	lines, _ := Fill([]Span{{Text: "one"}, {Break: true}, {Text: "two"}}, 40, 0)
	assert.Equal(t, []string{"one", "two"}, spanText(lines))
}

func TestFillTrailingHardBreak(t *testing.T) {
	lines, _ := Fill([]Span{{Text: "one"}, {Break: true}}, 40, 0)
	assert.Equal(t, []string{"one", ""}, spanText(lines))
}

func TestFillPreservesStyleBoundariesInsideWords(t *testing.T) {
	bold := StyleSet{Bold: true}
	spans := []Span{{Text: "re", Style: bold}, {Text: "joined"}}
	lines, _ := Fill(spans, 40, 0)

	require.Len(t, lines, 1)
	require.Len(t, lines[0], 2)
	assert.Equal(t, "re", lines[0][0].Text)
	assert.Equal(t, bold, lines[0][0].Style)
	assert.Equal(t, "joined", lines[0][1].Text)
}

func TestFillSpaceKeepsOriginStyle(t *testing.T) {
	// The collapsed space between two words carries the style of the
	// span the whitespace came from, not the style of the next word.
	link := StyleSet{Link: "https://example.com"}
	spans := []Span{{Text: "a "}, {Text: "linked", Style: link}}
	lines, _ := Fill(spans, 40, 0)

	require.Len(t, lines, 1)
	require.Len(t, lines[0], 3)
	assert.Equal(t, " ", lines[0][1].Text)
	assert.Equal(t, plain, lines[0][1].Style)
}

func TestFillWideRunes(t *testing.T) {
	// CJK runes are two columns wide.
	lines, _ := Fill([]Span{{Text: "日本語 テスト"}}, 6, 0)
	assert.Equal(t, []string{"日本語", "テスト"}, spanText(lines))
}

func TestLineWidthSkipsEscapes(t *testing.T) {
	line := Line{{Text: "abc"}, {Text: "de"}}
	assert.Equal(t, 5, lineWidth(line))
}
