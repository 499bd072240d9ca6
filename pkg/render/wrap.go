package render

import (
	"strings"
	"unicode"

	"github.com/muesli/reflow/ansi"
)

// Span is a run of text with a single style. Break marks a forced
// line break instead of content.
type Span struct {
	Text  string
	Style StyleSet
	Break bool
}

// Line is one output line of styled spans.
type Line []Span

// width of a line in character columns.
func lineWidth(l Line) int {
	w := 0
	for _, s := range l {
		w += ansi.PrintableRuneWidth(s.Text)
	}
	return w
}

// word is a single unbreakable token, possibly spanning style
// boundaries (e.g. a bold fragment directly followed by punctuation).
type word []Span

func (w word) width() int {
	n := 0
	for _, s := range w {
		n += ansi.PrintableRuneWidth(s.Text)
	}
	return n
}

type token struct {
	word  word
	brk   bool // forced break
	space bool // at least one whitespace rune
	// style of the span the whitespace came from, so a collapsed
	// space never adopts the style of the word after it.
	style StyleSet
}

// tokenize splits spans into words and whitespace runs. Whitespace
// runs collapse to a single space; style transitions inside a word
// are preserved in order.
func tokenize(spans []Span) []token {
	var tokens []token
	var current word

	flushWord := func() {
		if len(current) > 0 {
			tokens = append(tokens, token{word: current})
			current = nil
		}
	}

	for _, span := range spans {
		if span.Break {
			flushWord()
			tokens = append(tokens, token{brk: true})
			continue
		}
		rest := span.Text
		for rest != "" {
			cut := strings.IndexFunc(rest, unicode.IsSpace)
			if cut == -1 {
				current = append(current, Span{Text: rest, Style: span.Style})
				break
			}
			if cut > 0 {
				current = append(current, Span{Text: rest[:cut], Style: span.Style})
			}
			flushWord()
			if len(tokens) == 0 || !tokens[len(tokens)-1].space {
				tokens = append(tokens, token{space: true, style: span.Style})
			}
			rest = strings.TrimLeftFunc(rest[cut:], unicode.IsSpace)
		}
	}
	flushWord()
	return tokens
}

// Fill greedily wraps spans into lines no wider than width columns.
//
// cursor is the number of columns already occupied on the first line.
// Breaks happen only at whitespace; a single word wider than the
// budget is emitted unbroken. The returned cursor is the width of the
// final line. Filling output that already fits at the same width is a
// no-op.
func Fill(spans []Span, width, cursor int) ([]Line, int) {
	if width <= 0 {
		width = 80
	}
	tokens := tokenize(spans)

	var lines []Line
	var line Line
	col := cursor
	pendingSpace := false
	var spaceStyle StyleSet

	newline := func() {
		lines = append(lines, line)
		line = nil
		col = 0
		pendingSpace = false
	}

	for _, t := range tokens {
		switch {
		case t.brk:
			newline()
		case t.space:
			if col > 0 {
				pendingSpace = true
				spaceStyle = t.style
			}
		default:
			w := t.word.width()
			need := w
			if pendingSpace {
				need++
			}
			if col > 0 && col+need > width {
				newline()
			}
			if pendingSpace && col > 0 {
				line = append(line, Span{Text: " ", Style: spaceStyle})
				col++
			}
			pendingSpace = false
			line = append(line, t.word...)
			col += w
		}
	}
	// A trailing forced break leaves line empty and ends the output
	// with an empty line.
	lines = append(lines, line)
	return lines, col
}
