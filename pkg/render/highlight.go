package render

import (
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/lexers"
)

// Highlight tokenises source with the lexer registered for language
// and returns one slice of styled spans per source line. An unknown
// language, or any tokenisation failure, yields unstyled lines in the
// code colour, so a code block always renders.
func Highlight(source, language string, theme Theme) []Line {
	base := StyleSet{Color: theme.Code}
	lexer := lexers.Get(language)
	if lexer == nil {
		return plainLines(source, base)
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, source)
	if err != nil {
		return plainLines(source, base)
	}

	var lines []Line
	var current Line
	for tok := iterator(); tok != chroma.EOF; tok = iterator() {
		style := tokenStyle(tok.Type, theme)
		value := tok.Value
		for {
			idx := strings.IndexByte(value, '\n')
			if idx == -1 {
				break
			}
			if idx > 0 {
				current = append(current, Span{Text: value[:idx], Style: style})
			}
			lines = append(lines, current)
			current = nil
			value = value[idx+1:]
		}
		if value != "" {
			current = append(current, Span{Text: value, Style: style})
		}
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

func plainLines(source string, style StyleSet) []Line {
	stripped := strings.TrimSuffix(source, "\n")
	var lines []Line
	for _, l := range strings.Split(stripped, "\n") {
		if l == "" {
			lines = append(lines, nil)
			continue
		}
		lines = append(lines, Line{Span{Text: l, Style: style}})
	}
	return lines
}

// tokenStyle maps chroma token categories onto the 4-bit palette.
// Anything unrecognised renders in the default colour rather than
// guessing.
func tokenStyle(t chroma.TokenType, theme Theme) StyleSet {
	switch {
	case t.InCategory(chroma.Keyword):
		return StyleSet{Color: ColorBlue}
	case t.InSubCategory(chroma.LiteralString):
		return StyleSet{Color: ColorGreen}
	case t.InSubCategory(chroma.LiteralNumber):
		return StyleSet{Color: ColorMagenta}
	case t.InCategory(chroma.Comment):
		return StyleSet{Color: ColorCyan, Italic: true}
	case t.InCategory(chroma.Name):
		return StyleSet{}
	case t.InCategory(chroma.Operator), t.InCategory(chroma.Punctuation):
		return StyleSet{}
	default:
		return StyleSet{Color: theme.Code}
	}
}
