package render

import (
	"github.com/logrusorgru/aurora"
)

// Color is a 4-bit ANSI foreground colour. Only the eight standard
// colours are ever emitted; higher colour depths are deliberately
// unused so output stays legible on any themed terminal.
type Color int

const (
	ColorDefault Color = iota
	ColorBlack
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
)

// StyleSet is the value-typed set of active text attributes. Two
// StyleSets compare with ==; the output writer diffs consecutive sets
// to emit minimal SGR sequences.
type StyleSet struct {
	Bold   bool
	Italic bool
	Strike bool
	// Code marks inline code; it renders as the code colour unless an
	// explicit colour is set.
	Code  bool
	Color Color
	// Link is the destination of the active hyperlink, empty when no
	// link is open.
	Link string
}

// plain is the zero StyleSet.
var plain = StyleSet{}

func (s StyleSet) withColor(c Color) StyleSet {
	s.Color = c
	return s
}

// sgrEqual reports whether two sets produce identical SGR output,
// ignoring the hyperlink which is not an SGR concern.
func (s StyleSet) sgrEqual(o StyleSet) bool {
	s.Link = ""
	o.Link = ""
	return s == o
}

func (s StyleSet) auroraColor() aurora.Color {
	var c aurora.Color
	if s.Bold {
		c |= aurora.BoldFm
	}
	if s.Italic {
		c |= aurora.ItalicFm
	}
	if s.Strike {
		c |= aurora.StrikeThroughFm
	}
	color := s.Color
	if color == ColorDefault && s.Code {
		color = ColorYellow
	}
	switch color {
	case ColorBlack:
		c |= aurora.BlackFg
	case ColorRed:
		c |= aurora.RedFg
	case ColorGreen:
		c |= aurora.GreenFg
	case ColorYellow:
		c |= aurora.YellowFg
	case ColorBlue:
		c |= aurora.BlueFg
	case ColorMagenta:
		c |= aurora.MagentaFg
	case ColorCyan:
		c |= aurora.CyanFg
	case ColorWhite:
		c |= aurora.WhiteFg
	}
	return c
}

// sgr renders the escape sequence activating the set, or the empty
// string for the plain set.
func (s StyleSet) sgr() string {
	nos := s.auroraColor().Nos(false)
	if nos == "" {
		return ""
	}
	return "\x1b[" + nos + "m"
}

// Theme assigns one palette colour per semantic role.
type Theme struct {
	Heading   Color
	Code      Color
	Link      Color
	ImageLink Color
	Rule      Color
	HTML      Color
	// Border is used for the lines framing code blocks.
	Border Color
}

// DefaultTheme returns the built-in colour assignment.
func DefaultTheme() Theme {
	return Theme{
		Heading:   ColorBlue,
		Code:      ColorYellow,
		Link:      ColorBlue,
		ImageLink: ColorMagenta,
		Rule:      ColorGreen,
		HTML:      ColorGreen,
		Border:    ColorGreen,
	}
}
