// Package terminal models what the active terminal emulator can do.
//
// Capabilities are detected once from the environment at startup and
// never change afterwards; every later rendering decision reads the
// same immutable Capabilities value.
package terminal

import (
	"os"

	"github.com/muesli/termenv"
)

// Program identifies a known terminal emulator.
type Program int

const (
	// Dumb is a terminal without any formatting support.
	Dumb Program = iota
	// Ansi is a plain terminal with standard ANSI styling only.
	Ansi
	// ITerm2 supports ANSI styling, OSC 8 links, jump marks and the
	// iTerm2 inline image protocol.
	ITerm2
	// Kitty supports ANSI styling, OSC 8 links and the kitty graphics
	// protocol.
	Kitty
	// WezTerm supports ANSI styling, OSC 8 links and renders iTerm2
	// inline images.
	WezTerm
	// Terminology supports ANSI styling, OSC 8 links and its own
	// inline image escape sequences.
	Terminology
)

func (p Program) String() string {
	switch p {
	case Dumb:
		return "dumb"
	case Ansi:
		return "ansi"
	case ITerm2:
		return "iTerm2"
	case Kitty:
		return "kitty"
	case WezTerm:
		return "WezTerm"
	case Terminology:
		return "Terminology"
	default:
		return "unknown"
	}
}

// ColorTier is the colour depth of the terminal. Only Color16 is
// ever emitted, the tier is detected for diagnostics.
type ColorTier int

const (
	ColorNone ColorTier = iota
	Color16
	Color256
	ColorTrue
)

// ImageProtocol selects the inline image wire protocol.
type ImageProtocol int

const (
	ImageNone ImageProtocol = iota
	ImageITerm2
	ImageKitty
	ImageTerminology
)

func (p ImageProtocol) String() string {
	switch p {
	case ImageITerm2:
		return "iterm2"
	case ImageKitty:
		return "kitty"
	case ImageTerminology:
		return "terminology"
	default:
		return "none"
	}
}

// Capabilities describes the feature set of the active terminal.
// Values are plain data, never mutated after detection.
type Capabilities struct {
	// Styling reports whether ANSI SGR styling may be emitted.
	Styling bool
	// Color is the detected colour depth.
	Color ColorTier
	// Hyperlinks reports whether OSC 8 hyperlinks are understood.
	Hyperlinks bool
	// Image is the inline image protocol to use, if any.
	Image ImageProtocol
	// Marks reports whether navigation marks are understood.
	Marks bool
}

// Environ is the subset of the process environment that detection
// inspects. Using an explicit snapshot keeps detection a pure
// function and testable without mutating the real environment.
type Environ func(key string) string

// OSEnviron reads from the process environment.
func OSEnviron(key string) string { return os.Getenv(key) }

// DetectProgram determines the terminal program from the environment.
//
// TERM is checked first since it points at the terminfo entry and
// propagates across sudo and SSH. TERM_PROGRAM follows, with
// TERM_PROGRAM_VERSION available to feature-gate emulators whose
// relevant features depend on the build. TERMINOLOGY=1 is a legacy
// single-flag indicator. Anything else is a plain ANSI terminal.
func DetectProgram(env Environ) Program {
	switch env("TERM") {
	case "dumb":
		return Dumb
	case "xterm-kitty":
		return Kitty
	case "wezterm":
		return WezTerm
	}
	switch env("TERM_PROGRAM") {
	case "WezTerm":
		if isStaleWezTerm(env("TERM_PROGRAM_VERSION")) {
			return Ansi
		}
		return WezTerm
	case "iTerm.app":
		return ITerm2
	}
	if env("TERMINOLOGY") == "1" {
		return Terminology
	}
	return Ansi
}

// isStaleWezTerm reports whether the given WezTerm version predates
// image protocol support. Nightly builds and empty versions are
// assumed current.
func isStaleWezTerm(version string) bool {
	if version == "" || len(version) < 8 {
		return false
	}
	// Version strings are date-based, e.g. 20220905-102802-7d4b8249.
	return version[:8] < "20220624"
}

// Capabilities returns the hardcoded feature tuple of a program.
func (p Program) Capabilities() Capabilities {
	ansi := Capabilities{
		Styling:    true,
		Color:      Color16,
		Hyperlinks: false,
	}
	switch p {
	case Dumb:
		return Capabilities{}
	case ITerm2:
		ansi.Hyperlinks = true
		ansi.Image = ImageITerm2
		ansi.Marks = true
	case Kitty:
		ansi.Hyperlinks = true
		ansi.Image = ImageKitty
	case WezTerm:
		ansi.Hyperlinks = true
		ansi.Image = ImageITerm2
	case Terminology:
		ansi.Hyperlinks = true
		ansi.Image = ImageTerminology
	}
	return ansi
}

// Detect builds the capability profile for the current process.
//
// With forceAnsi set detection is short-circuited to the plain ANSI
// profile regardless of the environment. Detection never fails; an
// unrecognised terminal yields the baseline profile.
func Detect(env Environ, forceAnsi bool) Capabilities {
	if forceAnsi {
		return Ansi.Capabilities()
	}
	caps := DetectProgram(env).Capabilities()
	if caps.Styling {
		caps.Color = colorTier()
	}
	return caps
}

func colorTier() ColorTier {
	switch termenv.EnvColorProfile() {
	case termenv.TrueColor:
		return ColorTrue
	case termenv.ANSI256:
		return Color256
	case termenv.Ascii:
		return Color16
	default:
		return Color16
	}
}
