package terminal

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

// ColumnSource records where the column limit came from.
type ColumnSource int

const (
	ColumnsDefault ColumnSource = iota
	ColumnsQueried
	ColumnsEnv
	ColumnsExplicit
)

// Cell pixel dimensions assumed when a protocol needs pixel sizes.
// Real values are font dependent; these match common monospace
// metrics and are kept as constants so they can be calibrated.
const (
	CellPixelWidth  = 8
	CellPixelHeight = 16
)

// Size is the usable terminal geometry in character cells.
type Size struct {
	Columns int
	Rows    int
	Source  ColumnSource
}

// DetectSize determines terminal geometry.
//
// An explicit column count wins. Otherwise the terminal is queried,
// then the COLUMNS/LINES environment fallbacks are consulted, and
// finally 80x24 is assumed.
func DetectSize(env Environ, explicitColumns int) Size {
	if explicitColumns > 0 {
		return Size{Columns: explicitColumns, Rows: 24, Source: ColumnsExplicit}
	}
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return Size{Columns: w, Rows: h, Source: ColumnsQueried}
	}
	if cols, err := strconv.Atoi(env("COLUMNS")); err == nil && cols > 0 {
		rows := 24
		if r, err := strconv.Atoi(env("LINES")); err == nil && r > 0 {
			rows = r
		}
		return Size{Columns: cols, Rows: rows, Source: ColumnsEnv}
	}
	return Size{Columns: 80, Rows: 24, Source: ColumnsDefault}
}
