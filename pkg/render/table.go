package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// tableData collects cell text while table events stream in. Cell
// content is deliberately unstyled and unwrapped; tables get minimal
// column alignment only.
type tableData struct {
	header   []string
	rows     [][]string
	current  []string
	cell     strings.Builder
	inHeader bool
	inCell   bool
}

func (t *tableData) startRow(header bool) {
	t.inHeader = header
	t.current = nil
}

func (t *tableData) endRow() {
	if t.inHeader {
		t.header = t.current
	} else {
		t.rows = append(t.rows, t.current)
	}
	t.current = nil
}

func (t *tableData) startCell() {
	t.inCell = true
	t.cell.Reset()
}

func (t *tableData) endCell() {
	t.inCell = false
	t.current = append(t.current, strings.TrimSpace(t.cell.String()))
}

func (t *tableData) appendText(s string) {
	if t.inCell {
		t.cell.WriteString(s)
	}
}

// cellLen reports how much text the open cell has collected.
func (t *tableData) cellLen() int { return t.cell.Len() }

// columnWidths returns the display width of the widest cell per
// column across header and body.
func (t *tableData) columnWidths() []int {
	var widths []int
	grow := func(row []string) {
		for i, cell := range row {
			w := runewidth.StringWidth(cell)
			if i >= len(widths) {
				widths = append(widths, w)
			} else if w > widths[i] {
				widths[i] = w
			}
		}
	}
	grow(t.header)
	for _, row := range t.rows {
		grow(row)
	}
	return widths
}

// formatRow pads cells to the column widths, two spaces between
// columns. The last cell is left unpadded.
func formatRow(row []string, widths []int) string {
	var b strings.Builder
	for i, cell := range row {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(cell)
		if i < len(row)-1 && i < len(widths) {
			b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
		}
	}
	return b.String()
}

// lines renders the collected table as plain text lines, header
// first, separated from the body by dashes per column.
func (t *tableData) lines() []string {
	widths := t.columnWidths()
	var out []string
	if len(t.header) > 0 {
		out = append(out, formatRow(t.header, widths))
		separators := make([]string, len(widths))
		for i, w := range widths {
			separators[i] = strings.Repeat("-", w)
		}
		out = append(out, formatRow(separators, widths))
	}
	for _, row := range t.rows {
		out = append(out, formatRow(row, widths))
	}
	return out
}
