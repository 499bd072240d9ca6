// Package markdown parses CommonMark source and flattens it into the
// event stream the renderer consumes. The renderer never sees the
// parse tree; it only ever handles one Event at a time, in document
// order.
package markdown

// Event is one step of a flat, properly nested markdown stream.
type Event interface{ event() }

// Block identifies a block-level construct.
type Block interface{ block() }

// Inline identifies an inline construct.
type Inline interface{ inline() }

// StartBlock opens a block-level construct.
type StartBlock struct{ Block Block }

// EndBlock closes the matching block-level construct.
type EndBlock struct{ Block Block }

// StartInline opens an inline construct.
type StartInline struct{ Inline Inline }

// EndInline closes the matching inline construct.
type EndInline struct{ Inline Inline }

// Text is literal text content.
type Text string

// Code is inline code content.
type Code string

// SoftBreak is a soft line break, collapsed to a space outside
// verbatim contexts.
type SoftBreak struct{}

// HardBreak is a forced line break.
type HardBreak struct{}

// Rule is a thematic break.
type Rule struct{}

// HTML is raw inline HTML.
type HTML string

// TaskMarker is a task list checkbox; true when checked.
type TaskMarker bool

func (StartBlock) event()  {}
func (EndBlock) event()    {}
func (StartInline) event() {}
func (EndInline) event()   {}
func (Text) event()        {}
func (Code) event()        {}
func (SoftBreak) event()   {}
func (HardBreak) event()   {}
func (Rule) event()        {}
func (HTML) event()        {}
func (TaskMarker) event()  {}

// Heading is a heading block of the given level (1-6).
type Heading struct{ Level int }

// Paragraph is a paragraph block.
type Paragraph struct{}

// BlockQuote is a block quote.
type BlockQuote struct{}

// List is an ordered or unordered list. Start is the first item
// number of an ordered list.
type List struct {
	Ordered bool
	Start   int
}

// ListItem is a single list item.
type ListItem struct{}

// CodeBlock is an indented or fenced code block. Language is the
// fence info string, empty when absent.
type CodeBlock struct{ Language string }

// Table is a table block.
type Table struct{}

// TableRow is a table row; Header marks the head row.
type TableRow struct{ Header bool }

// TableCell is a single table cell.
type TableCell struct{}

// HTMLBlock is a raw HTML block.
type HTMLBlock struct{}

func (Heading) block()    {}
func (Paragraph) block()  {}
func (BlockQuote) block() {}
func (List) block()       {}
func (ListItem) block()   {}
func (CodeBlock) block()  {}
func (Table) block()      {}
func (TableRow) block()   {}
func (TableCell) block()  {}
func (HTMLBlock) block()  {}

// Emphasis is emphasised (italic) text.
type Emphasis struct{}

// Strong is strongly emphasised (bold) text.
type Strong struct{}

// Strikethrough is struck-through text.
type Strikethrough struct{}

// Link is a hyperlink with a destination and optional title.
type Link struct{ Destination, Title string }

// Image is an image reference; the enclosed inline content is the
// alt text.
type Image struct{ Destination, Title string }

func (Emphasis) inline()      {}
func (Strong) inline()        {}
func (Strikethrough) inline() {}
func (Link) inline()          {}
func (Image) inline()         {}
