// Package render drives terminal output from a markdown event
// stream.
//
// The renderer is a state machine over an explicit stack of context
// frames. Each Start event pushes a frame carrying the indent and
// style it contributes; the matching End event pops it, restoring the
// ancestor state exactly. Inline text is buffered as styled spans and
// flushed through the wrapping engine when the enclosing block ends.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"reflect"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"

	"github.com/mdtty/mdtty/pkg/images"
	"github.com/mdtty/mdtty/pkg/markdown"
	"github.com/mdtty/mdtty/pkg/resources"
	"github.com/mdtty/mdtty/pkg/terminal"
)

// ErrMalformed signals improperly nested events from the upstream
// parser. It always indicates a bug in the producer and aborts the
// render.
var ErrMalformed = errors.New("malformed event stream")

// codeBorderLimit caps the width of the lines framing a code block.
const codeBorderLimit = 20

// Policy is the externally supplied resource policy.
type Policy struct {
	// AllowNetwork permits fetching http(s) resources. When false a
	// remote image reference is denied without any fetch attempt.
	AllowNetwork bool
	// MaxColumns overrides the detected column limit when positive.
	MaxColumns int
}

// Environment anchors relative references and hostnames.
type Environment struct {
	// Base resolves relative resource references; typically a file://
	// URL of the document's directory.
	Base *url.URL
	// Hostname is attached to file:// hyperlinks targeting this
	// machine.
	Hostname string
}

// listState tracks item numbering for one list frame.
type listState struct {
	ordered bool
	next    int
}

// frame is one nested rendering context. At most one of block or
// inline is set; the document frame at the bottom of the stack has
// neither.
type frame struct {
	block  markdown.Block
	inline markdown.Inline
	// indent is the cumulative left margin in columns.
	indent int
	// style is the union of all ancestor styles plus this frame's
	// own contribution.
	style StyleSet
	list  *listState
	// suppress disables wrapping; content is collected verbatim.
	suppress bool
	// mark is the span buffer length when the frame was pushed, used
	// to carve out alt text for images.
	mark int
}

type linkDef struct {
	index int
	dest  string
	title string
}

// Renderer renders one event stream to one output sink.
type Renderer struct {
	out    *styledWriter
	caps   terminal.Capabilities
	size   terminal.Size
	theme  Theme
	policy Policy
	env    Environment
	res    resources.Handler
	log    zerolog.Logger

	stack []frame
	spans []Span
	// prefix is written instead of indent on the next flushed line;
	// list item bullets and numbers arrive this way.
	prefix  string
	verbatim bytes.Buffer // verbatim block content
	table   *tableData

	pendingMargin bool
	linkDefs      []linkDef
	nextLink      int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTheme overrides the default colour assignment.
func WithTheme(t Theme) Option {
	return func(r *Renderer) { r.theme = t }
}

// WithResourceHandler sets the handler used to read image resources.
func WithResourceHandler(h resources.Handler) Option {
	return func(r *Renderer) { r.res = h }
}

// WithPolicy sets the resource policy.
func WithPolicy(p Policy) Option {
	return func(r *Renderer) { r.policy = p }
}

// WithEnvironment sets reference resolution anchors.
func WithEnvironment(env Environment) Option {
	return func(r *Renderer) { r.env = env }
}

// WithLogger routes non-fatal diagnostics to the given logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// New builds a renderer writing to out for a terminal with the given
// capabilities and size.
func New(out io.Writer, caps terminal.Capabilities, size terminal.Size, opts ...Option) *Renderer {
	hostname, _ := os.Hostname()
	r := &Renderer{
		caps:     caps,
		size:     size,
		theme:    DefaultTheme(),
		res:      resources.Dispatch{resources.FileHandler{}},
		env:      Environment{Hostname: hostname},
		log:      zerolog.Nop(),
		nextLink: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.out = newStyledWriter(out, caps, r.env.Hostname)
	return r
}

// columns is the effective column limit.
func (r *Renderer) columns() int {
	if r.policy.MaxColumns > 0 {
		return r.policy.MaxColumns
	}
	if r.size.Columns > 0 {
		return r.size.Columns
	}
	return 80
}

// Render consumes the complete event stream and writes the rendered
// document. The only fatal errors are malformed nesting and write
// failures on the sink; everything else degrades to fallback text.
func (r *Renderer) Render(events []markdown.Event) error {
	r.stack = append(r.stack[:0], frame{})
	r.spans = r.spans[:0]
	r.pendingMargin = false

	for _, ev := range events {
		if err := r.step(ev); err != nil {
			return err
		}
	}
	if len(r.stack) != 1 {
		return fmt.Errorf("%w: %d unclosed frames at end of input", ErrMalformed, len(r.stack)-1)
	}
	if err := r.flushLinkDefs(); err != nil {
		return err
	}
	return r.out.Flush()
}

func (r *Renderer) top() *frame { return &r.stack[len(r.stack)-1] }

func (r *Renderer) push(f frame) { r.stack = append(r.stack, f) }

func (r *Renderer) pop() { r.stack = r.stack[:len(r.stack)-1] }

func (r *Renderer) step(ev markdown.Event) error {
	switch ev := ev.(type) {
	case markdown.StartBlock:
		return r.startBlock(ev.Block)
	case markdown.EndBlock:
		return r.endBlock(ev.Block)
	case markdown.StartInline:
		return r.startInline(ev.Inline)
	case markdown.EndInline:
		return r.endInline(ev.Inline)
	case markdown.Text:
		r.text(string(ev))
		return nil
	case markdown.Code:
		r.codeSpan(string(ev))
		return nil
	case markdown.SoftBreak:
		if r.top().suppress {
			r.verbatim.WriteByte('\n')
		} else {
			r.appendSpan(Span{Text: " ", Style: r.top().style})
		}
		return nil
	case markdown.HardBreak:
		r.spans = append(r.spans, Span{Break: true})
		return nil
	case markdown.Rule:
		return r.rule()
	case markdown.HTML:
		if r.table != nil && r.table.inCell {
			r.table.appendText(strings.TrimSuffix(string(ev), "\n"))
			return nil
		}
		r.appendSpan(Span{Text: strings.TrimSuffix(string(ev), "\n"), Style: r.top().style.withColor(r.theme.HTML)})
		return nil
	case markdown.TaskMarker:
		marker := "☐ "
		if bool(ev) {
			marker = "☑ "
		}
		if r.table != nil && r.table.inCell {
			r.table.appendText(marker)
			return nil
		}
		r.appendSpan(Span{Text: marker, Style: r.top().style})
		return nil
	default:
		return fmt.Errorf("%w: unknown event %T", ErrMalformed, ev)
	}
}

// blockMargin writes the blank line separating block-level elements.
// The flag model guarantees the margin is never doubled when two
// block boundaries coincide.
func (r *Renderer) blockMargin() error {
	if !r.pendingMargin {
		return nil
	}
	r.pendingMargin = false
	return r.out.Newline()
}

func (r *Renderer) startBlock(b markdown.Block) error {
	parent := r.top()
	// Tight list item text may still be buffered when a nested block
	// opens; it belongs to the enclosing frame and is written first.
	// A pending item prefix alone stays pending, so a loose item's
	// first paragraph picks it up.
	if len(r.spans) > 0 {
		if err := r.flushSpans(parent, true); err != nil {
			return err
		}
	}
	switch b := b.(type) {
	case markdown.Paragraph:
		if err := r.blockMargin(); err != nil {
			return err
		}
		r.push(frame{block: b, indent: parent.indent, style: parent.style})

	case markdown.Heading:
		if len(r.stack) == 1 {
			if err := r.flushLinkDefs(); err != nil {
				return err
			}
		}
		if err := r.blockMargin(); err != nil {
			return err
		}
		if r.caps.Marks {
			if err := terminal.SetMark(r.out.Raw()); err != nil {
				return err
			}
		}
		style := parent.style
		style.Color = r.theme.Heading
		style.Bold = true
		r.push(frame{block: b, indent: parent.indent, style: style})
		r.appendSpan(Span{Text: strings.Repeat("┄", b.Level), Style: style})

	case markdown.BlockQuote:
		if err := r.blockMargin(); err != nil {
			return err
		}
		style := parent.style
		style.Italic = true
		r.push(frame{block: b, indent: parent.indent + 4, style: style})

	case markdown.List:
		if err := r.blockMargin(); err != nil {
			return err
		}
		start := b.Start
		if !b.Ordered || start < 1 {
			start = 1
		}
		r.push(frame{
			block:  b,
			indent: parent.indent,
			style:  parent.style,
			list:   &listState{ordered: b.Ordered, next: start},
		})

	case markdown.ListItem:
		list := parent.list
		if list == nil {
			return fmt.Errorf("%w: list item outside list", ErrMalformed)
		}
		if r.prefix != "" {
			// The previous item was entirely empty; give it its line.
			if err := r.flushSpans(parent, true); err != nil {
				return err
			}
		}
		var marker string
		if list.ordered {
			marker = fmt.Sprintf("%d. ", list.next)
		} else {
			marker = "• "
		}
		list.next++
		r.prefix = marker
		r.push(frame{
			block:  b,
			indent: parent.indent + runewidth.StringWidth(marker),
			style:  parent.style,
		})

	case markdown.CodeBlock:
		if err := r.blockMargin(); err != nil {
			return err
		}
		r.push(frame{block: b, indent: parent.indent, style: parent.style, suppress: true})
		r.verbatim.Reset()
		return r.codeBorder(parent.indent)

	case markdown.HTMLBlock:
		if err := r.blockMargin(); err != nil {
			return err
		}
		r.push(frame{block: b, indent: parent.indent, style: parent.style, suppress: true})
		r.verbatim.Reset()

	case markdown.Table:
		if err := r.blockMargin(); err != nil {
			return err
		}
		r.push(frame{block: b, indent: parent.indent, style: parent.style})
		r.table = &tableData{}

	case markdown.TableRow:
		if r.table == nil {
			return fmt.Errorf("%w: table row outside table", ErrMalformed)
		}
		r.table.startRow(b.Header)
		r.push(frame{block: b, indent: parent.indent, style: parent.style})

	case markdown.TableCell:
		if r.table == nil {
			return fmt.Errorf("%w: table cell outside table", ErrMalformed)
		}
		r.table.startCell()
		r.push(frame{block: b, indent: parent.indent, style: parent.style})

	default:
		return fmt.Errorf("%w: unknown block %T", ErrMalformed, b)
	}
	return nil
}

func (r *Renderer) endBlock(b markdown.Block) error {
	f := r.top()
	if f.block == nil || reflect.TypeOf(f.block) != reflect.TypeOf(b) {
		return fmt.Errorf("%w: unexpected end of %T", ErrMalformed, b)
	}

	switch b := b.(type) {
	case markdown.Paragraph:
		if err := r.flushSpans(f, true); err != nil {
			return err
		}
		r.pendingMargin = true

	case markdown.Heading:
		if err := r.flushSpans(f, false); err != nil {
			return err
		}
		r.pendingMargin = true

	case markdown.BlockQuote, markdown.List:
		r.pendingMargin = true

	case markdown.ListItem:
		// Tight items carry their text directly; at this point loose
		// items have already flushed through their paragraphs.
		if err := r.flushSpans(f, true); err != nil {
			return err
		}

	case markdown.CodeBlock:
		if err := r.flushCodeBlock(f, b.Language); err != nil {
			return err
		}
		r.pendingMargin = true

	case markdown.HTMLBlock:
		if err := r.flushVerbatim(f, StyleSet{Color: r.theme.HTML}); err != nil {
			return err
		}
		r.pendingMargin = true

	case markdown.Table:
		if err := r.flushTable(f); err != nil {
			return err
		}
		r.table = nil
		r.pendingMargin = true

	case markdown.TableRow:
		r.table.endRow()

	case markdown.TableCell:
		r.table.endCell()
	}
	r.pop()
	return nil
}

func (r *Renderer) startInline(i markdown.Inline) error {
	parent := r.top()
	style := parent.style
	switch i := i.(type) {
	case markdown.Emphasis:
		style.Italic = true
	case markdown.Strong:
		style.Bold = true
	case markdown.Strikethrough:
		style.Strike = true
	case markdown.Link:
		style.Color = r.theme.Link
		if r.caps.Hyperlinks {
			if u := r.resolve(i.Destination); u != nil {
				style.Link = u.String()
			}
		}
	case markdown.Image:
		style.Color = r.theme.ImageLink
	default:
		return fmt.Errorf("%w: unknown inline %T", ErrMalformed, i)
	}
	mark := len(r.spans)
	if r.table != nil && r.table.inCell {
		// Cell text bypasses the span buffer, so the alt-text mark
		// tracks the cell instead.
		mark = r.table.cellLen()
	}
	r.push(frame{inline: i, indent: parent.indent, style: style, mark: mark})
	return nil
}

func (r *Renderer) endInline(i markdown.Inline) error {
	f := r.top()
	if f.inline == nil || reflect.TypeOf(f.inline) != reflect.TypeOf(i) {
		return fmt.Errorf("%w: unexpected end of %T", ErrMalformed, i)
	}

	switch i := i.(type) {
	case markdown.Link:
		// Whitespace at the end of a link moves outside the hyperlink
		// envelope, matching the leading edge.
		if f.style.Link != "" && r.table == nil && len(r.spans) > f.mark {
			last := &r.spans[len(r.spans)-1]
			if trimmed := strings.TrimRight(last.Text, " \t"); !last.Break && trimmed != last.Text {
				trail := last.Text[len(trimmed):]
				parentStyle := r.stack[len(r.stack)-2].style
				if trimmed == "" {
					r.spans = r.spans[:len(r.spans)-1]
				} else {
					last.Text = trimmed
				}
				r.spans = append(r.spans, Span{Text: trail, Style: parentStyle})
			}
		}
		if !r.caps.Hyperlinks && r.caps.Styling && r.table == nil {
			index := r.addLinkDef(i.Destination, i.Title)
			r.appendSpan(Span{Text: fmt.Sprintf("[%d]", index), Style: f.style})
		}
	case markdown.Image:
		if err := r.endImage(f, i); err != nil {
			return err
		}
	}
	r.pop()
	return nil
}

// text appends literal text to the active context: table cell,
// verbatim buffer, or the styled span buffer.
func (r *Renderer) text(s string) {
	if r.table != nil && r.table.inCell {
		r.table.appendText(s)
		return
	}
	f := r.top()
	if f.suppress {
		r.verbatim.WriteString(s)
		return
	}

	// Whitespace at the start of a link is flushed outside the
	// hyperlink envelope so the styled region carries no padding.
	if _, ok := f.inline.(markdown.Link); ok && len(r.spans) == f.mark && f.style.Link != "" {
		trimmed := strings.TrimLeft(s, " \t")
		if lead := s[:len(s)-len(trimmed)]; lead != "" {
			parentStyle := r.stack[len(r.stack)-2].style
			r.spans = append(r.spans, Span{Text: lead, Style: parentStyle})
			s = trimmed
		}
		if s == "" {
			return
		}
	}
	r.appendSpan(Span{Text: s, Style: f.style})
}

func (r *Renderer) codeSpan(s string) {
	if r.table != nil && r.table.inCell {
		r.table.appendText(s)
		return
	}
	style := r.top().style
	style.Code = true
	// Inline code never contains meaningful line structure.
	r.appendSpan(Span{Text: strings.ReplaceAll(s, "\n", " "), Style: style})
}

func (r *Renderer) appendSpan(sp Span) {
	if sp.Text == "" && !sp.Break {
		return
	}
	r.spans = append(r.spans, sp)
}

// flushSpans writes the buffered spans of a completed block. With
// wrap set the spans are filled against the column budget; headings
// are written unwrapped.
func (r *Renderer) flushSpans(f *frame, wrap bool) error {
	if len(r.spans) == 0 && r.prefix == "" {
		return nil
	}
	width := r.columns() - f.indent
	if !wrap {
		width = int(^uint(0) >> 1) // headings never wrap
	}
	lines, _ := Fill(r.spans, width, 0)
	r.spans = r.spans[:0]

	for _, line := range lines {
		if err := r.writeIndent(f.indent); err != nil {
			return err
		}
		for _, sp := range line {
			if err := r.out.WriteStyled(sp.Style, sp.Text); err != nil {
				return err
			}
		}
		if err := r.out.Newline(); err != nil {
			return err
		}
	}
	return nil
}

// writeIndent writes the left margin, substituting the pending list
// marker into its final columns exactly once.
func (r *Renderer) writeIndent(indent int) error {
	if r.prefix != "" {
		pad := indent - runewidth.StringWidth(r.prefix)
		if pad < 0 {
			pad = 0
		}
		prefix := r.prefix
		r.prefix = ""
		return r.out.WriteStyled(plain, strings.Repeat(" ", pad)+prefix)
	}
	if indent > 0 {
		return r.out.WriteStyled(plain, strings.Repeat(" ", indent))
	}
	return nil
}

func (r *Renderer) rule() error {
	f := r.top()
	if err := r.blockMargin(); err != nil {
		return err
	}
	width := r.columns() - f.indent
	if width < 1 {
		width = 1
	}
	if err := r.writeIndent(f.indent); err != nil {
		return err
	}
	if err := r.out.WriteStyled(StyleSet{Color: r.theme.Rule}, strings.Repeat("═", width)); err != nil {
		return err
	}
	if err := r.out.Newline(); err != nil {
		return err
	}
	r.pendingMargin = true
	return nil
}

func (r *Renderer) codeBorder(indent int) error {
	width := r.columns()
	if width > codeBorderLimit {
		width = codeBorderLimit
	}
	if err := r.writeIndent(indent); err != nil {
		return err
	}
	if err := r.out.WriteStyled(StyleSet{Color: r.theme.Border}, strings.Repeat("─", width)); err != nil {
		return err
	}
	return r.out.Newline()
}

func (r *Renderer) flushCodeBlock(f *frame, language string) error {
	content := r.verbatim.String()
	r.verbatim.Reset()

	var lines []Line
	if language != "" && r.caps.Styling {
		lines = Highlight(content, language, r.theme)
	} else {
		lines = plainLines(content, StyleSet{Color: r.theme.Code})
	}
	for _, line := range lines {
		if err := r.writeIndent(f.indent); err != nil {
			return err
		}
		for _, sp := range line {
			if err := r.out.WriteStyled(sp.Style, sp.Text); err != nil {
				return err
			}
		}
		if err := r.out.Newline(); err != nil {
			return err
		}
	}
	return r.codeBorder(f.indent)
}

func (r *Renderer) flushVerbatim(f *frame, style StyleSet) error {
	content := r.verbatim.String()
	r.verbatim.Reset()
	if content == "" {
		return nil
	}
	for _, line := range plainLines(content, style) {
		if err := r.writeIndent(f.indent); err != nil {
			return err
		}
		for _, sp := range line {
			if err := r.out.WriteStyled(sp.Style, sp.Text); err != nil {
				return err
			}
		}
		if err := r.out.Newline(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) flushTable(f *frame) error {
	if r.table == nil {
		return nil
	}
	for _, line := range r.table.lines() {
		if err := r.writeIndent(f.indent); err != nil {
			return err
		}
		if err := r.out.WriteStyled(plain, line); err != nil {
			return err
		}
		if err := r.out.Newline(); err != nil {
			return err
		}
	}
	return nil
}

// resolve turns a reference into an absolute URL, anchoring relative
// references at the environment base. A bare local path becomes a
// file URL.
func (r *Renderer) resolve(ref string) *url.URL {
	u, err := url.Parse(ref)
	if err != nil {
		return nil
	}
	if u.IsAbs() {
		return u
	}
	if r.env.Base != nil {
		return r.env.Base.ResolveReference(u)
	}
	if strings.HasPrefix(ref, "/") || !strings.Contains(ref, "://") {
		abs := ref
		if !strings.HasPrefix(abs, "/") {
			wd, err := os.Getwd()
			if err != nil {
				return nil
			}
			abs = wd + "/" + abs
		}
		return &url.URL{Scheme: "file", Path: abs}
	}
	return nil
}

// fetch reads the resource under policy. Remote schemes are denied
// outright, without a fetch attempt, when the network is disallowed.
func (r *Renderer) fetch(u *url.URL) (resources.MimeData, error) {
	if (u.Scheme == "http" || u.Scheme == "https") && !r.policy.AllowNetwork {
		return resources.MimeData{}, &resources.Error{Kind: resources.KindDenied, URL: u.String()}
	}
	return r.res.Read(u)
}

// endImage completes an image reference: inline pixels when the
// terminal can show them, and the alt-text hyperlink fallback for
// every failure kind, whether policy, fetch or decode.
func (r *Renderer) endImage(f *frame, img markdown.Image) error {
	if r.table != nil && r.table.inCell {
		// Cells hold text only; the alt has already been routed in,
		// and an empty alt gets the destination instead.
		if r.table.cellLen() == f.mark {
			r.table.appendText(img.Destination)
		}
		return nil
	}

	alt := append([]Span(nil), r.spans[f.mark:]...)
	r.spans = r.spans[:f.mark]

	u := r.resolve(img.Destination)

	if r.caps.Image != terminal.ImageNone && u != nil {
		blob, err := r.prepareInlineImage(f, u)
		if err == nil {
			// Buffered inline text is flushed first so the image
			// lands at its document position.
			if len(r.spans) > 0 {
				if err := r.flushSpans(f, true); err != nil {
					return err
				}
			}
			if err := r.out.WriteRaw(blob); err != nil {
				return err
			}
			r.log.Debug().Str("url", u.String()).Str("protocol", r.caps.Image.String()).Msg("rendered inline image")
			return nil
		}
		r.log.Debug().Err(err).Str("url", u.String()).Msg("inline image failed, falling back to link")
	}

	// Fallback: alt text as a styled link.
	style := f.style
	if r.caps.Hyperlinks && u != nil {
		style.Link = u.String()
	}
	if len(alt) == 0 {
		alt = []Span{{Text: img.Destination}}
	}
	for _, sp := range alt {
		sp.Style = style
		r.appendSpan(sp)
	}
	if !r.caps.Hyperlinks && r.caps.Styling && r.table == nil {
		index := r.addLinkDef(img.Destination, img.Title)
		r.appendSpan(Span{Text: fmt.Sprintf("[%d]", index), Style: style})
	}
	return nil
}

// prepareInlineImage fetches and encodes one image into a protocol
// blob. Any failure here is recoverable; the caller falls back to the
// alt-text link.
func (r *Renderer) prepareInlineImage(f *frame, u *url.URL) ([]byte, error) {
	encoder, err := images.ForProtocol(r.caps.Image)
	if err != nil {
		return nil, err
	}
	data, err := r.fetch(u)
	if err != nil {
		return nil, err
	}
	var blob bytes.Buffer
	if err := encoder.Encode(&blob, data, u, r.columns()-f.indent); err != nil {
		return nil, err
	}
	return blob.Bytes(), nil
}

func (r *Renderer) addLinkDef(dest, title string) int {
	index := r.nextLink
	r.nextLink++
	r.linkDefs = append(r.linkDefs, linkDef{index: index, dest: dest, title: title})
	return index
}

// flushLinkDefs writes collected reference link definitions, before
// each top-level heading and at the end of the document.
func (r *Renderer) flushLinkDefs() error {
	if len(r.linkDefs) == 0 {
		return nil
	}
	if err := r.blockMargin(); err != nil {
		return err
	}
	style := StyleSet{Color: r.theme.Link}
	for _, def := range r.linkDefs {
		text := fmt.Sprintf("[%d]: %s", def.index, def.dest)
		if def.title != "" {
			text += " " + def.title
		}
		if err := r.out.WriteStyled(style, text); err != nil {
			return err
		}
		if err := r.out.Newline(); err != nil {
			return err
		}
	}
	r.linkDefs = r.linkDefs[:0]
	r.pendingMargin = true
	return nil
}
