package markdown

import (
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	emoji "github.com/yuin/goldmark-emoji"
	emojiast "github.com/yuin/goldmark-emoji/ast"
)

// New returns the configured goldmark instance. Strikethrough,
// tables, task lists and emoji shortcodes are enabled on top of
// CommonMark.
func New() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.Strikethrough,
			extension.Table,
			extension.TaskList,
			emoji.Emoji,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
}

// Events parses source and returns its flat event stream.
func Events(source []byte) ([]Event, error) {
	doc := New().Parser().Parse(text.NewReader(source))
	return flatten(doc, source)
}

func flatten(doc ast.Node, source []byte) ([]Event, error) {
	var events []Event
	emit := func(ev Event) { events = append(events, ev) }

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.Document:
			return ast.WalkContinue, nil

		case *ast.Heading:
			emitBoundary(emit, entering, Heading{Level: n.Level})
		case *ast.Paragraph:
			emitBoundary(emit, entering, Paragraph{})
		case *ast.TextBlock:
			// Tight list item content flows directly into the item.
			return ast.WalkContinue, nil
		case *ast.Blockquote:
			emitBoundary(emit, entering, BlockQuote{})
		case *ast.List:
			emitBoundary(emit, entering, List{Ordered: n.IsOrdered(), Start: n.Start})
		case *ast.ListItem:
			emitBoundary(emit, entering, ListItem{})
		case *ast.FencedCodeBlock:
			lang := ""
			if l := n.Language(source); l != nil {
				lang = string(l)
			}
			if entering {
				emit(StartBlock{CodeBlock{Language: lang}})
				emitLines(emit, n, source)
			} else {
				emit(EndBlock{CodeBlock{Language: lang}})
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			if entering {
				emit(StartBlock{CodeBlock{}})
				emitLines(emit, n, source)
			} else {
				emit(EndBlock{CodeBlock{}})
			}
			return ast.WalkSkipChildren, nil
		case *ast.ThematicBreak:
			if entering {
				emit(Rule{})
			}
		case *ast.HTMLBlock:
			if entering {
				emit(StartBlock{HTMLBlock{}})
				emitLines(emit, n, source)
				if n.HasClosure() {
					emit(Text(n.ClosureLine.Value(source)))
				}
			} else {
				emit(EndBlock{HTMLBlock{}})
			}
			return ast.WalkSkipChildren, nil

		case *extast.Table:
			emitBoundary(emit, entering, Table{})
		case *extast.TableHeader:
			emitBoundary(emit, entering, TableRow{Header: true})
		case *extast.TableRow:
			emitBoundary(emit, entering, TableRow{})
		case *extast.TableCell:
			emitBoundary(emit, entering, TableCell{})

		case *ast.Emphasis:
			if n.Level >= 2 {
				emitInlineBoundary(emit, entering, Strong{})
			} else {
				emitInlineBoundary(emit, entering, Emphasis{})
			}
		case *extast.Strikethrough:
			emitInlineBoundary(emit, entering, Strikethrough{})
		case *ast.Link:
			emitInlineBoundary(emit, entering, Link{
				Destination: string(n.Destination),
				Title:       string(n.Title),
			})
		case *ast.Image:
			emitInlineBoundary(emit, entering, Image{
				Destination: string(n.Destination),
				Title:       string(n.Title),
			})
		case *ast.AutoLink:
			if entering {
				u := string(n.URL(source))
				if n.AutoLinkType == ast.AutoLinkEmail {
					u = "mailto:" + u
				}
				emit(StartInline{Link{Destination: u}})
				emit(Text(n.Label(source)))
				emit(EndInline{Link{Destination: u}})
			}
			return ast.WalkSkipChildren, nil
		case *ast.CodeSpan:
			if entering {
				for c := n.FirstChild(); c != nil; c = c.NextSibling() {
					if t, ok := c.(*ast.Text); ok {
						emit(Code(t.Segment.Value(source)))
					}
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			if entering {
				for i := 0; i < n.Segments.Len(); i++ {
					seg := n.Segments.At(i)
					emit(HTML(seg.Value(source)))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				emit(Text(n.Segment.Value(source)))
				if n.HardLineBreak() {
					emit(HardBreak{})
				} else if n.SoftLineBreak() {
					emit(SoftBreak{})
				}
			}
		case *ast.String:
			if entering {
				emit(Text(n.Value))
			}
		case *extast.TaskCheckBox:
			if entering {
				emit(TaskMarker(n.IsChecked))
			}
		case *emojiast.Emoji:
			if entering && n.Value != nil && n.Value.IsUnicode() {
				emit(Text(string(n.Value.Unicode)))
			}
		default:
			if entering {
				return ast.WalkContinue, fmt.Errorf("unsupported node kind %s", n.Kind())
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func emitBoundary(emit func(Event), entering bool, b Block) {
	if entering {
		emit(StartBlock{b})
	} else {
		emit(EndBlock{b})
	}
}

func emitInlineBoundary(emit func(Event), entering bool, i Inline) {
	if entering {
		emit(StartInline{i})
	} else {
		emit(EndInline{i})
	}
}

func emitLines(emit func(Event), n ast.Node, source []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		emit(Text(seg.Value(source)))
	}
}
