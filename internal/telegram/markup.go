package telegram

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/entity"
	tghtml "github.com/gotd/td/telegram/message/html"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// markdown understands the inline subset of chat markdown only: **bold**,
// __italic__, `code` and [links](url). Every line is paragraph text, so list
// bullets, heading markers and lone asterisks reach the chat unchanged.
var markdown = goldmark.New(goldmark.WithParser(parser.NewParser(
	parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 1000)),
	parser.WithInlineParsers(
		util.Prioritized(parser.NewCodeSpanParser(), 100),
		util.Prioritized(parser.NewLinkParser(), 200),
		util.Prioritized(&pairParser{}, 500),
	),
)))

// pairDelimiters maps each delimiter character to the emphasis level it
// produces when doubled.
var pairDelimiters = map[byte]int{'*': 2, '_': 1}

type pairDelimiter struct {
	level int
}

func (d *pairDelimiter) IsDelimiter(b byte) bool {
	_, ok := pairDelimiters[b]
	return ok
}

func (d *pairDelimiter) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (d *pairDelimiter) OnMatch(int) ast.Node {
	return ast.NewEmphasis(d.level)
}

// pairParser scans doubled emphasis delimiters. Single ones stay text.
type pairParser struct{}

func (p *pairParser) Trigger() []byte {
	return []byte{'*', '_'}
}

func (p *pairParser) Parse(_ ast.Node, block text.Reader, pc parser.Context) ast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	if len(line) == 0 {
		return nil
	}
	level, ok := pairDelimiters[line[0]]
	if !ok {
		return nil
	}
	node := parser.ScanDelimiter(line, before, 2, &pairDelimiter{level: level})
	if node == nil {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

// paragraphs collapses goldmark's block markup into the plain newlines the
// platform's HTML entity parser understands.
var paragraphs = strings.NewReplacer("<p>", "", "</p>\n", "\n\n", "</p>", "")

// renderMarkdown converts markdown text into the HTML subset accepted for
// message entities.
func renderMarkdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(paragraphs.Replace(buf.String())), nil
}

// styled returns the message options for a markdown text. Empty text yields
// no options; text that fails to render is sent verbatim.
func styled(text string) []message.StyledTextOption {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	rendered, err := renderMarkdown(text)
	if err != nil {
		return []message.StyledTextOption{styling.Plain(text)}
	}
	return []message.StyledTextOption{tghtml.String(nil, rendered)}
}

// PlainText returns the text a chat shows for markdown text once its markup
// is applied. Text that fails to render is returned as is.
func PlainText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	rendered, err := renderMarkdown(text)
	if err != nil {
		return text
	}
	var b entity.Builder
	if err := tghtml.HTML(strings.NewReader(rendered), &b, tghtml.Options{}); err != nil {
		return text
	}
	plain, _ := b.Complete()
	return plain
}
