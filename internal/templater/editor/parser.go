package editor

import (
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aisa-it/templater/internal/templater/editor/dom"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"golang.org/x/net/html"
)

var whitespaceRegexp = regexp.MustCompile(`[ \t\r\n]+`)

// Элементы, которые не превращаются в ноды, но содержимое которых разбирается.
var transparentTags = map[string]struct{}{
	"div": {}, "section": {}, "article": {}, "main": {}, "header": {}, "footer": {},
	"tbody": {}, "thead": {}, "tfoot": {}, "nav": {}, "aside": {},
}

// Элементы, содержимое которых выбрасывается.
var ignoredTags = map[string]struct{}{
	"script": {}, "style": {}, "head": {}, "colgroup": {}, "template": {}, "noscript": {},
}

// ParseHTML разбирает HTML в документ схемы. Нераспознанные элементы не
// являются ошибкой: их содержимое разбирается как обычное.
func ParseHTML(s *model.Schema, r io.Reader) (*model.Node, error) {
	rootNode, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	p := &parser{schema: s}
	body := dom.FindElementByTagName(rootNode, "body")
	if body == nil {
		body = rootNode
	}
	content := p.blockContent(body)
	if len(content) == 0 {
		empty, err := s.Node(NodeParagraph, nil)
		if err != nil {
			return nil, err
		}
		content = append(content, empty)
	}
	return s.Create(s.TopNodeType(), nil, content, nil)
}

// ParseString - ParseHTML для строки.
func ParseString(s *model.Schema, markup string) (*model.Node, error) {
	return ParseHTML(s, strings.NewReader(markup))
}

type parser struct {
	schema *model.Schema
}

// blockContent разбирает детей el как блочное содержимое. Строчные куски,
// оказавшиеся между блоками, собираются в параграфы.
func (p *parser) blockContent(el *html.Node) []*model.Node {
	var res, pending []*model.Node
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if para, err := p.schema.Node(NodeParagraph, nil, p.trimInline(pending)...); err == nil {
			res = append(res, para)
		}
		pending = nil
	}

	for child := el.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			if strings.TrimSpace(child.Data) == "" {
				continue
			}
			pending = append(pending, p.inlineNode(child, nil)...)
			continue
		case html.ElementNode:
		default:
			continue
		}

		if _, ok := ignoredTags[child.Data]; ok {
			continue
		}
		if nt, attrs, ok := p.matchNode(child); ok {
			if p.schema.IsInline(nt) {
				pending = append(pending, p.inlineNode(child, nil)...)
				continue
			}
			flush()
			if node := p.createBlock(nt, attrs, child); node != nil {
				res = append(res, node)
			}
			continue
		}
		if len(p.matchMarks(child)) > 0 {
			pending = append(pending, p.inlineNode(child, nil)...)
			continue
		}
		if _, ok := transparentTags[child.Data]; ok {
			flush()
			res = append(res, p.blockContent(child)...)
			continue
		}
		slog.Debug("Unknown block element, parsing content", "tag", child.Data)
		pending = append(pending, p.inlineNode(child, nil)...)
	}
	flush()
	return res
}

func (p *parser) createBlock(nt *model.NodeType, attrs map[string]any, el *html.Node) *model.Node {
	var content []*model.Node
	switch p.schema.NodeSpec(nt).Content {
	case model.ContentInline:
		content = p.trimInline(p.inlineContent(el, nil))
	case model.ContentBlock:
		content = p.blockContent(el)
	}
	node, err := p.schema.Create(nt, attrs, content, nil)
	if err != nil {
		slog.Warn("Skip invalid block", "type", nt.Name, "err", err)
		return nil
	}
	return node
}

// inlineContent разбирает детей el как строчное содержимое с марками marks.
func (p *parser) inlineContent(el *html.Node, marks []*model.Mark) []*model.Node {
	var res []*model.Node
	for child := el.FirstChild; child != nil; child = child.NextSibling {
		res = append(res, p.inlineNode(child, marks)...)
	}
	return res
}

func (p *parser) inlineNode(el *html.Node, marks []*model.Mark) []*model.Node {
	switch el.Type {
	case html.TextNode:
		text := whitespaceRegexp.ReplaceAllString(el.Data, " ")
		if node := p.schema.Text(text, marks...); node != nil {
			return []*model.Node{node}
		}
		return nil
	case html.ElementNode:
	default:
		return nil
	}

	if _, ok := ignoredTags[el.Data]; ok {
		return nil
	}
	if nt, attrs, ok := p.matchNode(el); ok && p.schema.IsInline(nt) {
		node, err := p.schema.Create(nt, attrs, nil, marks)
		if err != nil {
			slog.Warn("Skip invalid inline node", "type", nt.Name, "err", err)
			return nil
		}
		return []*model.Node{node}
	}
	for _, m := range p.matchMarks(el) {
		marks = p.schema.AddMark(marks, m)
	}
	return p.inlineContent(el, marks)
}

// matchNode ищет тип ноды, правило которого подходит элементу. Ноды
// проверяются раньше марок: span поля шаблона подходит и под textStyle.
func (p *parser) matchNode(el *html.Node) (*model.NodeType, map[string]any, bool) {
	for _, nt := range p.schema.NodeTypes() {
		for _, rule := range p.schema.NodeSpec(nt).ParseDOM {
			if attrs, ok := rule.Matches(el); ok {
				return nt, attrs, true
			}
		}
	}
	return nil, nil, false
}

func (p *parser) matchMarks(el *html.Node) []*model.Mark {
	var res []*model.Mark
	for _, mt := range p.schema.MarkTypes() {
		for _, rule := range p.schema.MarkSpec(mt).ParseDOM {
			if attrs, ok := rule.Matches(el); ok {
				res = append(res, p.schema.CreateMark(mt, attrs))
				break
			}
		}
	}
	return res
}

// trimInline убирает пробелы по краям текстового блока, как это делает браузер.
func (p *parser) trimInline(nodes []*model.Node) []*model.Node {
	if len(nodes) == 0 {
		return nodes
	}
	if first := nodes[0]; first.IsText() {
		nodes[0] = p.withText(first, strings.TrimLeft(model.TextOf(first), " "))
	}
	if last := nodes[len(nodes)-1]; last != nil && last.IsText() {
		nodes[len(nodes)-1] = p.withText(last, strings.TrimRight(model.TextOf(last), " "))
	}
	return nodes
}

func (p *parser) withText(n *model.Node, text string) *model.Node {
	if text == model.TextOf(n) {
		return n
	}
	if text == "" {
		return nil
	}
	return p.schema.Text(text, n.Marks...)
}
