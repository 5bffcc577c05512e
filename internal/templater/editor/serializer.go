package editor

import (
	"log/slog"
	"strings"

	"github.com/aisa-it/templater/internal/templater/editor/dom"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"golang.org/x/net/html"
)

// RenderHTML сериализует содержимое документа в HTML.
func RenderHTML(doc *model.Node) (string, error) {
	return dom.Render(RenderNodes(doc, nil)...)
}

// NodeRenderer позволяет подменить элемент отдельной ноды (живые представления полей).
type NodeRenderer func(n *model.Node, pos int) *html.Node

// RenderNodes строит HTML ноды для детей doc.
func RenderNodes(doc *model.Node, custom NodeRenderer) []*html.Node {
	holder := dom.Element("body")
	renderContent(holder, doc, 0, custom)
	var res []*html.Node
	for c := holder.FirstChild; c != nil; {
		next := c.NextSibling
		holder.RemoveChild(c)
		res = append(res, c)
		c = next
	}
	return res
}

// renderContent добавляет детей parent в hole. start - позиция начала содержимого parent.
func renderContent(hole *html.Node, parent *model.Node, start int, custom NodeRenderer) {
	if parent.IsTextblock() {
		renderInline(hole, parent, start, custom)
		return
	}
	pos := start
	for _, child := range model.Children(parent) {
		if el := renderNode(child, pos, custom); el != nil {
			hole.AppendChild(el)
		}
		pos += child.NodeSize()
	}
}

func renderNode(n *model.Node, pos int, custom NodeRenderer) *html.Node {
	if n.IsText() {
		return dom.Text(model.TextOf(n))
	}
	if custom != nil {
		if el := custom(n, pos); el != nil {
			return el
		}
	}
	spec := Schema().NodeSpec(n.Type)
	if spec == nil || spec.ToDOM == nil {
		slog.Warn("Node type has no DOM representation", "type", n.Type.Name)
		return nil
	}
	el, hole := spec.ToDOM(n)
	if hole != nil {
		renderContent(hole, n, pos+1, custom)
	}
	return el
}

type openMark struct {
	mark *model.Mark
	el   *html.Node
}

// renderInline выводит строчное содержимое, оборачивая соседние ноды с общими
// марками в общий элемент.
func renderInline(hole *html.Node, parent *model.Node, start int, custom NodeRenderer) {
	var open []openMark
	pos := start
	for _, child := range model.Children(parent) {
		keep := 0
		for keep < len(open) && keep < len(child.Marks) && open[keep].mark.Eq(child.Marks[keep]) {
			keep++
		}
		open = open[:keep]
		for _, m := range child.Marks[keep:] {
			target := hole
			if len(open) > 0 {
				target = open[len(open)-1].el
			}
			el := markDOM(m)
			if el == nil {
				open = append(open, openMark{mark: m, el: target})
				continue
			}
			target.AppendChild(el)
			open = append(open, openMark{mark: m, el: el})
		}

		target := hole
		if len(open) > 0 {
			target = open[len(open)-1].el
		}
		if el := renderNode(child, pos, custom); el != nil {
			target.AppendChild(el)
		}
		pos += child.NodeSize()
	}
}

func markDOM(m *model.Mark) *html.Node {
	spec := Schema().MarkSpec(m.Type)
	if spec == nil || spec.ToDOM == nil {
		return nil
	}
	return spec.ToDOM(m)
}

// PlainText - текст документа с переводами строк между блоками.
func PlainText(doc *model.Node) string {
	var sb strings.Builder
	model.Descendants(doc, func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		switch {
		case n.IsTextblock():
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
		case n.IsText():
			sb.WriteString(model.TextOf(n))
		case n.Type.Name == NodeHardBreak:
			sb.WriteString("\n")
		}
		return true
	})
	return sb.String()
}
