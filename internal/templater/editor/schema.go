// Пакет editor - HTML представление документа шаблона договора: схема
// документа, разбор и сериализация разметки, санитайзер входящего HTML и живое
// представление с обновлением полей на месте.
//
// Основные возможности:
//   - Схема договора: параграфы, заголовки, цитаты, списки, таблицы, картинки, поля шаблона.
//   - Разбор HTML (golang.org/x/net/html) в дерево model.Node по правилам схемы.
//   - Сериализация дерева обратно в HTML с объединением одинаковых марок.
//   - Очистка входящей разметки политикой bluemonday.
package editor

import (
	"strconv"
	"strings"
	"sync"

	"github.com/aisa-it/templater/internal/templater/editor/attrfield"
	"github.com/aisa-it/templater/internal/templater/editor/dom"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"golang.org/x/net/html"
)

// Имена типов нод схемы договора
const (
	NodeDoc            = "doc"
	NodeParagraph      = "paragraph"
	NodeHeading        = "heading"
	NodeBlockquote     = "blockquote"
	NodeBulletList     = "bulletList"
	NodeOrderedList    = "orderedList"
	NodeListItem       = "listItem"
	NodeHorizontalRule = "horizontalRule"
	NodeTable          = "table"
	NodeTableRow       = "tableRow"
	NodeTableCell      = "tableCell"
	NodeTableHeader    = "tableHeader"
	NodeHardBreak      = "hardBreak"
	NodeImage          = "image"
)

// Имена марок
const (
	MarkBold      = "bold"
	MarkItalic    = "italic"
	MarkUnderline = "underline"
	MarkStrike    = "strike"
	MarkCode      = "code"
	MarkTextStyle = "textStyle"
	MarkFontSize  = "fontSize"
	MarkLink      = "link"
)

type TextAlign string

const (
	LeftAlign    TextAlign = "left"
	CenterAlign  TextAlign = "center"
	RightAlign   TextAlign = "right"
	JustifyAlign TextAlign = "justify"
)

// Содержимое нового документа
const DefaultContent = "<p>Start writing your contract...</p>"

var contractSchema = sync.OnceValue(func() *model.Schema {
	s, err := model.NewSchema(nodeSpecs(), markSpecs())
	if err != nil {
		panic(err)
	}
	return s
})

// Schema - схема документа договора. Создается один раз.
func Schema() *model.Schema {
	return contractSchema()
}

func nodeSpecs() []model.NodeSpec {
	return []model.NodeSpec{
		{Name: NodeDoc, Content: model.ContentBlock},
		{
			Name:    NodeParagraph,
			Group:   model.GroupBlock,
			Content: model.ContentInline,
			Attrs:   map[string]any{"textAlign": nil},
			ParseDOM: []model.ParseRule{
				{Tag: "p", GetAttrs: alignAttrs},
			},
			ToDOM: func(n *model.Node) (*html.Node, *html.Node) {
				el := dom.Element("p")
				setAlign(el, n)
				return el, el
			},
		},
		{
			Name:     NodeHeading,
			Group:    model.GroupBlock,
			Content:  model.ContentInline,
			Attrs:    map[string]any{"level": 1, "textAlign": nil},
			ParseDOM: headingRules(),
			ToDOM: func(n *model.Node) (*html.Node, *html.Node) {
				el := dom.Element("h" + strconv.Itoa(intAttr(model.Attr(n, "level"), 1)))
				setAlign(el, n)
				return el, el
			},
		},
		containerSpec(NodeBlockquote, "blockquote"),
		{
			Name:     NodeBulletList,
			Group:    model.GroupBlock,
			Content:  model.ContentBlock,
			ParseDOM: []model.ParseRule{{Tag: "ul"}},
			ToDOM: func(*model.Node) (*html.Node, *html.Node) {
				el := dom.Element("ul", "class", "list-disc pl-6")
				return el, el
			},
		},
		{
			Name:    NodeOrderedList,
			Group:   model.GroupBlock,
			Content: model.ContentBlock,
			Attrs:   map[string]any{"start": 1},
			ParseDOM: []model.ParseRule{{
				Tag: "ol",
				GetAttrs: func(el *html.Node) (map[string]any, bool) {
					start, err := strconv.Atoi(dom.GetAttrValue("start", el.Attr))
					if err != nil {
						start = 1
					}
					return map[string]any{"start": start}, true
				},
			}},
			ToDOM: func(n *model.Node) (*html.Node, *html.Node) {
				el := dom.Element("ol", "class", "list-decimal pl-6")
				if start := intAttr(model.Attr(n, "start"), 1); start != 1 {
					dom.SetAttr(el, "start", strconv.Itoa(start))
				}
				return el, el
			},
		},
		containerSpec(NodeListItem, "li"),
		{
			Name:     NodeHorizontalRule,
			Group:    model.GroupBlock,
			ParseDOM: []model.ParseRule{{Tag: "hr"}},
			ToDOM: func(*model.Node) (*html.Node, *html.Node) {
				return dom.Element("hr"), nil
			},
		},
		containerSpec(NodeTable, "table"),
		containerSpec(NodeTableRow, "tr"),
		cellSpec(NodeTableCell, "td"),
		cellSpec(NodeTableHeader, "th"),
		{
			Name:     NodeHardBreak,
			Group:    model.GroupInline,
			Inline:   true,
			ParseDOM: []model.ParseRule{{Tag: "br"}},
			ToDOM: func(*model.Node) (*html.Node, *html.Node) {
				return dom.Element("br"), nil
			},
		},
		{
			Name:       NodeImage,
			Group:      model.GroupInline,
			Inline:     true,
			Selectable: true,
			Attrs:      map[string]any{"src": nil, "alt": nil, "title": nil, "width": nil, "height": nil},
			ParseDOM: []model.ParseRule{{
				Tag: "img",
				GetAttrs: func(el *html.Node) (map[string]any, bool) {
					src, ok := dom.LookupAttr(el, "src")
					if !ok {
						return nil, false
					}
					attrs := map[string]any{"src": src}
					for _, key := range []string{"alt", "title"} {
						if v, ok := dom.LookupAttr(el, key); ok {
							attrs[key] = v
						}
					}
					for _, key := range []string{"width", "height"} {
						if v := dom.Style(el, key); v != "" {
							attrs[key] = v
						}
					}
					return attrs, true
				},
			}},
			ToDOM: func(n *model.Node) (*html.Node, *html.Node) {
				el := dom.Element("img", "src", model.AttrString(n, "src"))
				for _, key := range []string{"alt", "title"} {
					if v := model.AttrString(n, key); v != "" {
						dom.SetAttr(el, key, v)
					}
				}
				var style []string
				for _, key := range []string{"width", "height"} {
					if v := model.AttrString(n, key); v != "" {
						style = append(style, key+": "+v)
					}
				}
				if len(style) > 0 {
					dom.SetAttr(el, "style", strings.Join(style, "; "))
				}
				return el, nil
			},
		},
		attrfield.NodeSpec(),
	}
}

func markSpecs() []model.MarkSpec {
	return []model.MarkSpec{
		simpleMark(MarkBold, "strong", "b"),
		simpleMark(MarkItalic, "em", "i"),
		simpleMark(MarkUnderline, "u"),
		simpleMark(MarkStrike, "s", "del", "strike"),
		simpleMark(MarkCode, "code"),
		{
			Name:  MarkTextStyle,
			Attrs: map[string]any{"color": nil, "fontFamily": nil},
			ParseDOM: []model.ParseRule{{
				Tag: "span",
				GetAttrs: func(el *html.Node) (map[string]any, bool) {
					color, family := dom.Style(el, "color"), dom.Style(el, "font-family")
					if color == "" && family == "" {
						return nil, false
					}
					return map[string]any{"color": nilIfEmpty(color), "fontFamily": nilIfEmpty(family)}, true
				},
			}},
			ToDOM: func(m *model.Mark) *html.Node {
				var style []string
				if v, _ := m.Attrs["color"].(string); v != "" {
					style = append(style, "color: "+v)
				}
				if v, _ := m.Attrs["fontFamily"].(string); v != "" {
					style = append(style, "font-family: "+v)
				}
				return dom.Element("span", "style", strings.Join(style, "; "))
			},
		},
		{
			Name:  MarkFontSize,
			Attrs: map[string]any{"fontSize": nil},
			ParseDOM: []model.ParseRule{{
				Tag: "span",
				GetAttrs: func(el *html.Node) (map[string]any, bool) {
					size := dom.Style(el, "font-size")
					if size == "" {
						return nil, false
					}
					return map[string]any{"fontSize": size}, true
				},
			}},
			ToDOM: func(m *model.Mark) *html.Node {
				size, _ := m.Attrs["fontSize"].(string)
				return dom.Element("span", "style", "font-size: "+size)
			},
		},
		{
			Name:      MarkLink,
			Attrs:     map[string]any{"href": nil, "target": nil},
			Exclusive: true,
			ParseDOM: []model.ParseRule{{
				Tag: "a",
				GetAttrs: func(el *html.Node) (map[string]any, bool) {
					href, ok := dom.LookupAttr(el, "href")
					if !ok {
						return nil, false
					}
					return map[string]any{"href": href, "target": nilIfEmpty(dom.GetAttrValue("target", el.Attr))}, true
				},
			}},
			ToDOM: func(m *model.Mark) *html.Node {
				href, _ := m.Attrs["href"].(string)
				el := dom.Element("a", "href", href)
				if target, _ := m.Attrs["target"].(string); target != "" {
					dom.SetAttr(el, "target", target)
					dom.SetAttr(el, "rel", "noopener noreferrer nofollow")
				}
				return el
			},
		},
	}
}

func containerSpec(name, tag string) model.NodeSpec {
	return model.NodeSpec{
		Name:     name,
		Group:    model.GroupBlock,
		Content:  model.ContentBlock,
		ParseDOM: []model.ParseRule{{Tag: tag}},
		ToDOM: func(*model.Node) (*html.Node, *html.Node) {
			el := dom.Element(tag)
			return el, el
		},
	}
}

func cellSpec(name, tag string) model.NodeSpec {
	return model.NodeSpec{
		Name:    name,
		Group:   model.GroupBlock,
		Content: model.ContentBlock,
		Attrs:   map[string]any{"colspan": 1, "rowspan": 1, "colwidth": nil},
		ParseDOM: []model.ParseRule{{
			Tag: tag,
			GetAttrs: func(el *html.Node) (map[string]any, bool) {
				attrs := map[string]any{
					"colspan": atoiDefault(dom.GetAttrValue("colspan", el.Attr), 1),
					"rowspan": atoiDefault(dom.GetAttrValue("rowspan", el.Attr), 1),
				}
				if w, err := strconv.Atoi(dom.GetAttrValue("colwidth", el.Attr)); err == nil {
					attrs["colwidth"] = w
				}
				return attrs, true
			},
		}},
		ToDOM: func(n *model.Node) (*html.Node, *html.Node) {
			el := dom.Element(tag)
			if v := intAttr(model.Attr(n, "colspan"), 1); v != 1 {
				dom.SetAttr(el, "colspan", strconv.Itoa(v))
			}
			if v := intAttr(model.Attr(n, "rowspan"), 1); v != 1 {
				dom.SetAttr(el, "rowspan", strconv.Itoa(v))
			}
			if v := intAttr(model.Attr(n, "colwidth"), 0); v > 0 {
				dom.SetAttr(el, "colwidth", strconv.Itoa(v))
			}
			return el, el
		},
	}
}

func simpleMark(name string, tags ...string) model.MarkSpec {
	spec := model.MarkSpec{
		Name: name,
		ToDOM: func(*model.Mark) *html.Node {
			return dom.Element(tags[0])
		},
	}
	for _, tag := range tags {
		spec.ParseDOM = append(spec.ParseDOM, model.ParseRule{Tag: tag})
	}
	return spec
}

func headingRules() []model.ParseRule {
	var rules []model.ParseRule
	for level := 1; level <= 6; level++ {
		rules = append(rules, model.ParseRule{
			Tag: "h" + strconv.Itoa(level),
			GetAttrs: func(el *html.Node) (map[string]any, bool) {
				attrs, _ := alignAttrs(el)
				attrs["level"] = level
				return attrs, true
			},
		})
	}
	return rules
}

func alignAttrs(el *html.Node) (map[string]any, bool) {
	return map[string]any{"textAlign": toTextAlign(dom.Style(el, "text-align"))}, true
}

func toTextAlign(raw string) any {
	switch TextAlign(raw) {
	case LeftAlign, CenterAlign, RightAlign, JustifyAlign:
		return raw
	default:
		return nil
	}
}

func setAlign(el *html.Node, n *model.Node) {
	if align := model.AttrString(n, "textAlign"); align != "" {
		dom.SetAttr(el, "style", "text-align: "+align)
	}
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func atoiDefault(raw string, def int) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// intAttr приводит числовой атрибут к int, JSON отдает числа как float64.
func intAttr(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}
