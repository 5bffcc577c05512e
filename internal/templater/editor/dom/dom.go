// Вспомогательные функции для работы с деревом golang.org/x/net/html
package dom

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element создает элемент с атрибутами, заданными парами ключ-значение.
func Element(tag string, kv ...string) *html.Node {
	el := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(kv); i += 2 {
		el.Attr = append(el.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return el
}

func Text(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func GetAttrValue(key string, attrs []html.Attribute) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func AttrExists(key string, attrs []html.Attribute) bool {
	return slices.ContainsFunc(attrs, func(attr html.Attribute) bool {
		return attr.Key == key
	})
}

// LookupAttr возвращает значение и признак наличия атрибута.
func LookupAttr(el *html.Node, key string) (string, bool) {
	for _, attr := range el.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// SetAttr заменяет значение атрибута или добавляет его.
func SetAttr(el *html.Node, key, val string) {
	for i, attr := range el.Attr {
		if attr.Key == key {
			el.Attr[i].Val = val
			return
		}
	}
	el.Attr = append(el.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveChildren отвязывает всех детей элемента.
func RemoveChildren(el *html.Node) {
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		c = next
	}
}

// TextContent склеивает текст всех потомков.
func TextContent(el *html.Node) string {
	var sb strings.Builder
	IterNodes(el, func(child *html.Node) bool {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
		return false
	})
	return sb.String()
}

// IterNodes обходит дерево в глубину, true из f прекращает спуск в детей.
func IterNodes(node *html.Node, f func(child *html.Node) bool) {
	if f(node) {
		return
	}
	for p := node.FirstChild; p != nil; p = p.NextSibling {
		IterNodes(p, f)
	}
}

func FindElementByTagName(rootNode *html.Node, tagName string) *html.Node {
	var res *html.Node
	IterNodes(rootNode, func(child *html.Node) bool {
		if res != nil {
			return true
		}
		if child.Type == html.ElementNode && child.Data == tagName {
			res = child
			return true
		}
		return false
	})
	return res
}

// ParseStyles разбирает значение атрибута style в пары свойство-значение.
func ParseStyles(raw string) []html.Attribute {
	var res []html.Attribute
	for _, styleRaw := range strings.Split(raw, ";") {
		key, val, ok := strings.Cut(styleRaw, ":")
		if !ok {
			continue
		}
		res = append(res, html.Attribute{
			Key: strings.ToLower(strings.TrimSpace(key)),
			Val: strings.TrimSpace(val),
		})
	}
	return res
}

// Style возвращает значение css свойства из атрибута style элемента.
func Style(el *html.Node, property string) string {
	return GetAttrValue(property, ParseStyles(GetAttrValue("style", el.Attr)))
}

// Render сериализует список нод в HTML.
func Render(nodes ...*html.Node) (string, error) {
	var sb strings.Builder
	for _, n := range nodes {
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
