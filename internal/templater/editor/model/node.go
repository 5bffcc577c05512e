package model

import (
	"reflect"
	"slices"
	"strings"

	pm "github.com/cozy/prosemirror-go/model"
)

// TypeName - имя типа ноды строкой.
func TypeName(n *Node) string {
	if n == nil {
		return ""
	}
	return string(n.Type.Name)
}

// MarkName - имя типа марки строкой.
func MarkName(m *Mark) string { return string(m.Type.Name) }

// Children возвращает детей ноды.
func Children(n *Node) []*Node {
	if n == nil || n.Content == nil {
		return nil
	}
	return n.Content.Content
}

func Child(n *Node, i int) *Node {
	children := Children(n)
	if i < 0 || i >= len(children) {
		return nil
	}
	return children[i]
}

// ContentSize - размер содержимого ноды в позициях.
func ContentSize(n *Node) int {
	size := 0
	for _, child := range Children(n) {
		size += child.NodeSize()
	}
	return size
}

// TextOf возвращает текст текстовой ноды, пустую строку для остальных.
func TextOf(n *Node) string {
	if n == nil || n.Text == nil {
		return ""
	}
	return *n.Text
}

func Attr(n *Node, key string) any {
	return n.Attrs[key]
}

// AttrString возвращает строковый атрибут, пустую строку для nil и чужих типов.
func AttrString(n *Node, key string) string {
	s, _ := n.Attrs[key].(string)
	return s
}

// TextContent склеивает текст всех потомков.
func TextContent(n *Node) string {
	if n.IsText() {
		return TextOf(n)
	}
	var sb strings.Builder
	Descendants(n, func(child *Node, _ int, _ *Node, _ int) bool {
		sb.WriteString(TextOf(child))
		return true
	})
	return sb.String()
}

// Descendants обходит потомков в порядке документа. pos - абсолютная позиция
// начала ноды, если нода документа корневая. Возврат false пропускает детей.
func Descendants(n *Node, f func(node *Node, pos int, parent *Node, index int) bool) {
	walk(n, 0, f)
}

func walk(n *Node, start int, f func(node *Node, pos int, parent *Node, index int) bool) {
	pos := start
	for i, child := range Children(n) {
		if f(child, pos, n, i) && len(Children(child)) > 0 {
			walk(child, pos+1, f)
		}
		pos += child.NodeSize()
	}
}

// NodeAt возвращает ноду, начинающуюся сразу после позиции.
func NodeAt(n *Node, pos int) *Node {
	node := n
	for {
		start := 0
		var found *Node
		for _, child := range Children(node) {
			end := start + child.NodeSize()
			if end > pos {
				found = child
				break
			}
			start = end
		}
		if found == nil {
			return nil
		}
		if start == pos || found.IsText() {
			return found
		}
		pos -= start + 1
		node = found
	}
}

// Copy создает ноду той же разметки с другим содержимым.
func Copy(n *Node, content []*Node) *Node {
	return &Node{Type: n.Type, Attrs: n.Attrs, Content: fragment(content), Marks: n.Marks, Text: n.Text}
}

// WithAttrs создает ноду с теми же содержимым и марками, но другими атрибутами.
func WithAttrs(n *Node, attrs map[string]any) *Node {
	return &Node{Type: n.Type, Attrs: attrs, Content: n.Content, Marks: n.Marks, Text: n.Text}
}

// SameMarkSet сравнивает наборы марок.
func SameMarkSet(a, b []*Mark) bool {
	return slices.EqualFunc(a, b, func(x, y *Mark) bool { return x.Eq(y) })
}

// HasMark проверяет наличие марки в наборе.
func HasMark(set []*Mark, m *Mark) bool {
	return slices.ContainsFunc(set, m.Eq)
}

// SameMarkup сравнивает тип, атрибуты и марки без учета содержимого.
func SameMarkup(a, b *Node) bool {
	if a.Type != b.Type || !SameMarkSet(a.Marks, b.Marks) {
		return false
	}
	if len(a.Attrs) == 0 && len(b.Attrs) == 0 {
		return true
	}
	return reflect.DeepEqual(a.Attrs, b.Attrs)
}

func fragment(content []*Node) *pm.Fragment {
	size := 0
	for _, n := range content {
		size += n.NodeSize()
	}
	return &pm.Fragment{Content: content, Size: size}
}

// normalize склеивает соседние текстовые ноды с одинаковыми марками и выкидывает пустые.
func normalize(content []*Node) []*Node {
	if len(content) == 0 {
		return nil
	}
	res := make([]*Node, 0, len(content))
	for _, n := range content {
		if n.IsText() && TextOf(n) == "" {
			continue
		}
		if last := len(res) - 1; last >= 0 && n.IsText() && res[last].IsText() && SameMarkSet(res[last].Marks, n.Marks) {
			text := TextOf(res[last]) + TextOf(n)
			merged := Copy(res[last], nil)
			merged.Text = &text
			res[last] = merged
			continue
		}
		res = append(res, n)
	}
	return res
}
