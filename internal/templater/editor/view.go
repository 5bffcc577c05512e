package editor

import (
	"reflect"

	"github.com/aisa-it/templater/internal/templater/editor/attrfield"
	"github.com/aisa-it/templater/internal/templater/editor/dom"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"golang.org/x/net/html"
)

// View - отрисованный документ. Поля шаблона отрисованы живыми представлениями,
// поэтому смена настроек полей обновляет их элементы на месте.
type View struct {
	doc    *model.Node
	nodes  []*html.Node
	fields []*attrfield.NodeView
}

func NewView(doc *model.Node) *View {
	v := &View{}
	v.render(doc)
	return v
}

func (v *View) render(doc *model.Node) {
	v.doc = doc
	v.fields = nil
	v.nodes = RenderNodes(doc, func(n *model.Node, _ int) *html.Node {
		if !attrfield.IsField(n) {
			return nil
		}
		fv := attrfield.NewNodeView(n)
		v.fields = append(v.fields, fv)
		return fv.DOM
	})
}

// Update переводит представление на новый документ. Если документы отличаются
// только атрибутами полей, элементы полей обновляются на месте и возвращается
// true. Иначе документ перерисовывается целиком.
func (v *View) Update(doc *model.Node) bool {
	if doc == v.doc {
		return true
	}
	var fieldNodes []*model.Node
	if !sameExceptFields(v.doc, doc, &fieldNodes) || len(fieldNodes) != len(v.fields) {
		v.render(doc)
		return false
	}
	for i, n := range fieldNodes {
		if !reflect.DeepEqual(v.fields[i].Attrs(), attrfield.FromNode(n)) {
			v.fields[i].Update(n)
		}
	}
	v.doc = doc
	return true
}

// Fields - живые представления полей в порядке документа.
func (v *View) Fields() []*attrfield.NodeView {
	return v.fields
}

func (v *View) Doc() *model.Node {
	return v.doc
}

// HTML - текущая разметка представления.
func (v *View) HTML() (string, error) {
	return dom.Render(v.nodes...)
}

// sameExceptFields сравнивает деревья, не глядя на атрибуты полей шаблона.
// Поля нового документа собираются в fields в порядке документа.
func sameExceptFields(a, b *model.Node, fields *[]*model.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if attrfield.IsField(a) || attrfield.IsField(b) {
		if a.Type != b.Type || !model.SameMarkSet(a.Marks, b.Marks) {
			return false
		}
		*fields = append(*fields, b)
		return true
	}
	ac, bc := model.Children(a), model.Children(b)
	if !model.SameMarkup(a, b) || model.TextOf(a) != model.TextOf(b) || len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !sameExceptFields(ac[i], bc[i], fields) {
			return false
		}
	}
	return true
}
