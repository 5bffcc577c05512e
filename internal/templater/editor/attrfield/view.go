package attrfield

import (
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"golang.org/x/net/html"
)

// NodeView - живой элемент поля в отрисованном документе. Обновляется на месте,
// без повторной сериализации всего документа.
type NodeView struct {
	DOM *html.Node

	attrs Attrs
}

// NewNodeView создает представление ноды поля.
func NewNodeView(n *model.Node) *NodeView {
	a := FromNode(n)
	return &NodeView{DOM: RenderDOM(a), attrs: a}
}

// Attrs - атрибуты, с которыми представление отрисовано сейчас.
func (v *NodeView) Attrs() Attrs {
	return v.attrs
}

// Update перерисовывает элемент под новые атрибуты ноды. false означает что
// нода другого типа и представление надо пересоздать.
func (v *NodeView) Update(n *model.Node) bool {
	if v.DOM == nil || !IsField(n) {
		return false
	}
	v.attrs = FromNode(n)
	fill(v.DOM, v.attrs)
	return true
}

// Destroy отвязывает элемент от родителя.
func (v *NodeView) Destroy() {
	if v.DOM == nil {
		return
	}
	if v.DOM.Parent != nil {
		v.DOM.Parent.RemoveChild(v.DOM)
	}
	v.DOM = nil
}
