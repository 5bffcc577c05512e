package tiptap

import (
	"encoding/json"
	"maps"

	"github.com/aisa-it/templater/internal/templater/editor/model"
)

// Serialize сериализует документ в TipTap JSON.
func Serialize(doc *model.Node) ([]byte, error) {
	return json.Marshal(ToTipTap(doc))
}

// ToTipTap преобразует документ в структуру TipTapDocument.
func ToTipTap(doc *model.Node) TipTapDocument {
	tipTapDoc := TipTapDocument{
		Type:    model.TypeName(doc),
		Content: make([]TipTapNode, 0, len(model.Children(doc))),
	}
	for _, child := range model.Children(doc) {
		tipTapDoc.Content = append(tipTapDoc.Content, serializeNode(child))
	}
	return tipTapDoc
}

// serializeNode преобразует ноду модели в TipTap ноду.
func serializeNode(n *model.Node) TipTapNode {
	node := TipTapNode{
		Type:  model.TypeName(n),
		Marks: serializeMarks(n.Marks),
	}
	if n.IsText() {
		node.Text = model.TextOf(n)
		return node
	}
	if len(n.Attrs) > 0 {
		node.Attrs = maps.Clone(n.Attrs)
	}
	for _, child := range model.Children(n) {
		node.Content = append(node.Content, serializeNode(child))
	}
	return node
}

func serializeMarks(marks []*model.Mark) []TipTapMark {
	if len(marks) == 0 {
		return nil
	}
	res := make([]TipTapMark, 0, len(marks))
	for _, m := range marks {
		mark := TipTapMark{Type: model.MarkName(m)}
		if len(m.Attrs) > 0 {
			mark.Attrs = maps.Clone(m.Attrs)
		}
		res = append(res, mark)
	}
	return res
}
