package model

import (
	"fmt"

	pm "github.com/cozy/prosemirror-go/model"
	"github.com/cozy/prosemirror-go/transform"
)

// Transform - цепочка шагов prosemirror-go над документом схемы.
type Transform struct {
	schema *Schema
	tf     *transform.Transform
}

func NewTransform(s *Schema, doc *Node) *Transform {
	return &Transform{schema: s, tf: transform.NewTransform(doc)}
}

func (t *Transform) Schema() *Schema { return t.schema }

// Doc - документ после всех шагов.
func (t *Transform) Doc() *Node { return t.tf.Doc }

func (t *Transform) Steps() []transform.Step { return t.tf.Steps }

func (t *Transform) DocChanged() bool { return len(t.tf.Steps) > 0 }

// Step применяет шаг. Неприменимый шаг не меняет документ и возвращает ошибку.
func (t *Transform) Step(step transform.Step) error {
	if res := t.tf.MaybeStep(step); res.Failed != "" {
		return fmt.Errorf("%w: %s", ErrInvalidRange, res.Failed)
	}
	return nil
}

// Replace заменяет диапазон [from, to) нодами. Диапазон может пересекать
// границы блоков: соседние блоки склеиваются как при удалении в редакторе.
func (t *Transform) Replace(from, to int, nodes ...*Node) error {
	if from < 0 || from > to || to > ContentSize(t.Doc()) {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidPosition, from, to)
	}
	nodes = compact(nodes)
	if from == to && len(nodes) == 0 {
		return nil
	}
	slice := &pm.Slice{Content: fragment(nodes)}
	return t.Step(transform.NewReplaceStep(from, to, slice, false))
}

func (t *Transform) Insert(pos int, nodes ...*Node) error {
	return t.Replace(pos, pos, nodes...)
}

func (t *Transform) Delete(from, to int) error {
	return t.Replace(from, to)
}

// SetNodeAttrs заменяет ноду в позиции pos копией с обновленными атрибутами.
// Ключи, которых нет в attrs, сохраняют старые значения.
func (t *Transform) SetNodeAttrs(pos int, attrs map[string]any) error {
	node := NodeAt(t.Doc(), pos)
	if node == nil || node.IsText() {
		return fmt.Errorf("%w: no node at %d", ErrInvalidPosition, pos)
	}
	merged := make(map[string]any, len(node.Attrs))
	for k, v := range node.Attrs {
		if nv, ok := attrs[k]; ok {
			v = nv
		}
		merged[k] = v
	}
	slice := &pm.Slice{Content: fragment([]*Node{WithAttrs(node, merged)})}
	return t.Step(transform.NewReplaceStep(pos, pos+node.NodeSize(), slice, false))
}

func (t *Transform) SetNodeAttr(pos int, key string, value any) error {
	return t.SetNodeAttrs(pos, map[string]any{key: value})
}

// MapPos переводит позицию через шаги, начиная с шага since.
func (t *Transform) MapPos(pos, since int) int {
	for _, step := range t.tf.Steps[since:] {
		pos = step.GetMap().Map(pos, 1)
	}
	return pos
}
