package attrfield

import (
	"log/slog"

	"github.com/aisa-it/templater/internal/templater/editor/model"
)

// Reconcile переписывает настройки всех вхождений типа поля fieldKey в текущем
// документе трансформации. label и trackerId не меняются. Все изменения
// попадают в одну трансформацию; false означает что вхождений нет.
func Reconcile(tr *model.Transform, fieldKey string, p Policy) bool {
	type target struct {
		pos   int
		attrs Attrs
	}
	var targets []target
	model.Descendants(tr.Doc(), func(n *model.Node, pos int, _ *model.Node, _ int) bool {
		if !IsField(n) {
			return true
		}
		a := FromNode(n)
		if a.FieldKey != nil && *a.FieldKey == fieldKey {
			a.Policy = p
			targets = append(targets, target{pos: pos, attrs: a})
		}
		return false
	})
	if len(targets) == 0 {
		return false
	}

	scratch := model.NewTransform(tr.Schema(), tr.Doc())
	for _, t := range targets {
		// размер ноды не меняется, позиции остальных вхождений остаются верными
		if err := scratch.SetNodeAttrs(t.pos, t.attrs.ToMap()); err != nil {
			slog.Error("Reconcile attribute field", "fieldKey", fieldKey, "trackerId", t.attrs.TrackerID, "err", err)
			return false
		}
	}
	for _, step := range scratch.Steps() {
		if err := tr.Step(step); err != nil {
			slog.Error("Apply reconciled attribute fields", "fieldKey", fieldKey, "err", err)
			return false
		}
	}
	slog.Debug("Reconcile attribute fields", "fieldKey", fieldKey, "count", len(targets))
	return true
}

// ReconcileDoc - Reconcile для отдельного документа. При отсутствии вхождений
// возвращается исходный документ.
func ReconcileDoc(s *model.Schema, doc *model.Node, fieldKey string, p Policy) (*model.Node, bool) {
	tr := model.NewTransform(s, doc)
	if !Reconcile(tr, fieldKey, p) {
		return doc, false
	}
	return tr.Doc(), true
}
