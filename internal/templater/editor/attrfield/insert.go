package attrfield

import (
	"errors"
	"fmt"

	"github.com/aisa-it/templater/internal/templater/editor/model"
	"github.com/gofrs/uuid"
)

// ZeroWidthSpace - невидимый текст после поля, на который встает курсор.
const ZeroWidthSpace = "\u200B"

var ErrNoFieldType = errors.New("schema has no attributeField node type")

// FieldOptions - параметры вставляемого поля.
type FieldOptions struct {
	Label    string
	FieldKey *string
	Policy
}

// NewTrackerID выдает идентификатор нового вхождения поля.
func NewTrackerID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// InsertField вставляет поле в начало выделения транзакции. Марки позиции
// курсора переносятся на невидимый пробел после поля, курсор ставится за ним.
func InsertField(tr *model.Transaction, opts FieldOptions) (Attrs, error) {
	schema := tr.Schema()
	nt, ok := schema.NodeType(NodeName)
	if !ok {
		return Attrs{}, ErrNoFieldType
	}

	trackerID, err := NewTrackerID()
	if err != nil {
		return Attrs{}, fmt.Errorf("generate tracker id: %w", err)
	}
	attrs := Attrs{
		Label:     opts.Label,
		TrackerID: trackerID,
		FieldKey:  opts.FieldKey,
		Policy:    opts.Policy,
	}

	from := tr.Selection().From()
	marks, err := model.MarksAt(tr.Doc(), from)
	if err != nil {
		return Attrs{}, fmt.Errorf("field must be inserted into inline content: %w", err)
	}

	node, err := schema.Create(nt, attrs.ToMap(), nil, nil)
	if err != nil {
		return Attrs{}, err
	}
	if err := tr.Insert(from, node); err != nil {
		return Attrs{}, err
	}

	offset := node.NodeSize()
	placeholder := schema.Text(ZeroWidthSpace, marks...)
	if err := tr.Insert(from+offset, placeholder); err != nil {
		return Attrs{}, err
	}

	pos := from + offset + placeholder.NodeSize()
	if err := tr.SetSelection(model.Selection{Anchor: pos, Head: pos}); err != nil {
		return Attrs{}, err
	}
	return attrs, nil
}

// Insert - вставка поля в документ без состояния редактора: возвращает новый
// документ и позицию курсора.
func Insert(s *model.Schema, doc *model.Node, pos int, opts FieldOptions) (*model.Node, int, error) {
	sel, err := model.Cursor(doc, pos)
	if err != nil {
		return nil, 0, err
	}
	state := &model.EditorState{Schema: s, Doc: doc, Selection: sel}
	tr := state.Tr()
	if _, err := InsertField(tr, opts); err != nil {
		return nil, 0, err
	}
	next := state.Apply(tr)
	return next.Doc, next.Selection.Head, nil
}
