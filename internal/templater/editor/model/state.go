package model

import (
	"fmt"
)

// Selection - текстовое выделение. Anchor неподвижный конец, Head - курсор.
type Selection struct {
	Anchor int
	Head   int
}

// NewTextSelection проверяет что оба конца лежат внутри текстовых блоков.
func NewTextSelection(doc *Node, anchor, head int) (Selection, error) {
	for _, pos := range []int{anchor, head} {
		if err := checkTextPos(doc, pos); err != nil {
			return Selection{}, err
		}
	}
	return Selection{Anchor: anchor, Head: head}, nil
}

func checkTextPos(doc *Node, pos int) error {
	if pos < 0 || pos > ContentSize(doc) {
		return fmt.Errorf("%w: %d", ErrInvalidPosition, pos)
	}
	rp, err := doc.Resolve(pos)
	if err != nil {
		return fmt.Errorf("%w: %d: %v", ErrInvalidPosition, pos, err)
	}
	if !rp.Parent().IsTextblock() {
		return fmt.Errorf("%w: %d is not inside a textblock", ErrInvalidPosition, pos)
	}
	return nil
}

// MarksAt - марки, которые получит текст, набранный в позиции. Невключающие
// марки (ссылки) на границе не продолжаются.
func MarksAt(doc *Node, pos int) ([]*Mark, error) {
	if err := checkTextPos(doc, pos); err != nil {
		return nil, err
	}
	rp, err := doc.Resolve(pos)
	if err != nil {
		return nil, fmt.Errorf("%w: %d: %v", ErrInvalidPosition, pos, err)
	}
	return rp.Marks(), nil
}

// Cursor - пустое выделение в позиции pos.
func Cursor(doc *Node, pos int) (Selection, error) {
	return NewTextSelection(doc, pos, pos)
}

// AtStart - курсор в начале первого текстового блока документа.
func AtStart(doc *Node) Selection {
	pos := -1
	Descendants(doc, func(n *Node, p int, _ *Node, _ int) bool {
		if pos >= 0 {
			return false
		}
		if n.IsTextblock() {
			pos = p + 1
			return false
		}
		return true
	})
	if pos < 0 {
		pos = 0
	}
	return Selection{Anchor: pos, Head: pos}
}

func (s Selection) From() int { return min(s.Anchor, s.Head) }

func (s Selection) To() int { return max(s.Anchor, s.Head) }

func (s Selection) Empty() bool { return s.Anchor == s.Head }

// Map переводит выделение через шаги трансформации, начиная с шага since.
func (s Selection) Map(t *Transform, since int) Selection {
	return Selection{Anchor: t.MapPos(s.Anchor, since), Head: t.MapPos(s.Head, since)}
}

// EditorState - неизменяемое состояние редактора: документ и выделение.
type EditorState struct {
	Schema    *Schema
	Doc       *Node
	Selection Selection
}

// NewState создает состояние с курсором в начале документа.
func NewState(s *Schema, doc *Node) *EditorState {
	return &EditorState{Schema: s, Doc: doc, Selection: AtStart(doc)}
}

// Tr начинает транзакцию над состоянием.
func (s *EditorState) Tr() *Transaction {
	return &Transaction{Transform: NewTransform(s.Schema, s.Doc), state: s, selAt: -1}
}

// Apply возвращает новое состояние после транзакции. Выделение, не попавшее в
// текстовый блок, заменяется курсором в начале документа.
func (s *EditorState) Apply(tr *Transaction) *EditorState {
	doc := tr.Doc()
	sel := tr.Selection()
	if _, err := NewTextSelection(doc, sel.Anchor, sel.Head); err != nil {
		sel = AtStart(doc)
	}
	return &EditorState{Schema: s.Schema, Doc: doc, Selection: sel}
}

// Transaction - Transform с выделением и метаданными.
type Transaction struct {
	*Transform

	state *EditorState
	sel   Selection
	// selAt - число шагов на момент явной установки выделения, -1 если не устанавливалось.
	selAt int
	meta  map[string]any
}

// Selection возвращает выделение с учетом шагов, сделанных после его установки.
func (tr *Transaction) Selection() Selection {
	if tr.selAt < 0 {
		return tr.state.Selection.Map(tr.Transform, 0)
	}
	return tr.sel.Map(tr.Transform, tr.selAt)
}

// SetSelection устанавливает выделение в текущем документе транзакции.
func (tr *Transaction) SetSelection(sel Selection) error {
	checked, err := NewTextSelection(tr.Doc(), sel.Anchor, sel.Head)
	if err != nil {
		return err
	}
	tr.sel = checked
	tr.selAt = len(tr.Steps())
	return nil
}

// InsertText заменяет выделение текстом с марками позиции курсора и ставит
// курсор после вставленного текста.
func (tr *Transaction) InsertText(text string) error {
	sel := tr.Selection()
	marks, err := MarksAt(tr.Doc(), sel.From())
	if err != nil {
		return err
	}
	node := tr.Schema().Text(text, marks...)
	if err := tr.Replace(sel.From(), sel.To(), node); err != nil {
		return err
	}
	pos := sel.From()
	if node != nil {
		pos += node.NodeSize()
	}
	return tr.SetSelection(Selection{Anchor: pos, Head: pos})
}

// DeleteSelection удаляет выделенный диапазон, склеивая затронутые блоки.
func (tr *Transaction) DeleteSelection() error {
	sel := tr.Selection()
	if sel.Empty() {
		return nil
	}
	if err := tr.Delete(sel.From(), sel.To()); err != nil {
		return err
	}
	return tr.SetSelection(Selection{Anchor: sel.From(), Head: sel.From()})
}

func (tr *Transaction) SetMeta(key string, value any) *Transaction {
	if tr.meta == nil {
		tr.meta = make(map[string]any)
	}
	tr.meta[key] = value
	return tr
}

func (tr *Transaction) Meta(key string) any {
	return tr.meta[key]
}
