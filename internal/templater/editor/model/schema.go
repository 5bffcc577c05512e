// Пакет model - слой редактора над github.com/cozy/prosemirror-go: схема
// документа с правилами разбора и отрисовки HTML, вспомогательные функции над
// нодами, транзакции с выделением и состояние редактора.
//
// Основные возможности:
//   - Схема собирается через model.NewSchema из prosemirror-go, здесь хранятся только DOM правила.
//   - Позиционная адресация ProseMirror: текст в UTF-16 единицах, лист 1, контейнер содержимое + 2.
//   - Изменения документа - шаги transform.ReplaceStep внутри transform.Transform.
//   - EditorState и Transaction с сохранением корректного текстового выделения.
package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	pm "github.com/cozy/prosemirror-go/model"
	"golang.org/x/net/html"
)

type (
	Node     = pm.Node
	Mark     = pm.Mark
	NodeType = pm.NodeType
	MarkType = pm.MarkType
)

// ContentKind - какое содержимое допускает нода.
type ContentKind int

const (
	// ContentNone - лист, содержимого нет.
	ContentNone ContentKind = iota
	// ContentInline - текстовый блок, только строчные ноды.
	ContentInline
	// ContentBlock - контейнер блочных нод.
	ContentBlock
)

const (
	GroupBlock  = "block"
	GroupInline = "inline"

	TextNodeName = "text"
)

var (
	ErrUnknownNodeType = errors.New("unknown node type")
	ErrUnknownMarkType = errors.New("unknown mark type")
	ErrInvalidContent  = errors.New("invalid content for node type")
	ErrInvalidPosition = errors.New("position out of range")
	ErrInvalidRange    = errors.New("range cannot be replaced")
)

// ParseRule описывает, какой HTML элемент превращается в ноду или марку.
type ParseRule struct {
	Tag string
	// Match - дополнительная проверка элемента, nil означает совпадение по тегу.
	Match func(el *html.Node) bool
	// GetAttrs извлекает атрибуты, false означает что элемент не подходит.
	GetAttrs func(el *html.Node) (map[string]any, bool)
}

// Matches проверяет элемент по правилу и возвращает атрибуты.
func (r ParseRule) Matches(el *html.Node) (map[string]any, bool) {
	if el == nil || el.Type != html.ElementNode || el.Data != r.Tag {
		return nil, false
	}
	if r.Match != nil && !r.Match(el) {
		return nil, false
	}
	if r.GetAttrs == nil {
		return nil, true
	}
	return r.GetAttrs(el)
}

type NodeSpec struct {
	Name       string
	Group      string
	Content    ContentKind
	Inline     bool
	Atom       bool
	Selectable bool
	// Attrs - атрибуты со значениями по умолчанию, других ключей у ноды не бывает.
	Attrs    map[string]any
	ParseDOM []ParseRule
	// ToDOM возвращает элемент и "дыру" для содержимого (nil у листьев).
	ToDOM func(n *Node) (dom *html.Node, hole *html.Node)
}

type MarkSpec struct {
	Name  string
	Attrs map[string]any
	// Exclusive марки не распространяются на текст, набранный на их границе (ссылки).
	Exclusive bool
	ParseDOM  []ParseRule
	ToDOM     func(m *Mark) *html.Node
}

// Schema - схема prosemirror-go вместе с DOM правилами типов.
type Schema struct {
	pm *pm.Schema

	nodes     []*NodeType
	marks     []*MarkType
	nodeSpecs map[string]*NodeSpec
	markSpecs map[string]*MarkSpec
	nodeByKey map[string]*NodeType
	markByKey map[string]*MarkType
	markRank  map[*MarkType]int
}

// NewSchema собирает схему. Первая нода в списке - корень документа и должна
// называться "doc", текстовая нода добавляется автоматически если её нет.
func NewSchema(nodes []NodeSpec, marks []MarkSpec) (*Schema, error) {
	if len(nodes) == 0 || nodes[0].Name != "doc" {
		return nil, errors.New("schema requires a doc top node")
	}
	if nodes[0].Content != ContentBlock {
		return nil, fmt.Errorf("top node %q must hold block content", nodes[0].Name)
	}
	if !slices.ContainsFunc(nodes, func(n NodeSpec) bool { return n.Name == TextNodeName }) {
		nodes = append(slices.Clone(nodes), NodeSpec{Name: TextNodeName, Group: GroupInline, Inline: true})
	}

	s := &Schema{
		nodeSpecs: make(map[string]*NodeSpec, len(nodes)),
		markSpecs: make(map[string]*MarkSpec, len(marks)),
		nodeByKey: make(map[string]*NodeType, len(nodes)),
		markByKey: make(map[string]*MarkType, len(marks)),
		markRank:  make(map[*MarkType]int, len(marks)),
	}
	spec := &pm.SchemaSpec{}
	for i := range nodes {
		ns := &nodes[i]
		if ns.Name == "" {
			return nil, errors.New("node spec without name")
		}
		if _, exists := s.nodeSpecs[ns.Name]; exists {
			return nil, fmt.Errorf("duplicate node type %q", ns.Name)
		}
		s.nodeSpecs[ns.Name] = ns
		spec.Nodes = append(spec.Nodes, &pm.NodeSpec{
			Key:     ns.Name,
			Content: contentExpr(ns.Content, i == 0),
			Group:   ns.Group,
			Inline:  ns.Inline,
			Atom:    ns.Atom,
			Attrs:   attributeSpecs(ns.Attrs),
		})
	}
	for i := range marks {
		ms := &marks[i]
		if _, exists := s.markSpecs[ms.Name]; exists {
			return nil, fmt.Errorf("duplicate mark type %q", ms.Name)
		}
		s.markSpecs[ms.Name] = ms
		mark := &pm.MarkSpec{Key: ms.Name, Attrs: attributeSpecs(ms.Attrs)}
		if ms.Exclusive {
			inclusive := false
			mark.Inclusive = &inclusive
		}
		spec.Marks = append(spec.Marks, mark)
	}

	schema, err := pm.NewSchema(spec)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	s.pm = schema
	for _, nt := range schema.Nodes {
		s.nodeByKey[string(nt.Name)] = nt
	}
	for _, mt := range schema.Marks {
		s.markByKey[string(mt.Name)] = mt
	}
	for _, ns := range nodes {
		s.nodes = append(s.nodes, s.nodeByKey[ns.Name])
	}
	for i, ms := range marks {
		mt := s.markByKey[ms.Name]
		s.marks = append(s.marks, mt)
		s.markRank[mt] = i
	}
	return s, nil
}

func contentExpr(kind ContentKind, top bool) string {
	switch kind {
	case ContentInline:
		return GroupInline + "*"
	case ContentBlock:
		if top {
			return GroupBlock + "+"
		}
		return GroupBlock + "*"
	}
	return ""
}

func attributeSpecs(attrs map[string]any) map[string]*pm.AttributeSpec {
	if len(attrs) == 0 {
		return nil
	}
	res := make(map[string]*pm.AttributeSpec, len(attrs))
	for k, v := range attrs {
		res[k] = &pm.AttributeSpec{Default: v}
	}
	return res
}

// ProseMirror возвращает схему prosemirror-go.
func (s *Schema) ProseMirror() *pm.Schema { return s.pm }

func (s *Schema) TopNodeType() *NodeType { return s.nodes[0] }

// NodeTypes возвращает типы нод в порядке объявления.
func (s *Schema) NodeTypes() []*NodeType { return s.nodes }

// MarkTypes возвращает типы марок в порядке объявления.
func (s *Schema) MarkTypes() []*MarkType { return s.marks }

func (s *Schema) NodeType(name string) (*NodeType, bool) {
	nt, ok := s.nodeByKey[name]
	return nt, ok
}

func (s *Schema) MarkType(name string) (*MarkType, bool) {
	mt, ok := s.markByKey[name]
	return mt, ok
}

// NodeSpec возвращает описание типа с DOM правилами.
func (s *Schema) NodeSpec(nt *NodeType) *NodeSpec {
	return s.nodeSpecs[string(nt.Name)]
}

func (s *Schema) MarkSpec(mt *MarkType) *MarkSpec {
	return s.markSpecs[string(mt.Name)]
}

func (s *Schema) IsInline(nt *NodeType) bool {
	spec := s.NodeSpec(nt)
	return spec.Inline || spec.Name == TextNodeName
}

// Node создает ноду по имени типа.
func (s *Schema) Node(name string, attrs map[string]any, content ...*Node) (*Node, error) {
	nt, ok := s.nodeByKey[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, name)
	}
	return s.Create(nt, attrs, content, nil)
}

// Create создает ноду типа, проверяя содержимое и заполняя атрибуты значениями по умолчанию.
func (s *Schema) Create(nt *NodeType, attrs map[string]any, content []*Node, marks []*Mark) (*Node, error) {
	spec := s.NodeSpec(nt)
	if spec.Name == TextNodeName {
		return nil, errors.New("text nodes are created with Schema.Text")
	}
	content = compact(content)
	for _, n := range content {
		inline := s.IsInline(n.Type)
		switch {
		case spec.Content == ContentNone:
			return nil, fmt.Errorf("%w: %s is a leaf", ErrInvalidContent, spec.Name)
		case spec.Content == ContentInline && !inline, spec.Content == ContentBlock && inline:
			return nil, fmt.Errorf("%w: %s inside %s", ErrInvalidContent, n.Type.Name, spec.Name)
		}
	}
	return &Node{
		Type:    nt,
		Attrs:   computeAttrs(spec.Attrs, attrs),
		Content: fragment(normalize(content)),
		Marks:   s.SortMarks(marks),
	}, nil
}

// Text создает текстовую ноду. Пустой текст недопустим в дереве, поэтому возвращается nil.
func (s *Schema) Text(text string, marks ...*Mark) *Node {
	if text == "" {
		return nil
	}
	return &Node{Type: s.nodeByKey[TextNodeName], Attrs: map[string]any{}, Content: fragment(nil), Marks: s.SortMarks(marks), Text: &text}
}

// Mark создает марку по имени типа.
func (s *Schema) Mark(name string, attrs map[string]any) (*Mark, error) {
	mt, ok := s.markByKey[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMarkType, name)
	}
	return s.CreateMark(mt, attrs), nil
}

func (s *Schema) CreateMark(mt *MarkType, attrs map[string]any) *Mark {
	return &Mark{Type: mt, Attrs: computeAttrs(s.MarkSpec(mt).Attrs, attrs)}
}

// AddMark добавляет марку в набор, заменяя марку того же типа.
func (s *Schema) AddMark(set []*Mark, m *Mark) []*Mark {
	res := make([]*Mark, 0, len(set)+1)
	for _, other := range set {
		if other.Type != m.Type {
			res = append(res, other)
		}
	}
	return s.SortMarks(append(res, m))
}

// SortMarks упорядочивает марки по порядку объявления в схеме.
func (s *Schema) SortMarks(marks []*Mark) []*Mark {
	if len(marks) == 0 {
		return nil
	}
	res := slices.Clone(marks)
	slices.SortStableFunc(res, func(a, b *Mark) int { return s.markRank[a.Type] - s.markRank[b.Type] })
	return res
}

// computeAttrs никогда не возвращает nil: prosemirror-go сравнивает атрибуты
// структурно, и пустая карта должна совпадать с пустой.
func computeAttrs(defaults, attrs map[string]any) map[string]any {
	res := make(map[string]any, len(defaults))
	maps.Copy(res, defaults)
	for k := range res {
		if v, ok := attrs[k]; ok {
			res[k] = v
		}
	}
	return res
}

func compact(nodes []*Node) []*Node {
	res := nodes[:0:0]
	for _, n := range nodes {
		if n != nil {
			res = append(res, n)
		}
	}
	return res
}
