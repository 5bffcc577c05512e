package tiptap

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/aisa-it/templater/internal/templater/editor/model"
)

// ParseJSON парсит TipTap JSON в документ схемы s.
// Ноды и марки неизвестных типов пропускаются с предупреждением.
func ParseJSON(s *model.Schema, r io.Reader) (*model.Node, error) {
	var tipTapDoc TipTapDocument
	if err := json.NewDecoder(r).Decode(&tipTapDoc); err != nil {
		return nil, err
	}
	return FromTipTap(s, tipTapDoc)
}

// Parse - ParseJSON для среза байт.
func Parse(s *model.Schema, data []byte) (*model.Node, error) {
	var tipTapDoc TipTapDocument
	if err := json.Unmarshal(data, &tipTapDoc); err != nil {
		return nil, err
	}
	return FromTipTap(s, tipTapDoc)
}

// FromTipTap строит документ из структуры TipTapDocument.
func FromTipTap(s *model.Schema, tipTapDoc TipTapDocument) (*model.Node, error) {
	top := s.TopNodeType()
	if tipTapDoc.Type != string(top.Name) {
		return nil, fmt.Errorf("%w: root is %q, want %q", model.ErrInvalidContent, tipTapDoc.Type, top.Name)
	}

	content := make([]*model.Node, 0, len(tipTapDoc.Content))
	for _, node := range tipTapDoc.Content {
		n, err := parseNode(s, node)
		if err != nil {
			return nil, err
		}
		if n != nil {
			content = append(content, n)
		}
	}
	return s.Create(top, nil, content, nil)
}

// parseNode парсит отдельную ноду TipTap. nil без ошибки - нода пропущена.
func parseNode(s *model.Schema, node TipTapNode) (*model.Node, error) {
	marks := parseMarks(s, node.Marks)
	if node.Type == model.TextNodeName {
		return s.Text(node.Text, marks...), nil
	}

	nt, ok := s.NodeType(node.Type)
	if !ok {
		slog.Warn("Unknown node type", "type", node.Type)
		return nil, nil
	}

	content := make([]*model.Node, 0, len(node.Content))
	for _, child := range node.Content {
		n, err := parseNode(s, child)
		if err != nil {
			return nil, err
		}
		if n != nil {
			content = append(content, n)
		}
	}

	res, err := s.Create(nt, normalizeAttrs(node.Attrs), content, marks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", node.Type, err)
	}
	return res, nil
}

func parseMarks(s *model.Schema, marks []TipTapMark) []*model.Mark {
	var res []*model.Mark
	for _, m := range marks {
		mt, ok := s.MarkType(m.Type)
		if !ok {
			slog.Warn("Unknown mark type", "type", m.Type)
			continue
		}
		res = append(res, s.CreateMark(mt, normalizeAttrs(m.Attrs)))
	}
	return res
}
