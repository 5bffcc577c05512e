// Пакет attrfield - строчная атомарная нода поля шаблона ({{ Название }}):
// атрибуты, разбор и сериализация HTML, живое представление, вставка в
// документ и синхронизация настроек всех вхождений одного типа поля.
package attrfield

import (
	"strings"

	"github.com/aisa-it/templater/internal/templater/editor/model"
	"golang.org/x/net/html"
)

const (
	NodeName = "attributeField"

	DefaultLabel = "Field"
)

// Ключи атрибутов ноды
const (
	AttrLabel        = "label"
	AttrTrackerID    = "trackerId"
	AttrFieldKey     = "fieldKey"
	AttrRequired     = "required"
	AttrHidden       = "hidden"
	AttrDefaultValue = "defaultValue"
)

// Policy - общие настройки всех вхождений одного типа поля.
type Policy struct {
	Required     bool    `json:"required" yaml:"required"`
	Hidden       bool    `json:"hidden" yaml:"hidden"`
	DefaultValue *string `json:"defaultValue" yaml:"defaultValue"`
}

// Normalize обрезает пробелы значения по умолчанию, пустое значение становится nil.
func (p Policy) Normalize() Policy {
	if p.DefaultValue == nil {
		return p
	}
	v := strings.TrimSpace(*p.DefaultValue)
	if v == "" {
		p.DefaultValue = nil
	} else {
		p.DefaultValue = &v
	}
	return p
}

func (p Policy) Equal(other Policy) bool {
	if p.Required != other.Required || p.Hidden != other.Hidden {
		return false
	}
	if p.DefaultValue == nil || other.DefaultValue == nil {
		return p.DefaultValue == nil && other.DefaultValue == nil
	}
	return *p.DefaultValue == *other.DefaultValue
}

// Attrs - атрибуты одного вхождения поля.
type Attrs struct {
	Label     string
	TrackerID string
	FieldKey  *string
	Policy
}

// FromNode читает атрибуты ноды поля. Отсутствующие значения дают значения по умолчанию.
func FromNode(n *model.Node) Attrs {
	a := Attrs{
		Label:     model.AttrString(n, AttrLabel),
		TrackerID: model.AttrString(n, AttrTrackerID),
		FieldKey:  optString(model.Attr(n, AttrFieldKey)),
	}
	a.Required, _ = model.Attr(n, AttrRequired).(bool)
	a.Hidden, _ = model.Attr(n, AttrHidden).(bool)
	a.DefaultValue = optString(model.Attr(n, AttrDefaultValue))
	return a
}

// ToMap переводит атрибуты в карту атрибутов ноды модели. Пустой trackerId
// означает его отсутствие и хранится как nil, пустые fieldKey и defaultValue
// сохраняются как есть.
func (a Attrs) ToMap() map[string]any {
	var trackerID any
	if a.TrackerID != "" {
		trackerID = a.TrackerID
	}
	return map[string]any{
		AttrLabel:        a.Label,
		AttrTrackerID:    trackerID,
		AttrFieldKey:     nullable(a.FieldKey),
		AttrRequired:     a.Required,
		AttrHidden:       a.Hidden,
		AttrDefaultValue: nullable(a.DefaultValue),
	}
}

// Key - ключ типа поля, пустая строка для полей вне каталога.
func (a Attrs) Key() string {
	if a.FieldKey == nil {
		return ""
	}
	return *a.FieldKey
}

// IsField проверяет что нода - поле шаблона.
func IsField(n *model.Node) bool {
	return n != nil && model.TypeName(n) == NodeName
}

// NodeSpec - описание типа ноды для схемы документа.
func NodeSpec() model.NodeSpec {
	return model.NodeSpec{
		Name:       NodeName,
		Group:      model.GroupInline,
		Content:    model.ContentNone,
		Inline:     true,
		Atom:       true,
		Selectable: true,
		Attrs: map[string]any{
			AttrLabel:        DefaultLabel,
			AttrTrackerID:    nil,
			AttrFieldKey:     nil,
			AttrRequired:     false,
			AttrHidden:       false,
			AttrDefaultValue: nil,
		},
		ParseDOM: []model.ParseRule{{
			Tag: "span",
			GetAttrs: func(el *html.Node) (map[string]any, bool) {
				a, ok := ParseDOM(el)
				if !ok {
					return nil, false
				}
				return a.ToMap(), true
			},
		}},
		ToDOM: func(n *model.Node) (*html.Node, *html.Node) {
			return RenderDOM(FromNode(n)), nil
		},
	}
}

func optString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// StringPtr - короткая запись для необязательных строк.
func StringPtr(s string) *string {
	return &s
}
