package attrfield

import (
	"strings"
	"unicode/utf8"

	"github.com/aisa-it/templater/internal/templater/editor/dom"
	"golang.org/x/net/html"
)

// Атрибуты разметки поля
const (
	MarkerAttr       = "data-attribute-field"
	TrackerIDAttr    = "tracker-id"
	LabelAttr        = "data-label"
	FieldKeyAttr     = "data-field-key"
	RequiredAttr     = "data-required"
	HiddenAttr       = "data-hidden"
	DefaultValueAttr = "data-default-value"
)

const (
	BaseClasses = "inline-block align-middle mx-1 px-3 py-1 text-sm font-medium rounded-lg shadow-sm select-none cursor-pointer transition-all duration-150"

	RequiredClasses = "bg-red-50 text-red-800 border border-red-300 hover:bg-red-100 hover:border-red-400"
	OptionalClasses = "bg-blue-50 text-blue-800 border border-blue-300 hover:bg-blue-100 hover:border-blue-400"

	HiddenStyle = "display: none;"
)

const (
	MaxDefaultLength = 20
	ellipsis         = "..."
)

// Truncate сокращает значение по умолчанию для отображения: больше 20 символов
// обрезается до 17 с многоточием.
func Truncate(value *string) string {
	if value == nil || *value == "" {
		return ""
	}
	if utf8.RuneCountInString(*value) <= MaxDefaultLength {
		return *value
	}
	runes := []rune(*value)
	return string(runes[:MaxDefaultLength-len(ellipsis)]) + ellipsis
}

// DisplayText - текст видимого поля: {{ label (default) }}.
func DisplayText(a Attrs) string {
	suffix := ""
	if t := Truncate(a.DefaultValue); t != "" {
		suffix = " (" + t + ")"
	}
	return "{{ " + a.Label + suffix + " }}"
}

// Classes - css классы видимого поля, цвет зависит от обязательности.
func Classes(required bool) string {
	if required {
		return BaseClasses + " " + RequiredClasses
	}
	return BaseClasses + " " + OptionalClasses
}

// RenderDOM строит элемент поля. Скрытое поле - невидимый span без текста,
// видимое - нередактируемый токен с текстом.
func RenderDOM(a Attrs) *html.Node {
	el := dom.Element("span")
	fill(el, a)
	return el
}

// fill записывает атрибуты и текст поля в элемент, затирая прежние.
func fill(el *html.Node, a Attrs) {
	el.Attr = el.Attr[:0]
	dom.RemoveChildren(el)

	dom.SetAttr(el, MarkerAttr, "")
	dom.SetAttr(el, TrackerIDAttr, a.TrackerID)
	if a.Hidden {
		dom.SetAttr(el, "style", HiddenStyle)
	} else {
		dom.SetAttr(el, "contenteditable", "false")
		dom.SetAttr(el, "class", Classes(a.Required))
	}

	dom.SetAttr(el, LabelAttr, a.Label)
	if a.FieldKey != nil {
		dom.SetAttr(el, FieldKeyAttr, *a.FieldKey)
	}
	dom.SetAttr(el, RequiredAttr, boolString(a.Required))
	dom.SetAttr(el, HiddenAttr, boolString(a.Hidden))
	if a.DefaultValue != nil {
		dom.SetAttr(el, DefaultValueAttr, *a.DefaultValue)
	}

	if !a.Hidden {
		el.AppendChild(dom.Text(DisplayText(a)))
	}
}

// ParseDOM распознает элемент поля по атрибуту-маркеру. Элемент без маркера
// не подходит, это не ошибка.
func ParseDOM(el *html.Node) (Attrs, bool) {
	if el == nil || el.Type != html.ElementNode || !dom.AttrExists(MarkerAttr, el.Attr) {
		return Attrs{}, false
	}

	a := Attrs{TrackerID: dom.GetAttrValue(TrackerIDAttr, el.Attr)}
	if label, ok := dom.LookupAttr(el, LabelAttr); ok {
		a.Label = label
	} else {
		a.Label = labelFromText(dom.TextContent(el))
	}
	if a.Label == "" {
		a.Label = DefaultLabel
	}
	if key, ok := dom.LookupAttr(el, FieldKeyAttr); ok {
		a.FieldKey = &key
	}

	if v, ok := dom.LookupAttr(el, RequiredAttr); ok {
		a.Required = v == "true"
	} else {
		a.Required = strings.Contains(dom.GetAttrValue("class", el.Attr), "text-red-800")
	}
	if v, ok := dom.LookupAttr(el, HiddenAttr); ok {
		a.Hidden = v == "true"
	} else {
		a.Hidden = dom.Style(el, "display") == "none"
	}
	if v, ok := dom.LookupAttr(el, DefaultValueAttr); ok {
		a.DefaultValue = &v
	}
	return a, true
}

// labelFromText восстанавливает название из текста токена старой разметки.
func labelFromText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "{{")
	text = strings.TrimSuffix(text, "}}")
	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, ")") {
		if i := strings.LastIndex(text, " ("); i > 0 {
			text = text[:i]
		}
	}
	return text
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
