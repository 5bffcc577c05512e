// Пакет manifest собирает результат сохранения шаблона: разметку, структурный
// документ и сводку полей, сгруппированную по названию поля.
package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/aisa-it/templater/internal/templater/catalog"
	"github.com/aisa-it/templater/internal/templater/editor"
	"github.com/aisa-it/templater/internal/templater/editor/attrfield"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"github.com/aisa-it/templater/internal/templater/editor/tiptap"
	"github.com/gofrs/uuid"
)

// UnknownAttributeID - идентификатор для названий, которых нет в каталоге.
const UnknownAttributeID = "unknown"

// PolicySource - источник настроек типов полей.
type PolicySource interface {
	Get(fieldKey string) (attrfield.Policy, bool)
}

type Manifest struct {
	TemplateID string          `json:"templateId"`
	Markup     string          `json:"markup"`
	Document   json.RawMessage `json:"structuredDocument"`
	Attributes []Attribute     `json:"attributes"`
}

// Attribute - одна запись на каждое различное название поля.
type Attribute struct {
	AttributeID  string   `json:"attributeId"`
	Label        string   `json:"label"`
	Required     bool     `json:"required"`
	Hidden       bool     `json:"hidden"`
	DefaultValue *string  `json:"defaultValue"`
	TrackerIDs   []string `json:"trackerIds"`
}

// Build сериализует документ для передачи на сторону хранения.
func Build(doc *model.Node, c *catalog.Catalog, policies PolicySource) (Manifest, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return Manifest{}, fmt.Errorf("generate template id: %w", err)
	}

	markup, err := editor.RenderHTML(doc)
	if err != nil {
		return Manifest{}, fmt.Errorf("render markup: %w", err)
	}

	structured, err := tiptap.Serialize(doc)
	if err != nil {
		return Manifest{}, fmt.Errorf("serialize document: %w", err)
	}

	return Manifest{
		TemplateID: id.String(),
		Markup:     markup,
		Document:   structured,
		Attributes: CollectAttributes(doc, c, policies),
	}, nil
}

// CollectAttributes группирует поля документа по названию в порядке первого
// появления. Поля без названия или trackerId пропускаются.
func CollectAttributes(doc *model.Node, c *catalog.Catalog, policies PolicySource) []Attribute {
	res := []Attribute{}
	index := make(map[string]int)

	model.Descendants(doc, func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if !attrfield.IsField(n) {
			return true
		}
		a := attrfield.FromNode(n)
		if a.Label == "" || a.TrackerID == "" {
			return false
		}

		if i, ok := index[a.Label]; ok {
			res[i].TrackerIDs = append(res[i].TrackerIDs, a.TrackerID)
			return false
		}

		attributeID := UnknownAttributeID
		if f, ok := c.ByLabel(a.Label); ok {
			attributeID = f.ID
		}

		key := a.Key()
		if key == "" && attributeID != UnknownAttributeID {
			key = attributeID
		}
		var p attrfield.Policy
		if key != "" && policies != nil {
			p, _ = policies.Get(key)
		}

		index[a.Label] = len(res)
		res = append(res, Attribute{
			AttributeID:  attributeID,
			Label:        a.Label,
			Required:     p.Required,
			Hidden:       p.Hidden,
			DefaultValue: p.DefaultValue,
			TrackerIDs:   []string{a.TrackerID},
		})
		return false
	})
	return res
}
