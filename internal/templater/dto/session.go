// Структуры запросов и ответов HTTP API редактора шаблонов.
package dto

import (
	"encoding/json"

	"github.com/aisa-it/templater/internal/templater/editor/attrfield"
)

type SessionRequest struct {
	Markup string `json:"markup"`
}

type SessionResponse struct {
	ID        string `json:"id"`
	Remaining int    `json:"sessions_remaining"`
}

type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

type DocumentResponse struct {
	Markup       string                 `json:"markup"`
	Document     json.RawMessage        `json:"document" swaggertype:"object"`
	Selection    Selection              `json:"selection"`
	FieldConfigs map[string]FieldConfig `json:"field_configs"`
}

type RangeRequest struct {
	From int `json:"from" validate:"gte=0"`
	To   int `json:"to" validate:"gtefield=From"`
}

type TextRequest struct {
	Text string `json:"text" validate:"required"`
}

type FieldConfig struct {
	Required     bool    `json:"required"`
	Hidden       bool    `json:"hidden"`
	DefaultValue *string `json:"default_value" validate:"omitempty,defaultValue" extensions:"x-nullable"`
}

func (f FieldConfig) Policy() attrfield.Policy {
	return attrfield.Policy{Required: f.Required, Hidden: f.Hidden, DefaultValue: f.DefaultValue}
}

func NewFieldConfig(p attrfield.Policy) FieldConfig {
	return FieldConfig{Required: p.Required, Hidden: p.Hidden, DefaultValue: p.DefaultValue}
}

type InsertFieldRequest struct {
	FieldKey    string       `json:"field_key" validate:"required,fieldKey"`
	UseExisting bool         `json:"use_existing"`
	Config      *FieldConfig `json:"config"`
}

type FieldResponse struct {
	TrackerID string      `json:"tracker_id"`
	FieldKey  string      `json:"field_key"`
	Label     string      `json:"label"`
	Config    FieldConfig `json:"config"`
}

type FieldConfigResponse struct {
	FieldKey   string      `json:"field_key"`
	Configured bool        `json:"configured"`
	Config     FieldConfig `json:"config"`
}

type ConfigureResponse struct {
	Changed bool `json:"changed"`
}

type ImageResponse struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
