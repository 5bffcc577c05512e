package tiptap

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/aisa-it/templater/internal/templater/editor"
	"github.com/aisa-it/templater/internal/templater/editor/attrfield"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripContract(t *testing.T) {
	f, err := os.Open("../testdata/contract.html")
	require.NoError(t, err)
	defer f.Close()

	doc, err := editor.ParseHTML(editor.Schema(), f)
	require.NoError(t, err)

	data, err := Serialize(doc)
	require.NoError(t, err)

	parsed, err := Parse(editor.Schema(), data)
	require.NoError(t, err)
	if !doc.Eq(parsed) {
		t.Errorf("round trip mismatch:\n%s", cmp.Diff(doc.String(), parsed.String()))
	}
}

func TestSerializeField(t *testing.T) {
	doc, err := editor.ParseString(editor.Schema(),
		`<p><strong>To <span data-attribute-field="" tracker-id="t1" data-label="Client Name" data-field-key="1" data-required="true" data-hidden="false"></span></strong></p>`)
	require.NoError(t, err)

	var tipTapDoc TipTapDocument
	data, err := Serialize(doc)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &tipTapDoc))

	require.Len(t, tipTapDoc.Content, 1)
	p := tipTapDoc.Content[0]
	assert.Equal(t, "paragraph", p.Type)
	require.Len(t, p.Content, 2)

	text := p.Content[0]
	assert.Equal(t, "To ", text.Text)
	assert.Equal(t, []TipTapMark{{Type: "bold"}}, text.Marks)
	assert.Nil(t, text.Attrs)

	field := p.Content[1]
	assert.Equal(t, attrfield.NodeName, field.Type)
	assert.Equal(t, map[string]interface{}{
		"label":        "Client Name",
		"trackerId":    "t1",
		"fieldKey":     "1",
		"required":     true,
		"hidden":       false,
		"defaultValue": nil,
	}, field.Attrs)
	assert.Equal(t, []TipTapMark{{Type: "bold"}}, field.Marks)
}

func TestParseJSON(t *testing.T) {
	jsonContent := `{
		"type": "doc",
		"content": [
			{"type": "heading", "attrs": {"level": 2, "textAlign": null}, "content": [{"type": "text", "text": "Terms"}]},
			{"type": "orderedList", "attrs": {"start": 3}, "content": [
				{"type": "listItem", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "item"}]}]}
			]},
			{"type": "codeBlock", "content": [{"type": "text", "text": "ignored"}]},
			{"type": "paragraph", "content": [
				{"type": "text", "marks": [{"type": "sparkle"}, {"type": "italic"}], "text": "x"},
				{"type": "attributeField", "attrs": {"label": "Signature", "trackerId": "s1", "fieldKey": "4", "required": true}}
			]}
		]
	}`

	doc, err := ParseJSON(editor.Schema(), strings.NewReader(jsonContent))
	require.NoError(t, err)
	require.Len(t, model.Children(doc), 3, "unknown codeBlock is skipped")

	assert.Equal(t, 2, model.Attr(model.Child(doc, 0), "level"), "JSON numbers become int")
	assert.Equal(t, 3, model.Attr(model.Child(doc, 1), "start"))

	p := model.Child(doc, 2)
	require.Len(t, model.Children(p), 2)
	require.Len(t, model.Child(p, 0).Marks, 1, "unknown mark is skipped")
	assert.Equal(t, editor.MarkItalic, model.MarkName(model.Child(p, 0).Marks[0]))

	a := attrfield.FromNode(model.Child(p, 1))
	assert.Equal(t, "Signature", a.Label)
	assert.Equal(t, "s1", a.TrackerID)
	assert.True(t, a.Required)
	assert.False(t, a.Hidden)
	assert.Nil(t, a.DefaultValue)
}

func TestParseJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{name: "broken json", json: `{"type":`},
		{name: "wrong root", json: `{"type":"paragraph"}`},
		{name: "text at block level", json: `{"type":"doc","content":[{"type":"text","text":"loose"}]}`},
		{name: "field with content", json: `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"attributeField","content":[{"type":"text","text":"x"}]}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(editor.Schema(), []byte(tt.json))
			assert.Error(t, err)
		})
	}
}
