package editor

import (
	"os"
	"strings"
	"testing"

	"github.com/aisa-it/templater/internal/templater/editor/attrfield"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFixture(t *testing.T) *model.Node {
	t.Helper()
	f, err := os.Open("testdata/contract.html")
	require.NoError(t, err)
	defer f.Close()

	doc, err := ParseHTML(Schema(), f)
	require.NoError(t, err)
	return doc
}

func fieldLabels(doc *model.Node) []string {
	var res []string
	model.Descendants(doc, func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if attrfield.IsField(n) {
			res = append(res, attrfield.FromNode(n).Label)
		}
		return true
	})
	return res
}

func TestSchema(t *testing.T) {
	s := Schema()
	assert.Same(t, s, Schema())
	assert.Equal(t, NodeDoc, string(s.TopNodeType().Name))

	field, ok := s.NodeType(attrfield.NodeName)
	require.True(t, ok)
	assert.True(t, s.IsInline(field))
	assert.True(t, s.NodeSpec(field).Atom)
	link, ok := s.MarkType(MarkLink)
	require.True(t, ok)
	assert.True(t, s.MarkSpec(link).Exclusive)
	found := false
	for _, nt := range s.ProseMirror().Nodes {
		found = found || nt == field
	}
	assert.True(t, found, "types come from the prosemirror schema")
}

func TestParseDefaultContent(t *testing.T) {
	doc, err := ParseString(Schema(), DefaultContent)
	require.NoError(t, err)
	require.Len(t, model.Children(doc), 1)
	assert.Equal(t, NodeParagraph, model.TypeName(model.Child(doc, 0)))
	assert.Equal(t, "Start writing your contract...", model.TextContent(doc))
}

func TestParseEmpty(t *testing.T) {
	doc, err := ParseString(Schema(), "")
	require.NoError(t, err)
	require.Len(t, model.Children(doc), 1)
	assert.Equal(t, 2, model.ContentSize(doc), "one empty paragraph")
}

func TestParseFixture(t *testing.T) {
	doc := parseFixture(t)

	assert.Equal(t,
		[]string{"Contract Date", "Company Name", "Client Name", "Total Amount", "Company Name", "Signature"},
		fieldLabels(doc))

	var blocks []string
	for _, child := range model.Children(doc) {
		blocks = append(blocks, model.TypeName(child))
	}
	assert.Equal(t, []string{NodeHeading, NodeParagraph, NodeHeading, NodeOrderedList, NodeTable, NodeParagraph}, blocks)

	heading := model.Child(doc, 0)
	assert.Equal(t, 1, model.Attr(heading, "level"))
	assert.Equal(t, "center", model.Attr(heading, "textAlign"))

	table := model.Child(doc, 4)
	require.Len(t, model.Children(table), 2, "tbody is transparent")
	assert.Equal(t, NodeTableHeader, model.TypeName(model.Child(model.Child(table, 0), 0)))
	assert.Equal(t, NodeTableCell, model.TypeName(model.Child(model.Child(table, 1), 0)))

	var company *model.Node
	model.Descendants(doc, func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if company == nil && attrfield.IsField(n) && attrfield.FromNode(n).Key() == "5" {
			company = n
		}
		return company == nil
	})
	require.NotNil(t, company)
	a := attrfield.FromNode(company)
	assert.True(t, a.Required)
	assert.Equal(t, "Acme Corporation", *a.DefaultValue)
	require.Len(t, company.Marks, 1, "field inside <strong> keeps the mark")
	assert.Equal(t, MarkBold, model.MarkName(company.Marks[0]))
}

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "marks",
			markup: `<p>Hello <strong>bold</strong> and <em>it</em></p>`,
			want:   `<p>Hello <strong>bold</strong> and <em>it</em></p>`,
		},
		{
			name:   "nested marks share elements",
			markup: `<p><b>a<i>b</i>c</b></p>`,
			want:   `<p><strong>a<em>b</em>c</strong></p>`,
		},
		{
			name:   "whitespace collapse",
			markup: "<p>  a \n\t b  </p>",
			want:   `<p>a b</p>`,
		},
		{
			name:   "align and break",
			markup: `<p style="text-align: right">x<br>y</p>`,
			want:   `<p style="text-align: right">x<br/>y</p>`,
		},
		{
			name:   "transparent div",
			markup: `<div><p>a</p>loose <b>text</b></div>`,
			want:   `<p>a</p><p>loose <strong>text</strong></p>`,
		},
		{
			name:   "unknown inline keeps text",
			markup: `<p><custom-tag>text</custom-tag></p>`,
			want:   `<p>text</p>`,
		},
		{
			name:   "script dropped",
			markup: `<p>a</p><script>alert(1)</script>`,
			want:   `<p>a</p>`,
		},
		{
			name:   "link",
			markup: `<p><a href="https://example.com" target="_blank">site</a></p>`,
			want:   `<p><a href="https://example.com" target="_blank" rel="noopener noreferrer nofollow">site</a></p>`,
		},
		{
			name:   "list",
			markup: `<ul><li>one</li><li><p>two</p></li></ul>`,
			want:   `<ul class="list-disc pl-6"><li><p>one</p></li><li><p>two</p></li></ul>`,
		},
		{
			name:   "image",
			markup: `<p><img src="/a.png" alt="logo" style="width: 120px; height: 60px"></p>`,
			want:   `<p><img src="/a.png" alt="logo" style="width: 120px; height: 60px"/></p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseString(Schema(), tt.markup)
			require.NoError(t, err)
			got, err := RenderHTML(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTMLRoundTrip(t *testing.T) {
	doc := parseFixture(t)
	markup, err := RenderHTML(doc)
	require.NoError(t, err)

	again, err := ParseString(Schema(), markup)
	require.NoError(t, err)
	if !doc.Eq(again) {
		t.Errorf("round trip mismatch:\n%s", cmp.Diff(doc.String(), again.String()))
	}

	second, err := RenderHTML(again)
	require.NoError(t, err)
	assert.Equal(t, markup, second)
}

func TestSanitizeHTML(t *testing.T) {
	dirty := `<p onclick="steal()">Hi <script>alert(1)</script>` +
		`<span data-attribute-field="" tracker-id="t-1" data-label="Client Name" data-field-key="1" data-required="true" data-hidden="false" onmouseover="x()">{{ Client Name }}</span>` +
		`<span style="color: red; position: fixed">red</span></p>`

	clean := SanitizeHTML(dirty)
	assert.NotContains(t, clean, "onclick")
	assert.NotContains(t, clean, "onmouseover")
	assert.NotContains(t, clean, "alert")
	assert.NotContains(t, clean, "position")

	doc, err := ParseString(Schema(), clean)
	require.NoError(t, err)
	assert.Equal(t, []string{"Client Name"}, fieldLabels(doc))

	var field attrfield.Attrs
	model.Descendants(doc, func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if attrfield.IsField(n) {
			field = attrfield.FromNode(n)
		}
		return true
	})
	assert.Equal(t, "t-1", field.TrackerID)
	assert.True(t, field.Required)
	assert.Equal(t, "1", field.Key())
}

func TestSanitizeKeepsRenderedDocument(t *testing.T) {
	doc := parseFixture(t)
	markup, err := RenderHTML(doc)
	require.NoError(t, err)

	again, err := ParseString(Schema(), SanitizeHTML(markup))
	require.NoError(t, err)
	assert.Equal(t, fieldLabels(doc), fieldLabels(again))
	assert.Equal(t, PlainText(doc), PlainText(again))
}

func TestViewUpdatesFieldsInPlace(t *testing.T) {
	doc := parseFixture(t)
	view := NewView(doc)
	require.Len(t, view.Fields(), 6)
	companyDOM := view.Fields()[1].DOM

	next, changed := attrfield.ReconcileDoc(Schema(), doc, "5", attrfield.Policy{Hidden: true})
	require.True(t, changed)

	assert.True(t, view.Update(next), "only field attributes changed")
	assert.Same(t, companyDOM, view.Fields()[1].DOM)
	assert.True(t, view.Fields()[1].Attrs().Hidden)

	got, err := view.HTML()
	require.NoError(t, err)
	want, err := RenderHTML(next)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "{{ Company Name")
}

func TestViewRerendersOnStructuralChange(t *testing.T) {
	doc := parseFixture(t)
	view := NewView(doc)

	tr := model.NewTransform(Schema(), doc)
	require.NoError(t, tr.Insert(1, Schema().Text("Draft: ")))
	assert.False(t, view.Update(tr.Doc()))
	assert.Same(t, tr.Doc(), view.Doc())

	got, err := view.HTML()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, `<h1 style="text-align: center">Draft: SERVICE AGREEMENT</h1>`), got)
}

func TestPlainText(t *testing.T) {
	doc, err := ParseString(Schema(), `<p>a</p><ul><li>b<br>c</li></ul>`)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc", PlainText(doc))
}
