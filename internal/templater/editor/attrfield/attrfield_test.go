package attrfield

import (
	"strings"
	"testing"

	"github.com/aisa-it/templater/internal/templater/editor/dom"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func testSchema(t *testing.T, withField bool) *model.Schema {
	t.Helper()
	nodes := []model.NodeSpec{
		{Name: "doc", Content: model.ContentBlock},
		{Name: "paragraph", Group: model.GroupBlock, Content: model.ContentInline},
	}
	if withField {
		nodes = append(nodes, NodeSpec())
	}
	s, err := model.NewSchema(nodes, []model.MarkSpec{{Name: "bold"}})
	require.NoError(t, err)
	return s
}

func fieldNode(t *testing.T, s *model.Schema, a Attrs) *model.Node {
	t.Helper()
	n, err := s.Node(NodeName, a.ToMap())
	require.NoError(t, err)
	return n
}

func docOf(t *testing.T, s *model.Schema, inline ...*model.Node) *model.Node {
	t.Helper()
	p, err := s.Node("paragraph", nil, inline...)
	require.NoError(t, err)
	doc, err := s.Node("doc", nil, p)
	require.NoError(t, err)
	return doc
}

func parseSpan(t *testing.T, markup string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	span := dom.FindElementByTagName(root, "span")
	require.NotNil(t, span)
	return span
}

func fields(doc *model.Node) []Attrs {
	var res []Attrs
	model.Descendants(doc, func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if IsField(n) {
			res = append(res, FromNode(n))
		}
		return true
	})
	return res
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  string
	}{
		{name: "nil", value: nil, want: ""},
		{name: "empty", value: StringPtr(""), want: ""},
		{name: "short", value: StringPtr("Acme"), want: "Acme"},
		{name: "exactly 20", value: StringPtr("12345678901234567890"), want: "12345678901234567890"},
		{name: "21 chars", value: StringPtr("123456789012345678901"), want: "12345678901234567..."},
		{name: "cyrillic 21", value: StringPtr("ааааааааааааааааааааа"), want: "ааааааааааааааааа..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.value))
		})
	}
}

func TestDisplayText(t *testing.T) {
	assert.Equal(t, "{{ Signature }}", DisplayText(Attrs{Label: "Signature"}))
	assert.Equal(t, "{{ Company Name (Acme Corporation) }}",
		DisplayText(Attrs{Label: "Company Name", Policy: Policy{DefaultValue: StringPtr("Acme Corporation")}}))
	assert.Equal(t, "{{ Note (A very long default...) }}",
		DisplayText(Attrs{Label: "Note", Policy: Policy{DefaultValue: StringPtr("A very long default value")}}))
}

func TestRenderDOM(t *testing.T) {
	t.Run("hidden", func(t *testing.T) {
		out, err := dom.Render(RenderDOM(Attrs{Label: "Secret", TrackerID: "t1", Policy: Policy{Hidden: true}}))
		require.NoError(t, err)
		assert.Equal(t, `<span data-attribute-field="" tracker-id="t1" style="display: none;" data-label="Secret" data-required="false" data-hidden="true"></span>`, out)
	})

	t.Run("visible required", func(t *testing.T) {
		el := RenderDOM(Attrs{Label: "Signature", TrackerID: "t2", FieldKey: StringPtr("4"), Policy: Policy{Required: true}})
		assert.Equal(t, "false", dom.GetAttrValue("contenteditable", el.Attr))
		assert.Contains(t, dom.GetAttrValue("class", el.Attr), "text-red-800")
		assert.Equal(t, "t2", dom.GetAttrValue(TrackerIDAttr, el.Attr))
		assert.Equal(t, "{{ Signature }}", dom.TextContent(el))
		assert.False(t, dom.AttrExists(DefaultValueAttr, el.Attr))
	})

	t.Run("visible optional", func(t *testing.T) {
		el := RenderDOM(Attrs{Label: "Client Name"})
		assert.Contains(t, dom.GetAttrValue("class", el.Attr), "text-blue-800")
		assert.True(t, dom.AttrExists(MarkerAttr, el.Attr))
	})
}

func TestParseRenderRoundTrip(t *testing.T) {
	cases := []Attrs{
		{Label: "Client Name", TrackerID: "a1", FieldKey: StringPtr("1")},
		{Label: "Total Amount", TrackerID: "a2", FieldKey: StringPtr("3"), Policy: Policy{Required: true, DefaultValue: StringPtr("1 000 000,00 rub. incl. VAT")}},
		{Label: "Secret", TrackerID: "a3", FieldKey: StringPtr("8"), Policy: Policy{Hidden: true, Required: true, DefaultValue: StringPtr("x")}},
		{Label: "Ad hoc", TrackerID: "a4"},
		{Label: `Quote "and" <tag>`, TrackerID: "a5", Policy: Policy{DefaultValue: StringPtr("a & b")}},
	}
	for _, want := range cases {
		t.Run(want.Label, func(t *testing.T) {
			out, err := dom.Render(RenderDOM(want))
			require.NoError(t, err)

			got, ok := ParseDOM(parseSpan(t, "<p>"+out+"</p>"))
			require.True(t, ok)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("attrs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDOMWithoutMarker(t *testing.T) {
	_, ok := ParseDOM(parseSpan(t, `<p><span tracker-id="x">{{ Client Name }}</span></p>`))
	assert.False(t, ok)
	_, ok = ParseDOM(nil)
	assert.False(t, ok)
}

func TestParseDOMLegacyMarkup(t *testing.T) {
	t.Run("visible", func(t *testing.T) {
		a, ok := ParseDOM(parseSpan(t, `<p><span data-attribute-field="" tracker-id="x1" contenteditable="false" class="`+Classes(true)+`">{{ Company Name (Acme) }}</span></p>`))
		require.True(t, ok)
		assert.Equal(t, "Company Name", a.Label)
		assert.Equal(t, "x1", a.TrackerID)
		assert.True(t, a.Required)
		assert.False(t, a.Hidden)
		assert.Nil(t, a.DefaultValue)
		assert.Nil(t, a.FieldKey)
	})

	t.Run("hidden", func(t *testing.T) {
		a, ok := ParseDOM(parseSpan(t, `<p><span data-attribute-field="" tracker-id="x2" style="display: none;"></span></p>`))
		require.True(t, ok)
		assert.Equal(t, DefaultLabel, a.Label)
		assert.True(t, a.Hidden)
		assert.False(t, a.Required)
	})
}

func TestNodeSpecParseRule(t *testing.T) {
	rule := NodeSpec().ParseDOM[0]
	attrs, ok := rule.Matches(parseSpan(t, `<p><span data-attribute-field="" tracker-id="r1" data-label="Signature" data-required="true"></span></p>`))
	require.True(t, ok)
	assert.Equal(t, "Signature", attrs[AttrLabel])
	assert.Equal(t, "r1", attrs[AttrTrackerID])
	assert.Equal(t, true, attrs[AttrRequired])
	assert.Nil(t, attrs[AttrDefaultValue])

	_, ok = rule.Matches(parseSpan(t, `<p><span class="x">text</span></p>`))
	assert.False(t, ok)
}

func TestNodeViewMatchesRender(t *testing.T) {
	s := testSchema(t, true)
	n := fieldNode(t, s, Attrs{Label: "Company Name", TrackerID: "v1", FieldKey: StringPtr("5")})

	view := NewNodeView(n)
	parent := dom.Element("p")
	parent.AppendChild(view.DOM)

	assertSame := func(a Attrs) {
		t.Helper()
		want, err := dom.Render(RenderDOM(a))
		require.NoError(t, err)
		got, err := dom.Render(view.DOM)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assertSame(FromNode(n))

	updated := FromNode(n)
	updated.Policy = Policy{Required: true, DefaultValue: StringPtr("Acme Corporation")}
	require.True(t, view.Update(fieldNode(t, s, updated)))
	assertSame(updated)
	assert.Same(t, parent, view.DOM.Parent, "view is updated in place")

	updated.Hidden = true
	require.True(t, view.Update(fieldNode(t, s, updated)))
	assertSame(updated)
	assert.Empty(t, dom.TextContent(view.DOM))

	assert.False(t, view.Update(s.Text("plain")))

	view.Destroy()
	assert.Nil(t, parent.FirstChild)
	assert.Nil(t, view.DOM)
}

func TestInsertSignatureScenario(t *testing.T) {
	s := testSchema(t, true)
	doc := docOf(t, s)

	next, cursor, err := Insert(s, doc, 1, FieldOptions{
		Label:    "Signature",
		FieldKey: StringPtr("4"),
		Policy:   Policy{Required: true},
	})
	require.NoError(t, err)

	p := model.Child(next, 0)
	require.Len(t, model.Children(p), 2)
	field, placeholder := model.Child(p, 0), model.Child(p, 1)
	require.True(t, IsField(field))
	assert.True(t, field.IsAtom())

	a := FromNode(field)
	assert.Equal(t, "Signature", a.Label)
	assert.Equal(t, "4", a.Key())
	assert.True(t, a.Required)
	assert.False(t, a.Hidden)
	assert.Nil(t, a.DefaultValue)
	_, err = uuid.FromString(a.TrackerID)
	assert.NoError(t, err)

	assert.Equal(t, ZeroWidthSpace, model.TextOf(placeholder))
	// начало параграфа 1, поле занимает 1, невидимый пробел 1
	assert.Equal(t, 1+field.NodeSize()+1, cursor)

	assert.Equal(t, ZeroWidthSpace, model.TextOf(model.NodeAt(next, cursor-1)), "cursor lands right after the placeholder")
	assert.Nil(t, model.NodeAt(next, cursor))
}

func TestInsertKeepsFormatting(t *testing.T) {
	s := testSchema(t, true)
	bold, err := s.Mark("bold", nil)
	require.NoError(t, err)
	state := model.NewState(s, docOf(t, s, s.Text("Dear ", bold)))

	tr := state.Tr()
	require.NoError(t, tr.SetSelection(model.Selection{Anchor: 6, Head: 6}))
	_, err = InsertField(tr, FieldOptions{Label: "Client Name", FieldKey: StringPtr("1")})
	require.NoError(t, err)
	require.NoError(t, tr.InsertText(","))
	next := state.Apply(tr)

	p := model.Child(next.Doc, 0)
	require.Len(t, model.Children(p), 3)
	tail := model.Child(p, 2)
	assert.Equal(t, ZeroWidthSpace+",", model.TextOf(tail), "typed text merges with the placeholder")
	assert.True(t, model.HasMark(tail.Marks, bold))
	assert.Empty(t, model.Child(p, 1).Marks, "field node itself carries no marks")
	assert.Equal(t, 9, next.Selection.Head)
}

func TestInsertHiddenField(t *testing.T) {
	s := testSchema(t, true)
	doc := docOf(t, s, s.Text("ab"))

	next, cursor, err := Insert(s, doc, 2, FieldOptions{Label: "Secret", Policy: Policy{Hidden: true}})
	require.NoError(t, err)
	assert.Equal(t, 4, cursor)
	assert.Equal(t, "a"+ZeroWidthSpace+"b", model.TextContent(next))
	assert.True(t, IsField(model.NodeAt(next, 2)))
}

func TestInsertAssignsUniqueTrackerIDs(t *testing.T) {
	s := testSchema(t, true)
	doc := docOf(t, s)
	seen := map[string]bool{}
	pos := 1
	for range 5 {
		var err error
		doc, pos, err = Insert(s, doc, pos, FieldOptions{Label: "Company Name", FieldKey: StringPtr("5")})
		require.NoError(t, err)
	}
	for _, a := range fields(doc) {
		assert.False(t, seen[a.TrackerID], "duplicate tracker id %s", a.TrackerID)
		seen[a.TrackerID] = true
	}
	assert.Len(t, seen, 5)
}

func TestInsertFailures(t *testing.T) {
	t.Run("no field type", func(t *testing.T) {
		s := testSchema(t, false)
		_, _, err := Insert(s, docOf(t, s), 1, FieldOptions{Label: "X"})
		assert.ErrorIs(t, err, ErrNoFieldType)
	})

	t.Run("block position", func(t *testing.T) {
		s := testSchema(t, true)
		_, _, err := Insert(s, docOf(t, s), 0, FieldOptions{Label: "X"})
		assert.ErrorIs(t, err, model.ErrInvalidPosition)
	})
}

func reconcileFixture(t *testing.T) (*model.Schema, *model.Node) {
	s := testSchema(t, true)
	doc := docOf(t, s,
		s.Text("Between "),
		fieldNode(t, s, Attrs{Label: "Company Name", TrackerID: "c1", FieldKey: StringPtr("5")}),
		s.Text(" and "),
		fieldNode(t, s, Attrs{Label: "Client Name", TrackerID: "k1", FieldKey: StringPtr("1"), Policy: Policy{Hidden: true}}),
		s.Text(", signed by "),
		fieldNode(t, s, Attrs{Label: "Company Name", TrackerID: "c2", FieldKey: StringPtr("5")}),
		fieldNode(t, s, Attrs{Label: "Ad hoc", TrackerID: "n1"}),
	)
	return s, doc
}

func TestReconcileScope(t *testing.T) {
	s, doc := reconcileFixture(t)
	policy := Policy{Required: true, DefaultValue: StringPtr("Acme Corporation")}

	next, changed := ReconcileDoc(s, doc, "5", policy)
	require.True(t, changed)

	got := fields(next)
	before := fields(doc)
	require.Len(t, got, 4)
	for i, a := range got {
		assert.Equal(t, before[i].Label, a.Label)
		assert.Equal(t, before[i].TrackerID, a.TrackerID)
		if a.Key() == "5" {
			assert.True(t, a.Policy.Equal(policy), "occurrence %s", a.TrackerID)
		} else {
			if diff := cmp.Diff(before[i], a); diff != "" {
				t.Errorf("unrelated field changed (-want +got):\n%s", diff)
			}
		}
	}
	assert.Equal(t, model.TextContent(doc), model.TextContent(next))
}

func TestReconcileIdempotent(t *testing.T) {
	s, doc := reconcileFixture(t)
	policy := Policy{Hidden: true}

	first, changed := ReconcileDoc(s, doc, "5", policy)
	require.True(t, changed)
	second, changed := ReconcileDoc(s, first, "5", policy)
	assert.True(t, changed)
	assert.True(t, first.Eq(second))
}

func TestReconcileNoMatches(t *testing.T) {
	s, doc := reconcileFixture(t)
	next, changed := ReconcileDoc(s, doc, "42", Policy{Required: true})
	assert.False(t, changed)
	assert.Same(t, doc, next)

	tr := model.NewTransform(s, doc)
	assert.False(t, Reconcile(tr, "42", Policy{}))
	assert.False(t, tr.DocChanged())
}

func TestReconcileSingleTransform(t *testing.T) {
	s, doc := reconcileFixture(t)
	tr := model.NewTransform(s, doc)
	require.True(t, Reconcile(tr, "5", Policy{Required: true}))
	assert.Len(t, tr.Steps(), 2)
}

func TestReconfigureAcmeScenario(t *testing.T) {
	s := testSchema(t, true)
	doc := docOf(t, s,
		fieldNode(t, s, Attrs{Label: "Company Name", TrackerID: "c1", FieldKey: StringPtr("5")}),
		s.Text(" / "),
		fieldNode(t, s, Attrs{Label: "Company Name", TrackerID: "c2", FieldKey: StringPtr("5")}),
	)

	next, changed := ReconcileDoc(s, doc, "5", Policy{Required: true, DefaultValue: StringPtr("Acme Corporation")})
	require.True(t, changed)

	count := 0
	model.Descendants(next, func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if !IsField(n) {
			return true
		}
		count++
		el := RenderDOM(FromNode(n))
		assert.Contains(t, dom.GetAttrValue("class", el.Attr), RequiredClasses)
		assert.Equal(t, "{{ Company Name (Acme Corporation) }}", dom.TextContent(el))
		return false
	})
	assert.Equal(t, 2, count)
}

func TestPolicyNormalize(t *testing.T) {
	assert.Nil(t, Policy{DefaultValue: StringPtr("   ")}.Normalize().DefaultValue)
	assert.Equal(t, "Acme", *Policy{DefaultValue: StringPtr("  Acme ")}.Normalize().DefaultValue)
	assert.Nil(t, Policy{}.Normalize().DefaultValue)
}

func TestEmptyStringAttrsRoundTrip(t *testing.T) {
	s := testSchema(t, true)
	want := Attrs{Label: "Blank", TrackerID: "e1", FieldKey: StringPtr(""), Policy: Policy{DefaultValue: StringPtr("")}}

	attrs := want.ToMap()
	assert.Equal(t, "", attrs[AttrFieldKey], "empty field key is kept")
	assert.Equal(t, "", attrs[AttrDefaultValue])
	assert.Nil(t, Attrs{Label: "No tracker"}.ToMap()[AttrTrackerID])

	if diff := cmp.Diff(want, FromNode(fieldNode(t, s, want))); diff != "" {
		t.Errorf("node attrs mismatch (-want +got):\n%s", diff)
	}

	parsed, ok := ParseDOM(parseSpan(t, `<p><span data-attribute-field="" tracker-id="e1" data-label="Blank" data-field-key="" data-default-value=""></span></p>`))
	require.True(t, ok)
	if diff := cmp.Diff(want, FromNode(fieldNode(t, s, parsed))); diff != "" {
		t.Errorf("parsed attrs mismatch (-want +got):\n%s", diff)
	}
}
