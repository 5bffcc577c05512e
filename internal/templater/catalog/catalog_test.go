package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, 8, c.Len())
	assert.Same(t, c, Default())

	assert.Equal(t, []Field{
		{ID: "1", Label: "Client Name"},
		{ID: "2", Label: "Contract Date"},
		{ID: "3", Label: "Total Amount"},
		{ID: "4", Label: "Signature"},
		{ID: "5", Label: "Company Name"},
		{ID: "6", Label: "Effective Date"},
		{ID: "7", Label: "Recipient Email"},
		{ID: "8", Label: "Document Title"},
	}, c.Fields())

	f, ok := c.ByID("5")
	require.True(t, ok)
	assert.Equal(t, "Company Name", f.Label)

	f, ok = c.ByLabel("Signature")
	require.True(t, ok)
	assert.Equal(t, "4", f.ID)

	_, ok = c.ByID("42")
	assert.False(t, ok)

	assert.Equal(t, "7", c.LabelIndex()["Recipient Email"])
}

func TestFieldsReturnsCopy(t *testing.T) {
	c := Default()
	fields := c.Fields()
	fields[0].Label = "changed"
	f, _ := c.ByID("1")
	assert.Equal(t, "Client Name", f.Label)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		err    error
	}{
		{name: "empty id", fields: []Field{{Label: "A"}}, err: ErrEmptyID},
		{name: "empty label", fields: []Field{{ID: "1", Label: "  "}}, err: ErrEmptyLabel},
		{name: "duplicate id", fields: []Field{{ID: "1", Label: "A"}, {ID: "1", Label: "B"}}, err: ErrDuplicateID},
		{name: "duplicate label", fields: []Field{{ID: "1", Label: "A"}, {ID: "2", Label: "A"}}, err: ErrDuplicateLabel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.fields)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load(strings.NewReader(`
fields:
  - id: lease-1
    label: Landlord
  - id: lease-2
    label: " Tenant "
`))
	require.NoError(t, err)
	assert.Equal(t, []Field{{ID: "lease-1", Label: "Landlord"}, {ID: "lease-2", Label: "Tenant"}}, c.Fields())

	_, err = Load(strings.NewReader("fields: [oops"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	c, err := LoadFile("")
	require.NoError(t, err)
	assert.Same(t, Default(), c)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fields:\n  - id: \"1\"\n    label: Buyer\n"), 0o644))
	c, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
