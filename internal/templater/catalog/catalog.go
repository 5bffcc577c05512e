// Пакет catalog - каталог полей шаблона: упорядоченный список {id, label}.
// Редактор читает из него только идентификатор и название поля.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

var (
	ErrEmptyID        = errors.New("catalog: field without id")
	ErrEmptyLabel     = errors.New("catalog: field without label")
	ErrDuplicateID    = errors.New("catalog: duplicate field id")
	ErrDuplicateLabel = errors.New("catalog: duplicate field label")
)

// Field - поле каталога. ID используется как ключ типа поля (fieldKey).
type Field struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

type Catalog struct {
	fields  []Field
	byID    map[string]int
	byLabel map[string]int
}

type document struct {
	Fields []Field `yaml:"fields"`
}

// New проверяет поля и строит каталог. Порядок полей сохраняется.
func New(fields []Field) (*Catalog, error) {
	c := &Catalog{
		fields:  make([]Field, 0, len(fields)),
		byID:    make(map[string]int, len(fields)),
		byLabel: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		f.ID = strings.TrimSpace(f.ID)
		f.Label = strings.TrimSpace(f.Label)
		switch {
		case f.ID == "":
			return nil, fmt.Errorf("%w (label %q)", ErrEmptyID, f.Label)
		case f.Label == "":
			return nil, fmt.Errorf("%w (id %q)", ErrEmptyLabel, f.ID)
		}
		if _, exists := c.byID[f.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, f.ID)
		}
		if _, exists := c.byLabel[f.Label]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, f.Label)
		}
		c.byID[f.ID] = len(c.fields)
		c.byLabel[f.Label] = len(c.fields)
		c.fields = append(c.fields, f)
	}
	return c, nil
}

var defaultOnce = sync.OnceValue(func() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
})

// Default - встроенный каталог полей договора.
func Default() *Catalog {
	return defaultOnce()
}

// Parse читает каталог из YAML документа вида {fields: [{id, label}]}.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse yaml: %w", err)
	}
	return New(doc.Fields)
}

func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadFile читает каталог из файла. Пустой путь означает встроенный каталог.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Fields возвращает копию списка полей в порядке каталога.
func (c *Catalog) Fields() []Field {
	return append([]Field(nil), c.fields...)
}

func (c *Catalog) Len() int {
	return len(c.fields)
}

func (c *Catalog) ByID(id string) (Field, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

func (c *Catalog) ByLabel(label string) (Field, bool) {
	i, ok := c.byLabel[label]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// LabelIndex - отображение название -> id для сопоставления полей документа.
func (c *Catalog) LabelIndex() map[string]string {
	res := make(map[string]string, len(c.fields))
	for _, f := range c.fields {
		res[f.Label] = f.ID
	}
	return res
}
