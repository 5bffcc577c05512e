// Пакет session - сессия редактора шаблона: состояние документа, настройки
// полей и цикл событий, через который проходят все изменения документа.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/aisa-it/templater/internal/templater/catalog"
	"github.com/aisa-it/templater/internal/templater/editor"
	"github.com/aisa-it/templater/internal/templater/editor/attrfield"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"github.com/aisa-it/templater/internal/templater/fieldconfig"
	"github.com/aisa-it/templater/internal/templater/manifest"
	"github.com/gofrs/uuid"
)

const (
	recalculateUsageTask = "recalculate-usage"

	// metaFieldKey - ключ метаданных транзакции с типом вставленного поля.
	metaFieldKey = "fieldKey"
)

var ErrFieldNotConfigured = errors.New("field type has no configuration")

type Options struct {
	// ImageMaxWidth - изображения шире уменьшаются до этой ширины, 0 без ограничения.
	ImageMaxWidth uint
}

// Snapshot - состояние документа на момент запроса.
type Snapshot struct {
	Doc       *model.Node
	Selection model.Selection
	Markup    string
	// Configs - настройки типов полей по fieldKey.
	Configs map[string]attrfield.Policy
}

type Session struct {
	ID      uuid.UUID
	catalog *catalog.Catalog
	opts    Options

	loop  *Loop
	store *fieldconfig.Store

	// меняются только задачами цикла
	state *model.EditorState
	view  *editor.View

	lastAccess atomic.Int64
}

// New открывает сессию над документом. Сессия владеет своим хранилищем
// настроек полей, оно живет до Close. Хранилище заполняется настройками первого
// вхождения каждого типа поля из загруженной разметки.
func New(doc *model.Node, c *catalog.Catalog, opts Options) (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	s := &Session{
		ID:      id,
		catalog: c,
		opts:    opts,
		loop:    NewLoop(),
		store:   fieldconfig.NewStore(),
		state:   model.NewState(editor.Schema(), doc),
		view:    editor.NewView(doc),
	}
	seedStore(s.store, doc)
	s.store.RecalculateUsage(doc)
	s.touch()
	return s, nil
}

func seedStore(store *fieldconfig.Store, doc *model.Node) {
	model.Descendants(doc, func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if !attrfield.IsField(n) {
			return true
		}
		a := attrfield.FromNode(n)
		if key := a.Key(); key != "" {
			if _, ok := store.Get(key); !ok {
				store.Set(key, a.Policy.Normalize())
			}
		}
		return false
	})
}

func (s *Session) touch() {
	s.lastAccess.Store(time.Now().UnixNano())
}

// LastAccess - время последнего обращения к сессии.
func (s *Session) LastAccess() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

func (s *Session) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *Session) do(ctx context.Context, fn func() error) error {
	s.touch()
	return s.loop.Do(ctx, fn)
}

// dispatch применяет транзакцию. Пересчет вхождений полей откладывается до
// завершения текущей задачи цикла.
func (s *Session) dispatch(tr *model.Transaction) {
	s.state = s.state.Apply(tr)
	if !tr.DocChanged() {
		return
	}
	if key, ok := tr.Meta(metaFieldKey).(string); ok {
		slog.Debug("Attribute field inserted", "session", s.ID, "fieldKey", key, "steps", len(tr.Steps()))
	}
	s.view.Update(s.state.Doc)
	s.loop.Defer(recalculateUsageTask, s.recalculateUsage)
}

func (s *Session) recalculateUsage() {
	usage := s.store.RecalculateUsage(s.state.Doc)
	slog.Debug("Recalculate field usage", "session", s.ID, "usage", usage, "configured", s.store.Keys())
}

// Document возвращает текущий документ, выделение и разметку.
func (s *Session) Document(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.do(ctx, func() error {
		markup, err := s.view.HTML()
		if err != nil {
			return err
		}
		snap = Snapshot{Doc: s.state.Doc, Selection: s.state.Selection, Markup: markup, Configs: s.store.Snapshot()}
		return nil
	})
	return snap, err
}

func (s *Session) SetSelection(ctx context.Context, anchor, head int) error {
	return s.do(ctx, func() error {
		tr := s.state.Tr()
		if err := tr.SetSelection(model.Selection{Anchor: anchor, Head: head}); err != nil {
			return err
		}
		s.dispatch(tr)
		return nil
	})
}

// InsertText заменяет выделение текстом. Текст получает марки позиции курсора.
func (s *Session) InsertText(ctx context.Context, text string) error {
	return s.do(ctx, func() error {
		tr := s.state.Tr()
		if err := tr.InsertText(text); err != nil {
			return err
		}
		s.dispatch(tr)
		return nil
	})
}

// Delete удаляет диапазон документа. Концы могут лежать в разных текстовых
// блоках, тогда блоки склеиваются.
func (s *Session) Delete(ctx context.Context, from, to int) error {
	return s.do(ctx, func() error {
		tr := s.state.Tr()
		if err := tr.SetSelection(model.Selection{Anchor: from, Head: to}); err != nil {
			return err
		}
		if err := tr.DeleteSelection(); err != nil {
			return err
		}
		s.dispatch(tr)
		return nil
	})
}

// InsertField сохраняет настройки типа поля, вставляет поле в позицию курсора и
// переносит настройки на все вхождения этого типа одной транзакцией.
func (s *Session) InsertField(ctx context.Context, field catalog.Field, p attrfield.Policy) (attrfield.Attrs, error) {
	var attrs attrfield.Attrs
	err := s.do(ctx, func() error {
		var err error
		attrs, err = s.insertField(field, p.Normalize(), true)
		return err
	})
	return attrs, err
}

// InsertExisting вставляет поле с уже сохраненными настройками его типа.
func (s *Session) InsertExisting(ctx context.Context, field catalog.Field) (attrfield.Attrs, error) {
	var attrs attrfield.Attrs
	err := s.do(ctx, func() error {
		p, ok := s.store.Get(field.ID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrFieldNotConfigured, field.ID)
		}
		var err error
		attrs, err = s.insertField(field, p, false)
		return err
	})
	return attrs, err
}

func (s *Session) insertField(field catalog.Field, p attrfield.Policy, reconcile bool) (attrfield.Attrs, error) {
	tr := s.state.Tr()
	attrs, err := attrfield.InsertField(tr, attrfield.FieldOptions{
		Label:    field.Label,
		FieldKey: &field.ID,
		Policy:   p,
	})
	if err != nil {
		slog.Warn("Insert attribute field", "session", s.ID, "fieldKey", field.ID, "err", err)
		return attrfield.Attrs{}, err
	}
	s.store.Set(field.ID, p)
	if reconcile {
		attrfield.Reconcile(tr.Transform, field.ID, p)
	}
	tr.SetMeta(metaFieldKey, field.ID)
	s.dispatch(tr)
	fieldsInsertedCounter.Inc()
	return attrs, nil
}

// Configure заменяет настройки типа поля и переписывает все его вхождения.
// false - в документе нет вхождений, документ не изменился.
func (s *Session) Configure(ctx context.Context, fieldKey string, p attrfield.Policy) (bool, error) {
	var changed bool
	err := s.do(ctx, func() error {
		p = p.Normalize()
		s.store.Set(fieldKey, p)

		tr := s.state.Tr()
		changed = attrfield.Reconcile(tr.Transform, fieldKey, p)
		if changed {
			s.dispatch(tr)
		}
		reconciliationsCounter.WithLabelValues(strconv.FormatBool(changed)).Inc()
		return nil
	})
	return changed, err
}

// FieldConfig - сохраненные настройки типа поля.
func (s *Session) FieldConfig(ctx context.Context, fieldKey string) (attrfield.Policy, bool, error) {
	var (
		p  attrfield.Policy
		ok bool
	)
	err := s.do(ctx, func() error {
		p, ok = s.store.Get(fieldKey)
		return nil
	})
	return p, ok, err
}

// Usage - число вхождений каждого типа поля.
func (s *Session) Usage(ctx context.Context) (map[string]int, error) {
	var usage map[string]int
	err := s.do(ctx, func() error {
		usage = s.store.Usage()
		return nil
	})
	return usage, err
}

// Save собирает манифест шаблона.
func (s *Session) Save(ctx context.Context) (manifest.Manifest, error) {
	var m manifest.Manifest
	err := s.do(ctx, func() error {
		var err error
		m, err = manifest.Build(s.state.Doc, s.catalog, s.store)
		if err != nil {
			return err
		}
		savesCounter.Inc()
		return nil
	})
	return m, err
}

// Close останавливает цикл сессии. Последующие операции возвращают ErrClosed.
func (s *Session) Close() {
	s.loop.Close()
}

func (s *Session) Closed() bool {
	return s.loop.Closed()
}
