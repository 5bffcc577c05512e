package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aisa-it/templater/internal/templater/catalog"
	"github.com/aisa-it/templater/internal/templater/editor/attrfield"
)

// Choice - ответ пользователя при вставке уже настроенного типа поля.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceUseExisting
	ChoiceOverride
)

func (c Choice) String() string {
	switch c {
	case ChoiceUseExisting:
		return "use_existing"
	case ChoiceOverride:
		return "override"
	default:
		return "cancel"
	}
}

// Dialog - диалог настройки поля на стороне интерфейса.
type Dialog interface {
	// ChooseExisting спрашивает, использовать ли сохраненные настройки типа поля.
	ChooseExisting(ctx context.Context, field catalog.Field, current attrfield.Policy) (Choice, error)
	// Configure показывает настройки и возвращает подтвержденные. ok=false - отмена.
	Configure(ctx context.Context, field catalog.Field, current attrfield.Policy) (p attrfield.Policy, ok bool, err error)
}

// PlaceField - вставка поля из каталога с диалогом настройки. Диалог работает
// вне цикла сессии, пока он открыт, документ может меняться. placed=false -
// пользователь отменил вставку.
func (s *Session) PlaceField(ctx context.Context, field catalog.Field, d Dialog) (attrs attrfield.Attrs, placed bool, err error) {
	current, configured, err := s.FieldConfig(ctx, field.ID)
	if err != nil {
		return attrfield.Attrs{}, false, err
	}

	if configured {
		choice, err := d.ChooseExisting(ctx, field, current)
		if err != nil {
			return attrfield.Attrs{}, false, err
		}
		slog.Debug("Place configured field", "session", s.ID, "fieldKey", field.ID, "choice", choice)
		switch choice {
		case ChoiceUseExisting:
			attrs, err = s.InsertExisting(ctx, field)
			if err == nil {
				return attrs, true, nil
			}
			// настройки удалены пересчетом пока был открыт диалог
			if !errors.Is(err, ErrFieldNotConfigured) {
				return attrfield.Attrs{}, false, err
			}
		case ChoiceOverride:
		default:
			return attrfield.Attrs{}, false, nil
		}
	}

	p, ok, err := d.Configure(ctx, field, current)
	if err != nil || !ok {
		return attrfield.Attrs{}, false, err
	}
	attrs, err = s.InsertField(ctx, field, p)
	if err != nil {
		return attrfield.Attrs{}, false, err
	}
	return attrs, true, nil
}
