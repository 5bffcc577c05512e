package templater

import (
	"context"
	"errors"
	"image"
	"net/http"

	"github.com/aisa-it/templater/internal/templater/apierrors"
	"github.com/aisa-it/templater/internal/templater/dto"
	"github.com/aisa-it/templater/internal/templater/editor"
	"github.com/aisa-it/templater/internal/templater/editor/attrfield"
	"github.com/aisa-it/templater/internal/templater/editor/model"
	"github.com/aisa-it/templater/internal/templater/editor/tiptap"
	"github.com/aisa-it/templater/internal/templater/session"
	"github.com/labstack/echo/v4"
)

func (s *Services) AddSessionServices(g *echo.Group) {
	g.POST("sessions/", s.createSession)

	sessionGroup := g.Group("sessions/:sessionId", s.SessionMiddleware)

	sessionGroup.DELETE("/", s.closeSession)
	sessionGroup.GET("/document/", s.getDocument)
	sessionGroup.PUT("/selection/", s.updateSelection)
	sessionGroup.POST("/text/", s.insertText)
	sessionGroup.POST("/delete/", s.deleteRange)

	sessionGroup.POST("/fields/", s.insertField)
	sessionGroup.GET("/fields/:fieldKey/config/", s.getFieldConfig)
	sessionGroup.PUT("/fields/:fieldKey/config/", s.updateFieldConfig)
	sessionGroup.GET("/usage/", s.getFieldUsage)

	sessionGroup.POST("/images/", s.uploadImage)
	sessionGroup.POST("/save/", s.saveTemplate)
}

// sessionError переводит ошибки сессии в ошибки API.
func sessionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrClosed):
		return EErrorDefined(c, apierrors.ErrSessionClosed)
	case errors.Is(err, session.ErrFieldNotConfigured):
		return EErrorDefined(c, apierrors.ErrFieldNotConfigured)
	case errors.Is(err, model.ErrInvalidPosition), errors.Is(err, model.ErrInvalidRange):
		return EErrorDefined(c, apierrors.ErrInvalidSelection)
	case errors.Is(err, context.Canceled):
		return c.NoContent(499)
	}
	return EError(c, err)
}

// createSession godoc
// @id createSession
// @Summary Сессии: открытие сессии редактора
// @Description Открывает сессию над разметкой документа. Без разметки создается документ по умолчанию.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param data body dto.SessionRequest false "Разметка документа"
// @Success 201 {object} dto.SessionResponse "Сессия"
// @Failure 429 {object} apierrors.DefinedError "Лимит сессий"
// @Router /api/sessions/ [post]
func (s *Services) createSession(c echo.Context) error {
	var req dto.SessionRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrSessionRequestValidate)
	}

	markup := req.Markup
	if markup == "" {
		markup = editor.DefaultContent
	} else if !s.cfg.SanitizeDisabled {
		markup = editor.SanitizeHTML(markup)
	}

	doc, err := editor.ParseString(editor.Schema(), markup)
	if err != nil {
		return EErrorDefined(c, apierrors.ErrInvalidMarkup)
	}

	sess, err := s.manager.Open(doc)
	if err != nil {
		if errors.Is(err, session.ErrSessionLimit) {
			return EErrorDefined(c, apierrors.ErrSessionLimit)
		}
		return EError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.SessionResponse{
		ID:        sess.ID.String(),
		Remaining: s.manager.Remaining(),
	})
}

func (s *Services) closeSession(c echo.Context) error {
	sess := c.(SessionContext).Session
	if err := s.manager.Close(sess.ID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return EErrorDefined(c, apierrors.ErrSessionNotFound)
		}
		return EError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// getDocument godoc
// @id getDocument
// @Summary Сессии: текущий документ
// @Description Разметка, структурный документ TipTap, выделение и настройки типов полей.
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Success 200 {object} dto.DocumentResponse "Документ"
// @Router /api/sessions/{sessionId}/document/ [get]
func (s *Services) getDocument(c echo.Context) error {
	sess := c.(SessionContext).Session

	snap, err := sess.Document(c.Request().Context())
	if err != nil {
		return sessionError(c, err)
	}

	structured, err := tiptap.Serialize(snap.Doc)
	if err != nil {
		return EError(c, err)
	}

	configs := make(map[string]dto.FieldConfig, len(snap.Configs))
	for key, p := range snap.Configs {
		configs[key] = dto.NewFieldConfig(p)
	}

	return c.JSON(http.StatusOK, dto.DocumentResponse{
		Markup:       snap.Markup,
		Document:     structured,
		Selection:    dto.Selection{Anchor: snap.Selection.Anchor, Head: snap.Selection.Head},
		FieldConfigs: configs,
	})
}

func (s *Services) updateSelection(c echo.Context) error {
	sess := c.(SessionContext).Session

	var req dto.Selection
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrDocumentRequestInvalid)
	}
	if err := sess.SetSelection(c.Request().Context(), req.Anchor, req.Head); err != nil {
		return sessionError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Services) insertText(c echo.Context) error {
	sess := c.(SessionContext).Session

	var req dto.TextRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrDocumentRequestInvalid)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrDocumentRequestInvalid)
	}
	if err := sess.InsertText(c.Request().Context(), req.Text); err != nil {
		return sessionError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Services) deleteRange(c echo.Context) error {
	sess := c.(SessionContext).Session

	var req dto.RangeRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrDocumentRequestInvalid)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrDocumentRequestInvalid)
	}
	if err := sess.Delete(c.Request().Context(), req.From, req.To); err != nil {
		return sessionError(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// insertField godoc
// @id insertField
// @Summary Поля: вставка поля в позицию курсора
// @Description С use_existing поле получает сохраненные настройки своего типа. Иначе настройки из config сохраняются и переносятся на все вхождения типа поля.
// @Tags Fields
// @Accept json
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param data body dto.InsertFieldRequest true "Поле"
// @Success 201 {object} dto.FieldResponse "Вставленное поле"
// @Failure 404 {object} apierrors.DefinedError "Поле не найдено в каталоге"
// @Failure 409 {object} apierrors.DefinedError "Нет сохраненных настроек"
// @Router /api/sessions/{sessionId}/fields/ [post]
func (s *Services) insertField(c echo.Context) error {
	sess := c.(SessionContext).Session

	var req dto.InsertFieldRequest
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFieldRequestValidate)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFieldRequestValidate)
	}

	field, ok := s.catalog.ByID(req.FieldKey)
	if !ok {
		return EErrorDefined(c, apierrors.ErrFieldNotFound.WithFormattedMessage(req.FieldKey))
	}

	var (
		attrs attrfield.Attrs
		err   error
	)
	if req.UseExisting {
		attrs, err = sess.InsertExisting(c.Request().Context(), field)
	} else {
		var p attrfield.Policy
		if req.Config != nil {
			p = req.Config.Policy()
		}
		attrs, err = sess.InsertField(c.Request().Context(), field, p)
	}
	if err != nil {
		if errors.Is(err, model.ErrInvalidPosition) || errors.Is(err, attrfield.ErrNoFieldType) {
			return EErrorDefined(c, apierrors.ErrFieldInsertPosition)
		}
		return sessionError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.FieldResponse{
		TrackerID: attrs.TrackerID,
		FieldKey:  attrs.Key(),
		Label:     attrs.Label,
		Config:    dto.NewFieldConfig(attrs.Policy),
	})
}

func (s *Services) getFieldConfig(c echo.Context) error {
	sess := c.(SessionContext).Session
	fieldKey := c.Param("fieldKey")

	p, ok, err := sess.FieldConfig(c.Request().Context(), fieldKey)
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, dto.FieldConfigResponse{
		FieldKey:   fieldKey,
		Configured: ok,
		Config:     dto.NewFieldConfig(p),
	})
}

// updateFieldConfig godoc
// @id updateFieldConfig
// @Summary Поля: изменение настроек типа поля
// @Description Настройки заменяются целиком и переносятся на все вхождения поля одной правкой. changed=false - в документе нет вхождений.
// @Tags Fields
// @Accept json
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Param fieldKey path string true "Ключ типа поля"
// @Param data body dto.FieldConfig true "Настройки"
// @Success 200 {object} dto.ConfigureResponse "Результат"
// @Router /api/sessions/{sessionId}/fields/{fieldKey}/config/ [put]
func (s *Services) updateFieldConfig(c echo.Context) error {
	sess := c.(SessionContext).Session
	fieldKey := c.Param("fieldKey")
	if !fieldKeyRe.MatchString(fieldKey) {
		return EErrorDefined(c, apierrors.ErrFieldRequestValidate)
	}

	var req dto.FieldConfig
	if err := c.Bind(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFieldRequestValidate)
	}
	if err := c.Validate(&req); err != nil {
		return EErrorDefined(c, apierrors.ErrFieldRequestValidate)
	}

	changed, err := sess.Configure(c.Request().Context(), fieldKey, req.Policy())
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ConfigureResponse{Changed: changed})
}

func (s *Services) getFieldUsage(c echo.Context) error {
	sess := c.(SessionContext).Session

	usage, err := sess.Usage(c.Request().Context())
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, usage)
}

func (s *Services) uploadImage(c echo.Context) error {
	sess := c.(SessionContext).Session

	file, err := c.FormFile("file")
	if err != nil {
		return EErrorDefined(c, apierrors.ErrImageRequired)
	}
	f, err := file.Open()
	if err != nil {
		return EError(c, err)
	}
	defer f.Close()

	img, err := sess.LoadImage(c.Request().Context(), f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return EErrorDefined(c, apierrors.ErrImageInvalid)
		}
		return sessionError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.ImageResponse{Format: img.Format, Width: img.Width, Height: img.Height})
}

// saveTemplate godoc
// @id saveTemplate
// @Summary Сессии: сохранение шаблона
// @Description Манифест шаблона: разметка, структурный документ и сводка полей по названиям. Передача манифеста в хранилище - задача вызывающей стороны.
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "ID сессии"
// @Success 200 {object} manifest.Manifest "Манифест"
// @Router /api/sessions/{sessionId}/save/ [post]
func (s *Services) saveTemplate(c echo.Context) error {
	sess := c.(SessionContext).Session

	m, err := sess.Save(c.Request().Context())
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}
