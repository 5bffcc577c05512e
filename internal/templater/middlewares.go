package templater

import (
	"errors"

	"github.com/aisa-it/templater/internal/templater/apierrors"
	"github.com/aisa-it/templater/internal/templater/session"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
)

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "Templater")
		return next(c)
	}
}

type SessionContext struct {
	echo.Context
	Session *session.Session
}

// SessionMiddleware находит открытую сессию редактора по параметру sessionId.
func (s *Services) SessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := uuid.FromString(c.Param("sessionId"))
		if err != nil {
			return EErrorDefined(c, apierrors.ErrSessionIDInvalid)
		}

		sess, err := s.manager.Get(id)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				return EErrorDefined(c, apierrors.ErrSessionNotFound)
			}
			return EError(c, err)
		}
		if sess.Closed() {
			return EErrorDefined(c, apierrors.ErrSessionClosed)
		}

		return next(SessionContext{c, sess})
	}
}
