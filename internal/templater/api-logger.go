// Возврат ошибок API с кодами статуса и логированием.
package templater

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime"

	"github.com/aisa-it/templater/internal/templater/apierrors"
	errStack "github.com/aisa-it/templater/internal/templater/stack-error"
	"github.com/labstack/echo/v4"
)

// Возврат ошибки 400 с универсальным сообщением
func EError(c echo.Context, err error) error {
	if customErr, ok := err.(apierrors.DefinedError); ok {
		return EErrorDefined(c, customErr)
	}
	if err == nil {
		slog.Error("Unknown API error",
			"method", c.Request().Method,
			"url", c.Request().URL,
			"session", sessionID(c),
			getCallerFile(),
		)
	} else {
		errStack.GetError(c, errStack.TrackErrorStack(err).AddContext("session", sessionID(c)))
	}
	return EErrorDefined(c, apierrors.ErrGeneric)
}

// Возврат ошибки <status> с сообщением ошибки (404 не логируется)
func EErrorMsgStatus(c echo.Context, err error, status int) error {
	if status == http.StatusRequestEntityTooLarge {
		return EErrorDefined(c, apierrors.ErrEntityToLarge)
	}

	er := apierrors.ErrGeneric
	er.StatusCode = status
	if err != nil {
		er.Err = err.Error()
	}
	if status != http.StatusNotFound {
		slog.Error("API error",
			"err", err,
			"method", c.Request().Method,
			slog.Int("status", status),
			"url", c.Request().URL,
			"session", sessionID(c),
			getCallerFile(),
		)
	}
	return EErrorDefined(c, er)
}

// EErrorDefined возвращает JSON с кодом статуса и описанием ошибки. Для
// неизвестного кода статуса используется 400 Bad Request.
func EErrorDefined(c echo.Context, err apierrors.DefinedError) error {
	if http.StatusText(err.StatusCode) == "" {
		err.StatusCode = http.StatusBadRequest
	}
	return c.JSON(err.StatusCode, err)
}

func sessionID(c echo.Context) string {
	if ctx, ok := c.(SessionContext); ok {
		return ctx.Session.ID.String()
	}
	return c.Param("sessionId")
}

func getCallerFile() slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.Attr{}
	}
	_, file := filepath.Split(path)
	return slog.String("caller", fmt.Sprintf("%s:%d", file, no))
}
