// Пакет stack_error - ошибки с трассой вызовов обработчика и контекстом
// сессии редактора для лога.
package stack_error

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/labstack/echo/v4"
)

type TrackerError struct {
	Context map[string]any
	Trace   []string
	cause   error
}

// TrackErrorStack добавляет место вызова в трассу ошибки.
func TrackErrorStack(err error) *TrackerError {
	var te *TrackerError
	if !errors.As(err, &te) {
		te = &TrackerError{Context: make(map[string]any), cause: err}
	}
	te.Trace = append(te.Trace, callerFile(err))
	return te
}

// AddContext не перезаписывает уже добавленные ключи.
func (te *TrackerError) AddContext(k string, v any) *TrackerError {
	if _, ok := te.Context[k]; !ok {
		te.Context[k] = v
	}
	return te
}

func (te *TrackerError) AddErr(err error) *TrackerError {
	te.Trace = append(te.Trace, callerFile(err))
	return te
}

func (te *TrackerError) Error() string {
	if te.cause != nil {
		return te.cause.Error()
	}
	return "TrackerError"
}

func (te *TrackerError) Unwrap() error {
	return te.cause
}

// Attrs - атрибуты лога: контекст по ключам и трасса.
func (te *TrackerError) Attrs() []any {
	res := make([]any, 0, len(te.Context)+1)
	for _, k := range slices.Sorted(maps.Keys(te.Context)) {
		res = append(res, slog.Any(k, te.Context[k]))
	}
	return append(res, slog.Any("trace", te.Trace))
}

// GetError пишет ошибку в лог одной записью вместе с запросом.
func GetError(c echo.Context, err error) {
	var te *TrackerError
	var attrs []any

	if errors.As(err, &te) {
		attrs = te.Attrs()
	}
	attrs = append(attrs, slog.String("err", err.Error()))

	if c != nil {
		attrs = append(attrs,
			slog.String("method", c.Request().Method),
			slog.String("url", c.Request().URL.String()))
	}

	slog.Error("Stack error", attrs...)
}

func callerFile(err error) string {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	_, file := filepath.Split(path)
	return fmt.Sprintf("%s:%d %s", file, no, err.Error())
}
