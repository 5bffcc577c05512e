// Пакет содержит определения ошибок HTTP API редактора шаблонов. Каждая ошибка
// имеет код, статус HTTP и описание на английском и русском.
package apierrors

import (
	"fmt"
	"net/http"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

var (
	// 1*** - session errors
	ErrSessionNotFound        = DefinedError{Code: 1001, StatusCode: http.StatusNotFound, Err: "editor session not found", RuErr: "Сессия редактора не найдена"}
	ErrSessionClosed          = DefinedError{Code: 1002, StatusCode: http.StatusGone, Err: "editor session closed", RuErr: "Сессия редактора закрыта"}
	ErrSessionLimit           = DefinedError{Code: 1003, StatusCode: http.StatusTooManyRequests, Err: "editor session limit reached", RuErr: "Достигнут лимит открытых сессий редактора"}
	ErrSessionRequestValidate = DefinedError{Code: 1004, StatusCode: http.StatusBadRequest, Err: "invalid session request", RuErr: "Некорректный запрос сессии"}
	ErrSessionIDInvalid       = DefinedError{Code: 1005, StatusCode: http.StatusBadRequest, Err: "invalid session id", RuErr: "Некорректный идентификатор сессии"}

	// 2*** - document errors
	ErrInvalidSelection       = DefinedError{Code: 2001, StatusCode: http.StatusBadRequest, Err: "position is outside of inline content", RuErr: "Позиция вне текста документа"}
	ErrInvalidMarkup          = DefinedError{Code: 2002, StatusCode: http.StatusBadRequest, Err: "invalid document markup", RuErr: "Некорректная разметка документа"}
	ErrDocumentRequestInvalid = DefinedError{Code: 2003, StatusCode: http.StatusBadRequest, Err: "invalid document edit request", RuErr: "Некорректный запрос изменения документа"}

	// 3*** - attribute field errors
	ErrFieldNotFound        = DefinedError{Code: 3001, StatusCode: http.StatusNotFound, Err: "field %s not found in catalog", RuErr: "Поле %s не найдено в каталоге"}
	ErrFieldNotConfigured   = DefinedError{Code: 3002, StatusCode: http.StatusConflict, Err: "field type has no saved configuration", RuErr: "Для поля нет сохраненных настроек"}
	ErrFieldRequestValidate = DefinedError{Code: 3003, StatusCode: http.StatusBadRequest, Err: "invalid field configuration", RuErr: "Некорректные настройки поля"}
	ErrFieldInsertPosition  = DefinedError{Code: 3004, StatusCode: http.StatusBadRequest, Err: "field can only be inserted into text", RuErr: "Поле можно вставить только в текст"}

	// 4*** - image errors
	ErrImageRequired = DefinedError{Code: 4001, StatusCode: http.StatusBadRequest, Err: "image file is required", RuErr: "Требуется файл изображения"}
	ErrImageInvalid  = DefinedError{Code: 4002, StatusCode: http.StatusBadRequest, Err: "unsupported image format", RuErr: "Неподдерживаемый формат изображения"}

	// 5*** - generic errors
	ErrGeneric       = DefinedError{Code: 5000, StatusCode: http.StatusBadRequest, Err: "Something went wrong. Please try again later or contact the support team.", RuErr: "Что-то пошло не так. Повторите попытку позже или обратитесь в службу поддержки"}
	ErrEntityToLarge = DefinedError{Code: 5010, StatusCode: http.StatusRequestEntityTooLarge, Err: "size exceeds the allowed limit", RuErr: "Размер файла превышает допустимый."}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}
