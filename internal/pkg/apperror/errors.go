package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// ErrCodeUnavailable: временный сбой сети или хранилища, операцию можно повторить.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	// ErrCodeGenerationFailed: генерация примерки завершилась ошибкой или таймаутом.
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	// ErrCodePrecondition: не выполнено обязательное условие (нет заказа, нет данных шага).
	ErrCodePrecondition    ErrorCode = "PRECONDITION_FAILED"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation создаёт ошибку валидации с пользовательским сообщением.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// Transient оборачивает сбой ввода-вывода, который вызывающий может повторить.
func Transient(err error, message string) *AppError {
	return Wrap(err, ErrCodeUnavailable, message)
}

// Precondition создаёт ошибку невыполненного предусловия.
func Precondition(message string) *AppError {
	return New(ErrCodePrecondition, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeGenerationFailed:
		return http.StatusBadGateway
	case ErrCodePrecondition:
		return http.StatusPreconditionFailed
	case ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsUnauthorized(err error) bool {
	return hasCode(err, ErrCodeUnauthorized)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsTransient(err error) bool {
	return hasCode(err, ErrCodeUnavailable)
}

func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

func IsPrecondition(err error) bool {
	return hasCode(err, ErrCodePrecondition)
}

func IsGenerationFailure(err error) bool {
	return hasCode(err, ErrCodeGenerationFailed)
}

// UserMessage возвращает сообщение для пользователя без внутренних деталей.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "внутренняя ошибка сервера"
}

var (
	ErrOrderNotFound      = New(ErrCodeNotFound, "заказ не найден")
	ErrTryOnJobNotFound   = New(ErrCodeNotFound, "задача примерки не найдена")
	ErrSessionNotFound    = New(ErrCodeNotFound, "сессия оформления заказа не найдена")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrJobAlreadyTerminal = New(ErrCodeConflict, "задача примерки уже завершена")
	ErrNoOrderToFinalize  = Precondition("заказ ещё не сохранён: заполните имя и телефон")
)
