package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomyStatusCodes(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
		check  func(error) bool
	}{
		{Validation("плохое поле"), http.StatusBadRequest, IsValidation},
		{Transient(errors.New("dial tcp"), "хранилище недоступно"), http.StatusServiceUnavailable, IsTransient},
		{Precondition("нет заказа"), http.StatusPreconditionFailed, IsPrecondition},
		{New(ErrCodeGenerationFailed, "генерация не удалась"), http.StatusBadGateway, IsGenerationFailure},
		{ErrUnauthorized, http.StatusUnauthorized, IsUnauthorized},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.HTTPStatus)
		wrapped := fmt.Errorf("layer: %w", tc.err)
		assert.True(t, tc.check(wrapped), string(tc.err.Code))
	}
}

func TestUserMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "хранилище недоступно", UserMessage(Transient(errors.New("sql: conn refused"), "хранилище недоступно")))
	assert.Equal(t, "внутренняя ошибка сервера", UserMessage(errors.New("sql: conn refused")))
}
