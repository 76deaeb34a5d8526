package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/atelier-backend/internal/interface/http/response"
	"github.com/ignatzorin/atelier-backend/internal/logger"
	"github.com/ignatzorin/atelier-backend/internal/pkg/apperror"
)

// ErrorHandler отвечает за ошибки, которые хэндлеры положили в c.Errors и не записали сами.
// Сообщение клиенту берётся из AppError, остальные ошибки маскируются.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		entry := logger.Log.WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).WithError(err)
		if apperror.IsValidation(err) || apperror.IsNotFound(err) || apperror.IsForbidden(err) {
			entry.Info("Request error")
		} else {
			entry.Error("Request error")
		}

		if c.Writer.Written() {
			return
		}
		response.Error(c, err)
	}
}
