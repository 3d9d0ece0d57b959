package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/escrow-backend/internal/logger"
	"github.com/ignatzorin/escrow-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно: преобразует AppError в
// HTTP статус и код, маскирует внутренние ошибки от клиента.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if logger.Log != nil {
			entry := logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			if apperror.IsConsistency(err) {
				entry.WithField("critical", true).Error("нарушение инварианта данных")
			} else {
				entry.Warn("ошибка обработки запроса")
			}
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			// Консистентные ошибки не раскрываем клиенту детально.
			message := appErr.Message
			if appErr.Code == apperror.ErrCodeConsistency || appErr.Code == apperror.ErrCodeInternal {
				message = "внутренняя ошибка сервиса"
			}
			c.JSON(appErr.HTTPStatus, gin.H{"error": message, "code": string(appErr.Code)})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{"error": "внутренняя ошибка сервиса"})
	}
}
