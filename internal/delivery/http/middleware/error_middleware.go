package middleware

import (
	"errors"
	"net/http"

	"career-catalog-backend/internal/delivery/http/response"
	"career-catalog-backend/pkg/apperror"
	"career-catalog-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// errorBody is the machine-readable part of an error response.
type errorBody struct {
	Kind    apperror.Kind `json:"kind"`
	Entity  string        `json:"entity,omitempty"`
	ID      string        `json:"id,omitempty"`
	Details interface{}   `json:"details,omitempty"`
}

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("request failed",
					"path", c.FullPath(),
					"kind", appErr.Kind,
					"error", appErr.Unwrap(),
				)
			}
			response.Error(c, appErr.Code, appErr.Message, errorBody{
				Kind:    appErr.Kind,
				Entity:  appErr.Entity,
				ID:      appErr.ID,
				Details: appErr.Details,
			})
			return
		}

		// Never expose internal error details to clients.
		logger.Log.Error("unhandled error", "path", c.FullPath(), "error", err)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", errorBody{
			Kind: apperror.KindInternal,
		})
	}
}
