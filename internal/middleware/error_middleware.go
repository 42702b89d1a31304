package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/pkg/apperrors"
	"github.com/dyilmaz/schoolhub/internal/pkg/logger"
)

// HandleAPIError is the single place service failures become HTTP
// responses. Every failure kind has exactly one status code.
func HandleAPIError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch apperrors.KindOf(err) {
	case apperrors.KindUnauthenticated:
		status = http.StatusUnauthorized
		message = err.Error()
	case apperrors.KindForbidden:
		status = http.StatusForbidden
		message = err.Error()
	case apperrors.KindNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case apperrors.KindConflict:
		status = http.StatusConflict
		message = err.Error()
	case apperrors.KindInvalid, apperrors.KindFailedPrecondition:
		status = http.StatusBadRequest
		message = err.Error()
	default:
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled service error")
	}

	c.JSON(status, dto.Fail(message))
}

// HandleBindingError reports a malformed request body or parameter.
func HandleBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.Fail("Invalid request: "+err.Error()))
}
