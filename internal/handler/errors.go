package handler

import (
	"errors"
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError maps the service layer's typed errors onto HTTP statuses.
// Everything unrecognized is a 500 with the detail kept server-side.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		authzErr      *service.AuthorizationError
		resolvedErr   *service.AlreadyResolvedError
		allocErr      *service.AllocationError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, validationErr.Msg))
	case errors.As(err, &authzErr):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, authzErr.Msg))
	case errors.As(err, &resolvedErr):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, resolvedErr.Msg))
	case errors.As(err, &allocErr):
		if allocErr.Retryable {
			c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, allocErr.Msg))
			return
		}
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, allocErr.Msg))
	case service.NotFound(err):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Record not found"))
	default:
		logrus.WithError(err).Error("unhandled service error")
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
	}
}
