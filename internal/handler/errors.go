package handler

import (
	"errors"
	"net/http"

	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/internal/service"
	"github.com/gin-gonic/gin"
)

const msgAlreadyGenerated = "Image already generated"

var (
	errInvalidPostID   = errors.New("invalid post ID")
	errTooManyRequests = errors.New("too many requests, please wait a moment")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrPostNotFound), errors.Is(err, service.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidPost):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrRegistrationClosed):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), dto.NewErrorResponse(err))
}
