package handler

import (
	"net/http"

	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/internal/service"
	"github.com/gin-gonic/gin"
)

// adminPage is the login entry point. An already signed-in admin is sent on to
// the post list.
func (h *Handler) adminPage(c *gin.Context) {
	token, _ := h.tokenFromRequest(c)
	if _, err := h.services.Auth.Verify(token); err == nil {
		c.Redirect(http.StatusFound, "/allPosts")
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, "login with username and password"))
}

func (h *Handler) authLogin(c *gin.Context) {
	var input dto.LoginRequest
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	token, err := h.services.Auth.Login(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.setAuthCookie(c, token)

	c.JSON(http.StatusOK, dto.LoginResponse{Token: token})
}

func (h *Handler) authRegister(c *gin.Context) {
	if !h.cfg.Auth.AllowRegistration {
		abortWithError(c, service.ErrRegistrationClosed)
		return
	}

	var input dto.RegisterRequest
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	user, err := h.services.Auth.Register(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, *user)
}

func (h *Handler) authLogout(c *gin.Context) {
	h.clearAuthCookie(c)
	c.Redirect(http.StatusFound, "/admin")
}
