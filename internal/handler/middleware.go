package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/BloggingApp/artblog-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDKey = "user-id"

func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)),
		zap.String("ip", c.ClientIP()),
	}
	if userID, ok := c.Get(userIDKey); ok {
		fields = append(fields, zap.Any("user", userID))
	}
	if c.Writer.Status() >= http.StatusInternalServerError {
		h.logger.Warn("request", fields...)
		return
	}
	h.logger.Debug("request", fields...)
}

// authMiddleware accepts the session cookie or a Bearer token. API clients that
// sent a header get 401; browsers get their stale cookie cleared and go to /admin.
func (h *Handler) authMiddleware(c *gin.Context) {
	token, fromHeader := h.tokenFromRequest(c)

	userID, err := h.services.Auth.Verify(token)
	if err != nil {
		if fromHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(service.ErrNotAuthorized))
			return
		}
		h.clearAuthCookie(c)
		c.Redirect(http.StatusFound, "/admin")
		c.Abort()
		return
	}

	c.Set(userIDKey, userID)

	c.Next()
}

func (h *Handler) tokenFromRequest(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")), true
	}

	cookie, err := c.Cookie(h.cfg.Auth.CookieName)
	if err != nil {
		return "", false
	}
	return cookie, false
}

func (h *Handler) setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cfg.Auth.CookieName, token, int(h.cfg.Auth.TokenTTL.Seconds()), "/", "", h.cfg.App.IsProduction(), true)
}

func (h *Handler) clearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cfg.Auth.CookieName, "", -1, "/", "", h.cfg.App.IsProduction(), true)
}
