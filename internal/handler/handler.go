package handler

import (
	"net/http"
	"time"

	"github.com/BloggingApp/artblog-service/internal/config"
	"github.com/BloggingApp/artblog-service/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Handler struct {
	logger   *zap.Logger
	services *service.Service
	cfg      *config.Config
	// uploads serves the file store at /uploads; nil disables the route
	uploads http.FileSystem
}

func New(logger *zap.Logger, services *service.Service, cfg *config.Config, uploads http.FileSystem) *Handler {
	return &Handler{
		logger:   logger,
		services: services,
		cfg:      cfg,
		uploads:  uploads,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), h.requestLogger)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{h.cfg.Client.Origin},
		AllowMethods:     []string{"POST", "GET", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	limits := h.cfg.RateLimit
	if limits.Enabled {
		r.Use(h.rateLimit(newIPRateLimiter(rate.Limit(limits.RequestsPerSecond), limits.Burst)))
	}
	// each sensitive route group gets its own budget so failed logins
	// cannot starve image generation and vice versa
	strict := func() gin.HandlerFunc {
		if !limits.Enabled {
			return func(c *gin.Context) { c.Next() }
		}
		return h.rateLimit(newIPRateLimiter(rate.Every(time.Minute/time.Duration(limits.StrictPerMinute)), limits.StrictBurst))
	}
	loginLimit, registerLimit, generateLimit := strict(), strict(), strict()

	r.GET("/", h.postsGet)
	r.GET("/home", h.postsGet)
	r.GET("/post/:postID", h.postsGetByID)

	r.GET("/generate-image/:postID", generateLimit, h.imageGenerate)
	r.GET("/image/:postID", h.imageGet)
	if h.uploads != nil {
		r.StaticFS("/uploads", h.uploads)
	}

	r.GET("/admin", h.adminPage)
	r.POST("/admin", loginLimit, h.authLogin)
	r.POST("/register", registerLimit, h.authRegister)
	r.GET("/logout", h.authLogout)
	r.GET("/allPosts", h.authMiddleware, h.postsGet)

	v1 := r.Group("/api/v1")
	{
		posts := v1.Group("/posts")
		{
			posts.GET("", h.postsGet)
			posts.POST("", h.authMiddleware, h.postsCreate)

			post := posts.Group("/:postID")
			{
				post.GET("", h.postsGetByID)
				post.PATCH("", h.authMiddleware, h.postsEdit)
				post.DELETE("", h.authMiddleware, h.postsDelete)
				post.POST("/image", h.authMiddleware, generateLimit, h.imageGenerate)
				post.DELETE("/image", h.authMiddleware, h.imageClear)
			}
		}
	}

	return r
}
