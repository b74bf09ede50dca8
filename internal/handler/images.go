package handler

import (
	"net/http"

	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/gin-gonic/gin"
)

func (h *Handler) imageGenerate(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	generated, err := h.services.Image.Generate(c.Request.Context(), postID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	res := dto.GenerateImageResponse{ImageURL: generated.ImageURL}
	if generated.AlreadyGenerated {
		res.Message = msgAlreadyGenerated
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) imageGet(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	img, err := h.services.Image.Find(c.Request.Context(), postID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

func (h *Handler) imageClear(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := h.services.Image.Clear(c.Request.Context(), postID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}
