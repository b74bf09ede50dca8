package handler

import (
	"net/http"
	"strings"

	"github.com/BloggingApp/artblog-service/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func postIDParam(c *gin.Context) (uuid.UUID, bool) {
	postID, err := uuid.Parse(strings.TrimSpace(c.Param("postID")))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(errInvalidPostID))
		return uuid.Nil, false
	}
	return postID, true
}

func (h *Handler) postsCreate(c *gin.Context) {
	var input dto.CreatePostRequest
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	createdPost, err := h.services.Post.Create(c.Request.Context(), input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, *createdPost)
}

func (h *Handler) postsGet(c *gin.Context) {
	var input dto.GetPostsRequest
	if err := c.ShouldBindQuery(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	posts, err := h.services.Post.FindAll(c.Request.Context(), input.Limit, input.Offset)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *Handler) postsGetByID(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.services.Post.FindByID(c.Request.Context(), postID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, *post)
}

func (h *Handler) postsEdit(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	var input dto.EditPostRequest
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, err.Error()))
		return
	}

	post, err := h.services.Post.Edit(c.Request.Context(), postID, input)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, *post)
}

func (h *Handler) postsDelete(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}

	if err := h.services.Post.Delete(c.Request.Context(), postID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewBasicResponse(true, ""))
}
