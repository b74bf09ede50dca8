package dto

type CreatePostRequest struct {
	Title string `json:"title" form:"title" binding:"required,min=1"`
	Body  string `json:"body" form:"body" binding:"required,min=1"`
	Style string `json:"style" form:"style"`
}

type GetPostsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

type EditPostRequest struct {
	Title *string `json:"title" form:"title"`
	Body  *string `json:"body" form:"body"`
	Style *string `json:"style" form:"style"`
}
