package model

import (
	"time"

	"github.com/google/uuid"
)

const DefaultPostStyle = "anime"

type Post struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Style       string    `json:"style"`
	ContentType *string   `json:"content_type,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasImage reports whether the post is in the ImageReady state.
// image and content_type are written together, so the content type alone tells.
func (p *Post) HasImage() bool {
	return p.ContentType != nil
}

func ImagePath(postID uuid.UUID) string {
	return "/image/" + postID.String()
}

// PostImage is the stored binary representation of a post's artwork.
type PostImage struct {
	Data        []byte `json:"-"`
	ContentType string `json:"content_type"`
}

type GeneratedImage struct {
	PostID           uuid.UUID `json:"post_id"`
	ImageURL         string    `json:"image_url"`
	ContentType      string    `json:"content_type"`
	AlreadyGenerated bool      `json:"already_generated"`
}
