package dto

import (
	"time"

	"github.com/google/uuid"
)

type MQPostCreatedMsg struct {
	PostID    uuid.UUID `json:"post_id"`
	PostTitle string    `json:"post_title"`
	CreatedAt time.Time `json:"created_at"`
	// Attempt counts earlier generation attempts for this post; 0 on first delivery.
	Attempt int `json:"attempt,omitempty"`
}

type MQPostImageGeneratedMsg struct {
	PostID      uuid.UUID `json:"post_id"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	GeneratedAt time.Time `json:"generated_at"`
}
