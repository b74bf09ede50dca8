package dto

type GenerateImageResponse struct {
	ImageURL string `json:"imageUrl"`
	Message  string `json:"message,omitempty"`
}
