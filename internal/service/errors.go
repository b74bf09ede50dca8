package service

import "errors"

var (
	ErrInternal              = errors.New("internal server error")
	ErrPostNotFound          = errors.New("post not found")
	ErrImageNotFound         = errors.New("post has no image")
	ErrImageGenerationFailed = errors.New("image generation failed, try again later")
	ErrInvalidPost           = errors.New("title and body must not be empty")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrNotAuthorized         = errors.New("user is not authorized")
	ErrUsernameTaken         = errors.New("username is already taken")
	ErrRegistrationClosed    = errors.New("registration is disabled")
)
