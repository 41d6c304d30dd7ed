package services

import "errors"

var (
	// ErrInvalid wraps input rejected by a service.
	ErrInvalid = errors.New("invalid input")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid or expired two-factor code")

	// ErrImagesDisabled is returned when no object storage is configured.
	ErrImagesDisabled = errors.New("image storage is not configured")
)
