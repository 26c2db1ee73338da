// Package vision is the contract shared by the image-analysis providers.
package vision

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model reply carries no text.
var ErrEmptyResponse = errors.New("invalid API response structure")

// Client sends an image plus an instruction to a vision model and returns the model's text reply.
type Client interface {
	AnalyzeImage(ctx context.Context, req ImageRequest) (string, error)
}

// ImageRequest is a single-turn prompt with one inline image.
type ImageRequest struct {
	Prompt      string
	ImageBase64 string
	MimeType    string
}

// StatusError is implemented by provider errors that carry an HTTP status code.
type StatusError interface {
	error
	HTTPStatus() int
}
