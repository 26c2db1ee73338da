package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/mamadbah2/caltrack/pkg/clients/vision"
)

const defaultModel = "gemini-2.5-flash"

// Config holds the Gemini connection settings. BaseURL is only set to override the public endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// APIError is a non-2xx response from the Gemini API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini api error: status=%d (%s), message=%s", e.StatusCode, e.Status, e.Message)
}

// HTTPStatus exposes the response status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// Client analyzes images with Google's Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// AnalyzeImage sends the prompt and the inline image and returns the text reply.
func (c *Client) AnalyzeImage(ctx context.Context, req vision.ImageRequest) (string, error) {
	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	mime := req.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(req.Prompt),
			genai.NewPartFromBytes(data, mime),
		}, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &APIError{StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message}
		}
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", vision.ErrEmptyResponse
	}
	return text, nil
}
