package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/caltrack/pkg/clients/vision"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-3-haiku-20240307"
	maxTokens      = 1024
)

// Config holds the Anthropic connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// APIError is a non-2xx response from the Messages API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic api error: status=%d, message=%s", e.StatusCode, e.Message)
}

// HTTPStatus exposes the response status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

type anthropicClient struct {
	httpClient *resty.Client
	model      string
}

// NewClient creates a configured Anthropic client.
func NewClient(cfg Config) vision.Client {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(base).
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(timeout)

	return &anthropicClient{httpClient: client, model: model}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// AnalyzeImage sends the image and prompt, prefilling the reply with "{" to force a JSON object.
func (c *anthropicClient) AnalyzeImage(ctx context.Context, req vision.ImageRequest) (string, error) {
	mime := req.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}

	reqBody := messageRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []message{
			{
				Role: "user",
				Content: []contentBlock{
					{Type: "image", Source: &imageSource{Type: "base64", MediaType: mime, Data: req.ImageBase64}},
					{Type: "text", Text: req.Prompt},
				},
			},
			{
				Role:    "assistant",
				Content: []contentBlock{{Type: "text", Text: "{"}},
			},
		},
	}

	var respBody messageResponse
	var errBody errorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		SetError(&errBody).
		Post("/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		msg := errBody.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		return "", &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}
	if len(respBody.Content) == 0 || strings.TrimSpace(respBody.Content[0].Text) == "" {
		return "", vision.ErrEmptyResponse
	}

	// Reconstruct the full JSON since we prefilled the opening brace.
	return "{" + respBody.Content[0].Text, nil
}
