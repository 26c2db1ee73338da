package openrouter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/mamadbah2/caltrack/pkg/clients/vision"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "anthropic/claude-3-haiku"
	appTitle       = "Calorie Tracker"
)

// Config holds the OpenRouter connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string
	Timeout time.Duration
}

// APIError is a non-2xx response from OpenRouter.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openrouter api error: status=%d, message=%s", e.StatusCode, e.Message)
}

// HTTPStatus exposes the response status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

type openRouterClient struct {
	httpClient *resty.Client
	model      string
}

// NewClient creates an OpenRouter chat-completions client (OpenAI-compatible API).
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
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", cfg.Referer).
		SetHeader("X-Title", appTitle).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &openRouterClient{httpClient: client, model: model}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

func (c *openRouterClient) AnalyzeImage(ctx context.Context, req vision.ImageRequest) (string, error) {
	mime := req.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: fmt.Sprintf("data:%s;base64,%s", mime, req.ImageBase64)}},
			},
		}},
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openrouter api call: %w", err)
	}

	raw := resp.String()
	if resp.IsError() {
		msg := gjson.Get(raw, "error.message").String()
		if msg == "" {
			msg = raw
		}
		return "", &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}

	content := gjson.Get(raw, "choices.0.message.content")
	if !content.Exists() || strings.TrimSpace(content.String()) == "" {
		return "", vision.ErrEmptyResponse
	}

	return content.String(), nil
}
