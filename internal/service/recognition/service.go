package recognition

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/mamadbah2/caltrack/internal/domain/models"
	"github.com/mamadbah2/caltrack/pkg/clients/vision"
)

// Prompt is the fixed instruction sent with every image.
const Prompt = "Analyze this food image and provide the following information in JSON format ONLY:\n" +
	"- name: The name of the food\n" +
	"- calories: Estimated calories per serving\n" +
	"- protein: Grams of protein\n" +
	"- carbs: Grams of carbohydrates\n" +
	"- fat: Grams of fat\n\n" +
	"Return ONLY the JSON object, no other text."

// ErrorKind classifies why a recognition call failed.
type ErrorKind string

const (
	KindCredential        ErrorKind = "credential"
	KindEmptyImage        ErrorKind = "empty_image"
	KindImageTooLarge     ErrorKind = "image_too_large"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindRateLimited       ErrorKind = "rate_limited"
	KindBadRequest        ErrorKind = "bad_request"
	KindPayloadTooLarge   ErrorKind = "payload_too_large"
	KindTransport         ErrorKind = "transport"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindIncomplete        ErrorKind = "incomplete"
)

var userMessages = map[ErrorKind]string{
	KindCredential:      "Food recognition API key is not configured.",
	KindEmptyImage:      "Please upload an image of your food.",
	KindImageTooLarge:   "Please upload an image smaller than 5MB.",
	KindUnauthorized:    "Invalid API key. Please check your API key configuration.",
	KindRateLimited:     "Too many requests. Please try again later.",
	KindBadRequest:      "Invalid request format. Please try with a different image.",
	KindPayloadTooLarge: "Image file is too large. Please try a smaller image.",
}

const defaultUserMessage = "Please try again with a clearer image."

// Error is a failed recognition call. The operation is abandoned; callers may retry manually.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "recognition failed: " + string(e.Kind)
	}
	return fmt.Sprintf("recognition failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the single message shown to the user.
func (e *Error) UserMessage() string {
	if msg, ok := userMessages[e.Kind]; ok {
		return msg
	}
	return defaultUserMessage
}

// Service turns food photos into nutrition candidates.
type Service struct {
	client   vision.Client
	maxBytes int64
	logger   *zap.Logger
}

// NewService wires the recognition service. A nil client means no credential is configured.
func NewService(client vision.Client, maxBytes int64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{client: client, maxBytes: maxBytes, logger: logger}
}

// MaxImageBytes reports the upload limit; zero means unlimited.
func (s *Service) MaxImageBytes() int64 {
	return s.maxBytes
}

// Recognize sends the image to the vision provider once and decodes its reply.
func (s *Service) Recognize(ctx context.Context, image []byte, mimeType string) (models.FoodCandidate, error) {
	if s.client == nil {
		return models.FoodCandidate{}, &Error{Kind: KindCredential}
	}
	if len(image) == 0 {
		return models.FoodCandidate{}, &Error{Kind: KindEmptyImage}
	}
	if s.maxBytes > 0 && int64(len(image)) > s.maxBytes {
		return models.FoodCandidate{}, &Error{Kind: KindImageTooLarge, Err: fmt.Errorf("image is %d bytes, limit %d", len(image), s.maxBytes)}
	}

	reply, err := s.client.AnalyzeImage(ctx, vision.ImageRequest{
		Prompt:      Prompt,
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		MimeType:    mimeType,
	})
	if err != nil {
		rerr := classify(err)
		s.logger.Warn("food recognition failed", zap.String("kind", string(rerr.Kind)), zap.Error(err))
		return models.FoodCandidate{}, rerr
	}

	candidate, err := ParseCandidate(reply)
	if err != nil {
		s.logger.Warn("unusable recognition reply", zap.Error(err), zap.String("reply", reply))
		return models.FoodCandidate{}, err
	}

	s.logger.Info("food recognized", zap.String("name", candidate.Name), zap.Int("calories", candidate.Calories))
	return candidate, nil
}

func classify(err error) *Error {
	if errors.Is(err, vision.ErrEmptyResponse) {
		return &Error{Kind: KindMalformedResponse, Err: err}
	}

	var statusErr vision.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.HTTPStatus() {
		case http.StatusUnauthorized:
			return &Error{Kind: KindUnauthorized, Err: err}
		case http.StatusTooManyRequests:
			return &Error{Kind: KindRateLimited, Err: err}
		case http.StatusBadRequest:
			return &Error{Kind: KindBadRequest, Err: err}
		case http.StatusRequestEntityTooLarge:
			return &Error{Kind: KindPayloadTooLarge, Err: err}
		}
	}
	return &Error{Kind: KindTransport, Err: err}
}

// ParseCandidate decodes a model reply. If the reply is not JSON on its own, the span from
// the first '{' to the last '}' is tried. name and non-zero calories, protein, carbs and fat
// are required. Calories are rounded to an integer and macros to one decimal.
func ParseCandidate(reply string) (models.FoodCandidate, error) {
	text := strings.TrimSpace(reply)
	if !gjson.Valid(text) {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return models.FoodCandidate{}, &Error{Kind: KindMalformedResponse, Err: errors.New("no JSON found in response")}
		}
		text = text[start : end+1]
		if !gjson.Valid(text) {
			return models.FoodCandidate{}, &Error{Kind: KindMalformedResponse, Err: errors.New("embedded JSON is invalid")}
		}
	}

	doc := gjson.Parse(text)
	if !doc.IsObject() {
		return models.FoodCandidate{}, &Error{Kind: KindMalformedResponse, Err: errors.New("response is not a JSON object")}
	}

	name := doc.Get("name")
	if name.Type != gjson.String || strings.TrimSpace(name.String()) == "" {
		return models.FoodCandidate{}, &Error{Kind: KindIncomplete, Err: models.ErrIncompleteCandidate}
	}

	values := make(map[string]float64, 4)
	for _, key := range []string{"calories", "protein", "carbs", "fat"} {
		v := doc.Get(key)
		if v.Type != gjson.Number || v.Float() <= 0 {
			return models.FoodCandidate{}, &Error{Kind: KindIncomplete, Err: fmt.Errorf("%w: %s missing or not positive", models.ErrIncompleteCandidate, key)}
		}
		values[key] = v.Float()
	}

	return models.FoodCandidate{
		Name:     strings.TrimSpace(name.String()),
		Calories: int(math.Round(values["calories"])),
		Protein:  math.Round(values["protein"]*10) / 10,
		Carbs:    math.Round(values["carbs"]*10) / 10,
		Fat:      math.Round(values["fat"]*10) / 10,
	}, nil
}
