package recognition

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/caltrack/internal/domain/models"
	"github.com/mamadbah2/caltrack/pkg/clients/gemini"
	"github.com/mamadbah2/caltrack/pkg/clients/vision"
)

type stubClient struct {
	reply string
	err   error
	calls int
	last  vision.ImageRequest
}

func (s *stubClient) AnalyzeImage(_ context.Context, req vision.ImageRequest) (string, error) {
	s.calls++
	s.last = req
	return s.reply, s.err
}

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatus() int { return int(e) }

func TestParseCandidate(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  models.FoodCandidate
	}{
		{
			name:  "plain json",
			reply: `{"name":"Banana","calories":105.4,"protein":1.29,"carbs":26.95,"fat":0.39}`,
			want:  models.FoodCandidate{Name: "Banana", Calories: 105, Protein: 1.3, Carbs: 27, Fat: 0.4},
		},
		{
			name:  "wrapped in prose",
			reply: "Here is the analysis:\n```json\n{\"name\": \"Caesar salad\", \"calories\": 480, \"protein\": 12, \"carbs\": 20.04, \"fat\": 38.25}\n```\nEnjoy!",
			want:  models.FoodCandidate{Name: "Caesar salad", Calories: 480, Protein: 12, Carbs: 20, Fat: 38.3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCandidate(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCandidateFailures(t *testing.T) {
	tests := map[string]struct {
		reply string
		kind  ErrorKind
	}{
		"no json":          {reply: "I cannot see any food.", kind: KindMalformedResponse},
		"broken json":      {reply: "result: {name: pizza}", kind: KindMalformedResponse},
		"array":            {reply: `[1,2]`, kind: KindMalformedResponse},
		"missing name":     {reply: `{"calories":100,"protein":1,"carbs":1,"fat":1}`, kind: KindIncomplete},
		"missing fat":      {reply: `{"name":"x","calories":100,"protein":1,"carbs":1}`, kind: KindIncomplete},
		"zero protein":     {reply: `{"name":"x","calories":100,"protein":0,"carbs":1,"fat":1}`, kind: KindIncomplete},
		"string calories":  {reply: `{"name":"x","calories":"100","protein":1,"carbs":1,"fat":1}`, kind: KindIncomplete},
		"negative value":   {reply: `{"name":"x","calories":-5,"protein":1,"carbs":1,"fat":1}`, kind: KindIncomplete},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCandidate(tt.reply)
			var rerr *Error
			require.True(t, errors.As(err, &rerr), "got %v", err)
			assert.Equal(t, tt.kind, rerr.Kind)
		})
	}
}

func TestRecognizeSendsBase64Image(t *testing.T) {
	client := &stubClient{reply: `{"name":"Toast","calories":150,"protein":5,"carbs":25,"fat":3.5}`}
	svc := NewService(client, 1024, nil)

	got, err := svc.Recognize(context.Background(), []byte{0xff, 0xd8, 0xff}, "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "Toast", got.Name)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, Prompt, client.last.Prompt)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff}), client.last.ImageBase64)
	assert.Equal(t, "image/jpeg", client.last.MimeType)
}

func TestRecognizeRejectsBeforeCalling(t *testing.T) {
	client := &stubClient{}

	_, err := NewService(nil, 1024, nil).Recognize(context.Background(), []byte("img"), "")
	assertKind(t, err, KindCredential)

	_, err = NewService(client, 4, nil).Recognize(context.Background(), []byte("12345"), "")
	assertKind(t, err, KindImageTooLarge)

	_, err = NewService(client, 4, nil).Recognize(context.Background(), nil, "")
	assertKind(t, err, KindEmptyImage)

	assert.Zero(t, client.calls)
}

func TestRecognizeClassifiesProviderErrors(t *testing.T) {
	tests := map[ErrorKind]error{
		KindUnauthorized:      statusErr(http.StatusUnauthorized),
		KindRateLimited:       fmt.Errorf("wrapped: %w", statusErr(http.StatusTooManyRequests)),
		KindBadRequest:        statusErr(http.StatusBadRequest),
		KindPayloadTooLarge:   statusErr(http.StatusRequestEntityTooLarge),
		KindTransport:         errors.New("connection refused"),
		KindMalformedResponse: vision.ErrEmptyResponse,
	}

	for kind, providerErr := range tests {
		t.Run(string(kind), func(t *testing.T) {
			client := &stubClient{err: providerErr}
			_, err := NewService(client, 1024, nil).Recognize(context.Background(), []byte("img"), "")
			assertKind(t, err, kind)
			assert.Equal(t, 1, client.calls, "no automatic retry")
		})
	}
}

func TestRecognizeClassifiesGeminiRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client, err := gemini.NewClient(context.Background(), gemini.Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = NewService(client, 1024, nil).Recognize(context.Background(), []byte("img"), "image/png")
	assertKind(t, err, KindRateLimited)
}

func TestUserMessages(t *testing.T) {
	assert.Equal(t, "Too many requests. Please try again later.", (&Error{Kind: KindRateLimited}).UserMessage())
	assert.Equal(t, "Please try again with a clearer image.", (&Error{Kind: KindTransport}).UserMessage())
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	var rerr *Error
	require.True(t, errors.As(err, &rerr), "got %v", err)
	assert.Equal(t, kind, rerr.Kind)
}
