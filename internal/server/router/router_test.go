package router

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/mamadbah2/caltrack/internal/domain/models"
	"github.com/mamadbah2/caltrack/internal/repository/memory"
	"github.com/mamadbah2/caltrack/internal/server/handlers"
	"github.com/mamadbah2/caltrack/internal/service/persistence"
	"github.com/mamadbah2/caltrack/internal/service/recognition"
	"github.com/mamadbah2/caltrack/internal/service/reporting"
	"github.com/mamadbah2/caltrack/internal/service/tracker"
)

const profileJSON = `{"name":"Sam","age":30,"weight":80,"height":180,"gender":"male","activityLevel":"medium","goal":"maintain"}`

type fakeRecognizer struct {
	candidate models.FoodCandidate
	err       error
	maxBytes  int64
	calls     int
	image     []byte
	mime      string
}

func (f *fakeRecognizer) Recognize(_ context.Context, image []byte, mimeType string) (models.FoodCandidate, error) {
	f.calls++
	f.image = image
	f.mime = mimeType
	return f.candidate, f.err
}

func (f *fakeRecognizer) MaxImageBytes() int64 {
	return f.maxBytes
}

type recordingSink struct {
	saved []models.DailySummary
}

func (r *recordingSink) SaveDailySummary(_ context.Context, s models.DailySummary) error {
	r.saved = append(r.saved, s)
	return nil
}

type apiFixture struct {
	engine     *gin.Engine
	recognizer *fakeRecognizer
	sink       *recordingSink
	now        time.Time
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	f := &apiFixture{
		recognizer: &fakeRecognizer{},
		sink:       &recordingSink{},
		now:        time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	gateway := persistence.NewGateway(memory.NewStore(), nil)
	svc := tracker.NewService(gateway, time.UTC, nil, tracker.WithClock(func() time.Time { return f.now }))
	reports := reporting.NewService(svc, nil, f.sink)

	f.engine = New(handlers.NewHandler(svc, f.recognizer, reports, nil), nil)
	return f
}

func (f *apiFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) upload(t *testing.T, image []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="meal.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/foods/recognize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := newAPI(t).do(http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestProfileLifecycle(t *testing.T) {
	api := newAPI(t)

	w := api.do(http.MethodGet, "/api/dashboard", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/api/profile", `{"name":"","age":12,"weight":80,"height":180,"gender":"male","activityLevel":"medium","goal":"maintain"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Age must be at least 15", gjson.Get(w.Body.String(), "errors.age").String())
	assert.Equal(t, "Name is required", gjson.Get(w.Body.String(), "errors.name").String())

	w = api.do(http.MethodPost, "/api/profile", `{"age":"thirty"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/profile", profileJSON)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2759), gjson.Get(w.Body.String(), "goal").Int())

	w = api.do(http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sam", gjson.Get(w.Body.String(), "profile.name").String())

	w = api.do(http.MethodPost, "/api/reset", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, "/api/profile", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEntriesFlow(t *testing.T) {
	api := newAPI(t)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/profile", profileJSON).Code)

	w := api.do(http.MethodPost, "/api/foods/evaluate", `{"name":"Pasta","calories":700,"protein":25,"carbs":90,"fat":20}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "normal_add", gjson.Get(w.Body.String(), "kind").String())

	w = api.do(http.MethodPost, "/api/foods/evaluate", `{"name":"Water","calories":0,"protein":0,"carbs":0,"fat":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = api.do(http.MethodPost, "/api/entries", `{"candidate":{"name":"Pasta","calories":2759,"protein":25,"carbs":90,"fat":20}}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "perfect_fit", gjson.Get(w.Body.String(), "decision.kind").String())
	timestamp := gjson.Get(w.Body.String(), "entry.timestamp").Int()
	assert.Equal(t, api.now.UnixMilli(), timestamp)

	api.now = api.now.Add(time.Minute)
	w = api.do(http.MethodPost, "/api/entries", `{"candidate":{"name":"Cake","calories":400,"protein":5,"carbs":50,"fat":18},"choice":"full"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "limit_reached", gjson.Get(w.Body.String(), "decision.kind").String())

	w = api.do(http.MethodPost, "/api/entries", `{"candidate":{"name":"Cake","calories":400,"protein":5,"carbs":50,"fat":18},"choice":"double"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, int64(2759), gjson.Get(body, "totals.calories").Int())
	assert.Equal(t, int64(0), gjson.Get(body, "remainingClamped").Int())
	assert.Equal(t, 100.0, gjson.Get(body, "progressPercent").Float())
	assert.Equal(t, int64(1), gjson.Get(body, "entries.#").Int())

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodDelete, "/api/entries/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/entries/1", "").Code)
	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/entries/"+strconv.FormatInt(timestamp, 10), "").Code)

	w = api.do(http.MethodPost, "/api/entries/reset-today", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":0}`, w.Body.String())
}

func TestRecognizeEndpoint(t *testing.T) {
	api := newAPI(t)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/profile", profileJSON).Code)

	api.recognizer.candidate = models.FoodCandidate{Name: "Burger", Calories: 650, Protein: 30, Carbs: 45, Fat: 35}
	w := api.upload(t, []byte("jpeg-bytes"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Burger", gjson.Get(w.Body.String(), "candidate.name").String())
	assert.Equal(t, "normal_add", gjson.Get(w.Body.String(), "decision.kind").String())
	assert.Equal(t, []byte("jpeg-bytes"), api.recognizer.image)
	assert.Equal(t, "image/jpeg", api.recognizer.mime)

	api.recognizer.err = &recognition.Error{Kind: recognition.KindRateLimited}
	w = api.upload(t, []byte("jpeg-bytes"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests. Please try again later.", gjson.Get(w.Body.String(), "error").String())

	api.recognizer.err = &recognition.Error{Kind: recognition.KindTransport}
	assert.Equal(t, http.StatusBadGateway, api.upload(t, []byte("jpeg-bytes")).Code)

	api.recognizer.err = &recognition.Error{Kind: recognition.KindCredential}
	assert.Equal(t, http.StatusServiceUnavailable, api.upload(t, []byte("jpeg-bytes")).Code)

	w = api.do(http.MethodPost, "/api/foods/recognize", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecognizeRejectsOversizedUpload(t *testing.T) {
	api := newAPI(t)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/profile", profileJSON).Code)
	api.recognizer.maxBytes = 8

	w := api.upload(t, bytes.Repeat([]byte("x"), 9))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "image_too_large", gjson.Get(w.Body.String(), "kind").String())
	assert.Zero(t, api.recognizer.calls)

	api.recognizer.candidate = models.FoodCandidate{Name: "Apple", Calories: 95, Protein: 0.5, Carbs: 25, Fat: 0.3}
	w = api.upload(t, bytes.Repeat([]byte("x"), 8))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, api.recognizer.calls)
	assert.Len(t, api.recognizer.image, 8)
}

func TestSummaryEndpoints(t *testing.T) {
	api := newAPI(t)
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/profile", profileJSON).Code)
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/entries", `{"candidate":{"name":"Salad","calories":350,"protein":12,"carbs":20,"fat":22}}`).Code)

	w := api.do(http.MethodGet, "/api/summary?date=2024-03-10", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, int64(350), gjson.Get(body, "summary.totals.calories").Int())
	assert.Equal(t, int64(1), gjson.Get(body, "summary.entries").Int())
	assert.Contains(t, gjson.Get(body, "text").String(), "350/2759 kcal")

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/summary?date=10/03/2024", "").Code)

	w = api.do(http.MethodPost, "/api/summary/export?date=2024-03-10", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, api.sink.saved, 1)
	assert.Equal(t, 350, api.sink.saved[0].Totals.Calories)
}
