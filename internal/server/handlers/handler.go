package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/caltrack/internal/domain/models"
	"github.com/mamadbah2/caltrack/internal/domain/nutrition"
	"github.com/mamadbah2/caltrack/internal/service/recognition"
	"github.com/mamadbah2/caltrack/internal/service/tracker"
)

// Tracker is the application service behind the API.
type Tracker interface {
	Onboard(ctx context.Context, p models.Profile) (tracker.ProfileView, error)
	Profile(ctx context.Context) (tracker.ProfileView, error)
	Dashboard(ctx context.Context) (tracker.Dashboard, error)
	Evaluate(ctx context.Context, c models.FoodCandidate) (nutrition.Decision, error)
	AddFood(ctx context.Context, c models.FoodCandidate, choice tracker.Choice) (models.FoodEntry, nutrition.Decision, error)
	DeleteEntry(ctx context.Context, timestamp int64) error
	ResetToday(ctx context.Context) (int, error)
	ResetAll(ctx context.Context) error
	Location() *time.Location
}

// Recognizer turns an uploaded photo into a food candidate.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (models.FoodCandidate, error)
	MaxImageBytes() int64
}

// Reporter builds and exports daily summaries.
type Reporter interface {
	DailySummary(ctx context.Context, date time.Time) (models.DailySummary, error)
	ExportDay(ctx context.Context, date time.Time) error
}

// Handler exposes the tracker over JSON HTTP.
type Handler struct {
	tracker    Tracker
	recognizer Recognizer
	reports    Reporter
	logger     *zap.Logger
}

// NewHandler constructs the HTTP handler adapter.
func NewHandler(t Tracker, r Recognizer, reports Reporter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{tracker: t, recognizer: r, reports: reports, logger: logger}
}

var recognitionStatus = map[recognition.ErrorKind]int{
	recognition.KindCredential:      http.StatusServiceUnavailable,
	recognition.KindEmptyImage:      http.StatusBadRequest,
	recognition.KindImageTooLarge:   http.StatusRequestEntityTooLarge,
	recognition.KindPayloadTooLarge: http.StatusRequestEntityTooLarge,
	recognition.KindRateLimited:     http.StatusTooManyRequests,
	recognition.KindIncomplete:      http.StatusUnprocessableEntity,
}

// writeError maps domain and service errors to HTTP responses.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *models.ValidationError
	var rerr *recognition.Error

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile", "errors": verr.Fields})
	case errors.Is(err, models.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found, onboarding required"})
	case errors.Is(err, tracker.ErrEntryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrIncompleteCandidate):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "food is missing a name or nutrition values"})
	case errors.Is(err, tracker.ErrInvalidChoice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &rerr):
		status, ok := recognitionStatus[rerr.Kind]
		if !ok {
			status = http.StatusBadGateway
		}
		h.logger.Warn("food recognition failed", zap.String("kind", string(rerr.Kind)), zap.Error(err))
		c.JSON(status, gin.H{"error": rerr.UserMessage(), "kind": rerr.Kind})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
