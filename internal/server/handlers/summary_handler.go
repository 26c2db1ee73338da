package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/caltrack/internal/domain/models"
	"github.com/mamadbah2/caltrack/internal/service/reporting"
)

const dateLayout = "2006-01-02"

type summaryResponse struct {
	Summary models.DailySummary `json:"summary"`
	Text    string              `json:"text"`
}

// Summary returns the summary of ?date=YYYY-MM-DD, today by default.
func (h *Handler) Summary(c *gin.Context) {
	date, ok := h.parseDate(c)
	if !ok {
		return
	}

	summary, err := h.reports.DailySummary(c.Request.Context(), date)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, summaryResponse{Summary: summary, Text: reporting.FormatSummary(summary)})
}

// ExportSummary pushes the summary of ?date=YYYY-MM-DD to the configured sinks.
func (h *Handler) ExportSummary(c *gin.Context) {
	date, ok := h.parseDate(c)
	if !ok {
		return
	}

	if err := h.reports.ExportDay(c.Request.Context(), date); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"date": date.Format(dateLayout)})
}

func (h *Handler) parseDate(c *gin.Context) (time.Time, bool) {
	loc := h.tracker.Location()
	raw := c.Query("date")
	if raw == "" {
		return time.Now().In(loc), true
	}

	date, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must use the YYYY-MM-DD format"})
		return time.Time{}, false
	}
	return date, true
}
