package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/caltrack/internal/domain/models"
	"github.com/mamadbah2/caltrack/internal/domain/nutrition"
	"github.com/mamadbah2/caltrack/internal/service/tracker"
)

type addEntryRequest struct {
	Candidate models.FoodCandidate `json:"candidate"`
	Choice    tracker.Choice       `json:"choice"`
}

type addEntryResponse struct {
	Entry    models.FoodEntry   `json:"entry"`
	Decision nutrition.Decision `json:"decision"`
}

// AddEntry logs a food according to the portion advice.
func (h *Handler) AddEntry(c *gin.Context) {
	var req addEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid entry payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, decision, err := h.tracker.AddFood(c.Request.Context(), req.Candidate, req.Choice)
	if errors.Is(err, models.ErrLimitReached) {
		c.JSON(http.StatusConflict, gin.H{"error": "daily calorie limit reached", "decision": decision})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, addEntryResponse{Entry: entry, Decision: decision})
}

// DeleteEntry removes an entry by timestamp.
func (h *Handler) DeleteEntry(c *gin.Context) {
	timestamp, err := strconv.ParseInt(c.Param("timestamp"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timestamp must be an integer"})
		return
	}

	if err := h.tracker.DeleteEntry(c.Request.Context(), timestamp); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ResetToday removes today's entries.
func (h *Handler) ResetToday(c *gin.Context) {
	removed, err := h.tracker.ResetToday(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
