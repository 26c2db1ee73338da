package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/caltrack/internal/domain/models"
)

// Onboard stores a new profile.
func (h *Handler) Onboard(c *gin.Context) {
	var p models.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		h.logger.Warn("invalid profile payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.tracker.Onboard(c.Request.Context(), p)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetProfile returns the profile and its daily goal.
func (h *Handler) GetProfile(c *gin.Context) {
	view, err := h.tracker.Profile(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Dashboard returns today's progress.
func (h *Handler) Dashboard(c *gin.Context) {
	dash, err := h.tracker.Dashboard(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dash)
}

// Reset performs a factory reset.
func (h *Handler) Reset(c *gin.Context) {
	if err := h.tracker.ResetAll(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
