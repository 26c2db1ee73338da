package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/caltrack/internal/domain/models"
	"github.com/mamadbah2/caltrack/internal/domain/nutrition"
	"github.com/mamadbah2/caltrack/internal/service/recognition"
)

type recognizeResponse struct {
	Candidate models.FoodCandidate `json:"candidate"`
	Decision  nutrition.Decision   `json:"decision"`
}

// Evaluate returns the portion advice for a candidate without logging it.
func (h *Handler) Evaluate(c *gin.Context) {
	var candidate models.FoodCandidate
	if err := c.ShouldBindJSON(&candidate); err != nil {
		h.logger.Warn("invalid candidate payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	decision, err := h.tracker.Evaluate(c.Request.Context(), candidate)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

// Recognize analyzes the uploaded "image" form file and evaluates the result.
func (h *Handler) Recognize(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	limit := h.recognizer.MaxImageBytes()
	if limit > 0 && fileHeader.Size > limit {
		h.writeError(c, imageTooLarge(fileHeader.Size, limit))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer file.Close()

	var src io.Reader = file
	if limit > 0 {
		src = io.LimitReader(file, limit+1)
	}
	image, err := io.ReadAll(src)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if limit > 0 && int64(len(image)) > limit {
		h.writeError(c, imageTooLarge(int64(len(image)), limit))
		return
	}

	ctx := c.Request.Context()
	candidate, err := h.recognizer.Recognize(ctx, image, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	decision, err := h.tracker.Evaluate(ctx, candidate)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, recognizeResponse{Candidate: candidate, Decision: decision})
}

func imageTooLarge(size, limit int64) error {
	return &recognition.Error{Kind: recognition.KindImageTooLarge, Err: fmt.Errorf("upload is %d bytes, limit %d", size, limit)}
}
